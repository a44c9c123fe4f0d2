package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records gateway and reconciliation activity.
type PaymentMetrics struct {
	invoiceDuration *prometheus.HistogramVec
	invoiceSuccess  prometheus.Counter
	invoiceFailure  prometheus.Counter
	webhookOutcomes *prometheus.CounterVec
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	invoiceDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "invoice_request_duration_seconds",
		Help:    "Duration of invoice gateway requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	invoiceSuccess := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "invoice_requests_success",
		Help: "Successful invoice gateway requests.",
	})
	invoiceFailure := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "invoice_requests_failure",
		Help: "Failed invoice gateway requests.",
	})
	webhookOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhook_events",
		Help: "Payment webhook callbacks by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(invoiceDuration, invoiceSuccess, invoiceFailure, webhookOutcomes)
	return &PaymentMetrics{
		invoiceDuration: invoiceDuration,
		invoiceSuccess:  invoiceSuccess,
		invoiceFailure:  invoiceFailure,
		webhookOutcomes: webhookOutcomes,
	}
}

// ObserveInvoiceDuration records how long a gateway call took.
func (p *PaymentMetrics) ObserveInvoiceDuration(operation string, duration time.Duration) {
	if p == nil || p.invoiceDuration == nil {
		return
	}
	p.invoiceDuration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncInvoiceSuccess increments the successful gateway request counter.
func (p *PaymentMetrics) IncInvoiceSuccess() {
	if p == nil || p.invoiceSuccess == nil {
		return
	}
	p.invoiceSuccess.Inc()
}

// IncInvoiceFailure increments the failed gateway request counter.
func (p *PaymentMetrics) IncInvoiceFailure() {
	if p == nil || p.invoiceFailure == nil {
		return
	}
	p.invoiceFailure.Inc()
}

// IncWebhookOutcome counts a webhook callback by its processing outcome.
// Outcomes are applied, duplicate, unmatched, ignored and rejected.
func (p *PaymentMetrics) IncWebhookOutcome(outcome string) {
	if p == nil || p.webhookOutcomes == nil {
		return
	}
	p.webhookOutcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
