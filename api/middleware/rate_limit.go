package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/memoria-ph/memoria-backend/api/responses"
	pkgerrors "github.com/memoria-ph/memoria-backend/pkg/errors"
	"github.com/memoria-ph/memoria-backend/pkg/logger"
)

type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimitPolicy defines the fixed-window parameters for a traffic surface.
type RateLimitPolicy struct {
	name   string
	window time.Duration
	limit  int64
}

// NewRateLimitPolicy builds a policy with the supplied window and limit.
// A zero window or limit disables the policy entirely.
func NewRateLimitPolicy(name string, window time.Duration, limit int) RateLimitPolicy {
	return RateLimitPolicy{
		name:   strings.ToLower(strings.TrimSpace(name)),
		window: window,
		limit:  int64(limit),
	}
}

func (p RateLimitPolicy) enabled() bool {
	return p.window > 0 && p.limit > 0
}

func (p RateLimitPolicy) normalizedName() string {
	if p.name == "" {
		return "default"
	}
	return p.name
}

// RateLimitByIP throttles a surface per client address. Meant for public
// endpoints where no authenticated subject exists.
func RateLimitByIP(policy RateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return rateLimit(policy, store, logg, "ip", func(r *http.Request) string {
		return clientIP(r)
	})
}

// RateLimitByUser throttles a surface per authenticated subject, falling
// back to the client address when the context carries no user id.
func RateLimitByUser(policy RateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return rateLimit(policy, store, logg, "user", func(r *http.Request) string {
		if id := UserIDFromContext(r.Context()); id != "" {
			return id
		}
		return clientIP(r)
	})
}

func rateLimit(policy RateLimitPolicy, store rateLimiterStore, logg *logger.Logger, scope string, subjectFn func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			subject := subjectFn(r)
			if subject == "" {
				next.ServeHTTP(w, r)
				return
			}

			key := policy.normalizedName() + ":" + scope + ":" + subject
			allowed, count, err := store.FixedWindowAllow(ctx, key, policy.limit, policy.window)
			if err != nil {
				// Counter store down. Let traffic through so a Redis outage
				// never blocks payments; downstream layers stay idempotent.
				if logg != nil {
					logg.Warn(ctx, "rate_limit.unavailable")
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				if logg != nil {
					fields := map[string]any{
						"policy":         policy.normalizedName(),
						"scope":          scope,
						"attempts":       count,
						"limit":          policy.limit,
						"window_seconds": int(policy.window.Seconds()),
					}
					logg.Warn(logg.WithFields(ctx, fields), "rate_limit.blocked")
				}
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
