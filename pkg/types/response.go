// Package types defines the wire envelopes shared by every endpoint.
package types

// SuccessEnvelope wraps every 2xx payload under a "data" key.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public error body. Details carry field-level validation
// output or gateway context only when the error code allows it.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
