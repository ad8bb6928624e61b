package paddlewebhook

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	webhookRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paddlewebhook_requests_total",
		Help: "Inbound webhook requests by outcome.",
	}, []string{"outcome"})

	verificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paddlewebhook_verification_failures_total",
		Help: "Signature verification failures by reason.",
	}, []string{"reason"})

	customerLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paddlewebhook_customer_lookups_total",
		Help: "Paddle customer API lookups by status.",
	}, []string{"status"})
)

// verificationReason maps a verification failure to its metric label. The
// misconfigured label separates operator errors from forgery attempts.
func verificationReason(err error) string {
	switch {
	case errors.Is(err, ErrMissingInput):
		return "missing_input"
	case errors.Is(err, ErrServerMisconfigured):
		return "misconfigured"
	case errors.Is(err, ErrMalformedSignature):
		return "malformed_signature"
	case errors.Is(err, ErrTimestampExpired):
		return "timestamp_expired"
	case errors.Is(err, ErrSignatureMismatch):
		return "signature_mismatch"
	case errors.Is(err, ErrInvalidPayload):
		return "invalid_payload"
	default:
		return "unknown"
	}
}
