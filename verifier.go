package paddlewebhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dawitel/paddle-webhook/billing"
)

// SignatureHeader is the HTTP header carrying the Paddle webhook signature.
const SignatureHeader = "Paddle-Signature"

// Verification failures. ErrServerMisconfigured is an operator problem and
// must stay distinguishable from a rejected forgery attempt.
var (
	ErrMissingInput        = errors.New("signature header or request body is missing")
	ErrServerMisconfigured = errors.New("webhook secret not configured")
	ErrMalformedSignature  = errors.New("malformed signature header")
	ErrSignatureMismatch   = errors.New("signature mismatch")
	ErrTimestampExpired    = errors.New("signature timestamp outside tolerance")
	ErrInvalidPayload      = errors.New("invalid event payload")
)

// Verifier authenticates webhook payloads against the shared endpoint secret.
type Verifier struct {
	secret    []byte
	tolerance time.Duration
}

// NewVerifier creates a new signature verifier. A zero tolerance disables
// timestamp freshness checking, which keeps replayed deliveries verifiable.
func NewVerifier(secret string, tolerance time.Duration) *Verifier {
	return &Verifier{
		secret:    []byte(secret),
		tolerance: tolerance,
	}
}

// Verify checks the Paddle-Signature header value against the raw request
// body. The body must be the exact bytes read from the wire; any
// re-serialization before this call invalidates the signature.
//
// Candidate signatures are hex-decoded before the constant-time comparison,
// so their case does not matter. Every h1 value in the header is tried and
// a single match accepts, which allows secret rotation on the provider side.
func (v *Verifier) Verify(rawBody []byte, signatureHeader string) error {
	if signatureHeader == "" || len(rawBody) == 0 {
		return ErrMissingInput
	}

	if len(v.secret) == 0 {
		return ErrServerMisconfigured
	}

	ts, candidates, err := parseSignatureHeader(signatureHeader)
	if err != nil {
		return err
	}

	if v.tolerance > 0 {
		if err := v.checkFreshness(ts); err != nil {
			return err
		}
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(ts))
	mac.Write([]byte(":"))
	mac.Write(rawBody)
	expected := mac.Sum(nil)

	for _, candidate := range candidates {
		decoded, err := hex.DecodeString(candidate)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			return nil
		}
	}

	return ErrSignatureMismatch
}

// VerifyAndParse verifies the signature and unmarshals the authenticated
// payload into an event. The body is never parsed before it is verified.
func (v *Verifier) VerifyAndParse(rawBody []byte, signatureHeader string) (*billing.Event, error) {
	if err := v.Verify(rawBody, signatureHeader); err != nil {
		return nil, err
	}

	var event billing.Event
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	return &event, nil
}

// checkFreshness rejects events whose signing timestamp is further than the
// configured tolerance from the local clock, in either direction.
func (v *Verifier) checkFreshness(ts string) error {
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid timestamp %q", ErrMalformedSignature, ts)
	}

	drift := time.Since(time.Unix(unix, 0))
	if drift < 0 {
		drift = -drift
	}
	if drift > v.tolerance {
		return ErrTimestampExpired
	}

	return nil
}

// parseSignatureHeader splits a "ts=<unix>;h1=<hex>" header into its signing
// timestamp and candidate signatures. Parts without '=' and unknown keys are
// ignored so new provider keys do not break verification.
func parseSignatureHeader(header string) (ts string, candidates []string, err error) {
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 || kv[1] == "" {
			continue
		}

		switch kv[0] {
		case "ts":
			ts = kv[1]
		case "h1":
			candidates = append(candidates, kv[1])
		}
	}

	if ts == "" {
		return "", nil, fmt.Errorf("%w: ts is missing", ErrMalformedSignature)
	}
	if len(candidates) == 0 {
		return "", nil, fmt.Errorf("%w: h1 is missing", ErrMalformedSignature)
	}

	return ts, candidates, nil
}
