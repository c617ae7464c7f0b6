// Package webhook provides HMAC-SHA256 authentication for inbound webhook
// requests from the EMR integration broker. The broker signs the raw request
// body with a shared secret and sends the hex digest in a signature header
// prefixed with "sha256=".
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/rs/zerolog"
)

// SignatureHeader is the request header carrying the broker's signature.
const SignatureHeader = "X-Redox-Signature"

const signaturePrefix = "sha256="

// Sign computes the hex-encoded HMAC-SHA256 of payload under secret.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verifier authenticates inbound webhook bodies against a shared secret.
// An empty secret puts the verifier in open mode: every request is accepted
// and a warning is logged, so the degraded state is visible in logs.
type Verifier struct {
	secret string
	logger zerolog.Logger
}

// NewVerifier creates a Verifier. secret may be empty for non-production
// deployments that have not exchanged a secret with the broker yet.
func NewVerifier(secret string, logger zerolog.Logger) *Verifier {
	return &Verifier{secret: secret, logger: logger}
}

// Enabled reports whether signature verification is active.
func (v *Verifier) Enabled() bool {
	return v.secret != ""
}

// Verify checks the signature header against the HMAC-SHA256 of the raw
// request body. It never returns an error: any missing or malformed input
// yields false. The digest comparison is constant time so the check cannot
// leak the position of the first mismatching byte.
func (v *Verifier) Verify(rawBody []byte, signatureHeader string) bool {
	if v.secret == "" {
		v.logger.Warn().Msg("webhook signature verification disabled, accepting unauthenticated request")
		return true
	}
	if signatureHeader == "" {
		return false
	}

	got := strings.TrimPrefix(signatureHeader, signaturePrefix)
	want := Sign(rawBody, v.secret)

	// hmac.Equal compares the full length regardless of where bytes differ.
	return hmac.Equal([]byte(want), []byte(got))
}
