// Package payments fronts the payment provider and verifies the signatures
// it hands back to the storefront client.
package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// SignatureVerifier checks provider signatures over the order and payment
// identifier pair. Verification fails closed: any malformed input counts as
// an invalid signature.
type SignatureVerifier struct {
	secret []byte
}

// NewSignatureVerifier builds a verifier around the shared provider secret.
func NewSignatureVerifier(secret string) (*SignatureVerifier, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("payments: signature secret is required")
	}
	return &SignatureVerifier{secret: []byte(secret)}, nil
}

// Verify reports whether signature is the hex encoded HMAC-SHA256 of
// "<providerOrderID>|<paymentID>" under the shared secret. Comparison is
// constant time.
func (v *SignatureVerifier) Verify(providerOrderID, paymentID, signature string) bool {
	providerOrderID = strings.TrimSpace(providerOrderID)
	paymentID = strings.TrimSpace(paymentID)
	signature = strings.TrimSpace(signature)
	if providerOrderID == "" || paymentID == "" || signature == "" {
		return false
	}

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, v.secret)
	_, _ = mac.Write([]byte(providerOrderID + "|" + paymentID))
	return hmac.Equal(provided, mac.Sum(nil))
}
