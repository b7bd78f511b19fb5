// Package webhook verifies signed push notifications and triggers a
// deployment when a commit asks for one.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignatureHeader carries the payload signature.
const SignatureHeader = "X-Hub-Signature-256"

const signaturePrefix = "sha256="

// Sign returns the header value for body signed with secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature matches body under secret.
// A nil secret disables verification and always succeeds. The comparison
// runs in constant time.
func VerifySignature(secret *string, body []byte, signature string) bool {
	if secret == nil {
		return true
	}
	expected := Sign(*secret, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
