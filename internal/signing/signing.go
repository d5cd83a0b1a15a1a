// Package signing implements the keyed HMAC used by the electronic signature
// ledger. The MAC binds a signing event to the workflow, the signer, the
// signing time and a random nonce, so a stored hash can later be recomputed
// and compared instead of being trusted on presence alone.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Signer generates and validates HMAC based signature hashes.
type Signer struct {
	secret []byte
}

// NewSigner creates a Signer.
func NewSigner(secret []byte) *Signer {
	return &Signer{secret: secret}
}

// Sign returns the hex MAC over workflowID:signerID:timestamp:nonce.
func (s *Signer) Sign(workflowID, signerID uint64, signedAt time.Time, nonce string) string {
	mac := hmac.New(sha256.New, s.secret)
	payload := fmt.Sprintf("%d:%d:%s:%s", workflowID, signerID, signedAt.UTC().Format(time.RFC3339Nano), nonce)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the MAC and compares it in constant time.
func (s *Signer) Verify(workflowID, signerID uint64, signedAt time.Time, nonce, signature string) bool {
	expected := s.Sign(workflowID, signerID, signedAt, nonce)
	return hmac.Equal([]byte(expected), []byte(signature))
}
