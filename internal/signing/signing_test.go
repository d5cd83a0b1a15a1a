package signing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSignAndVerify(t *testing.T) {
	signer := NewSigner([]byte("test-secret"))
	signedAt := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	hash := signer.Sign(42, 7, signedAt, "nonce-1")
	assert.NotEmpty(t, hash)
	assert.True(t, signer.Verify(42, 7, signedAt, "nonce-1", hash))
}

func TestVerifyRejectsTamperedInputs(t *testing.T) {
	signer := NewSigner([]byte("test-secret"))
	signedAt := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	hash := signer.Sign(42, 7, signedAt, "nonce-1")

	assert.False(t, signer.Verify(43, 7, signedAt, "nonce-1", hash), "different workflow")
	assert.False(t, signer.Verify(42, 8, signedAt, "nonce-1", hash), "different signer")
	assert.False(t, signer.Verify(42, 7, signedAt.Add(time.Second), "nonce-1", hash), "different timestamp")
	assert.False(t, signer.Verify(42, 7, signedAt, "nonce-2", hash), "different nonce")
	assert.False(t, signer.Verify(42, 7, signedAt, "nonce-1", ""), "empty signature")
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	signedAt := time.Now()
	hash := NewSigner([]byte("key-a")).Sign(1, 2, signedAt, "n")
	assert.False(t, NewSigner([]byte("key-b")).Verify(1, 2, signedAt, "n", hash))
}

func TestSignIsDeterministicPerInputs(t *testing.T) {
	signer := NewSigner([]byte("k"))
	signedAt := time.Now()
	assert.Equal(t, signer.Sign(1, 2, signedAt, "n"), signer.Sign(1, 2, signedAt, "n"))
	assert.NotEqual(t, signer.Sign(1, 2, signedAt, "n"), signer.Sign(1, 2, signedAt, "m"))
}
