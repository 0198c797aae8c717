package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Hasher produces and verifies password hashes using HMAC-SHA256 with a
// server-side secret, matching the hash format of the stored user records.
type Hasher struct {
	secret []byte
}

// NewHasher creates a Hasher with the given hashing secret.
func NewHasher(secret []byte) *Hasher {
	return &Hasher{secret: secret}
}

// Hash returns the hex-encoded HMAC-SHA256 of the password.
func (h *Hasher) Hash(password string) string {
	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte(password))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares the password against a stored hash in constant time.
func (h *Hasher) Verify(password, storedHash string) bool {
	computed := h.Hash(password)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}
