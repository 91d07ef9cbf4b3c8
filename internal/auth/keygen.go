package auth

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// NewAPIKey generates a long-lived API key for a new user.
func NewAPIKey() string {
	return uuid.NewString()
}

// QuickHash returns a truncated SHA256 of an API key for use in cache keys,
// so raw keys never reach Redis. Not for password storage.
func QuickHash(input string) string {
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:16])
}
