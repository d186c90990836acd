package approval

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
)

// NewToken mints the opaque approval token stored on a request at creation.
// It backs the unauthenticated email-link decision path, so it must be
// unguessable; 32 random bytes hex-encoded.
func NewToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// TokenMatches compares a presented token against the stored one in constant
// time.
func TokenMatches(stored, presented string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
