package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
)

// TTL is how long a confirmation token stays valid.
const TTL = 24 * time.Hour

// ErrInvalidLength is returned by Random for non-positive byte counts.
var ErrInvalidLength = errors.New("token: length must be positive")

// Generate returns a new random (version 4) UUID string.
func Generate() string {
	return uuid.NewString()
}

// Expiry returns the instant a token issued at now stops being valid.
func Expiry(now time.Time) time.Time {
	return now.Add(TTL)
}

// IsExpired reports whether now is strictly after expiry.
func IsExpired(expiry, now time.Time) bool {
	return now.After(expiry)
}

// Random returns n crypto-random bytes encoded as lowercase hex.
func Random(n int) (string, error) {
	if n <= 0 {
		return "", ErrInvalidLength
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
