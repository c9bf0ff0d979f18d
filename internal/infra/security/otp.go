package security

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"
)

// GenerateOTP returns a 6-digit numeric one-time code drawn from crypto/rand.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// VerifyOTP checks a submitted code against the stored code and expiry.
// The comparison is constant time.
func VerifyOTP(submitted string, stored *string, expiry *time.Time, now time.Time) bool {
	if stored == nil || expiry == nil {
		return false
	}
	if now.After(*expiry) {
		return false
	}
	if len(submitted) != len(*stored) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(*stored)) == 1
}
