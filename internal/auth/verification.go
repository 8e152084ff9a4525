package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"
)

const verificationTokenBytes = 32

// VerificationTokens issues random account-verification tokens.
type VerificationTokens struct {
	ttl time.Duration
}

func NewVerificationTokens(ttl time.Duration) *VerificationTokens {
	return &VerificationTokens{ttl: ttl}
}

// Generate returns 32 random bytes encoded as unpadded base64url.
func (v *VerificationTokens) Generate() (string, error) {
	b := make([]byte, verificationTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("auth.Generate: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (v *VerificationTokens) ExpiryFrom(now time.Time) time.Time {
	return now.Add(v.ttl)
}
