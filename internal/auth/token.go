package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ayush/todo-api/internal/common"
	"github.com/ayush/todo-api/internal/models"
)

// Claims carries the account snapshot under "user", the shape the web client
// decodes.
type Claims struct {
	User models.AccountSnapshot `json:"user"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 bearer tokens. It never consults a
// store: a token reflects the account as it was when issued.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret []byte, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: secret, ttl: ttl, now: time.Now}
}

func (m *TokenManager) Issue(user models.AccountSnapshot) (string, error) {
	now := m.now()
	claims := Claims{
		User: user,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("auth.Issue: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the embedded snapshot.
// Failures wrap common.ErrTokenMalformed, common.ErrTokenSignatureInvalid or
// common.ErrTokenExpired.
func (m *TokenManager) Verify(tokenStr string) (*models.AccountSnapshot, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, classifyTokenError(err)
	}
	if !token.Valid {
		return nil, common.ErrTokenMalformed
	}

	return &claims.User, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", common.ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", common.ErrTokenSignatureInvalid, err)
	default:
		return fmt.Errorf("%w: %v", common.ErrTokenMalformed, err)
	}
}
