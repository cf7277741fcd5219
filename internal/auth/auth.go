// Package auth issues and verifies the bearer credentials that authorize
// onboarding calls, and hashes provider passwords.
//
// Tokens are HS256 JWTs whose subject is the provider ID (the session
// anchor). A missing or invalid credential is a precondition failure for the
// onboarding flow, never a retryable error.
package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// DefaultTokenTTL is the token lifetime used when none is configured.
const DefaultTokenTTL = 24 * time.Hour

// Error variables for credential failures
var (
	ErrMissingSecret = errors.New("token secret not set")
	ErrInvalidToken  = errors.New("invalid or expired token")
)

// TokenIssuer signs and verifies bearer tokens for providers.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates a token issuer with the given signing secret and
// token lifetime. A zero ttl selects DefaultTokenTTL.
func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		slog.Error("TokenIssuer secret not set")
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}, nil
}

// Issue signs a bearer token for the given provider ID.
func (t *TokenIssuer) Issue(providerID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   providerID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		slog.Error("TokenIssuer Issue failed", "error", err, "providerID", providerID)
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	slog.Debug("TokenIssuer Issue succeeded", "providerID", providerID)
	return signed, nil
}

// Verify parses a bearer token and returns the provider ID it was issued for.
func (t *TokenIssuer) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		slog.Debug("TokenIssuer Verify rejected token", "error", err)
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// HashPassword hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
