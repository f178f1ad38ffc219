// Package auth inspects the static X-Auth-Token configured for the broker.
// Tokens are never refreshed; inspection only helps to report an expired
// JWT before the broker answers 401 on every request.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrOpaqueToken означает, что токен не является JWT (например, токен Keyrock)
	ErrOpaqueToken = errors.New("token is not a JWT")

	// ErrEmptyToken означает, что токен не задан
	ErrEmptyToken = errors.New("token is empty")
)

// TokenInfo содержит разобранные claims токена
type TokenInfo struct {
	ExpiresAt *time.Time // exp, nil если claim отсутствует
	Subject   string     // sub
	Issuer    string     // iss
}

// InspectToken parses token as a JWT without verifying the signature.
func InspectToken(token string) (*TokenInfo, error) {
	if token == "" {
		return nil, ErrEmptyToken
	}

	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpaqueToken, err)
	}

	info := &TokenInfo{
		Subject: claims.Subject,
		Issuer:  claims.Issuer,
	}
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.UTC()
		info.ExpiresAt = &exp
	}
	return info, nil
}

// Expired reports whether the token has an exp claim before now.
func (i *TokenInfo) Expired(now time.Time) bool {
	return i.ExpiresAt != nil && !now.Before(*i.ExpiresAt)
}
