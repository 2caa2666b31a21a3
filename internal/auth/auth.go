// Package auth verifies bearer tokens issued by the external identity
// service. Only verification happens here; issuance is out of scope.
package auth

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthorized covers every verification failure: missing header, wrong
// scheme, bad signature, expired token.
var ErrUnauthorized = errors.New("unauthorized")

// Claims are the token claims this core cares about.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Verifier validates HMAC-signed bearer tokens.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a verifier for the given shared secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// VerifyHeaders extracts and validates the Authorization header from an API
// Gateway request's header map. Header name lookup is case-insensitive, as
// the gateway forwards whichever casing the client sent.
func (v *Verifier) VerifyHeaders(headers map[string]string) (*Claims, error) {
	authHeader := ""
	for name, value := range headers {
		if strings.EqualFold(name, "Authorization") {
			authHeader = value
			break
		}
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, ErrUnauthorized
	}
	return v.Verify(strings.TrimPrefix(authHeader, "Bearer "))
}

// Verify parses and validates a raw token string.
func (v *Verifier) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrUnauthorized
	}
	return claims, nil
}
