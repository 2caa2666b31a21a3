package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranzor/tranzor-core/internal/auth"
)

const secret = "test-secret"

func signedToken(t *testing.T, key string, expiresIn time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		UserID: "user-1",
		Email:  "user@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	})
	signed, err := token.SignedString([]byte(key))
	require.NoError(t, err)
	return signed
}

func TestVerifyHeaders(t *testing.T) {
	v := auth.NewVerifier(secret)
	valid := signedToken(t, secret, time.Hour)

	tests := []struct {
		name    string
		headers map[string]string
		wantErr bool
	}{
		{"valid", map[string]string{"Authorization": "Bearer " + valid}, false},
		{"lowercase header", map[string]string{"authorization": "Bearer " + valid}, false},
		{"missing header", map[string]string{}, true},
		{"wrong scheme", map[string]string{"Authorization": "Basic " + valid}, true},
		{"garbage token", map[string]string{"Authorization": "Bearer not.a.token"}, true},
		{"wrong secret", map[string]string{"Authorization": "Bearer " + signedToken(t, "other", time.Hour)}, true},
		{"expired", map[string]string{"Authorization": "Bearer " + signedToken(t, secret, -time.Hour)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := v.VerifyHeaders(tt.headers)
			if tt.wantErr {
				assert.ErrorIs(t, err, auth.ErrUnauthorized)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "user-1", claims.UserID)
			assert.Equal(t, "user@example.com", claims.Email)
		})
	}
}
