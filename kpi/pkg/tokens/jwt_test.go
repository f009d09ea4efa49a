package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	tg := NewTokenGenerator("test-secret-key-that-is-long-enough", time.Hour)

	token, err := tg.GenerateAccessToken("analyst-1", []string{"analyst"})
	require.NoError(t, err)

	claims, err := tg.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "analyst-1", claims.UserID)
	assert.Equal(t, Issuer, claims.Issuer)
	assert.True(t, claims.HasRole("analyst"))
	assert.False(t, claims.HasRole("admin"))
}

func TestNewTokenGenerator_DefaultTTL(t *testing.T) {
	assert.Equal(t, 15*time.Minute, NewTokenGenerator("s", 0).ttl)
}

func TestValidateAccessToken_Errors(t *testing.T) {
	secret := "test-secret-key-that-is-long-enough"
	tg := NewTokenGenerator(secret, time.Hour)

	sign := func(claims Claims, method jwt.SigningMethod, key interface{}) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	registered := func(issuer string, exp time.Time) jwt.RegisteredClaims {
		return jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(exp.Add(-time.Hour)),
		}
	}

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{
			name:  "expired",
			token: sign(Claims{UserID: "u", RegisteredClaims: registered(Issuer, time.Now().Add(-time.Minute))}, jwt.SigningMethodHS256, []byte(secret)),
			want:  ErrExpiredToken,
		},
		{
			name:  "wrong secret",
			token: sign(Claims{UserID: "u", RegisteredClaims: registered(Issuer, time.Now().Add(time.Hour))}, jwt.SigningMethodHS256, []byte("other")),
			want:  ErrInvalidToken,
		},
		{
			name:  "wrong issuer",
			token: sign(Claims{UserID: "u", RegisteredClaims: registered("someone-else", time.Now().Add(time.Hour))}, jwt.SigningMethodHS256, []byte(secret)),
			want:  ErrInvalidToken,
		},
		{
			name:  "not a token",
			token: "not.a.token",
			want:  ErrInvalidToken,
		},
		{
			name:  "unsigned",
			token: sign(Claims{UserID: "u", RegisteredClaims: registered(Issuer, time.Now().Add(time.Hour))}, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType),
			want:  ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tg.ValidateAccessToken(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
