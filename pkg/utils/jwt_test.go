package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims JWTClaims) string {
	t.Helper()
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	}
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestValidateAccessToken(t *testing.T) {
	m := NewJWTManager("secret", "", 0)

	claims, err := m.ValidateAccessToken(sign(t, jwt.SigningMethodHS256, []byte("secret"), JWTClaims{UserID: "u-1", Name: "Nimal"}))
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "Nimal", claims.Identity())
}

func TestValidateAccessTokenFallsBackToSubject(t *testing.T) {
	m := NewJWTManager("secret", "", 0)

	claims, err := m.ValidateAccessToken(sign(t, jwt.SigningMethodHS256, []byte("secret"), JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "sub-7"},
	}))
	require.NoError(t, err)
	assert.Equal(t, "sub-7", claims.UserID)
	assert.Equal(t, "sub-7", claims.Identity())
}

func TestValidateAccessTokenRejects(t *testing.T) {
	m := NewJWTManager("secret", "pos-idp", 0)

	cases := map[string]string{
		"wrong secret": sign(t, jwt.SigningMethodHS256, []byte("other"), JWTClaims{UserID: "u-1",
			RegisteredClaims: jwt.RegisteredClaims{Issuer: "pos-idp"}}),
		"wrong issuer": sign(t, jwt.SigningMethodHS256, []byte("secret"), JWTClaims{UserID: "u-1",
			RegisteredClaims: jwt.RegisteredClaims{Issuer: "elsewhere"}}),
		"other algorithm": sign(t, jwt.SigningMethodHS512, []byte("secret"), JWTClaims{UserID: "u-1",
			RegisteredClaims: jwt.RegisteredClaims{Issuer: "pos-idp"}}),
		"no subject": sign(t, jwt.SigningMethodHS256, []byte("secret"), JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{Issuer: "pos-idp"}}),
		"expired": sign(t, jwt.SigningMethodHS256, []byte("secret"), JWTClaims{UserID: "u-1",
			RegisteredClaims: jwt.RegisteredClaims{Issuer: "pos-idp", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))}}),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := m.ValidateAccessToken(token)
			assert.Error(t, err)
		})
	}
}

func TestValidateAccessTokenLeeway(t *testing.T) {
	token := sign(t, jwt.SigningMethodHS256, []byte("secret"), JWTClaims{UserID: "u-1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-10 * time.Second))}})

	_, err := NewJWTManager("secret", "", time.Minute).ValidateAccessToken(token)
	assert.NoError(t, err)
}
