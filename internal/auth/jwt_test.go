package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	m := NewJWTManager("test-secret", "wardwatch", time.Hour)
	userToken := uuid.NewString()

	signed, err := m.Generate(userToken, "resident")
	require.NoError(t, err)

	got, err := m.Validate(signed)
	require.NoError(t, err)
	assert.Equal(t, userToken, got)
}

func TestValidateRejects(t *testing.T) {
	m := NewJWTManager("test-secret", "wardwatch", time.Hour)
	userToken := uuid.NewString()

	otherSecret, err := NewJWTManager("other", "wardwatch", time.Hour).Generate(userToken, "")
	require.NoError(t, err)
	otherIssuer, err := NewJWTManager("test-secret", "elsewhere", time.Hour).Generate(userToken, "")
	require.NoError(t, err)
	expired, err := NewJWTManager("test-secret", "wardwatch", -time.Minute).Generate(userToken, "")
	require.NoError(t, err)
	badSubject, err := m.Generate("42", "")
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject: userToken, Issuer: "wardwatch", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"empty":        "",
		"garbage":      "not.a.jwt",
		"other secret": otherSecret,
		"other issuer": otherIssuer,
		"expired":      expired,
		"bad subject":  badSubject,
		"alg none":     none,
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := m.Validate(tok)
			assert.Error(t, err)
		})
	}
}
