package api

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminAuth_IssueAndVerify(t *testing.T) {
	auth := NewAdminAuth("secret", "loan-origination")
	token, err := auth.Issue("ops", time.Minute)
	require.NoError(t, err)

	claims, err := auth.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.Equal(t, adminRole, claims.Role)
}

func TestAdminAuth_RejectsBadTokens(t *testing.T) {
	auth := NewAdminAuth("secret", "loan-origination")

	expired, err := auth.Issue("ops", -time.Minute)
	require.NoError(t, err)

	otherIssuer, err := NewAdminAuth("secret", "someone-else").Issue("ops", time.Minute)
	require.NoError(t, err)

	otherKey, err := NewAdminAuth("other", "loan-origination").Issue("ops", time.Minute)
	require.NoError(t, err)

	noRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, AdminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "loan-origination",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, AdminClaims{Role: adminRole}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":      expired,
		"other issuer": otherIssuer,
		"other key":    otherKey,
		"no role":      noRole,
		"alg none":     unsigned,
		"garbage":      "a.b.c",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := auth.Verify(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
