package authclient

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pingoo/pingoo-client/pkg/kvstore"
)

func TestLoginLogout(t *testing.T) {
	ctx := t.Context()
	store := kvstore.NewMemory()

	require.NoError(t, Login(ctx, store, Credentials{AccessToken: "a", RefreshToken: "r"}))
	creds, err := LoadCredentials(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, Credentials{AccessToken: "a", RefreshToken: "r"}, creds)

	require.NoError(t, Logout(ctx, store))
	creds, err = LoadCredentials(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, Credentials{}, creds)

	// Logging out twice is fine.
	require.NoError(t, Logout(ctx, store))
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Unix(1_900_000_000, 0)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("server-secret"))
	require.NoError(t, err)

	got, err := TokenExpiry(signed)
	require.NoError(t, err)
	assert.True(t, exp.Equal(got))
}

func TestTokenExpiry_NoClaim(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "42"}).
		SignedString([]byte("server-secret"))
	require.NoError(t, err)

	_, err = TokenExpiry(signed)
	require.ErrorIs(t, err, ErrNoExpiry)
}

func TestTokenExpiry_Opaque(t *testing.T) {
	_, err := TokenExpiry("not-a-jwt")
	require.Error(t, err)
}
