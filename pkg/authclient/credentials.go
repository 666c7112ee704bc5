package authclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pingoo/pingoo-client/pkg/kvstore"
)

// ErrNoExpiry is returned by TokenExpiry for tokens without an exp claim.
var ErrNoExpiry = errors.New("token has no expiry")

// Credentials is the stored token pair.
type Credentials struct {
	AccessToken  string
	RefreshToken string
}

// Login stores a pair issued by the login flow.
func Login(ctx context.Context, store kvstore.Store, creds Credentials) error {
	if err := store.Set(ctx, AccessTokenKey, creds.AccessToken); err != nil {
		return fmt.Errorf("failed to store access token: %w", err)
	}
	if err := store.Set(ctx, RefreshTokenKey, creds.RefreshToken); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

// Logout deletes the stored pair.
func Logout(ctx context.Context, store kvstore.Store) error {
	return errors.Join(
		store.Delete(ctx, AccessTokenKey),
		store.Delete(ctx, RefreshTokenKey),
	)
}

// LoadCredentials reads the stored pair. Missing values are empty.
func LoadCredentials(ctx context.Context, store kvstore.Store) (Credentials, error) {
	access, err := kvstore.GetOrEmpty(ctx, store, AccessTokenKey)
	if err != nil {
		return Credentials{}, err
	}
	refresh, err := kvstore.GetOrEmpty(ctx, store, RefreshTokenKey)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{AccessToken: access, RefreshToken: refresh}, nil
}

// TokenExpiry reads the exp claim of a JWT without verifying its signature.
// The server stays the authority on validity; this is informational only.
func TokenExpiry(token string) (time.Time, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, fmt.Errorf("failed to parse token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}
	return claims.ExpiresAt.Time, nil
}
