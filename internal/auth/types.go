// Package auth provides token authentication for the Ladle API.
package auth

import (
	"context"
	"errors"
)

// Auth errors.
var (
	// ErrMissingAuthorizationHeader indicates no Authorization header was sent.
	ErrMissingAuthorizationHeader = errors.New("authentication credentials were not provided")

	// ErrInvalidAuthorizationHeader indicates a malformed Authorization header.
	ErrInvalidAuthorizationHeader = errors.New("invalid authorization header")

	// ErrInvalidToken indicates the token is unknown or revoked.
	ErrInvalidToken = errors.New("invalid token")

	// ErrUserInactive indicates the token's owner can no longer authenticate.
	ErrUserInactive = errors.New("user inactive or deleted")
)

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	// UserID is the authenticated user's ID.
	UserID int64

	// Email is the authenticated user's email.
	Email string
}

// identityContextKey is the context key type for Identity.
type identityContextKey struct{}

// IdentityContextKey is the key used to store Identity in request context.
var IdentityContextKey = identityContextKey{}

// GetIdentity retrieves the authenticated identity from a context.
// Returns nil if the request was not authenticated.
func GetIdentity(ctx context.Context) *Identity {
	identity, _ := ctx.Value(IdentityContextKey).(*Identity)
	return identity
}

// WithIdentity returns a context carrying the identity.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, identity)
}
