package domain

import "time"

// TokenLength is the length of the opaque token key handed to clients.
const TokenLength = 40

// AuthToken represents an issued authentication token.
// Only the SHA-256 digest of the token key is persisted; the plaintext key
// exists solely in the authentication response.
type AuthToken struct {
	// ID is the unique identifier for the token row (auto-generated).
	ID int64 `json:"id"`

	// UserID is the ID of the user the token authenticates.
	UserID int64 `json:"user_id"`

	// Digest is the hex-encoded SHA-256 digest of the token key.
	Digest string `json:"-"`

	// CreatedAt is the timestamp when the token was issued.
	CreatedAt time.Time `json:"created_at"`

	// LastUsedAt is the timestamp of the most recent authenticated request.
	LastUsedAt time.Time `json:"last_used_at"`
}

// NewAuthToken creates a new AuthToken for the given user.
func NewAuthToken(userID int64, digest string) *AuthToken {
	now := time.Now().UTC()
	return &AuthToken{
		UserID:     userID,
		Digest:     digest,
		CreatedAt:  now,
		LastUsedAt: now,
	}
}
