// Package domain contains the core business entities for Ladle.
// These are pure Go structs with no external dependencies, representing
// the fundamental concepts of the recipe management system.
package domain

import (
	"strings"
	"time"
)

// User represents a registered user in the system.
// Users own recipes, tags and ingredients; every owned resource is scoped
// to exactly one user for its entire lifetime.
type User struct {
	// ID is the unique identifier for the user (auto-generated).
	ID int64 `json:"id"`

	// Email is the unique email address used for login.
	// The domain portion is stored lower-cased; the local part keeps its case.
	Email string `json:"email"`

	// Name is the display name shown in API responses.
	Name string `json:"name"`

	// PasswordHash is the bcrypt hash of the user's password.
	// This should never be exposed in API responses.
	PasswordHash string `json:"-"`

	// IsActive indicates whether the user account is active.
	// Inactive users cannot authenticate or perform any operations.
	IsActive bool `json:"is_active"`

	// IsStaff indicates whether the user can access administrative tooling.
	IsStaff bool `json:"is_staff"`

	// IsSuperuser indicates whether the user has full administrative rights.
	IsSuperuser bool `json:"-"`

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp when the user was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUser creates a new User with default values.
// The email is normalized before being stored.
func NewUser(email, name, passwordHash string) *User {
	now := time.Now().UTC()
	return &User{
		Email:        NormalizeEmail(email),
		Name:         name,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// CanAuthenticate returns true if the user is allowed to authenticate.
func (u *User) CanAuthenticate() bool {
	return u.IsActive
}

// NormalizeEmail lower-cases the domain portion of an email address while
// preserving the case of the local part. Uniqueness comparisons and storage
// both operate on the normalized form.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}
