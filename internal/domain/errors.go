// Package domain contains the core business entities for Ladle.
package domain

import (
	"errors"
	"fmt"
)

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.).

var (
	// ===========================================
	// User Errors
	// ===========================================

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates a user with the same email exists.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ===========================================
	// Token Errors
	// ===========================================

	// ErrTokenNotFound indicates the token does not exist or was revoked.
	ErrTokenNotFound = errors.New("token not found")

	// ===========================================
	// Attribute Errors (tags / ingredients)
	// ===========================================

	// ErrAttributeNotFound indicates the requested tag or ingredient does not
	// exist for the requesting owner. Cross-owner lookups report this error,
	// never a permission error.
	ErrAttributeNotFound = errors.New("attribute not found")

	// ErrInvalidAttributeName indicates the tag or ingredient name violates
	// the kind's limits.
	ErrInvalidAttributeName = errors.New("invalid attribute name")

	// ErrUnknownAttributeKind indicates an attribute kind outside tag/ingredient.
	ErrUnknownAttributeKind = errors.New("unknown attribute kind")

	// ===========================================
	// Recipe Errors
	// ===========================================

	// ErrRecipeNotFound indicates the requested recipe does not exist for the
	// requesting owner.
	ErrRecipeNotFound = errors.New("recipe not found")

	// ErrInvalidRecipe indicates a recipe field violates its constraints.
	ErrInvalidRecipe = errors.New("invalid recipe")

	// ErrInvalidPrice indicates a malformed or out-of-range price value.
	ErrInvalidPrice = errors.New("invalid price: must be a non-negative decimal with at most two decimal places")

	// ===========================================
	// Query Errors
	// ===========================================

	// ErrInvalidFilter indicates a malformed list filter parameter.
	ErrInvalidFilter = errors.New("invalid filter parameter")
)

// DomainError wraps a domain error with additional context.
type DomainError struct {
	// Err is the underlying domain error.
	Err error

	// Message provides additional context.
	Message string

	// Resource identifies the affected resource (e.g., recipe title, email).
	Resource string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Err.Error(), e.Message, e.Resource)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError with context.
func NewDomainError(err error, message, resource string) *DomainError {
	return &DomainError{
		Err:      err,
		Message:  message,
		Resource: resource,
	}
}
