// Package service provides business logic services for Ladle.
package service

import "errors"

// Common service errors.
var (
	// User errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrUserInactive       = errors.New("user is inactive")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidPassword    = errors.New("invalid password: must be at least 8 characters")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrInvalidName        = errors.New("invalid name: must be 1-255 characters")

	// Token errors
	ErrInvalidToken = errors.New("invalid or expired token")

	// Recipe errors
	ErrInvalidFilter = errors.New("invalid filter: ids must be comma-separated integers")

	// General errors
	ErrInternalError = errors.New("internal server error")
)
