package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// TokenValidator resolves a raw token to an identity.
type TokenValidator interface {
	// Validate returns the identity owning the token, or an error when the
	// token is unknown, malformed, or its owner is inactive.
	Validate(ctx context.Context, token string) (*Identity, error)
}

// ValidatorFunc adapts a function to the TokenValidator interface.
type ValidatorFunc func(ctx context.Context, token string) (*Identity, error)

// Validate implements TokenValidator.
func (f ValidatorFunc) Validate(ctx context.Context, token string) (*Identity, error) {
	return f(ctx, token)
}

// Accepted Authorization header schemes. Clients send "Token <key>";
// "Bearer <key>" is accepted as a convenience.
var schemes = []string{"Token ", "Bearer "}

// Middleware creates a token authentication middleware. Requests without a
// valid token are rejected with 401; on success the resolved Identity is
// attached to the request context.
func Middleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := extractToken(r)
			if err != nil {
				writeAuthError(w, err)
				return
			}

			identity, err := validator.Validate(r.Context(), token)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("token authentication failed")
				writeAuthError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// extractToken pulls the raw token out of the Authorization header.
func extractToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingAuthorizationHeader
	}

	for _, scheme := range schemes {
		if len(header) > len(scheme) && strings.EqualFold(header[:len(scheme)], scheme) {
			token := strings.TrimSpace(header[len(scheme):])
			if token == "" {
				return "", ErrInvalidAuthorizationHeader
			}
			return token, nil
		}
	}

	return "", ErrInvalidAuthorizationHeader
}

// writeAuthError writes a 401 response with a JSON detail message.
func writeAuthError(w http.ResponseWriter, err error) {
	detail := "Invalid token."
	switch {
	case errors.Is(err, ErrMissingAuthorizationHeader):
		detail = "Authentication credentials were not provided."
	case errors.Is(err, ErrInvalidAuthorizationHeader):
		detail = "Invalid authorization header."
	case errors.Is(err, ErrUserInactive):
		detail = "User inactive or deleted."
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Token")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
