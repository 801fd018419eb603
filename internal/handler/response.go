// Package handler provides HTTP handlers for the Ladle API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/prn-tf/ladle/internal/domain"
	"github.com/prn-tf/ladle/internal/service"
	"github.com/prn-tf/ladle/internal/storage"
)

// errorResponse is the JSON error body: {"detail": "..."}.
type errorResponse struct {
	Detail string `json:"detail"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			log.Error().Err(err).Msg("failed to encode response")
		}
	}
}

// writeDetail writes an error body with the given status code.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// writeError maps domain and service errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrRecipeNotFound),
		errors.Is(err, domain.ErrAttributeNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, service.ErrUserNotFound):
		writeDetail(w, http.StatusNotFound, "Not found.")

	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrUserInactive):
		writeDetail(w, http.StatusBadRequest, "Unable to log in with provided credentials.")

	case errors.Is(err, service.ErrInvalidFilter),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrInvalidPassword),
		errors.Is(err, service.ErrInvalidName),
		errors.Is(err, service.ErrUserAlreadyExists),
		errors.Is(err, domain.ErrInvalidRecipe),
		errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrInvalidAttributeName),
		errors.Is(err, storage.ErrUnsupportedExtension):
		writeDetail(w, http.StatusBadRequest, err.Error())

	default:
		log.Error().Err(err).Msg("request failed")
		writeDetail(w, http.StatusInternalServerError, "Internal server error.")
	}
}

// decodeJSON decodes a JSON request body, rejecting unknown garbage early.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

// writeBadRequest writes a 400 with the given message.
func writeBadRequest(w http.ResponseWriter, detail string) {
	writeDetail(w, http.StatusBadRequest, detail)
}

// methodNotAllowed is the handler chi invokes for known paths with
// unsupported methods.
func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeDetail(w, http.StatusMethodNotAllowed, "Method \""+r.Method+"\" not allowed.")
}

// notFound is the handler for unknown paths.
func notFound(w http.ResponseWriter, r *http.Request) {
	writeDetail(w, http.StatusNotFound, "Not found.")
}
