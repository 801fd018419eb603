package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/ladle/internal/auth"
	"github.com/prn-tf/ladle/internal/service"
)

// AttributeHandler serves tag or ingredient endpoints. One instance is
// mounted per kind under its own path prefix.
type AttributeHandler struct {
	service *service.AttributeService
	logger  zerolog.Logger
}

// NewAttributeHandler creates a new AttributeHandler for the service's kind.
func NewAttributeHandler(svc *service.AttributeService, logger zerolog.Logger) *AttributeHandler {
	return &AttributeHandler{
		service: svc,
		logger:  logger.With().Str("handler", string(svc.Kind())).Logger(),
	}
}

// RegisterRoutes registers the attribute routes under the given prefix
// (e.g. "/api/tags"). The collection accepts GET only; attributes are
// created through recipes, so POST falls through to the 405 handler.
func (h *AttributeHandler) RegisterRoutes(r chi.Router, prefix string) {
	r.Get(prefix, h.handleList)
	r.Patch(prefix+"/{id}", h.handleUpdate)
	r.Put(prefix+"/{id}", h.handleUpdate)
	r.Delete(prefix+"/{id}", h.handleDelete)
}

// handleList handles GET on the collection.
func (h *AttributeHandler) handleList(w http.ResponseWriter, r *http.Request) {
	identity := auth.GetIdentity(r.Context())

	assignedOnly, err := parseBoolParam(r.URL.Query().Get("assigned_only"))
	if err != nil {
		writeBadRequest(w, "assigned_only must be 0 or 1")
		return
	}

	attrs, err := h.service.List(r.Context(), service.ListAttributesInput{
		OwnerID:      identity.UserID,
		AssignedOnly: assignedOnly,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, attrs)
}

type attributeUpdateRequest struct {
	Name string `json:"name"`
}

// handleUpdate handles PATCH and PUT on the detail route.
func (h *AttributeHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	identity := auth.GetIdentity(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	var req attributeUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	attr, err := h.service.Update(r.Context(), service.UpdateAttributeInput{
		OwnerID: identity.UserID,
		ID:      id,
		Name:    req.Name,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, attr)
}

// handleDelete handles DELETE on the detail route.
func (h *AttributeHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	identity := auth.GetIdentity(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	if err := h.service.Delete(r.Context(), identity.UserID, id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseIDParam parses the {id} URL parameter.
func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// parseBoolParam parses DRF-style boolean query values ("", "0", "1",
// "true", "false").
func parseBoolParam(raw string) (bool, error) {
	switch raw {
	case "", "0", "false":
		return false, nil
	case "1", "true":
		return true, nil
	default:
		return false, strconv.ErrSyntax
	}
}
