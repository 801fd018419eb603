package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/ladle/internal/auth"
	"github.com/prn-tf/ladle/internal/domain"
	"github.com/prn-tf/ladle/internal/service"
)

// UserHandler handles user registration, token issuing and profile requests.
type UserHandler struct {
	userService  *service.UserService
	tokenService *service.TokenService
	logger       zerolog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *service.UserService, tokenService *service.TokenService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		userService:  userService,
		tokenService: tokenService,
		logger:       logger.With().Str("handler", "user").Logger(),
	}
}

// RegisterPublicRoutes registers the unauthenticated user routes.
func (h *UserHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/api/users", h.handleRegister)
	r.Post("/api/token", h.handleToken)
}

// RegisterProtectedRoutes registers the routes requiring a token.
func (h *UserHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Get("/api/users/me", h.handleMe)
	r.Patch("/api/users/me", h.handleUpdateMe)
	r.Put("/api/users/me", h.handleUpdateMe)
}

// userResponse is the public view of a user.
type userResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func newUserResponse(user *domain.User) userResponse {
	return userResponse{Email: user.Email, Name: user.Name}
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// handleRegister handles POST /api/users.
func (h *UserHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	output, err := h.userService.Register(r.Context(), service.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, newUserResponse(output.User))
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// handleToken handles POST /api/token.
func (h *UserHandler) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		writeBadRequest(w, "email and password are required")
		return
	}

	user, err := h.userService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	output, err := h.tokenService.Issue(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: output.Token})
}

// handleMe handles GET /api/users/me.
func (h *UserHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	identity := auth.GetIdentity(r.Context())

	user, err := h.userService.GetByID(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newUserResponse(user))
}

type updateMeRequest struct {
	Email    *string `json:"email"`
	Name     *string `json:"name"`
	Password *string `json:"password"`
}

// handleUpdateMe handles PATCH and PUT /api/users/me.
func (h *UserHandler) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	identity := auth.GetIdentity(r.Context())

	var req updateMeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), service.UpdateProfileInput{
		UserID:   identity.UserID,
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newUserResponse(user))
}
