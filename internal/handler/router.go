// Package handler provides the HTTP layer for the Ladle API.
package handler

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/prn-tf/ladle/internal/auth"
	"github.com/prn-tf/ladle/internal/repository"
	"github.com/prn-tf/ladle/internal/service"
	"github.com/prn-tf/ladle/internal/storage"
)

// Router assembles the API routes and middleware.
type Router struct {
	userHandler       *UserHandler
	tagHandler        *AttributeHandler
	ingredientHandler *AttributeHandler
	recipeHandler     *RecipeHandler
	authMiddleware    func(http.Handler) http.Handler
	images            storage.ImageStore
	dbHealth          repository.DatabaseHealth
	metrics           *Metrics
	metricsPath       string
	logger            zerolog.Logger
}

// RouterConfig contains the dependencies for the router.
type RouterConfig struct {
	UserHandler       *UserHandler
	TagHandler        *AttributeHandler
	IngredientHandler *AttributeHandler
	RecipeHandler     *RecipeHandler
	AuthMiddleware    func(http.Handler) http.Handler
	Images            storage.ImageStore
	DBHealth          repository.DatabaseHealth

	// Metrics is optional; when nil no metrics endpoint is mounted.
	Metrics     *Metrics
	MetricsPath string

	Logger zerolog.Logger
}

// NewRouter creates a new Router.
func NewRouter(config RouterConfig) *Router {
	return &Router{
		userHandler:       config.UserHandler,
		tagHandler:        config.TagHandler,
		ingredientHandler: config.IngredientHandler,
		recipeHandler:     config.RecipeHandler,
		authMiddleware:    config.AuthMiddleware,
		images:            config.Images,
		dbHealth:          config.DBHealth,
		metrics:           config.Metrics,
		metricsPath:       config.MetricsPath,
		logger:            config.Logger.With().Str("component", "router").Logger(),
	}
}

// Handler returns the main HTTP handler.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Collection routes are conventionally requested with a trailing
	// slash; both forms resolve to the same handler.
	r.Use(middleware.StripSlashes)
	r.Use(RequestLogger(rt.logger))
	if rt.metrics != nil {
		r.Use(rt.metrics.Middleware)
	}

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	// Unauthenticated routes
	r.Get("/health", rt.handleHealth)
	if rt.metrics != nil {
		r.Method(http.MethodGet, rt.metricsPath, rt.metrics.Handler())
	}
	r.Get("/media/*", rt.handleMedia)
	rt.userHandler.RegisterPublicRoutes(r)

	// Authenticated API routes
	r.Group(func(r chi.Router) {
		r.Use(rt.authMiddleware)
		rt.userHandler.RegisterProtectedRoutes(r)
		rt.tagHandler.RegisterRoutes(r, "/api/tags")
		rt.ingredientHandler.RegisterRoutes(r, "/api/ingredients")
		rt.recipeHandler.RegisterRoutes(r)
	})

	return r
}

// CreateAuthMiddleware creates an authentication middleware backed by the
// token service.
func CreateAuthMiddleware(tokens *service.TokenService) func(http.Handler) http.Handler {
	validator := auth.ValidatorFunc(func(ctx context.Context, token string) (*auth.Identity, error) {
		identity, err := tokens.Validate(ctx, token)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrUserInactive):
				return nil, auth.ErrUserInactive
			default:
				return nil, auth.ErrInvalidToken
			}
		}
		return &auth.Identity{UserID: identity.UserID, Email: identity.Email}, nil
	})
	return auth.Middleware(validator)
}

// handleHealth reports service and database health.
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := rt.dbHealth.Health(r.Context()); err != nil {
		rt.logger.Error().Err(err).Msg("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleMedia serves stored recipe images.
func (rt *Router) handleMedia(w http.ResponseWriter, r *http.Request) {
	imagePath := strings.TrimPrefix(r.URL.Path, "/media/")

	reader, err := rt.images.Open(r.Context(), imagePath)
	if err != nil {
		if errors.Is(err, storage.ErrImageNotFound) {
			notFound(w, r)
			return
		}
		writeError(w, err)
		return
	}
	defer reader.Close()

	if contentType := mime.TypeByExtension(path.Ext(imagePath)); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, reader); err != nil {
		rt.logger.Error().Err(err).Str("path", imagePath).Msg("failed to stream image")
	}
}
