package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/ladle/internal/auth"
	"github.com/prn-tf/ladle/internal/domain"
	"github.com/prn-tf/ladle/internal/service"
)

// RecipeHandler serves the recipe endpoints.
type RecipeHandler struct {
	service       *service.RecipeService
	maxUploadSize int64
	logger        zerolog.Logger
}

// NewRecipeHandler creates a new RecipeHandler.
func NewRecipeHandler(svc *service.RecipeService, maxUploadSize int64, logger zerolog.Logger) *RecipeHandler {
	return &RecipeHandler{
		service:       svc,
		maxUploadSize: maxUploadSize,
		logger:        logger.With().Str("handler", "recipe").Logger(),
	}
}

// RegisterRoutes registers the recipe routes.
func (h *RecipeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/recipes", h.handleList)
	r.Post("/api/recipes", h.handleCreate)
	r.Get("/api/recipes/{id}", h.handleDetail)
	r.Patch("/api/recipes/{id}", h.handleUpdate)
	r.Put("/api/recipes/{id}", h.handleUpdate)
	r.Delete("/api/recipes/{id}", h.handleDelete)
	r.Post("/api/recipes/{id}/upload-image", h.handleUploadImage)
}

// attributeRef references a tag or ingredient by name in request bodies.
type attributeRef struct {
	Name string `json:"name"`
}

func refNames(refs []attributeRef) []string {
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, ref.Name)
	}
	return names
}

// recipeListItem is the summary view returned by the collection route.
// Description and image are detail-only.
type recipeListItem struct {
	ID          int64               `json:"id"`
	Title       string              `json:"title"`
	TimeMinutes int                 `json:"time_minutes"`
	Price       domain.Price        `json:"price"`
	Link        string              `json:"link"`
	Tags        []*domain.Attribute `json:"tags"`
	Ingredients []*domain.Attribute `json:"ingredients"`
}

// recipeDetail is the full view returned by the detail routes.
type recipeDetail struct {
	recipeListItem
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
}

func newRecipeListItem(recipe *domain.Recipe) recipeListItem {
	item := recipeListItem{
		ID:          recipe.ID,
		Title:       recipe.Title,
		TimeMinutes: recipe.TimeMinutes,
		Price:       recipe.Price,
		Link:        recipe.Link,
		Tags:        recipe.Tags,
		Ingredients: recipe.Ingredients,
	}
	if item.Tags == nil {
		item.Tags = []*domain.Attribute{}
	}
	if item.Ingredients == nil {
		item.Ingredients = []*domain.Attribute{}
	}
	return item
}

func newRecipeDetail(recipe *domain.Recipe) recipeDetail {
	detail := recipeDetail{
		recipeListItem: newRecipeListItem(recipe),
		Description:    recipe.Description,
	}
	if recipe.ImagePath != "" {
		detail.Image = mediaURL(recipe.ImagePath)
	}
	return detail
}

// mediaURL maps a storage path to its public URL.
func mediaURL(path string) string {
	return "/media/" + path
}

// handleList handles GET /api/recipes.
func (h *RecipeHandler) handleList(w http.ResponseWriter, r *http.Request) {
	identity := auth.GetIdentity(r.Context())
	query := r.URL.Query()

	recipes, err := h.service.List(r.Context(), service.ListRecipesInput{
		OwnerID:       identity.UserID,
		TagIDs:        query.Get("tags"),
		IngredientIDs: query.Get("ingredients"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	items := make([]recipeListItem, 0, len(recipes))
	for _, recipe := range recipes {
		items = append(items, newRecipeListItem(recipe))
	}

	writeJSON(w, http.StatusOK, items)
}

// recipeRequest is a partial recipe payload. POST requires title,
// time_minutes and price; PATCH accepts any subset.
type recipeRequest struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	TimeMinutes *int            `json:"time_minutes"`
	Price       *domain.Price   `json:"price"`
	Link        *string         `json:"link"`
	Tags        *[]attributeRef `json:"tags"`
	Ingredients *[]attributeRef `json:"ingredients"`
}

// handleCreate handles POST /api/recipes.
func (h *RecipeHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	identity := auth.GetIdentity(r.Context())

	var req recipeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.Title == nil || req.TimeMinutes == nil || req.Price == nil {
		writeBadRequest(w, "title, time_minutes and price are required")
		return
	}

	input := service.CreateRecipeInput{
		OwnerID:     identity.UserID,
		Title:       *req.Title,
		TimeMinutes: *req.TimeMinutes,
		Price:       *req.Price,
	}
	if req.Description != nil {
		input.Description = *req.Description
	}
	if req.Link != nil {
		input.Link = *req.Link
	}
	if req.Tags != nil {
		input.Tags = refNames(*req.Tags)
	}
	if req.Ingredients != nil {
		input.Ingredients = refNames(*req.Ingredients)
	}

	recipe, err := h.service.Create(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, newRecipeDetail(recipe))
}

// handleDetail handles GET /api/recipes/{id}.
func (h *RecipeHandler) handleDetail(w http.ResponseWriter, r *http.Request) {
	identity := auth.GetIdentity(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	recipe, err := h.service.Get(r.Context(), identity.UserID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newRecipeDetail(recipe))
}

// handleUpdate handles PATCH and PUT /api/recipes/{id}.
func (h *RecipeHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	identity := auth.GetIdentity(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	var req recipeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	input := service.UpdateRecipeInput{
		OwnerID:     identity.UserID,
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		TimeMinutes: req.TimeMinutes,
		Price:       req.Price,
		Link:        req.Link,
	}
	if req.Tags != nil {
		names := refNames(*req.Tags)
		input.Tags = &names
	}
	if req.Ingredients != nil {
		names := refNames(*req.Ingredients)
		input.Ingredients = &names
	}

	recipe, err := h.service.Update(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newRecipeDetail(recipe))
}

// handleDelete handles DELETE /api/recipes/{id}.
func (h *RecipeHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
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

// handleUploadImage handles POST /api/recipes/{id}/upload-image with a
// multipart "image" field.
func (h *RecipeHandler) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	identity := auth.GetIdentity(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		writeBadRequest(w, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeBadRequest(w, "image file is required")
		return
	}
	defer file.Close()

	recipe, err := h.service.AttachImage(r.Context(), service.AttachImageInput{
		OwnerID:  identity.UserID,
		RecipeID: id,
		Filename: header.Filename,
		Body:     file,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newRecipeDetail(recipe))
}
