package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/ladle/internal/domain"
	"github.com/prn-tf/ladle/internal/lock"
	"github.com/prn-tf/ladle/internal/repository"
	"github.com/prn-tf/ladle/internal/storage"
)

// Reconcile lock settings. The lock only narrows the get-or-create race
// window; losing it falls back to unserialized creation, which at worst
// leaves a duplicate name that GetByName resolves consistently.
const (
	reconcileLockTTL      = 5 * time.Second
	reconcileLockRetries  = 3
	reconcileLockInterval = 100 * time.Millisecond
)

// RecipeService handles recipe CRUD, filtering and image uploads.
type RecipeService struct {
	recipeRepo     repository.RecipeRepository
	tagRepo        repository.AttributeRepository
	ingredientRepo repository.AttributeRepository
	locker         lock.Locker
	images         storage.ImageStore
	logger         zerolog.Logger
}

// NewRecipeService creates a new RecipeService.
func NewRecipeService(
	recipeRepo repository.RecipeRepository,
	tagRepo repository.AttributeRepository,
	ingredientRepo repository.AttributeRepository,
	locker lock.Locker,
	images storage.ImageStore,
	logger zerolog.Logger,
) *RecipeService {
	return &RecipeService{
		recipeRepo:     recipeRepo,
		tagRepo:        tagRepo,
		ingredientRepo: ingredientRepo,
		locker:         locker,
		images:         images,
		logger:         logger.With().Str("service", "recipe").Logger(),
	}
}

// CreateRecipeInput contains the data needed to create a recipe.
// Tags and Ingredients are names; existing (owner, name) pairs are reused,
// the rest are created.
type CreateRecipeInput struct {
	OwnerID     int64
	Title       string
	Description string
	TimeMinutes int
	Price       domain.Price
	Link        string
	Tags        []string
	Ingredients []string
}

// Create creates a recipe with its tags and ingredients.
func (s *RecipeService) Create(ctx context.Context, input CreateRecipeInput) (*domain.Recipe, error) {
	recipe := domain.NewRecipe(input.OwnerID, input.Title, input.TimeMinutes, input.Price)
	recipe.Description = input.Description
	recipe.Link = input.Link

	if err := recipe.Validate(); err != nil {
		return nil, err
	}
	if err := s.validateNames(domain.KindTag, input.Tags); err != nil {
		return nil, err
	}
	if err := s.validateNames(domain.KindIngredient, input.Ingredients); err != nil {
		return nil, err
	}

	if err := s.recipeRepo.Create(ctx, recipe); err != nil {
		s.logger.Error().Err(err).Msg("failed to create recipe")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if err := s.setAttributes(ctx, recipe, domain.KindTag, input.Tags); err != nil {
		return nil, err
	}
	if err := s.setAttributes(ctx, recipe, domain.KindIngredient, input.Ingredients); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("recipe_id", recipe.ID).
		Int64("owner_id", recipe.UserID).
		Msg("recipe created")

	return s.Get(ctx, recipe.UserID, recipe.ID)
}

// Get retrieves one of the owner's recipes with associations loaded.
func (s *RecipeService) Get(ctx context.Context, ownerID, id int64) (*domain.Recipe, error) {
	recipe, err := s.recipeRepo.Get(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, domain.ErrRecipeNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return recipe, nil
}

// ListRecipesInput filters a recipe listing. TagIDs and IngredientIDs are
// the raw comma-separated query values; empty strings mean no filter.
type ListRecipesInput struct {
	OwnerID       int64
	TagIDs        string
	IngredientIDs string
}

// List returns the owner's recipes, newest first. When both filters are
// present a recipe must match each of them.
func (s *RecipeService) List(ctx context.Context, input ListRecipesInput) ([]*domain.Recipe, error) {
	tagIDs, err := parseIDList(input.TagIDs)
	if err != nil {
		return nil, err
	}
	ingredientIDs, err := parseIDList(input.IngredientIDs)
	if err != nil {
		return nil, err
	}

	recipes, err := s.recipeRepo.List(ctx, repository.RecipeQuery{
		OwnerID:       input.OwnerID,
		TagIDs:        tagIDs,
		IngredientIDs: ingredientIDs,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list recipes")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if recipes == nil {
		recipes = []*domain.Recipe{}
	}
	return recipes, nil
}

// UpdateRecipeInput contains a partial recipe update. Nil fields are left
// untouched; a present but empty Tags or Ingredients slice clears the set.
type UpdateRecipeInput struct {
	OwnerID     int64
	ID          int64
	Title       *string
	Description *string
	TimeMinutes *int
	Price       *domain.Price
	Link        *string
	Tags        *[]string
	Ingredients *[]string
}

// Update applies a partial update to one of the owner's recipes.
func (s *RecipeService) Update(ctx context.Context, input UpdateRecipeInput) (*domain.Recipe, error) {
	recipe, err := s.recipeRepo.Get(ctx, input.OwnerID, input.ID)
	if err != nil {
		if errors.Is(err, domain.ErrRecipeNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if input.Title != nil {
		recipe.Title = *input.Title
	}
	if input.Description != nil {
		recipe.Description = *input.Description
	}
	if input.TimeMinutes != nil {
		recipe.TimeMinutes = *input.TimeMinutes
	}
	if input.Price != nil {
		recipe.Price = *input.Price
	}
	if input.Link != nil {
		recipe.Link = *input.Link
	}

	if err := recipe.Validate(); err != nil {
		return nil, err
	}
	if input.Tags != nil {
		if err := s.validateNames(domain.KindTag, *input.Tags); err != nil {
			return nil, err
		}
	}
	if input.Ingredients != nil {
		if err := s.validateNames(domain.KindIngredient, *input.Ingredients); err != nil {
			return nil, err
		}
	}

	if err := s.recipeRepo.Update(ctx, recipe); err != nil {
		if errors.Is(err, domain.ErrRecipeNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Int64("recipe_id", recipe.ID).Msg("failed to update recipe")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if input.Tags != nil {
		if err := s.setAttributes(ctx, recipe, domain.KindTag, *input.Tags); err != nil {
			return nil, err
		}
	}
	if input.Ingredients != nil {
		if err := s.setAttributes(ctx, recipe, domain.KindIngredient, *input.Ingredients); err != nil {
			return nil, err
		}
	}

	return s.Get(ctx, input.OwnerID, input.ID)
}

// Delete removes one of the owner's recipes and its stored image.
func (s *RecipeService) Delete(ctx context.Context, ownerID, id int64) error {
	recipe, err := s.recipeRepo.Get(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, domain.ErrRecipeNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if err := s.recipeRepo.Delete(ctx, ownerID, id); err != nil {
		if errors.Is(err, domain.ErrRecipeNotFound) {
			return err
		}
		s.logger.Error().Err(err).Int64("recipe_id", id).Msg("failed to delete recipe")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if recipe.ImagePath != "" {
		if err := s.images.Delete(ctx, recipe.ImagePath); err != nil {
			s.logger.Warn().Err(err).Str("path", recipe.ImagePath).Msg("failed to delete recipe image")
		}
	}

	s.logger.Info().Int64("owner_id", ownerID).Int64("recipe_id", id).Msg("recipe deleted")
	return nil
}

// AttachImageInput contains an image upload for a recipe.
type AttachImageInput struct {
	OwnerID  int64
	RecipeID int64
	Filename string
	Body     io.Reader
}

// AttachImage stores an uploaded image and links it to the recipe. A
// previously stored image is deleted after the new one is in place.
func (s *RecipeService) AttachImage(ctx context.Context, input AttachImageInput) (*domain.Recipe, error) {
	recipe, err := s.recipeRepo.Get(ctx, input.OwnerID, input.RecipeID)
	if err != nil {
		if errors.Is(err, domain.ErrRecipeNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	imagePath, err := s.images.Store(ctx, input.Body, input.Filename)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedExtension) {
			return nil, err
		}
		s.logger.Error().Err(err).Int64("recipe_id", recipe.ID).Msg("failed to store image")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	previous := recipe.ImagePath
	recipe.ImagePath = imagePath

	if err := s.recipeRepo.Update(ctx, recipe); err != nil {
		// Roll back the orphaned upload.
		if delErr := s.images.Delete(ctx, imagePath); delErr != nil {
			s.logger.Warn().Err(delErr).Str("path", imagePath).Msg("failed to clean up orphaned image")
		}
		s.logger.Error().Err(err).Int64("recipe_id", recipe.ID).Msg("failed to link image")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if previous != "" {
		if err := s.images.Delete(ctx, previous); err != nil {
			s.logger.Warn().Err(err).Str("path", previous).Msg("failed to delete replaced image")
		}
	}

	s.logger.Info().
		Int64("recipe_id", recipe.ID).
		Str("path", imagePath).
		Msg("recipe image attached")

	return recipe, nil
}

// setAttributes reconciles names to attribute IDs and replaces the
// recipe's association set of that kind.
func (s *RecipeService) setAttributes(ctx context.Context, recipe *domain.Recipe, kind domain.AttributeKind, names []string) error {
	ids, err := s.reconcileAttributes(ctx, recipe.UserID, kind, names)
	if err != nil {
		return err
	}

	if err := s.recipeRepo.SetAttributes(ctx, recipe.ID, kind, ids); err != nil {
		s.logger.Error().Err(err).Int64("recipe_id", recipe.ID).Msg("failed to set recipe attributes")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return nil
}

// reconcileAttributes maps names to attribute IDs, creating attributes the
// owner doesn't have yet. Existing names are matched case sensitively;
// duplicate rows resolve to the oldest. Get-or-create for each name is
// serialized by a per-name lock to keep concurrent requests from creating
// the same attribute twice.
func (s *RecipeService) reconcileAttributes(ctx context.Context, ownerID int64, kind domain.AttributeKind, names []string) ([]int64, error) {
	repo := s.attributeRepo(kind)
	ids := make([]int64, 0, len(names))
	seen := make(map[string]bool, len(names))

	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		id, err := s.getOrCreateAttribute(ctx, repo, ownerID, kind, name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, nil
}

func (s *RecipeService) getOrCreateAttribute(ctx context.Context, repo repository.AttributeRepository, ownerID int64, kind domain.AttributeKind, name string) (int64, error) {
	lockKey := lock.Keys.AttributeReconcile(ownerID, string(kind), name)
	acquired, err := s.locker.AcquireWithRetry(ctx, lockKey, reconcileLockTTL, reconcileLockRetries, reconcileLockInterval)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", lockKey).Msg("lock error during reconcile")
	}
	if acquired {
		defer func() {
			if _, err := s.locker.Release(ctx, lockKey); err != nil {
				s.logger.Warn().Err(err).Str("key", lockKey).Msg("failed to release reconcile lock")
			}
		}()
	}

	attr, err := repo.GetByName(ctx, ownerID, name)
	if err == nil {
		return attr.ID, nil
	}
	if !errors.Is(err, domain.ErrAttributeNotFound) {
		return 0, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	attr = domain.NewAttribute(ownerID, name)
	if err := repo.Create(ctx, attr); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return attr.ID, nil
}

func (s *RecipeService) attributeRepo(kind domain.AttributeKind) repository.AttributeRepository {
	if kind == domain.KindIngredient {
		return s.ingredientRepo
	}
	return s.tagRepo
}

func (s *RecipeService) validateNames(kind domain.AttributeKind, names []string) error {
	for _, name := range names {
		if err := kind.ValidateName(name); err != nil {
			return err
		}
	}
	return nil
}

// parseIDList parses a comma-separated list of integer IDs. An empty
// string yields no filter.
func parseIDList(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidFilter, part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
