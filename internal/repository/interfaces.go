// Package repository defines data access interfaces for Ladle.
// These interfaces abstract database operations, allowing for different
// implementations (SQLite, PostgreSQL, in-memory for testing) while keeping
// the service layer clean.
//
// Every owned-resource operation takes an explicit query or owner parameter;
// implementations must apply the owner filter inside the SQL statement itself,
// never by filtering a broader result set afterwards. This is what keeps
// cross-owner access indistinguishable from "not found".
package repository

import (
	"context"

	"github.com/prn-tf/ladle/internal/domain"
)

// =============================================================================
// Query Specifications
// =============================================================================

// AttributeQuery describes an owner-scoped tag/ingredient list request.
// The zero predicate set lists everything the owner has, ordered by name
// descending.
type AttributeQuery struct {
	// OwnerID scopes the result to a single user. Required.
	OwnerID int64

	// AssignedOnly restricts the result to attributes referenced by at least
	// one recipe. The result is deduplicated.
	AssignedOnly bool
}

// RecipeQuery describes an owner-scoped recipe list request.
// ID filters use intersection semantics: a recipe matches when its
// association set shares at least one ID with the filter set. Both filters
// are independent AND constraints. Results are ordered by ID descending and
// deduplicated.
type RecipeQuery struct {
	// OwnerID scopes the result to a single user. Required.
	OwnerID int64

	// TagIDs restricts to recipes tagged with any of these IDs.
	TagIDs []int64

	// IngredientIDs restricts to recipes containing any of these ingredient IDs.
	IngredientIDs []int64
}

// =============================================================================
// User Repository
// =============================================================================

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Create creates a new user. Returns domain.ErrUserAlreadyExists when the
	// normalized email is taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetByEmail retrieves a user by normalized email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update updates an existing user.
	Update(ctx context.Context, user *domain.User) error

	// ExistsByEmail checks if a user with the given normalized email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// List returns all users ordered by ID.
	List(ctx context.Context) ([]*domain.User, error)
}

// =============================================================================
// Token Repository
// =============================================================================

// TokenRepository defines the interface for auth token data access.
type TokenRepository interface {
	// Create stores a new token digest.
	Create(ctx context.Context, token *domain.AuthToken) error

	// GetByDigest retrieves a token by its digest.
	// Returns domain.ErrTokenNotFound when no such token exists.
	GetByDigest(ctx context.Context, digest string) (*domain.AuthToken, error)

	// TouchLastUsed updates the last_used_at timestamp.
	TouchLastUsed(ctx context.Context, id int64) error

	// DeleteByUserID revokes all tokens for a user.
	DeleteByUserID(ctx context.Context, userID int64) (int64, error)
}

// =============================================================================
// Attribute Repository (tags and ingredients)
// =============================================================================

// AttributeRepository defines owner-scoped data access for one attribute
// kind. Tags and ingredients share this contract; an implementation is
// instantiated once per kind and bound to that kind's table.
//
// Create is part of the repository contract but is deliberately not exposed
// over HTTP: attributes only come into existence through the recipe
// reconciler. The repository still needs the operation for exactly that path.
type AttributeRepository interface {
	// Kind returns the attribute kind this repository is bound to.
	Kind() domain.AttributeKind

	// Create creates a new attribute.
	Create(ctx context.Context, attr *domain.Attribute) error

	// Get retrieves an attribute by (owner, id).
	// Returns domain.ErrAttributeNotFound when no row matches both.
	Get(ctx context.Context, ownerID, id int64) (*domain.Attribute, error)

	// GetByName retrieves an attribute by (owner, name) for the reconciler's
	// get-or-create. When duplicate names exist, the oldest row wins.
	GetByName(ctx context.Context, ownerID int64, name string) (*domain.Attribute, error)

	// List returns attributes matching the query, ordered by name descending,
	// deduplicated.
	List(ctx context.Context, q AttributeQuery) ([]*domain.Attribute, error)

	// Update renames an attribute scoped by (owner, id).
	Update(ctx context.Context, attr *domain.Attribute) error

	// Delete removes an attribute scoped by (owner, id). Associations to
	// recipes are removed with it.
	Delete(ctx context.Context, ownerID, id int64) error
}

// =============================================================================
// Recipe Repository
// =============================================================================

// RecipeRepository defines owner-scoped data access for recipes, including
// their tag and ingredient association sets.
type RecipeRepository interface {
	// Create creates a new recipe (without associations).
	Create(ctx context.Context, recipe *domain.Recipe) error

	// Get retrieves a recipe by (owner, id) with associations loaded.
	// Returns domain.ErrRecipeNotFound when no row matches both.
	Get(ctx context.Context, ownerID, id int64) (*domain.Recipe, error)

	// List returns recipe summaries matching the query with associations
	// loaded, ordered by ID descending, deduplicated.
	List(ctx context.Context, q RecipeQuery) ([]*domain.Recipe, error)

	// Update persists the recipe's scalar fields scoped by (owner, id).
	Update(ctx context.Context, recipe *domain.Recipe) error

	// Delete removes a recipe scoped by (owner, id) along with its
	// association rows.
	Delete(ctx context.Context, ownerID, id int64) error

	// SetAttributes replaces the recipe's association set for one attribute
	// kind with exactly the given attribute IDs.
	SetAttributes(ctx context.Context, recipeID int64, kind domain.AttributeKind, ids []int64) error
}

// =============================================================================
// Aggregate
// =============================================================================

// Repositories holds all repository instances.
type Repositories struct {
	User       UserRepository
	Token      TokenRepository
	Tag        AttributeRepository
	Ingredient AttributeRepository
	Recipe     RecipeRepository
}

// DatabaseHealth is an interface for database health checks.
type DatabaseHealth interface {
	Ping(ctx context.Context) error
	Health(ctx context.Context) error
	Close() error
}
