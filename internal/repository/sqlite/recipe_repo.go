package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/prn-tf/ladle/internal/domain"
	"github.com/prn-tf/ladle/internal/repository"
)

// recipeRepository implements repository.RecipeRepository for SQLite.
type recipeRepository struct {
	db *DB
}

// NewRecipeRepository creates a new SQLite recipe repository.
func NewRecipeRepository(db *DB) repository.RecipeRepository {
	return &recipeRepository{db: db}
}

const recipeColumns = `id, user_id, title, description, time_minutes, price_cents, link, image_path, created_at, updated_at`

// Create creates a new recipe.
func (r *recipeRepository) Create(ctx context.Context, recipe *domain.Recipe) error {
	query := `
		INSERT INTO recipes (user_id, title, description, time_minutes, price_cents, link, image_path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		recipe.UserID,
		recipe.Title,
		recipe.Description,
		recipe.TimeMinutes,
		recipe.Price.Cents(),
		recipe.Link,
		recipe.ImagePath,
		recipe.CreatedAt.Format(time.RFC3339),
		recipe.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create recipe: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	recipe.ID = id

	return nil
}

// Get retrieves a recipe by (owner, id) with its tags and ingredients loaded.
func (r *recipeRepository) Get(ctx context.Context, ownerID, id int64) (*domain.Recipe, error) {
	query := fmt.Sprintf(`SELECT %s FROM recipes WHERE id = ? AND user_id = ?`, recipeColumns)

	recipe, err := scanRecipe(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		return nil, err
	}

	if err := r.loadAssociations(ctx, recipe); err != nil {
		return nil, err
	}

	return recipe, nil
}

// List returns recipes matching the query, newest first. Tag and ingredient
// filters each add a join; a recipe must satisfy every filter present, while
// within one filter any listed ID matches. DISTINCT collapses the join fanout.
func (r *recipeRepository) List(ctx context.Context, q repository.RecipeQuery) ([]*domain.Recipe, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, `SELECT DISTINCT r.%s FROM recipes r`, strings.ReplaceAll(recipeColumns, ", ", ", r."))

	args := []any{}
	if len(q.TagIDs) > 0 {
		sb.WriteString(` JOIN recipe_tags rt ON rt.recipe_id = r.id AND rt.tag_id IN (` + placeholders(len(q.TagIDs)) + `)`)
		for _, id := range q.TagIDs {
			args = append(args, id)
		}
	}
	if len(q.IngredientIDs) > 0 {
		sb.WriteString(` JOIN recipe_ingredients ri ON ri.recipe_id = r.id AND ri.ingredient_id IN (` + placeholders(len(q.IngredientIDs)) + `)`)
		for _, id := range q.IngredientIDs {
			args = append(args, id)
		}
	}

	sb.WriteString(` WHERE r.user_id = ? ORDER BY r.id DESC`)
	args = append(args, q.OwnerID)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	var recipes []*domain.Recipe
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, recipe)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipes: %w", err)
	}

	for _, recipe := range recipes {
		if err := r.loadAssociations(ctx, recipe); err != nil {
			return nil, err
		}
	}

	return recipes, nil
}

// Update updates a recipe's scalar fields scoped by (owner, id).
func (r *recipeRepository) Update(ctx context.Context, recipe *domain.Recipe) error {
	query := `
		UPDATE recipes
		SET title = ?, description = ?, time_minutes = ?, price_cents = ?, link = ?, image_path = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`

	recipe.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query,
		recipe.Title,
		recipe.Description,
		recipe.TimeMinutes,
		recipe.Price.Cents(),
		recipe.Link,
		recipe.ImagePath,
		recipe.UpdatedAt.Format(time.RFC3339),
		recipe.ID,
		recipe.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update recipe: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrRecipeNotFound
	}

	return nil
}

// Delete removes a recipe scoped by (owner, id). Association rows cascade.
func (r *recipeRepository) Delete(ctx context.Context, ownerID, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrRecipeNotFound
	}

	return nil
}

// SetAttributes replaces the recipe's attribute set of the given kind.
func (r *recipeRepository) SetAttributes(ctx context.Context, recipeID int64, kind domain.AttributeKind, ids []int64) error {
	joinTable, joinCol, err := joinTableFor(kind)
	if err != nil {
		return err
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE recipe_id = ?`, joinTable), recipeID); err != nil {
			return fmt.Errorf("failed to clear recipe %ss: %w", kind, err)
		}
		return insertAssociations(ctx, tx, joinTable, joinCol, recipeID, kind, ids)
	})
}

func insertAssociations(ctx context.Context, tx *sql.Tx, joinTable, joinCol string, recipeID int64, kind domain.AttributeKind, ids []int64) error {
	query := fmt.Sprintf(`INSERT OR IGNORE INTO %s (recipe_id, %s) VALUES (?, ?)`, joinTable, joinCol)
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, query, recipeID, id); err != nil {
			return fmt.Errorf("failed to attach %s %d: %w", kind, id, err)
		}
	}
	return nil
}

func joinTableFor(kind domain.AttributeKind) (table, col string, err error) {
	switch kind {
	case domain.KindTag:
		return "recipe_tags", "tag_id", nil
	case domain.KindIngredient:
		return "recipe_ingredients", "ingredient_id", nil
	default:
		return "", "", fmt.Errorf("%w: %s", domain.ErrUnknownAttributeKind, kind)
	}
}

// loadAssociations fills the recipe's Tags and Ingredients slices.
func (r *recipeRepository) loadAssociations(ctx context.Context, recipe *domain.Recipe) error {
	tags, err := r.attributesFor(ctx, recipe.ID, "tags", "recipe_tags", "tag_id")
	if err != nil {
		return fmt.Errorf("failed to load recipe tags: %w", err)
	}
	recipe.Tags = tags

	ingredients, err := r.attributesFor(ctx, recipe.ID, "ingredients", "recipe_ingredients", "ingredient_id")
	if err != nil {
		return fmt.Errorf("failed to load recipe ingredients: %w", err)
	}
	recipe.Ingredients = ingredients

	return nil
}

func (r *recipeRepository) attributesFor(ctx context.Context, recipeID int64, table, joinTable, joinCol string) ([]*domain.Attribute, error) {
	query := fmt.Sprintf(`
		SELECT a.id, a.user_id, a.name, a.created_at
		FROM %s a
		JOIN %s j ON j.%s = a.id
		WHERE j.recipe_id = ?
		ORDER BY a.id ASC
	`, table, joinTable, joinCol)

	rows, err := r.db.QueryContext(ctx, query, recipeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attrs := []*domain.Attribute{}
	for rows.Next() {
		attr := &domain.Attribute{}
		var createdAt string
		if err := rows.Scan(&attr.ID, &attr.UserID, &attr.Name, &createdAt); err != nil {
			return nil, err
		}
		attr.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		attrs = append(attrs, attr)
	}

	return attrs, rows.Err()
}

func scanRecipe(row rowScanner) (*domain.Recipe, error) {
	recipe := &domain.Recipe{}
	var priceCents int64
	var createdAt, updatedAt string

	err := row.Scan(
		&recipe.ID,
		&recipe.UserID,
		&recipe.Title,
		&recipe.Description,
		&recipe.TimeMinutes,
		&priceCents,
		&recipe.Link,
		&recipe.ImagePath,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrRecipeNotFound
		}
		return nil, fmt.Errorf("failed to scan recipe: %w", err)
	}

	recipe.Price = domain.Price(priceCents)
	recipe.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	recipe.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return recipe, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// Ensure recipeRepository implements repository.RecipeRepository.
var _ repository.RecipeRepository = (*recipeRepository)(nil)
