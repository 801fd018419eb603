package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/prn-tf/ladle/internal/domain"
	"github.com/prn-tf/ladle/internal/repository"
)

// attributeRepository implements repository.AttributeRepository for
// PostgreSQL. One instance serves tags, another ingredients; the kind
// selects the table and join-table names. All table names come from the
// fixed kind constants, never from request input.
type attributeRepository struct {
	db        *DB
	kind      domain.AttributeKind
	table     string
	joinTable string
	joinCol   string
}

// NewAttributeRepository creates a PostgreSQL attribute repository bound to a kind.
func NewAttributeRepository(db *DB, kind domain.AttributeKind) repository.AttributeRepository {
	r := &attributeRepository{db: db, kind: kind}
	switch kind {
	case domain.KindTag:
		r.table, r.joinTable, r.joinCol = "tags", "recipe_tags", "tag_id"
	case domain.KindIngredient:
		r.table, r.joinTable, r.joinCol = "ingredients", "recipe_ingredients", "ingredient_id"
	default:
		panic(fmt.Sprintf("unknown attribute kind %q", kind))
	}
	return r
}

// Kind returns the attribute kind this repository is bound to.
func (r *attributeRepository) Kind() domain.AttributeKind {
	return r.kind
}

// Create creates a new attribute.
func (r *attributeRepository) Create(ctx context.Context, attr *domain.Attribute) error {
	query := fmt.Sprintf(`INSERT INTO %s (user_id, name, created_at) VALUES ($1, $2, $3) RETURNING id`, r.table)

	err := r.db.Pool.QueryRow(ctx, query, attr.UserID, attr.Name, attr.CreatedAt).Scan(&attr.ID)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", r.kind, err)
	}

	return nil
}

// Get retrieves an attribute by (owner, id).
func (r *attributeRepository) Get(ctx context.Context, ownerID, id int64) (*domain.Attribute, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, name, created_at
		FROM %s
		WHERE id = $1 AND user_id = $2
	`, r.table)

	return r.scanAttribute(r.db.Pool.QueryRow(ctx, query, id, ownerID))
}

// GetByName retrieves the oldest attribute matching (owner, name).
func (r *attributeRepository) GetByName(ctx context.Context, ownerID int64, name string) (*domain.Attribute, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, name, created_at
		FROM %s
		WHERE user_id = $1 AND name = $2
		ORDER BY id ASC
		LIMIT 1
	`, r.table)

	return r.scanAttribute(r.db.Pool.QueryRow(ctx, query, ownerID, name))
}

func (r *attributeRepository) scanAttribute(row pgx.Row) (*domain.Attribute, error) {
	attr := &domain.Attribute{}

	err := row.Scan(&attr.ID, &attr.UserID, &attr.Name, &attr.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAttributeNotFound
		}
		return nil, fmt.Errorf("failed to scan %s: %w", r.kind, err)
	}

	return attr, nil
}

// List returns attributes matching the query, ordered by name descending.
// The assigned-only variant joins the recipe association table and relies on
// DISTINCT for deduplication, mirroring the owner filter into the SQL itself.
func (r *attributeRepository) List(ctx context.Context, q repository.AttributeQuery) ([]*domain.Attribute, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT a.id, a.user_id, a.name, a.created_at
		FROM %s a
	`, r.table)
	if q.AssignedOnly {
		query += fmt.Sprintf(` JOIN %s j ON j.%s = a.id`, r.joinTable, r.joinCol)
	}
	query += ` WHERE a.user_id = $1 ORDER BY a.name DESC, a.id DESC`

	rows, err := r.db.Pool.Query(ctx, query, q.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list %ss: %w", r.kind, err)
	}
	defer rows.Close()

	var attrs []*domain.Attribute
	for rows.Next() {
		attr, err := r.scanAttribute(rows)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %ss: %w", r.kind, err)
	}

	return attrs, nil
}

// Update renames an attribute scoped by (owner, id).
func (r *attributeRepository) Update(ctx context.Context, attr *domain.Attribute) error {
	query := fmt.Sprintf(`UPDATE %s SET name = $1 WHERE id = $2 AND user_id = $3`, r.table)

	result, err := r.db.Pool.Exec(ctx, query, attr.Name, attr.ID, attr.UserID)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", r.kind, err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrAttributeNotFound
	}

	return nil
}

// Delete removes an attribute scoped by (owner, id).
func (r *attributeRepository) Delete(ctx context.Context, ownerID, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND user_id = $2`, r.table)

	result, err := r.db.Pool.Exec(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", r.kind, err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrAttributeNotFound
	}

	return nil
}

// Ensure attributeRepository implements repository.AttributeRepository.
var _ repository.AttributeRepository = (*attributeRepository)(nil)
