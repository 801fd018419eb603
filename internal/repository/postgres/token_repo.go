package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/prn-tf/ladle/internal/domain"
	"github.com/prn-tf/ladle/internal/repository"
)

// tokenRepository implements repository.TokenRepository for PostgreSQL.
type tokenRepository struct {
	db *DB
}

// NewTokenRepository creates a new PostgreSQL token repository.
func NewTokenRepository(db *DB) repository.TokenRepository {
	return &tokenRepository{db: db}
}

// Create stores a new token digest.
func (r *tokenRepository) Create(ctx context.Context, token *domain.AuthToken) error {
	query := `
		INSERT INTO auth_tokens (user_id, digest, created_at, last_used_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		token.UserID,
		token.Digest,
		token.CreatedAt,
		token.LastUsedAt,
	).Scan(&token.ID)
	if err != nil {
		return fmt.Errorf("failed to create token: %w", err)
	}

	return nil
}

// GetByDigest retrieves a token by its digest.
func (r *tokenRepository) GetByDigest(ctx context.Context, digest string) (*domain.AuthToken, error) {
	query := `
		SELECT id, user_id, digest, created_at, last_used_at
		FROM auth_tokens
		WHERE digest = $1
	`

	token := &domain.AuthToken{}
	err := r.db.Pool.QueryRow(ctx, query, digest).Scan(
		&token.ID,
		&token.UserID,
		&token.Digest,
		&token.CreatedAt,
		&token.LastUsedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	return token, nil
}

// TouchLastUsed updates the last_used_at timestamp.
func (r *tokenRepository) TouchLastUsed(ctx context.Context, id int64) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE auth_tokens SET last_used_at = $1 WHERE id = $2`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to touch token: %w", err)
	}
	return nil
}

// DeleteByUserID revokes all tokens for a user.
func (r *tokenRepository) DeleteByUserID(ctx context.Context, userID int64) (int64, error) {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM auth_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete tokens: %w", err)
	}

	return result.RowsAffected(), nil
}

// Ensure tokenRepository implements repository.TokenRepository.
var _ repository.TokenRepository = (*tokenRepository)(nil)
