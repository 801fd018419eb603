package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/prn-tf/ladle/internal/domain"
	"github.com/prn-tf/ladle/internal/repository"
)

// tokenRepository implements repository.TokenRepository for SQLite.
type tokenRepository struct {
	db *DB
}

// NewTokenRepository creates a new SQLite token repository.
func NewTokenRepository(db *DB) repository.TokenRepository {
	return &tokenRepository{db: db}
}

// Create stores a new token digest.
func (r *tokenRepository) Create(ctx context.Context, token *domain.AuthToken) error {
	query := `
		INSERT INTO auth_tokens (user_id, digest, created_at, last_used_at)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		token.UserID,
		token.Digest,
		token.CreatedAt.Format(time.RFC3339),
		token.LastUsedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create token: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	token.ID = id

	return nil
}

// GetByDigest retrieves a token by its digest.
func (r *tokenRepository) GetByDigest(ctx context.Context, digest string) (*domain.AuthToken, error) {
	query := `
		SELECT id, user_id, digest, created_at, last_used_at
		FROM auth_tokens
		WHERE digest = ?
	`

	token := &domain.AuthToken{}
	var createdAt, lastUsedAt string

	err := r.db.QueryRowContext(ctx, query, digest).Scan(
		&token.ID,
		&token.UserID,
		&token.Digest,
		&createdAt,
		&lastUsedAt,
	)

	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	token.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	token.LastUsedAt, _ = time.Parse(time.RFC3339, lastUsedAt)

	return token, nil
}

// TouchLastUsed updates the last_used_at timestamp.
func (r *tokenRepository) TouchLastUsed(ctx context.Context, id int64) error {
	query := `UPDATE auth_tokens SET last_used_at = ? WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to touch token: %w", err)
	}
	return nil
}

// DeleteByUserID revokes all tokens for a user.
func (r *tokenRepository) DeleteByUserID(ctx context.Context, userID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete tokens: %w", err)
	}

	deleted, _ := result.RowsAffected()
	return deleted, nil
}

// Ensure tokenRepository implements repository.TokenRepository.
var _ repository.TokenRepository = (*tokenRepository)(nil)
