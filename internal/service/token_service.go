package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/ladle/internal/domain"
	"github.com/prn-tf/ladle/internal/pkg/crypto"
	"github.com/prn-tf/ladle/internal/repository"
)

// TokenService issues and validates opaque auth tokens. Only SHA-256
// digests are persisted; the raw token is returned to the client once.
type TokenService struct {
	tokenRepo repository.TokenRepository
	userRepo  repository.UserRepository
	cache     repository.Cache
	cacheTTL  time.Duration
	logger    zerolog.Logger
}

// NewTokenService creates a new TokenService. The cache is optional; pass
// nil (or a zero TTL) to hit the database on every validation.
func NewTokenService(
	tokenRepo repository.TokenRepository,
	userRepo repository.UserRepository,
	cache repository.Cache,
	cacheTTL time.Duration,
	logger zerolog.Logger,
) *TokenService {
	return &TokenService{
		tokenRepo: tokenRepo,
		userRepo:  userRepo,
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    logger.With().Str("service", "token").Logger(),
	}
}

// IssueOutput contains a freshly issued token.
type IssueOutput struct {
	Token string
}

// Issue creates a new auth token for a user. Credentials must already be
// verified by UserService.Authenticate.
func (s *TokenService) Issue(ctx context.Context, userID int64) (*IssueOutput, error) {
	token, err := crypto.GenerateToken()
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to generate token")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	authToken := domain.NewAuthToken(userID, crypto.DigestToken(token))
	if err := s.tokenRepo.Create(ctx, authToken); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to store token")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int64("user_id", userID).Msg("token issued")
	return &IssueOutput{Token: token}, nil
}

// cachedIdentity is the JSON payload cached per token digest.
type cachedIdentity struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

// Identity is the resolved owner of a validated token.
type Identity struct {
	UserID int64
	Email  string
}

// Validate resolves a raw token to its owning user. Resolved tokens are
// cached for a short TTL, so a deactivated account may keep access until
// the cache entry expires.
func (s *TokenService) Validate(ctx context.Context, token string) (*Identity, error) {
	if len(token) != domain.TokenLength {
		return nil, ErrInvalidToken
	}
	digest := crypto.DigestToken(token)
	cacheKey := repository.CacheKey{}.Token(digest)

	if s.cacheEnabled() {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var cached cachedIdentity
			if err := json.Unmarshal(data, &cached); err == nil {
				return &Identity{UserID: cached.UserID, Email: cached.Email}, nil
			}
		}
	}

	authToken, err := s.tokenRepo.GetByDigest(ctx, digest)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return nil, ErrInvalidToken
		}
		s.logger.Error().Err(err).Msg("failed to look up token")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	user, err := s.userRepo.GetByID(ctx, authToken.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if !user.CanAuthenticate() {
		return nil, ErrUserInactive
	}

	// Best effort, validation should not fail on a bookkeeping update.
	if err := s.tokenRepo.TouchLastUsed(ctx, authToken.ID); err != nil {
		s.logger.Warn().Err(err).Int64("token_id", authToken.ID).Msg("failed to update token last used")
	}

	if s.cacheEnabled() {
		data, err := json.Marshal(cachedIdentity{UserID: user.ID, Email: user.Email})
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, data, s.cacheTTL); err != nil {
				s.logger.Warn().Err(err).Msg("failed to cache token")
			}
		}
	}

	return &Identity{UserID: user.ID, Email: user.Email}, nil
}

// RevokeAll deletes all tokens belonging to a user and returns how many
// were removed. Cached entries age out on their own TTL.
func (s *TokenService) RevokeAll(ctx context.Context, userID int64) (int64, error) {
	count, err := s.tokenRepo.DeleteByUserID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int64("user_id", userID).Int64("count", count).Msg("tokens revoked")
	return count, nil
}

func (s *TokenService) cacheEnabled() bool {
	return s.cache != nil && s.cacheTTL > 0
}
