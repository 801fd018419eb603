package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/ladle/internal/domain"
	"github.com/prn-tf/ladle/internal/repository"
)

// AttributeService handles tag and ingredient operations. One instance is
// created per kind, wrapping the repository bound to that kind.
type AttributeService struct {
	repo   repository.AttributeRepository
	logger zerolog.Logger
}

// NewAttributeService creates a new AttributeService for the repo's kind.
func NewAttributeService(repo repository.AttributeRepository, logger zerolog.Logger) *AttributeService {
	return &AttributeService{
		repo:   repo,
		logger: logger.With().Str("service", string(repo.Kind())).Logger(),
	}
}

// Kind returns the attribute kind this service manages.
func (s *AttributeService) Kind() domain.AttributeKind {
	return s.repo.Kind()
}

// ListAttributesInput filters an attribute listing.
type ListAttributesInput struct {
	OwnerID int64

	// AssignedOnly restricts results to attributes attached to at least
	// one of the owner's recipes.
	AssignedOnly bool
}

// List returns the owner's attributes, ordered by name descending.
func (s *AttributeService) List(ctx context.Context, input ListAttributesInput) ([]*domain.Attribute, error) {
	attrs, err := s.repo.List(ctx, repository.AttributeQuery{
		OwnerID:      input.OwnerID,
		AssignedOnly: input.AssignedOnly,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list attributes")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if attrs == nil {
		attrs = []*domain.Attribute{}
	}
	return attrs, nil
}

// Get retrieves one of the owner's attributes by ID.
func (s *AttributeService) Get(ctx context.Context, ownerID, id int64) (*domain.Attribute, error) {
	attr, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, domain.ErrAttributeNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return attr, nil
}

// UpdateAttributeInput renames an attribute.
type UpdateAttributeInput struct {
	OwnerID int64
	ID      int64
	Name    string
}

// Update renames one of the owner's attributes.
func (s *AttributeService) Update(ctx context.Context, input UpdateAttributeInput) (*domain.Attribute, error) {
	if err := s.repo.Kind().ValidateName(input.Name); err != nil {
		return nil, err
	}

	attr, err := s.repo.Get(ctx, input.OwnerID, input.ID)
	if err != nil {
		if errors.Is(err, domain.ErrAttributeNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	attr.Name = input.Name
	if err := s.repo.Update(ctx, attr); err != nil {
		if errors.Is(err, domain.ErrAttributeNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Int64("id", input.ID).Msg("failed to update attribute")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return attr, nil
}

// Delete removes one of the owner's attributes. Recipe associations are
// removed by the database cascade.
func (s *AttributeService) Delete(ctx context.Context, ownerID, id int64) error {
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		if errors.Is(err, domain.ErrAttributeNotFound) {
			return err
		}
		s.logger.Error().Err(err).Int64("id", id).Msg("failed to delete attribute")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int64("owner_id", ownerID).Int64("id", id).Msg("attribute deleted")
	return nil
}
