// Package service provides business logic services for Ladle.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/prn-tf/ladle/internal/domain"
	"github.com/prn-tf/ladle/internal/repository"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// UserService handles user account operations.
type UserService struct {
	userRepo   repository.UserRepository
	bcryptCost int
	logger     zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, bcryptCost int, logger zerolog.Logger) *UserService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{
		userRepo:   userRepo,
		bcryptCost: bcryptCost,
		logger:     logger.With().Str("service", "user").Logger(),
	}
}

// RegisterInput contains the data needed to create a new user.
type RegisterInput struct {
	Email    string
	Name     string
	Password string

	// Superuser grants staff and superuser flags. Only the admin CLI
	// sets this; the public registration endpoint never does.
	Superuser bool
}

// RegisterOutput contains the result of creating a user.
type RegisterOutput struct {
	User *domain.User
}

// Register creates a new user account.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*RegisterOutput, error) {
	if err := validateEmail(input.Email); err != nil {
		return nil, err
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}
	if len(input.Name) > 255 {
		return nil, ErrInvalidName
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to check email existence")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: email '%s'", ErrUserAlreadyExists, input.Email)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return nil, fmt.Errorf("%w: failed to hash password", ErrInternalError)
	}

	user := domain.NewUser(input.Email, input.Name, string(passwordHash))
	if input.Superuser {
		user.IsStaff = true
		user.IsSuperuser = true
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return nil, fmt.Errorf("%w: email '%s'", ErrUserAlreadyExists, input.Email)
		}
		s.logger.Error().Err(err).Msg("failed to create user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("email", user.Email).
		Bool("superuser", user.IsSuperuser).
		Msg("user created")

	return &RegisterOutput{User: user}, nil
}

// Authenticate verifies user credentials and returns the user.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		// Don't expose whether the email exists
		s.logger.Debug().Msg("user not found during authentication")
		return nil, ErrInvalidCredentials
	}

	if !user.CanAuthenticate() {
		s.logger.Debug().Int64("user_id", user.ID).Msg("inactive user attempted authentication")
		return nil, ErrUserInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Debug().Int64("user_id", user.ID).Msg("invalid password during authentication")
		return nil, ErrInvalidCredentials
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("user authenticated")
	return user, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return user, nil
}

// UpdateProfileInput contains partial profile updates. Nil fields are left
// untouched.
type UpdateProfileInput struct {
	UserID   int64
	Email    *string
	Name     *string
	Password *string
}

// UpdateProfile applies a partial update to the user's own profile.
func (s *UserService) UpdateProfile(ctx context.Context, input UpdateProfileInput) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if input.Email != nil {
		newEmail := domain.NormalizeEmail(*input.Email)
		if err := validateEmail(newEmail); err != nil {
			return nil, err
		}
		if newEmail != user.Email {
			exists, err := s.userRepo.ExistsByEmail(ctx, newEmail)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
			}
			if exists {
				return nil, fmt.Errorf("%w: email '%s'", ErrUserAlreadyExists, newEmail)
			}
			user.Email = newEmail
		}
	}

	if input.Name != nil {
		if len(*input.Name) > 255 {
			return nil, ErrInvalidName
		}
		user.Name = *input.Name
	}

	if input.Password != nil {
		if err := validatePassword(*input.Password); err != nil {
			return nil, err
		}
		passwordHash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), s.bcryptCost)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to hash password")
			return nil, fmt.Errorf("%w: failed to hash password", ErrInternalError)
		}
		user.PasswordHash = string(passwordHash)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to update user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("profile updated")
	return user, nil
}

// SetActive enables or disables a user account.
func (s *UserService) SetActive(ctx context.Context, userID int64, active bool) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	user.IsActive = active
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int64("user_id", userID).Bool("active", active).Msg("user active flag changed")
	return nil
}

// List returns all user accounts, for the admin CLI.
func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return users, nil
}

func validateEmail(email string) error {
	if email == "" {
		return ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrInvalidPassword
	}
	return nil
}
