package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/prn-tf/ladle/internal/domain"
)

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	users     map[string]*domain.User // keyed by normalized email
	nextID    int64
	createErr error
	getErr    error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:  make(map[string]*domain.User),
		nextID: 1,
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.users[user.Email]; exists {
		return domain.ErrUserAlreadyExists
	}
	user.ID = m.nextID
	m.nextID++
	m.users[user.Email] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if u, exists := m.users[domain.NormalizeEmail(email)]; exists {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	for email, u := range m.users {
		if u.ID == user.ID {
			if email != user.Email {
				delete(m.users, email)
			}
			m.users[user.Email] = user
			return nil
		}
	}
	return domain.ErrUserNotFound
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, exists := m.users[domain.NormalizeEmail(email)]
	return exists, nil
}

func (m *MockUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	var result []*domain.User
	for _, u := range m.users {
		result = append(result, u)
	}
	return result, nil
}

// addUser seeds a user with a bcrypt-hashed password.
func (m *MockUserRepository) addUser(t *testing.T, email, password string, active bool) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := domain.NewUser(email, "Seed User", string(hash))
	user.IsActive = active
	user.ID = m.nextID
	m.nextID++
	m.users[user.Email] = user
	return user
}

// =============================================================================
// Tests
// =============================================================================

func TestUserService_Register(t *testing.T) {
	tests := []struct {
		name      string
		input     RegisterInput
		wantErr   error
		setupRepo func(*MockUserRepository)
	}{
		{
			name: "success",
			input: RegisterInput{
				Email:    "new@example.com",
				Name:     "New User",
				Password: "password123",
			},
			wantErr: nil,
		},
		{
			name: "email domain is lowercased",
			input: RegisterInput{
				Email:    "mixed@EXAMPLE.COM",
				Name:     "Mixed",
				Password: "password123",
			},
			wantErr: nil,
		},
		{
			name: "invalid email",
			input: RegisterInput{
				Email:    "not-an-email",
				Password: "password123",
			},
			wantErr: ErrInvalidEmail,
		},
		{
			name: "password too short",
			input: RegisterInput{
				Email:    "short@example.com",
				Password: "pw",
			},
			wantErr: ErrInvalidPassword,
		},
		{
			name: "already exists",
			input: RegisterInput{
				Email:    "taken@example.com",
				Password: "password123",
			},
			wantErr: ErrUserAlreadyExists,
			setupRepo: func(m *MockUserRepository) {
				m.users["taken@example.com"] = &domain.User{ID: 1, Email: "taken@example.com"}
				m.nextID = 2
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMockUserRepository()
			if tt.setupRepo != nil {
				tt.setupRepo(repo)
			}

			svc := NewUserService(repo, bcrypt.MinCost, zerolog.Nop())

			output, err := svc.Register(context.Background(), tt.input)

			if tt.wantErr != nil {
				if err == nil {
					t.Errorf("expected error %v, got nil", tt.wantErr)
				} else if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}

			if output.User == nil {
				t.Fatal("expected user in output")
			}
			if output.User.Email != domain.NormalizeEmail(tt.input.Email) {
				t.Errorf("expected normalized email, got %s", output.User.Email)
			}
			if output.User.PasswordHash == tt.input.Password {
				t.Error("password stored in plain text")
			}
			if !output.User.IsActive {
				t.Error("expected new user to be active")
			}
			if output.User.IsSuperuser {
				t.Error("expected new user not to be superuser")
			}
		})
	}
}

func TestUserService_Register_Superuser(t *testing.T) {
	repo := NewMockUserRepository()
	svc := NewUserService(repo, bcrypt.MinCost, zerolog.Nop())

	output, err := svc.Register(context.Background(), RegisterInput{
		Email:     "admin@example.com",
		Name:      "Admin",
		Password:  "password123",
		Superuser: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !output.User.IsSuperuser || !output.User.IsStaff {
		t.Error("expected superuser and staff flags to be set")
	}
}

func TestUserService_Authenticate(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		password  string
		wantErr   error
		setupRepo func(*testing.T, *MockUserRepository)
	}{
		{
			name:     "success",
			email:    "ok@example.com",
			password: "password123",
			setupRepo: func(t *testing.T, m *MockUserRepository) {
				m.addUser(t, "ok@example.com", "password123", true)
			},
		},
		{
			name:     "mixed case email domain",
			email:    "ok@EXAMPLE.com",
			password: "password123",
			setupRepo: func(t *testing.T, m *MockUserRepository) {
				m.addUser(t, "ok@example.com", "password123", true)
			},
		},
		{
			name:     "wrong password",
			email:    "ok@example.com",
			password: "wrong-password",
			wantErr:  ErrInvalidCredentials,
			setupRepo: func(t *testing.T, m *MockUserRepository) {
				m.addUser(t, "ok@example.com", "password123", true)
			},
		},
		{
			name:     "unknown email",
			email:    "ghost@example.com",
			password: "password123",
			wantErr:  ErrInvalidCredentials,
		},
		{
			name:     "inactive user",
			email:    "inactive@example.com",
			password: "password123",
			wantErr:  ErrUserInactive,
			setupRepo: func(t *testing.T, m *MockUserRepository) {
				m.addUser(t, "inactive@example.com", "password123", false)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMockUserRepository()
			if tt.setupRepo != nil {
				tt.setupRepo(t, repo)
			}

			svc := NewUserService(repo, bcrypt.MinCost, zerolog.Nop())

			user, err := svc.Authenticate(context.Background(), tt.email, tt.password)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if user == nil {
				t.Fatal("expected user")
			}
		})
	}
}

func TestUserService_UpdateProfile(t *testing.T) {
	strPtr := func(s string) *string { return &s }

	t.Run("partial update keeps other fields", func(t *testing.T) {
		repo := NewMockUserRepository()
		seed := repo.addUser(t, "me@example.com", "password123", true)

		svc := NewUserService(repo, bcrypt.MinCost, zerolog.Nop())

		updated, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
			UserID: seed.ID,
			Name:   strPtr("Renamed"),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if updated.Name != "Renamed" {
			t.Errorf("expected name Renamed, got %s", updated.Name)
		}
		if updated.Email != "me@example.com" {
			t.Errorf("expected email unchanged, got %s", updated.Email)
		}

		// Old password still works since it wasn't updated.
		if _, err := svc.Authenticate(context.Background(), "me@example.com", "password123"); err != nil {
			t.Errorf("expected old password to still work: %v", err)
		}
	})

	t.Run("password change", func(t *testing.T) {
		repo := NewMockUserRepository()
		seed := repo.addUser(t, "me@example.com", "password123", true)

		svc := NewUserService(repo, bcrypt.MinCost, zerolog.Nop())

		_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
			UserID:   seed.ID,
			Password: strPtr("new-password-456"),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := svc.Authenticate(context.Background(), "me@example.com", "new-password-456"); err != nil {
			t.Errorf("expected new password to work: %v", err)
		}
		if _, err := svc.Authenticate(context.Background(), "me@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected old password to be rejected, got %v", err)
		}
	})

	t.Run("short password rejected", func(t *testing.T) {
		repo := NewMockUserRepository()
		seed := repo.addUser(t, "me@example.com", "password123", true)

		svc := NewUserService(repo, bcrypt.MinCost, zerolog.Nop())

		_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
			UserID:   seed.ID,
			Password: strPtr("short"),
		})
		if !errors.Is(err, ErrInvalidPassword) {
			t.Errorf("expected ErrInvalidPassword, got %v", err)
		}
	})

	t.Run("email change to taken address rejected", func(t *testing.T) {
		repo := NewMockUserRepository()
		seed := repo.addUser(t, "me@example.com", "password123", true)
		repo.addUser(t, "other@example.com", "password123", true)

		svc := NewUserService(repo, bcrypt.MinCost, zerolog.Nop())

		_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
			UserID: seed.ID,
			Email:  strPtr("other@example.com"),
		})
		if !errors.Is(err, ErrUserAlreadyExists) {
			t.Errorf("expected ErrUserAlreadyExists, got %v", err)
		}
	})
}

func TestUserService_SetActive(t *testing.T) {
	repo := NewMockUserRepository()
	seed := repo.addUser(t, "me@example.com", "password123", true)

	svc := NewUserService(repo, bcrypt.MinCost, zerolog.Nop())

	if err := svc.SetActive(context.Background(), seed.ID, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.Authenticate(context.Background(), "me@example.com", "password123"); !errors.Is(err, ErrUserInactive) {
		t.Errorf("expected ErrUserInactive after deactivation, got %v", err)
	}

	if err := svc.SetActive(context.Background(), 9999, false); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}
