package service

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/ladle/internal/domain"
	"github.com/prn-tf/ladle/internal/lock"
	"github.com/prn-tf/ladle/internal/repository"
	"github.com/prn-tf/ladle/internal/storage"
)

// MockAttributeRepository is a testify mock for repository.AttributeRepository.
type MockAttributeRepository struct {
	mock.Mock
	kind domain.AttributeKind
}

func NewMockAttributeRepository(kind domain.AttributeKind) *MockAttributeRepository {
	return &MockAttributeRepository{kind: kind}
}

func (m *MockAttributeRepository) Kind() domain.AttributeKind {
	return m.kind
}

func (m *MockAttributeRepository) Create(ctx context.Context, attr *domain.Attribute) error {
	args := m.Called(ctx, attr)
	return args.Error(0)
}

func (m *MockAttributeRepository) Get(ctx context.Context, ownerID, id int64) (*domain.Attribute, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Attribute), args.Error(1)
}

func (m *MockAttributeRepository) GetByName(ctx context.Context, ownerID int64, name string) (*domain.Attribute, error) {
	args := m.Called(ctx, ownerID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Attribute), args.Error(1)
}

func (m *MockAttributeRepository) List(ctx context.Context, q repository.AttributeQuery) ([]*domain.Attribute, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Attribute), args.Error(1)
}

func (m *MockAttributeRepository) Update(ctx context.Context, attr *domain.Attribute) error {
	args := m.Called(ctx, attr)
	return args.Error(0)
}

func (m *MockAttributeRepository) Delete(ctx context.Context, ownerID, id int64) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

// MockRecipeRepository is a testify mock for repository.RecipeRepository.
type MockRecipeRepository struct {
	mock.Mock
}

func (m *MockRecipeRepository) Create(ctx context.Context, recipe *domain.Recipe) error {
	args := m.Called(ctx, recipe)
	return args.Error(0)
}

func (m *MockRecipeRepository) Get(ctx context.Context, ownerID, id int64) (*domain.Recipe, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Recipe), args.Error(1)
}

func (m *MockRecipeRepository) List(ctx context.Context, q repository.RecipeQuery) ([]*domain.Recipe, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Recipe), args.Error(1)
}

func (m *MockRecipeRepository) Update(ctx context.Context, recipe *domain.Recipe) error {
	args := m.Called(ctx, recipe)
	return args.Error(0)
}

func (m *MockRecipeRepository) Delete(ctx context.Context, ownerID, id int64) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

func (m *MockRecipeRepository) SetAttributes(ctx context.Context, recipeID int64, kind domain.AttributeKind, ids []int64) error {
	args := m.Called(ctx, recipeID, kind, ids)
	return args.Error(0)
}

// fakeImageStore is an in-memory storage.ImageStore.
type fakeImageStore struct {
	stored  map[string][]byte
	deleted []string
	nextID  int
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{stored: make(map[string][]byte)}
}

func (f *fakeImageStore) Store(ctx context.Context, reader io.Reader, originalName string) (string, error) {
	if !strings.HasSuffix(strings.ToLower(originalName), ".jpg") &&
		!strings.HasSuffix(strings.ToLower(originalName), ".png") {
		return "", storage.ErrUnsupportedExtension
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	f.nextID++
	path := "uploads/recipe/fake-" + strings.Repeat("0", f.nextID) + ".jpg"
	f.stored[path] = data
	return path, nil
}

func (f *fakeImageStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	data, exists := f.stored[path]
	if !exists {
		return nil, storage.ErrImageNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeImageStore) Delete(ctx context.Context, path string) error {
	delete(f.stored, path)
	f.deleted = append(f.deleted, path)
	return nil
}

func newRecipeService(recipeRepo *MockRecipeRepository, tagRepo, ingredientRepo *MockAttributeRepository, images storage.ImageStore) *RecipeService {
	if images == nil {
		images = newFakeImageStore()
	}
	return NewRecipeService(recipeRepo, tagRepo, ingredientRepo, lock.NewNoOpLocker(), images, zerolog.Nop())
}

// =============================================================================
// Tests
// =============================================================================

func TestRecipeService_Create(t *testing.T) {
	t.Run("reuses existing tag and creates missing one", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		tagRepo := NewMockAttributeRepository(domain.KindTag)
		ingredientRepo := NewMockAttributeRepository(domain.KindIngredient)

		existing := &domain.Attribute{ID: 10, UserID: 1, Name: "Vegan"}

		recipeRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Recipe")).
			Run(func(args mock.Arguments) {
				args.Get(1).(*domain.Recipe).ID = 42
			}).Return(nil)

		tagRepo.On("GetByName", mock.Anything, int64(1), "Vegan").Return(existing, nil)
		tagRepo.On("GetByName", mock.Anything, int64(1), "Dessert").Return(nil, domain.ErrAttributeNotFound)
		tagRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Attribute")).
			Run(func(args mock.Arguments) {
				args.Get(1).(*domain.Attribute).ID = 11
			}).Return(nil)

		recipeRepo.On("SetAttributes", mock.Anything, int64(42), domain.KindTag, []int64{10, 11}).Return(nil)
		recipeRepo.On("SetAttributes", mock.Anything, int64(42), domain.KindIngredient, []int64{}).Return(nil)

		created := &domain.Recipe{
			ID: 42, UserID: 1, Title: "Cake",
			Tags: []*domain.Attribute{existing, {ID: 11, UserID: 1, Name: "Dessert"}},
		}
		recipeRepo.On("Get", mock.Anything, int64(1), int64(42)).Return(created, nil)

		svc := newRecipeService(recipeRepo, tagRepo, ingredientRepo, nil)

		recipe, err := svc.Create(context.Background(), CreateRecipeInput{
			OwnerID:     1,
			Title:       "Cake",
			TimeMinutes: 30,
			Price:       domain.Price(500),
			Tags:        []string{"Vegan", "Dessert"},
		})

		require.NoError(t, err)
		require.Len(t, recipe.Tags, 2)
		mock.AssertExpectationsForObjects(t, recipeRepo, tagRepo)
	})

	t.Run("invalid recipe rejected before repository call", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		tagRepo := NewMockAttributeRepository(domain.KindTag)
		ingredientRepo := NewMockAttributeRepository(domain.KindIngredient)

		svc := newRecipeService(recipeRepo, tagRepo, ingredientRepo, nil)

		_, err := svc.Create(context.Background(), CreateRecipeInput{
			OwnerID:     1,
			Title:       "",
			TimeMinutes: 30,
			Price:       domain.Price(500),
		})

		require.Error(t, err)
		recipeRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("duplicate names collapse to one attribute", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		tagRepo := NewMockAttributeRepository(domain.KindTag)
		ingredientRepo := NewMockAttributeRepository(domain.KindIngredient)

		recipeRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Recipe")).
			Run(func(args mock.Arguments) {
				args.Get(1).(*domain.Recipe).ID = 7
			}).Return(nil)

		tagRepo.On("GetByName", mock.Anything, int64(1), "Vegan").
			Return(&domain.Attribute{ID: 10, UserID: 1, Name: "Vegan"}, nil).Once()

		recipeRepo.On("SetAttributes", mock.Anything, int64(7), domain.KindTag, []int64{10}).Return(nil)
		recipeRepo.On("SetAttributes", mock.Anything, int64(7), domain.KindIngredient, []int64{}).Return(nil)
		recipeRepo.On("Get", mock.Anything, int64(1), int64(7)).
			Return(&domain.Recipe{ID: 7, UserID: 1, Title: "Salad"}, nil)

		svc := newRecipeService(recipeRepo, tagRepo, ingredientRepo, nil)

		_, err := svc.Create(context.Background(), CreateRecipeInput{
			OwnerID:     1,
			Title:       "Salad",
			TimeMinutes: 10,
			Price:       domain.Price(300),
			Tags:        []string{"Vegan", "Vegan"},
		})

		require.NoError(t, err)
		mock.AssertExpectationsForObjects(t, recipeRepo, tagRepo)
	})
}

func TestRecipeService_List(t *testing.T) {
	t.Run("passes parsed filters", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		tagRepo := NewMockAttributeRepository(domain.KindTag)
		ingredientRepo := NewMockAttributeRepository(domain.KindIngredient)

		recipeRepo.On("List", mock.Anything, repository.RecipeQuery{
			OwnerID:       1,
			TagIDs:        []int64{2, 3},
			IngredientIDs: []int64{5},
		}).Return([]*domain.Recipe{}, nil)

		svc := newRecipeService(recipeRepo, tagRepo, ingredientRepo, nil)

		_, err := svc.List(context.Background(), ListRecipesInput{
			OwnerID:       1,
			TagIDs:        "2,3",
			IngredientIDs: "5",
		})

		require.NoError(t, err)
		mock.AssertExpectationsForObjects(t, recipeRepo)
	})

	t.Run("non-integer filter rejected", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		tagRepo := NewMockAttributeRepository(domain.KindTag)
		ingredientRepo := NewMockAttributeRepository(domain.KindIngredient)

		svc := newRecipeService(recipeRepo, tagRepo, ingredientRepo, nil)

		_, err := svc.List(context.Background(), ListRecipesInput{
			OwnerID: 1,
			TagIDs:  "2,abc",
		})

		require.ErrorIs(t, err, ErrInvalidFilter)
		recipeRepo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})
}

func TestRecipeService_Update(t *testing.T) {
	strPtr := func(s string) *string { return &s }

	t.Run("absent tag field leaves associations untouched", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		tagRepo := NewMockAttributeRepository(domain.KindTag)
		ingredientRepo := NewMockAttributeRepository(domain.KindIngredient)

		existing := &domain.Recipe{ID: 42, UserID: 1, Title: "Cake", TimeMinutes: 30, Price: domain.Price(500)}
		recipeRepo.On("Get", mock.Anything, int64(1), int64(42)).Return(existing, nil)
		recipeRepo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Recipe")).Return(nil)

		svc := newRecipeService(recipeRepo, tagRepo, ingredientRepo, nil)

		recipe, err := svc.Update(context.Background(), UpdateRecipeInput{
			OwnerID: 1,
			ID:      42,
			Title:   strPtr("Better Cake"),
		})

		require.NoError(t, err)
		require.Equal(t, "Better Cake", recipe.Title)
		recipeRepo.AssertNotCalled(t, "SetAttributes", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("empty tag list clears associations", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		tagRepo := NewMockAttributeRepository(domain.KindTag)
		ingredientRepo := NewMockAttributeRepository(domain.KindIngredient)

		existing := &domain.Recipe{ID: 42, UserID: 1, Title: "Cake", TimeMinutes: 30, Price: domain.Price(500)}
		recipeRepo.On("Get", mock.Anything, int64(1), int64(42)).Return(existing, nil)
		recipeRepo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Recipe")).Return(nil)
		recipeRepo.On("SetAttributes", mock.Anything, int64(42), domain.KindTag, []int64{}).Return(nil)

		svc := newRecipeService(recipeRepo, tagRepo, ingredientRepo, nil)

		empty := []string{}
		_, err := svc.Update(context.Background(), UpdateRecipeInput{
			OwnerID: 1,
			ID:      42,
			Tags:    &empty,
		})

		require.NoError(t, err)
		mock.AssertExpectationsForObjects(t, recipeRepo)
	})

	t.Run("cross owner update is not found", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		tagRepo := NewMockAttributeRepository(domain.KindTag)
		ingredientRepo := NewMockAttributeRepository(domain.KindIngredient)

		recipeRepo.On("Get", mock.Anything, int64(2), int64(42)).Return(nil, domain.ErrRecipeNotFound)

		svc := newRecipeService(recipeRepo, tagRepo, ingredientRepo, nil)

		_, err := svc.Update(context.Background(), UpdateRecipeInput{
			OwnerID: 2,
			ID:      42,
			Title:   strPtr("Hijacked"),
		})

		require.ErrorIs(t, err, domain.ErrRecipeNotFound)
	})
}

func TestRecipeService_AttachImage(t *testing.T) {
	t.Run("replacing image deletes the previous file", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		tagRepo := NewMockAttributeRepository(domain.KindTag)
		ingredientRepo := NewMockAttributeRepository(domain.KindIngredient)
		images := newFakeImageStore()

		existing := &domain.Recipe{
			ID: 42, UserID: 1, Title: "Cake", TimeMinutes: 30,
			Price: domain.Price(500), ImagePath: "uploads/recipe/old.jpg",
		}
		recipeRepo.On("Get", mock.Anything, int64(1), int64(42)).Return(existing, nil)
		recipeRepo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Recipe")).Return(nil)

		svc := newRecipeService(recipeRepo, tagRepo, ingredientRepo, images)

		recipe, err := svc.AttachImage(context.Background(), AttachImageInput{
			OwnerID:  1,
			RecipeID: 42,
			Filename: "photo.jpg",
			Body:     bytes.NewReader([]byte("image-bytes")),
		})

		require.NoError(t, err)
		require.NotEmpty(t, recipe.ImagePath)
		require.NotEqual(t, "uploads/recipe/old.jpg", recipe.ImagePath)
		require.Contains(t, images.deleted, "uploads/recipe/old.jpg")
	})

	t.Run("unsupported extension rejected", func(t *testing.T) {
		recipeRepo := new(MockRecipeRepository)
		tagRepo := NewMockAttributeRepository(domain.KindTag)
		ingredientRepo := NewMockAttributeRepository(domain.KindIngredient)

		existing := &domain.Recipe{ID: 42, UserID: 1, Title: "Cake", TimeMinutes: 30, Price: domain.Price(500)}
		recipeRepo.On("Get", mock.Anything, int64(1), int64(42)).Return(existing, nil)

		svc := newRecipeService(recipeRepo, tagRepo, ingredientRepo, nil)

		_, err := svc.AttachImage(context.Background(), AttachImageInput{
			OwnerID:  1,
			RecipeID: 42,
			Filename: "notes.txt",
			Body:     bytes.NewReader([]byte("not an image")),
		})

		require.ErrorIs(t, err, storage.ErrUnsupportedExtension)
		recipeRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestAttributeService_List(t *testing.T) {
	repo := NewMockAttributeRepository(domain.KindTag)
	repo.On("List", mock.Anything, repository.AttributeQuery{OwnerID: 1, AssignedOnly: true}).
		Return([]*domain.Attribute{{ID: 2, UserID: 1, Name: "Vegan"}}, nil)

	svc := NewAttributeService(repo, zerolog.Nop())

	attrs, err := svc.List(context.Background(), ListAttributesInput{OwnerID: 1, AssignedOnly: true})
	require.NoError(t, err)
	require.Len(t, attrs, 1)
	mock.AssertExpectationsForObjects(t, repo)
}

func TestAttributeService_Update(t *testing.T) {
	t.Run("rename", func(t *testing.T) {
		repo := NewMockAttributeRepository(domain.KindTag)
		repo.On("Get", mock.Anything, int64(1), int64(5)).
			Return(&domain.Attribute{ID: 5, UserID: 1, Name: "Old"}, nil)
		repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Attribute")).Return(nil)

		svc := NewAttributeService(repo, zerolog.Nop())

		attr, err := svc.Update(context.Background(), UpdateAttributeInput{OwnerID: 1, ID: 5, Name: "New"})
		require.NoError(t, err)
		require.Equal(t, "New", attr.Name)
	})

	t.Run("invalid name", func(t *testing.T) {
		repo := NewMockAttributeRepository(domain.KindTag)
		svc := NewAttributeService(repo, zerolog.Nop())

		_, err := svc.Update(context.Background(), UpdateAttributeInput{
			OwnerID: 1, ID: 5, Name: strings.Repeat("x", domain.MaxTagNameLength+1),
		})
		require.ErrorIs(t, err, domain.ErrInvalidAttributeName)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("cross owner is not found", func(t *testing.T) {
		repo := NewMockAttributeRepository(domain.KindTag)
		repo.On("Get", mock.Anything, int64(2), int64(5)).Return(nil, domain.ErrAttributeNotFound)

		svc := NewAttributeService(repo, zerolog.Nop())

		_, err := svc.Update(context.Background(), UpdateAttributeInput{OwnerID: 2, ID: 5, Name: "New"})
		require.ErrorIs(t, err, domain.ErrAttributeNotFound)
	})
}

func TestAttributeService_Delete(t *testing.T) {
	repo := NewMockAttributeRepository(domain.KindIngredient)
	repo.On("Delete", mock.Anything, int64(1), int64(9)).Return(nil)
	repo.On("Delete", mock.Anything, int64(1), int64(404)).Return(domain.ErrAttributeNotFound)

	svc := NewAttributeService(repo, zerolog.Nop())

	require.NoError(t, svc.Delete(context.Background(), 1, 9))
	require.ErrorIs(t, svc.Delete(context.Background(), 1, 404), domain.ErrAttributeNotFound)
}
