package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/ladle/internal/cache/memory"
	"github.com/prn-tf/ladle/internal/config"
	"github.com/prn-tf/ladle/internal/lock"
	"github.com/prn-tf/ladle/internal/repository/sqlite"
	"github.com/prn-tf/ladle/internal/service"
	"github.com/prn-tf/ladle/internal/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	ctx := context.Background()
	logger := zerolog.Nop()

	db, err := sqlite.NewDB(ctx, config.DatabaseConfig{
		Path:            ":memory:",
		JournalMode:     "MEMORY",
		BusyTimeout:     5000,
		CacheSize:       -2000,
		SynchronousMode: "OFF",
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(ctx))

	repos := sqlite.NewRepositories(db)

	cache := memory.NewCache()
	t.Cleanup(cache.Stop)

	images, err := storage.NewFilesystemStore(t.TempDir(), logger)
	require.NoError(t, err)

	userService := service.NewUserService(repos.User, 0, logger)
	tokenService := service.NewTokenService(repos.Token, repos.User, cache, 30*time.Second, logger)
	tagService := service.NewAttributeService(repos.Tag, logger)
	ingredientService := service.NewAttributeService(repos.Ingredient, logger)
	recipeService := service.NewRecipeService(repos.Recipe, repos.Tag, repos.Ingredient, lock.NewMemoryLocker(), images, logger)

	router := NewRouter(RouterConfig{
		UserHandler:       NewUserHandler(userService, tokenService, logger),
		TagHandler:        NewAttributeHandler(tagService, logger),
		IngredientHandler: NewAttributeHandler(ingredientService, logger),
		RecipeHandler:     NewRecipeHandler(recipeService, 5*1024*1024, logger),
		AuthMiddleware:    CreateAuthMiddleware(tokenService),
		Images:            images,
		DBHealth:          db,
		Logger:            logger,
	})

	server := httptest.NewServer(router.Handler())
	t.Cleanup(server.Close)
	return server
}

func doRequest(t *testing.T, server *httptest.Server, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		// List responses decode elsewhere; tolerate non-object bodies.
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp, decoded
}

func doList(t *testing.T, server *httptest.Server, path, token string) (*http.Response, []map[string]any) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, server.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Token "+token)

	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var items []map[string]any
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&items))
	}
	return resp, items
}

func registerAndLogin(t *testing.T, server *httptest.Server, email string) string {
	t.Helper()

	resp, _ := doRequest(t, server, http.MethodPost, "/api/users/", "", map[string]any{
		"email":    email,
		"name":     "Test Cook",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doRequest(t, server, http.MethodPost, "/api/token/", "", map[string]any{
		"email":    email,
		"password": "supersecret",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	token, ok := body["token"].(string)
	require.True(t, ok)
	require.Len(t, token, 40)
	return token
}

func TestRegisterUser(t *testing.T) {
	server := newTestServer(t)

	resp, body := doRequest(t, server, http.MethodPost, "/api/users/", "", map[string]any{
		"email":    "cook@example.com",
		"name":     "Cook",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "cook@example.com", body["email"])
	require.Equal(t, "Cook", body["name"])
	_, hasPassword := body["password"]
	require.False(t, hasPassword)
	_, hasID := body["id"]
	require.False(t, hasID)

	// Same email again
	resp, _ = doRequest(t, server, http.MethodPost, "/api/users/", "", map[string]any{
		"email":    "cook@example.com",
		"name":     "Other",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doRequest(t, server, http.MethodPost, "/api/users/", "", map[string]any{
		"email":    "short@example.com",
		"name":     "Short",
		"password": "nope",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTokenEndpoint(t *testing.T) {
	server := newTestServer(t)
	registerAndLogin(t, server, "cook@example.com")

	resp, body := doRequest(t, server, http.MethodPost, "/api/token/", "", map[string]any{
		"email":    "cook@example.com",
		"password": "wrongpassword",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Unable to log in with provided credentials.", body["detail"])
}

func TestAuthenticationRequired(t *testing.T) {
	server := newTestServer(t)

	for _, path := range []string{"/api/recipes/", "/api/tags/", "/api/ingredients/", "/api/users/me/"} {
		resp, body := doRequest(t, server, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
		require.Equal(t, "Authentication credentials were not provided.", body["detail"], path)
		require.Equal(t, "Token", resp.Header.Get("WWW-Authenticate"), path)
	}

	resp, body := doRequest(t, server, http.MethodGet, "/api/recipes/", "0000000000000000000000000000000000000000", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "Invalid token.", body["detail"])
}

func TestAttributeCollectionRejectsPost(t *testing.T) {
	server := newTestServer(t)
	token := registerAndLogin(t, server, "cook@example.com")

	for _, path := range []string{"/api/tags/", "/api/ingredients/"} {
		resp, body := doRequest(t, server, http.MethodPost, path, token, map[string]any{"name": "Vegan"})
		require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode, path)
		require.Equal(t, `Method "POST" not allowed.`, body["detail"], path)
	}
}

func TestCurrentUserEndpoint(t *testing.T) {
	server := newTestServer(t)
	token := registerAndLogin(t, server, "cook@example.com")

	resp, body := doRequest(t, server, http.MethodGet, "/api/users/me/", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "cook@example.com", body["email"])
	require.Equal(t, "Test Cook", body["name"])

	resp, body = doRequest(t, server, http.MethodPatch, "/api/users/me/", token, map[string]any{
		"name": "Renamed Cook",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Renamed Cook", body["name"])
	require.Equal(t, "cook@example.com", body["email"])
}

func TestRecipeLifecycle(t *testing.T) {
	server := newTestServer(t)
	token := registerAndLogin(t, server, "cook@example.com")

	resp, body := doRequest(t, server, http.MethodPost, "/api/recipes/", token, map[string]any{
		"title":        "Thai prawn curry",
		"time_minutes": 30,
		"price":        "12.50",
		"description":  "Hot and fragrant.",
		"tags":         []map[string]string{{"name": "Thai"}, {"name": "Dinner"}},
		"ingredients":  []map[string]string{{"name": "Prawns"}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "Thai prawn curry", body["title"])
	require.Equal(t, "Hot and fragrant.", body["description"])
	recipeID := int64(body["id"].(float64))

	tags, ok := body["tags"].([]any)
	require.True(t, ok)
	require.Len(t, tags, 2)

	// Missing required fields
	resp, _ = doRequest(t, server, http.MethodPost, "/api/recipes/", token, map[string]any{
		"title": "No time or price",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// List excludes description
	resp, items := doList(t, server, "/api/recipes/", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, items, 1)
	_, hasDescription := items[0]["description"]
	require.False(t, hasDescription)
	require.Equal(t, "Thai prawn curry", items[0]["title"])

	// Detail keeps it
	detailPath := fmt.Sprintf("/api/recipes/%d/", recipeID)
	resp, body = doRequest(t, server, http.MethodGet, detailPath, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Hot and fragrant.", body["description"])

	// Clearing tags with an empty list
	resp, body = doRequest(t, server, http.MethodPatch, detailPath, token, map[string]any{
		"tags": []map[string]string{},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, body["tags"])
	require.Len(t, body["ingredients"], 1)

	resp, _ = doRequest(t, server, http.MethodDelete, detailPath, token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = doRequest(t, server, http.MethodGet, detailPath, token, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "Not found.", body["detail"])
}

func TestRecipeFilters(t *testing.T) {
	server := newTestServer(t)
	token := registerAndLogin(t, server, "cook@example.com")

	create := func(title string, tags []map[string]string) {
		resp, _ := doRequest(t, server, http.MethodPost, "/api/recipes/", token, map[string]any{
			"title":        title,
			"time_minutes": 10,
			"price":        "5.00",
			"tags":         tags,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	create("Curry", []map[string]string{{"name": "Thai"}})
	create("Salad", []map[string]string{{"name": "Vegan"}})
	create("Toast", nil)

	resp, allTags := doList(t, server, "/api/tags/", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, allTags, 2)

	var thaiID int64
	for _, tag := range allTags {
		if tag["name"] == "Thai" {
			thaiID = int64(tag["id"].(float64))
		}
	}
	require.NotZero(t, thaiID)

	resp, items := doList(t, server, fmt.Sprintf("/api/recipes/?tags=%d", thaiID), token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, items, 1)
	require.Equal(t, "Curry", items[0]["title"])

	resp, _ = doRequest(t, server, http.MethodGet, "/api/recipes/?tags=1,abc", token, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTagsAssignedOnly(t *testing.T) {
	server := newTestServer(t)
	token := registerAndLogin(t, server, "cook@example.com")

	resp, _ := doRequest(t, server, http.MethodPost, "/api/recipes/", token, map[string]any{
		"title":        "Curry",
		"time_minutes": 10,
		"price":        "5.00",
		"tags":         []map[string]string{{"name": "Dinner"}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Orphan the second tag by clearing it from the recipe it was created with
	resp, body := doRequest(t, server, http.MethodPost, "/api/recipes/", token, map[string]any{
		"title":        "Snack",
		"time_minutes": 5,
		"price":        "1.00",
		"tags":         []map[string]string{{"name": "Quick"}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	snackPath := fmt.Sprintf("/api/recipes/%d/", int64(body["id"].(float64)))
	resp, _ = doRequest(t, server, http.MethodPatch, snackPath, token, map[string]any{
		"tags": []map[string]string{},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, items := doList(t, server, "/api/tags/", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, items, 2)

	resp, items = doList(t, server, "/api/tags/?assigned_only=1", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, items, 1)
	require.Equal(t, "Dinner", items[0]["name"])

	resp, _ = doRequest(t, server, http.MethodGet, "/api/tags/?assigned_only=maybe", token, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRecipeImageUpload(t *testing.T) {
	server := newTestServer(t)
	token := registerAndLogin(t, server, "cook@example.com")

	resp, body := doRequest(t, server, http.MethodPost, "/api/recipes/", token, map[string]any{
		"title":        "Curry",
		"time_minutes": 10,
		"price":        "5.00",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_, hasImage := body["image"]
	require.False(t, hasImage)
	recipeID := int64(body["id"].(float64))

	upload := func(filename string) (*http.Response, map[string]any) {
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		part, err := writer.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte("not a real image, good enough for storage"))
		require.NoError(t, err)
		require.NoError(t, writer.Close())

		req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/api/recipes/%d/upload-image/", server.URL, recipeID), &buf)
		require.NoError(t, err)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		req.Header.Set("Authorization", "Token "+token)

		resp, err := server.Client().Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		var decoded map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
		return resp, decoded
	}

	resp, body = upload("dinner.jpg")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	imageURL, ok := body["image"].(string)
	require.True(t, ok)
	require.Contains(t, imageURL, "/media/uploads/recipe/")

	// The stored image is publicly served
	mediaResp, err := server.Client().Get(server.URL + imageURL)
	require.NoError(t, err)
	defer mediaResp.Body.Close()
	require.Equal(t, http.StatusOK, mediaResp.StatusCode)
	require.Equal(t, "image/jpeg", mediaResp.Header.Get("Content-Type"))

	resp, body = upload("notes.txt")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotEmpty(t, body["detail"])
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t)

	resp, body := doRequest(t, server, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "healthy", body["status"])
}
