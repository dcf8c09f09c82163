package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"academia/internal/config"
	"academia/internal/docstore"
	"academia/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestApp builds a server backed by an in-memory store with Redis off.
func newTestApp(t *testing.T) (*fiber.App, *Server) {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	store, err := docstore.OpenBadgerInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := &config.Config{
		JWTSecret:   "unit-test-secret-0123456789abcdef",
		Port:        "0",
		StoreDriver: "badger",
		Env:         "test",
	}

	srv, err := NewServerWithDeps(cfg, store, nil)
	require.NoError(t, err)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	srv.SetupRoutes(app)
	return app, srv
}

// doJSON performs a request against the test app and decodes the JSON body.
func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, 5000)
	require.NoError(t, err)

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	_ = resp.Body.Close()
	return resp, decoded
}

// signupUser registers a user through the API and returns its ID and token.
func signupUser(t *testing.T, app *fiber.App, username, email string) (string, string) {
	t.Helper()

	resp, body := doJSON(t, app, fiber.MethodPost, "/api/auth/signup", "", fiber.Map{
		"username": username,
		"email":    email,
		"password": "passw0rd123",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, "signup response: %v", body)

	data := body["data"].(map[string]any)
	user := data["user"].(map[string]any)
	return user["id"].(string), data["token"].(string)
}

// createAcademy creates an academy through the API and returns its ID.
func createAcademy(t *testing.T, app *fiber.App, token, name string) string {
	t.Helper()

	resp, body := doJSON(t, app, fiber.MethodPost, "/api/academies/", token, fiber.Map{
		"name":     name,
		"category": "programming",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, "create academy response: %v", body)
	return body["data"].(map[string]any)["id"].(string)
}

func TestHealthEndpoints(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, fiber.MethodGet, "/health/live", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "up", body["status"])

	// With Redis off readiness still reports healthy overall.
	resp, body = doJSON(t, app, fiber.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "healthy", checks["store"])
	assert.Equal(t, "unavailable", checks["redis"])
}

func TestErrorEnvelope(t *testing.T) {
	app, _ := newTestApp(t)

	t.Run("unauthorized request", func(t *testing.T) {
		resp, body := doJSON(t, app, fiber.MethodPost, "/api/academies/", "", fiber.Map{"name": "x"})
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, false, body["success"])
		assert.NotEmpty(t, body["message"])
	})

	t.Run("unknown academy", func(t *testing.T) {
		resp, body := doJSON(t, app, fiber.MethodGet, "/api/academies/nope", "", nil)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
		assert.Equal(t, false, body["success"])
		assert.NotEmpty(t, body["message"])
	})

	t.Run("garbled token", func(t *testing.T) {
		resp, body := doJSON(t, app, fiber.MethodGet, "/api/users/me", "not-a-jwt", nil)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, false, body["success"])
	})
}
