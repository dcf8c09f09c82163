package server

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupLoginAndMe(t *testing.T) {
	app, _ := newTestApp(t)

	userID, token := signupUser(t, app, "gopher", "gopher@example.com")

	// The signup response must not leak credentials.
	resp, body := doJSON(t, app, fiber.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	me := body["data"].(map[string]any)
	assert.Equal(t, userID, me["id"])
	assert.Equal(t, "gopher", me["username"])
	assert.NotContains(t, me, "passwordHash")

	resp, body = doJSON(t, app, fiber.MethodPost, "/api/auth/login", "", fiber.Map{
		"email":    "gopher@example.com",
		"password": "passw0rd123",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["data"].(map[string]any)["token"])
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	app, _ := newTestApp(t)

	signupUser(t, app, "gopher", "gopher@example.com")

	resp, body := doJSON(t, app, fiber.MethodPost, "/api/auth/login", "", fiber.Map{
		"email":    "gopher@example.com",
		"password": "wrong-password1",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["message"])
}

func TestSignupValidation(t *testing.T) {
	app, _ := newTestApp(t)

	tests := []struct {
		name string
		body fiber.Map
	}{
		{"short password", fiber.Map{"username": "a", "email": "a@example.com", "password": "ab1"}},
		{"password without digits", fiber.Map{"username": "b", "email": "b@example.com", "password": "onlyletters"}},
		{"missing email", fiber.Map{"username": "c", "password": "passw0rd123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doJSON(t, app, fiber.MethodPost, "/api/auth/signup", "", tt.body)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, false, body["success"])
		})
	}
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	app, _ := newTestApp(t)

	signupUser(t, app, "first", "same@example.com")

	resp, body := doJSON(t, app, fiber.MethodPost, "/api/auth/signup", "", fiber.Map{
		"username": "second",
		"email":    "same@example.com",
		"password": "passw0rd123",
	})
	assert.NotEqual(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, false, body["success"])
}
