package server

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"academia/internal/bus"
	"academia/internal/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memberIDsFromResponse(t *testing.T, body map[string]any) []string {
	t.Helper()
	data := body["data"].(map[string]any)
	rawMembers, ok := data["members"].([]any)
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(rawMembers))
	for _, m := range rawMembers {
		member := m.(map[string]any)
		switch ref := member["userId"].(type) {
		case string:
			ids = append(ids, ref)
		case map[string]any:
			if id, ok := ref["userId"].(string); ok {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func TestToggleMembershipEndpoint(t *testing.T) {
	app, srv := newTestApp(t)

	_, creatorToken := signupUser(t, app, "creator", "creator@example.com")
	userID, userToken := signupUser(t, app, "joiner", "joiner@example.com")
	academyID := createAcademy(t, app, creatorToken, "Go Study Group")

	var (
		mu     sync.Mutex
		events []bus.MembershipEvent
	)
	srv.bus.Subscribe(func(_ context.Context, e bus.MembershipEvent) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})

	// Join
	resp, body := doJSON(t, app, fiber.MethodPost, "/api/academies/"+academyID+"/membership", userToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, "toggle response: %v", body)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["isJoining"])
	assert.Contains(t, memberIDsFromResponse(t, body), userID)

	// Leave
	resp, body = doJSON(t, app, fiber.MethodPost, "/api/academies/"+academyID+"/membership", userToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["isJoining"])
	assert.NotContains(t, memberIDsFromResponse(t, body), userID)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 2)
	assert.Equal(t, academyID, events[0].AcademyID)
	assert.Equal(t, userID, events[0].UserID)
	assert.True(t, events[0].IsJoining)
	assert.False(t, events[0].Provisional)
	require.NotNil(t, events[0].Academy)
	assert.False(t, events[1].IsJoining)
}

func TestToggleMembershipUnknownAcademy(t *testing.T) {
	app, _ := newTestApp(t)

	_, token := signupUser(t, app, "joiner", "joiner@example.com")

	resp, body := doJSON(t, app, fiber.MethodPost, "/api/academies/missing/membership", token, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["message"])
}

func TestGetAcademiesRefreshQuery(t *testing.T) {
	app, _ := newTestApp(t)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = rdb.Close()
	})

	_, token := signupUser(t, app, "creator", "creator@example.com")
	createAcademy(t, app, token, "Go Study Group")

	// First read populates the cache.
	resp, body := doJSON(t, app, fiber.MethodGet, "/api/academies/", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Len(t, body["data"].([]any), 1)

	// Plant a stale listing to prove the next plain read serves the cache.
	stale, err := json.Marshal([]map[string]any{})
	require.NoError(t, err)
	require.NoError(t, rdb.Set(context.Background(), cache.AcademyListingKey, stale, 0).Err())

	_, body = doJSON(t, app, fiber.MethodGet, "/api/academies/", "", nil)
	assert.Len(t, body["data"].([]any), 0)

	// refresh=true bypasses and overwrites the stale copy.
	_, body = doJSON(t, app, fiber.MethodGet, "/api/academies/?refresh=true", "", nil)
	assert.Len(t, body["data"].([]any), 1)

	_, body = doJSON(t, app, fiber.MethodGet, "/api/academies/", "", nil)
	assert.Len(t, body["data"].([]any), 1)
}

func TestAcademyCRUD(t *testing.T) {
	app, _ := newTestApp(t)

	_, creatorToken := signupUser(t, app, "creator", "creator@example.com")
	_, otherToken := signupUser(t, app, "other", "other@example.com")
	academyID := createAcademy(t, app, creatorToken, "Go Study Group")

	t.Run("update requires creator", func(t *testing.T) {
		resp, body := doJSON(t, app, fiber.MethodPut, "/api/academies/"+academyID, otherToken,
			fiber.Map{"description": "hijacked"})
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
		assert.Equal(t, false, body["success"])
	})

	t.Run("creator updates", func(t *testing.T) {
		resp, body := doJSON(t, app, fiber.MethodPut, "/api/academies/"+academyID, creatorToken,
			fiber.Map{"description": "a place to learn Go"})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "a place to learn Go", body["data"].(map[string]any)["description"])
	})

	t.Run("delete requires creator", func(t *testing.T) {
		resp, _ := doJSON(t, app, fiber.MethodDelete, "/api/academies/"+academyID, otherToken, nil)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("creator deletes", func(t *testing.T) {
		resp, _ := doJSON(t, app, fiber.MethodDelete, "/api/academies/"+academyID, creatorToken, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		resp, _ = doJSON(t, app, fiber.MethodGet, "/api/academies/"+academyID, "", nil)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}
