package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestListingAside_PopulatesAndServesCache(t *testing.T) {
	withMiniredis(t)

	fetches := 0
	fetch := func(_ context.Context) (json.RawMessage, error) {
		fetches++
		return json.RawMessage(`[{"id":"a1"}]`), nil
	}

	out, err := ListingAside(context.Background(), false, fetch)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"a1"}]`, string(out))
	assert.Equal(t, 1, fetches)

	// Second read is served from the cache.
	out, err = ListingAside(context.Background(), false, fetch)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"a1"}]`, string(out))
	assert.Equal(t, 1, fetches)
}

func TestListingAside_ForceRefreshOverwrites(t *testing.T) {
	withMiniredis(t)

	payloads := []string{`[{"id":"a1"}]`, `[{"id":"a1"},{"id":"a2"}]`}
	fetches := 0
	fetch := func(_ context.Context) (json.RawMessage, error) {
		payload := payloads[fetches]
		fetches++
		return json.RawMessage(payload), nil
	}

	_, err := ListingAside(context.Background(), false, fetch)
	require.NoError(t, err)

	out, err := ListingAside(context.Background(), true, fetch)
	require.NoError(t, err)
	assert.JSONEq(t, payloads[1], string(out))
	assert.Equal(t, 2, fetches)

	// The refreshed payload replaced the cached one.
	out, err = ListingAside(context.Background(), false, fetch)
	require.NoError(t, err)
	assert.JSONEq(t, payloads[1], string(out))
	assert.Equal(t, 2, fetches)
}

func TestListingAside_NilClientFallsThrough(t *testing.T) {
	SetClient(nil)

	fetches := 0
	fetch := func(_ context.Context) (json.RawMessage, error) {
		fetches++
		return json.RawMessage(`[]`), nil
	}

	for i := 0; i < 2; i++ {
		out, err := ListingAside(context.Background(), false, fetch)
		require.NoError(t, err)
		assert.JSONEq(t, `[]`, string(out))
	}
	assert.Equal(t, 2, fetches)
}

func TestListingAside_FetchErrorPropagates(t *testing.T) {
	withMiniredis(t)

	_, err := ListingAside(context.Background(), false, func(_ context.Context) (json.RawMessage, error) {
		return nil, errors.New("store down")
	})
	assert.Error(t, err)
}

func TestInvalidateAcademy_DropsListing(t *testing.T) {
	mr := withMiniredis(t)

	SetJSON(context.Background(), AcademyListingKey, json.RawMessage(`[]`), AcademyListingTTL)
	SetJSON(context.Background(), AcademyKey("a1"), json.RawMessage(`{}`), AcademyTTL)
	require.True(t, mr.Exists(AcademyListingKey))
	require.True(t, mr.Exists(AcademyKey("a1")))

	InvalidateAcademy(context.Background(), "a1")
	assert.False(t, mr.Exists(AcademyListingKey))
	assert.False(t, mr.Exists(AcademyKey("a1")))
}
