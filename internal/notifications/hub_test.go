package notifications

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_RegisterAndUnregister(t *testing.T) {
	h := NewHub()

	client, err := h.Register("u1", nil)
	require.NoError(t, err)
	assert.True(t, h.IsOnline("u1"))
	assert.Equal(t, 1, h.ConnectionCount())

	h.UnregisterClient(client)
	assert.False(t, h.IsOnline("u1"))
	assert.Equal(t, 0, h.ConnectionCount())

	// Unregistering twice is safe.
	h.UnregisterClient(client)
	assert.Equal(t, 0, h.ConnectionCount())
}

func TestHub_PerUserConnectionLimit(t *testing.T) {
	h := NewHub()

	for i := 0; i < maxConnsPerUser; i++ {
		_, err := h.Register("u1", nil)
		require.NoError(t, err)
	}

	_, err := h.Register("u1", nil)
	assert.Error(t, err)

	// Other users are unaffected.
	_, err = h.Register("u2", nil)
	assert.NoError(t, err)
}

func TestHub_BroadcastTargetsUser(t *testing.T) {
	h := NewHub()

	c1, err := h.Register("u1", nil)
	require.NoError(t, err)
	c2, err := h.Register("u2", nil)
	require.NoError(t, err)

	h.Broadcast("u1", `{"type":"membership_changed"}`)

	select {
	case msg := <-c1.Send:
		assert.JSONEq(t, `{"type":"membership_changed"}`, string(msg))
	default:
		t.Fatal("expected message for u1")
	}

	select {
	case <-c2.Send:
		t.Fatal("u2 should not receive u1's message")
	default:
	}
}

func TestHub_BroadcastAll(t *testing.T) {
	h := NewHub()

	c1, err := h.Register("u1", nil)
	require.NoError(t, err)
	c2, err := h.Register("u2", nil)
	require.NoError(t, err)

	h.BroadcastAll("ping")

	for _, c := range []*Client{c1, c2} {
		select {
		case msg := <-c.Send:
			assert.Equal(t, "ping", string(msg))
		default:
			t.Fatal("expected broadcast for every client")
		}
	}
}
