package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"academia/internal/bus"
	"academia/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNotifierFixture(t *testing.T) (*Notifier, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewNotifier(rdb), rdb
}

func waitForMessage(t *testing.T, ch <-chan struct {
	channel string
	payload string
}) (string, string) {
	t.Helper()
	select {
	case msg := <-ch:
		return msg.channel, msg.payload
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return "", ""
	}
}

func TestNotifier_MembershipChangeRoundTrip(t *testing.T) {
	n, _ := newNotifierFixture(t)

	got := make(chan struct {
		channel string
		payload string
	}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, n.StartPatternSubscriber(ctx, func(channel, payload string) {
		got <- struct {
			channel string
			payload string
		}{channel, payload}
	}))

	// Subscription is established asynchronously.
	time.Sleep(50 * time.Millisecond)

	event := bus.MembershipEvent{
		AcademyID: "a1",
		Academy:   &models.Academy{ID: "a1", Name: "Go Study Group"},
		IsJoining: true,
		UserID:    "u1",
	}
	require.NoError(t, n.PublishMembershipChange(context.Background(), event))

	channel, payload := waitForMessage(t, got)
	assert.Equal(t, AcademyChannel("a1"), channel)

	var frame struct {
		Type    string              `json:"type"`
		Payload bus.MembershipEvent `json:"payload"`
	}
	require.NoError(t, json.Unmarshal([]byte(payload), &frame))
	assert.Equal(t, "membership_changed", frame.Type)
	assert.Equal(t, "a1", frame.Payload.AcademyID)
	assert.Equal(t, "u1", frame.Payload.UserID)
	assert.True(t, frame.Payload.IsJoining)
	require.NotNil(t, frame.Payload.Academy)
	assert.Equal(t, "Go Study Group", frame.Payload.Academy.Name)
}

func TestNotifier_UserChannelRoundTrip(t *testing.T) {
	n, _ := newNotifierFixture(t)

	got := make(chan struct {
		channel string
		payload string
	}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, n.StartPatternSubscriber(ctx, func(channel, payload string) {
		got <- struct {
			channel string
			payload string
		}{channel, payload}
	}))
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, n.PublishUser(context.Background(), "u1", `{"hello":"world"}`))

	channel, payload := waitForMessage(t, got)
	assert.Equal(t, "events:user:u1", channel)
	assert.JSONEq(t, `{"hello":"world"}`, payload)
}

func TestNotifier_NilClientIsNoOp(t *testing.T) {
	n := NewNotifier(nil)

	assert.NoError(t, n.PublishUser(context.Background(), "u1", "x"))
	assert.NoError(t, n.PublishBroadcast(context.Background(), "x"))
	assert.NoError(t, n.PublishMembershipChange(context.Background(), bus.MembershipEvent{AcademyID: "a1"}))
	assert.NoError(t, n.StartPatternSubscriber(context.Background(), nil))
}
