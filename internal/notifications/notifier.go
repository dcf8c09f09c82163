package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime/debug"

	"academia/internal/bus"

	"github.com/redis/go-redis/v9"
)

const (
	userChannelPrefix    = "events:user:"
	academyChannelPrefix = "events:academy:"
	broadcastChannel     = "events:broadcast"
)

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID string) string {
	return userChannelPrefix + userID
}

// AcademyChannel derives the Redis channel name for an academy.
func AcademyChannel(academyID string) string {
	return academyChannelPrefix + academyID
}

// Notifier provides helpers to publish events into Redis channels. A nil
// Redis client makes every publish a no-op; single-instance deployments run
// without Redis and rely on the in-process bus alone.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishUser sends an event payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID string, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// PublishBroadcast sends an event payload to all connected users.
func (n *Notifier) PublishBroadcast(ctx context.Context, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, broadcastChannel, payload).Err()
}

// envelope is the wire frame for events pushed over WebSocket.
type envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// PublishMembershipChange publishes a membership event to the academy's
// channel so every instance's hub can push it to connected clients.
func (n *Notifier) PublishMembershipChange(ctx context.Context, event bus.MembershipEvent) error {
	if n.rdb == nil {
		return nil
	}
	data, err := json.Marshal(envelope{Type: "membership_changed", Payload: event})
	if err != nil {
		return fmt.Errorf("marshal membership event: %w", err)
	}
	return n.rdb.Publish(ctx, AcademyChannel(event.AcademyID), string(data)).Err()
}

// PublishLikeChange publishes a like-count change for a post to the
// academy's channel.
func (n *Notifier) PublishLikeChange(ctx context.Context, academyID, postID string, likes int, liked bool, userID string) error {
	if n.rdb == nil {
		return nil
	}
	data, err := json.Marshal(envelope{Type: "like_changed", Payload: map[string]any{
		"postId": postID,
		"likes":  likes,
		"liked":  liked,
		"userId": userID,
	}})
	if err != nil {
		return fmt.Errorf("marshal like event: %w", err)
	}
	return n.rdb.Publish(ctx, AcademyChannel(academyID), string(data)).Err()
}

// StartPatternSubscriber subscribes to the event channel patterns and calls
// onMessage for each incoming message. onMessage receives channel and payload.
func (n *Notifier) StartPatternSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPrefix+"*", academyChannelPrefix+"*", broadcastChannel)
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in PatternSubscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}
