package client

import (
	"context"
	"fmt"
	"sync"

	"academia/internal/bus"
	"academia/internal/identity"
	"academia/internal/models"
)

// API is the server surface the client calls. The concrete implementation
// is an HTTP client; tests substitute a stub.
type API interface {
	ToggleMembership(ctx context.Context, academyID string, userRef any) (*models.Academy, error)
	ToggleLike(ctx context.Context, postID string, userRef any) (*models.Post, bool, error)
	ListAcademies(ctx context.Context) ([]*models.Academy, error)
	GetAcademy(ctx context.Context, academyID string) (*models.Academy, error)
}

// Client wraps the optimistic toggle protocol around the API.
//
// A membership toggle runs: snapshot the cached document, mutate it
// optimistically, publish a provisional event, call the server. On success
// the cached copy is replaced wholesale with the server document and an
// authoritative event is published. On failure the snapshot is restored and
// no authoritative event is published; the provisional one is superseded by
// nothing, so surfaces that applied it converge when they next refresh or
// when the revert propagates through the cache.
type Client struct {
	api   API
	cache *Cache
	bus   *bus.Bus

	mu       sync.Mutex
	attempts map[string]*toggleAttempt
}

// New creates a Client publishing on the given bus.
func New(api API, cache *Cache, b *bus.Bus) *Client {
	return &Client{
		api:      api,
		cache:    cache,
		bus:      b,
		attempts: make(map[string]*toggleAttempt),
	}
}

// Cache exposes the client's local cache.
func (c *Client) Cache() *Cache { return c.cache }

// State returns the toggle state for the given entity key.
func (c *Client) State(entityKey string) ToggleState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if a, ok := c.attempts[entityKey]; ok {
		return a.state
	}
	return StateIdle
}

func (c *Client) beginAttempt(entityKey string) (*toggleAttempt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.attempts[entityKey]
	if !ok {
		a = &toggleAttempt{}
		c.attempts[entityKey] = a
	}
	if err := a.begin(); err != nil {
		return nil, fmt.Errorf("academy %s: %w", entityKey, err)
	}
	return a, nil
}

// ToggleMembership flips the user's membership in the academy optimistically
// and reconciles with the server. Returns the document the cache holds after
// reconciliation and whether the user is now a member.
func (c *Client) ToggleMembership(ctx context.Context, academyID string, userRef any) (*models.Academy, bool, error) {
	userID := identity.Normalize(userRef)
	if academyID == "" || userID == identity.Absent {
		return nil, false, models.NewValidationError("academy id and user reference are required")
	}

	// One attempt per academy at a time; a second tap while pending is
	// dropped instead of queued.
	attempt, err := c.beginAttempt("academy:" + academyID)
	if err != nil {
		return nil, false, err
	}

	snapshot := c.cache.SnapshotAcademy(academyID)
	optimistic, joining, cached := c.cache.MutateMembership(academyID, userID)
	if cached {
		c.bus.Publish(ctx, bus.MembershipEvent{
			AcademyID:   academyID,
			Academy:     optimistic,
			IsJoining:   joining,
			UserID:      userID,
			Provisional: true,
		})
	}

	server, err := c.api.ToggleMembership(ctx, academyID, userRef)
	if err != nil {
		// Revert and stay silent: no authoritative event follows a failure.
		c.cache.RevertAcademy(snapshot)
		attempt.rollback()
		return snapshot, false, err
	}

	c.cache.ReplaceAcademy(server)
	attempt.confirm()

	nowMember := server.HasMember(userID)
	c.bus.Publish(ctx, bus.MembershipEvent{
		AcademyID: academyID,
		Academy:   server.Clone(),
		IsJoining: nowMember,
		UserID:    userID,
	})
	return server.Clone(), nowMember, nil
}

// ToggleLike flips the user's like on the post optimistically and reconciles
// with the server.
func (c *Client) ToggleLike(ctx context.Context, postID string, userRef any) (*models.Post, bool, error) {
	userID := identity.Normalize(userRef)
	if postID == "" || userID == identity.Absent {
		return nil, false, models.NewValidationError("post id and user reference are required")
	}

	attempt, err := c.beginAttempt("post:" + postID)
	if err != nil {
		return nil, false, err
	}

	snapshot := c.cache.SnapshotPost(postID)
	c.cache.MutateLike(postID, userID)

	server, liked, err := c.api.ToggleLike(ctx, postID, userRef)
	if err != nil {
		c.cache.RevertPost(snapshot)
		attempt.rollback()
		return snapshot, false, err
	}

	c.cache.ReplacePost(server)
	attempt.confirm()
	return server.Clone(), liked, nil
}

// RefreshAcademies fills the listing cache. With force set the cache is
// bypassed and replaced wholesale from the server; otherwise a populated
// cache is served as is.
func (c *Client) RefreshAcademies(ctx context.Context, force bool) ([]*models.Academy, error) {
	if !force && c.cache.HasListing() {
		return c.cache.Academies(), nil
	}

	academies, err := c.api.ListAcademies(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.ReplaceListing(academies)
	return c.cache.Academies(), nil
}
