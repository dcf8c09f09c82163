// Package docstore provides whole-document get/put/delete over named
// collections, with server-assigned creation/update timestamps.
//
// The store deliberately offers no multi-document transactions and no
// partial updates: every write replaces the full document. The toggle
// services above it depend on exactly these semantics (last-writer-wins
// under concurrent read-modify-write), so backends must not silently add
// atomicity.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Collection names used by the application.
const (
	CollectionAcademies = "academies"
	CollectionPosts     = "posts"
	CollectionComments  = "comments"
	CollectionUsers     = "users"
)

// ErrNotFound is returned when no document exists under the given key.
var ErrNotFound = errors.New("document not found")

// Timestamped is implemented by documents that carry store-assigned
// creation/update timestamps. The store stamps documents on Put (before
// marshaling) and on Get (after unmarshaling).
type Timestamped interface {
	SetTimestamps(created, updated time.Time)
}

// Store is a minimal key-value style document store over named collections.
// Get and Put operate on whole documents; there is no field-level patching.
type Store interface {
	// Get reads the document at collection/key into out.
	// Returns ErrNotFound if absent.
	Get(ctx context.Context, collection, key string, out any) error

	// Put writes the whole document at collection/key, preserving the
	// original creation timestamp if the document already exists and
	// refreshing the update timestamp.
	Put(ctx context.Context, collection, key string, doc any) error

	// Delete removes the document at collection/key. Deleting an absent
	// document is not an error.
	Delete(ctx context.Context, collection, key string) error

	// List invokes each with the raw JSON of every document in the
	// collection. Iteration order is unspecified.
	List(ctx context.Context, collection string, each func(data []byte) error) error

	// Close releases backend resources.
	Close() error
}

// envelope wraps a stored document with the store-assigned timestamps.
type envelope struct {
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Data      json.RawMessage `json:"data"`
}
