package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"academia/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	AcademyListingKey = "academies:all"
	AcademyKeyPrefix  = "academy:%s"
	PostKeyPrefix     = "post:%s"
)

const (
	AcademyListingTTL = 10 * time.Minute
	AcademyTTL        = 10 * time.Minute
	PostTTL           = 30 * time.Minute
)

func AcademyKey(id string) string {
	return fmt.Sprintf(AcademyKeyPrefix, id)
}

func PostKey(id string) string {
	return fmt.Sprintf(PostKeyPrefix, id)
}

// GetJSON reads key into out. Returns false on miss, on any Redis error, or
// when the cache is off; reads always fail open to the store.
func GetJSON(ctx context.Context, key string, out any) bool {
	if client == nil {
		return false
	}
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			observability.CacheHits.WithLabelValues("bypass").Inc()
			return false
		}
		observability.CacheHits.WithLabelValues("miss").Inc()
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		observability.CacheHits.WithLabelValues("miss").Inc()
		return false
	}
	observability.CacheHits.WithLabelValues("hit").Inc()
	return true
}

// SetJSON writes value under key with the given TTL. Failures are ignored;
// the next read misses and repopulates.
func SetJSON(ctx context.Context, key string, value any, ttl time.Duration) {
	if client == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	client.Set(ctx, key, data, ttl)
}

// Invalidate removes a key. Safe to call with the cache off.
func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

// InvalidateAcademy drops both the academy's own entry and the listing,
// which embeds its member counts.
func InvalidateAcademy(ctx context.Context, id string) {
	Invalidate(ctx, AcademyKey(id))
	Invalidate(ctx, AcademyListingKey)
}

// InvalidatePost drops the post's entry.
func InvalidatePost(ctx context.Context, id string) {
	Invalidate(ctx, PostKey(id))
}

// ListingAside runs the cache-aside pattern for the academy listing. With
// forceRefresh the cached copy is skipped and overwritten from fetch.
func ListingAside(ctx context.Context, forceRefresh bool, fetch func(context.Context) (json.RawMessage, error)) (json.RawMessage, error) {
	if !forceRefresh {
		var cached json.RawMessage
		if GetJSON(ctx, AcademyListingKey, &cached) {
			return cached, nil
		}
	} else {
		observability.CacheHits.WithLabelValues("bypass").Inc()
	}

	fresh, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	SetJSON(ctx, AcademyListingKey, fresh, AcademyListingTTL)
	return fresh, nil
}
