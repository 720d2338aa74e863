// Package cache provides response and embedding caching backed by Redis,
// with an in-memory fallback when no Redis server is reachable.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache stores serialized values under string keys with a TTL.
type Cache interface {
	// Get returns the value stored under key, or ok=false on a miss.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores value under key for the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any underlying connections.
	Close() error
}

// QueryKey derives the cache key for a query string. The query is
// whitespace-normalized first so trivial spacing differences hit the same
// entry.
func QueryKey(query string) string {
	return "query:" + hashKey(strings.Join(strings.Fields(query), " "))
}

// EmbeddingKey derives the cache key for an embedding input, scoped by model
// so that switching embedding models never returns stale vectors.
func EmbeddingKey(model, text string) string {
	return "embedding:" + hashKey(model+"\x00"+text)
}

func hashKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
