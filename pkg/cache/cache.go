// Package cache provides response caching backends for the HTTP client core.
//
// Each provider fetch run owns its own cache view (keys are prefixed per
// provider), so quota and freshness semantics never leak across providers.
// The default backend is in-memory: a run starts cold and cache benefit is
// realized only for lookups repeated within a single run. File and Redis
// backends are explicit opt-ins for setups that want cross-run reuse.
package cache

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL is the time-to-live applied to cached responses when the
// configuration does not override it.
const DefaultTTL = 300 * time.Second

// ErrCacheMiss is returned by helpers that require a cached value to exist.
var ErrCacheMiss = errors.New("cache miss")

// Cache stores raw response bytes with per-entry expiry.
//
// Get returns (nil, false, nil) both when the key was never stored and when
// the stored entry has expired; expired entries are treated as absent and
// physical removal may be deferred. Set overwrites unconditionally
// (last-write-wins). A ttl of 0 means the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
