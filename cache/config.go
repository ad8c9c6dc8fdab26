package cache

import (
	"context"
	"time"
)

// Producer fetches a fresh value from the source of truth.
type Producer[P, V any] func(ctx context.Context, c *Context[P]) (V, error)

// KeyFunc derives the cache key for params. result is nil while the key is
// computed before fetching and points to the fetched value afterwards, so
// keys may depend on the data itself.
type KeyFunc[P, V any] func(params P, result *V) string

// Config is the static configuration of a Client.
type Config[P, V any] struct {
	// CacheName is the logical namespace reported with every event.
	CacheName string

	// Tiers are consulted in order: fastest and least durable first.
	Tiers []Adapter[V]

	// Fetch produces fresh values. Required.
	Fetch Producer[P, V]

	// CacheKey derives keys from params and, after a fetch, the result. Required.
	CacheKey KeyFunc[P, V]

	// StaleTime is how long a produced value stays fresh. nil means Forever.
	StaleTime TTLPolicy

	// IsCacheable decides whether a fetched value is written to the tiers.
	// nil means every value is cacheable.
	IsCacheable func(c *Context[P], result V) bool

	// ServeStaleHitOnError serves (and re-stores) a stale entry when the
	// producer fails instead of evicting it.
	ServeStaleHitOnError bool

	// Failover returns a default value when the producer fails and no stale
	// value is served. The value is returned to the caller but never cached.
	Failover func(c *Context[P], err error) (V, bool)

	// Reporter builds the event sink for a request. nil discards events.
	Reporter func(params P) Reporter

	// Clock defaults to the system clock.
	Clock Clock
}

// TTLPolicy is either a fixed duration (FixedTTL) or a function evaluated
// once per request (TTLFunc).
type TTLPolicy interface {
	provider() func() time.Duration
}

type fixedTTL time.Duration

// FixedTTL returns a policy with a constant stale time. Negative values mean
// Forever.
func FixedTTL(d time.Duration) TTLPolicy {
	return fixedTTL(d)
}

func (f fixedTTL) provider() func() time.Duration {
	ttl := sanitizeTTL(time.Duration(f))
	return func() time.Duration { return ttl }
}

type ttlFunc func() time.Duration

// TTLFunc returns a policy computed for every request. Negative results are
// treated as Forever.
func TTLFunc(fn func() time.Duration) TTLPolicy {
	return ttlFunc(fn)
}

func (f ttlFunc) provider() func() time.Duration {
	if f == nil {
		return func() time.Duration { return Forever }
	}
	return func() time.Duration { return sanitizeTTL(f()) }
}

func sanitizeTTL(d time.Duration) time.Duration {
	if d < 0 {
		return Forever
	}
	return d
}

// Validate checks the required fields of the configuration.
func (c Config[P, V]) Validate() error {
	if c.Fetch == nil {
		return &ConfigError{Field: "Fetch", Message: "cannot be nil"}
	}
	if c.CacheKey == nil {
		return &ConfigError{Field: "CacheKey", Message: "cannot be nil"}
	}
	for _, tier := range c.Tiers {
		if tier == nil {
			return &ConfigError{Field: "Tiers", Message: "cannot contain nil adapters"}
		}
	}
	return nil
}
