package cache

import (
	"context"
	"time"
)

// Adapter is the capability set every cache tier must provide.
//
// Get returns (nil, nil) when the key is absent. Entries are returned as
// stored, regardless of freshness; callers run IsFresh before trusting one.
// Evict must be idempotent. Any error returned by a tier is treated by the
// Client as "no data" (Get) or "no-op" (Set, Evict).
type Adapter[V any] interface {
	// Name identifies the tier in reported events.
	Name() string
	// TTL returns a freshness window that overrides the client's stale time
	// for entries written to this tier. ok is false when there is no override.
	TTL() (ttl time.Duration, ok bool)
	Get(ctx context.Context, key string) (*Entry[V], error)
	Set(ctx context.Context, key string, entry *Entry[V]) (V, error)
	Evict(ctx context.Context, key string) error
}

// Operation names used in AdapterError.
const (
	OpGet   = "get"
	OpSet   = "set"
	OpEvict = "evict"
)

// AdapterError wraps a failure raised by a tier.
type AdapterError struct {
	Adapter string
	Op      string
	Err     error
}

// Error implements the error interface.
func (e *AdapterError) Error() string {
	return "cache adapter " + e.Adapter + " " + e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying tier error.
func (e *AdapterError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}
