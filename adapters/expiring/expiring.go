// Package expiring provides an in-process cache tier backed by
// patrickmn/go-cache. Entries can carry a hard retention after which the
// janitor drops them, independent of freshness.
package expiring

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	gocache "github.com/patrickmn/go-cache"

	"github.com/goliatone/go-tiered-cache/cache"
)

// DefaultName is used when Config.Name is empty.
const DefaultName = "go-cache"

// Config configures the tier.
type Config struct {
	Name string

	// Retention is the hard expiration of stored entries. Zero keeps them
	// until evicted or flushed.
	Retention time.Duration

	// CleanupInterval is how often expired entries are purged. Zero
	// disables the janitor; expired entries are then only hidden from Get.
	CleanupInterval time.Duration

	// TTL overrides the client's stale time. Zero means no override.
	TTL time.Duration
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Retention, validation.Min(time.Duration(0))),
		validation.Field(&c.CleanupInterval, validation.Min(time.Duration(0))),
		validation.Field(&c.TTL, validation.Min(time.Duration(0))),
	)
}

// Adapter is a go-cache backed tier.
type Adapter[V any] struct {
	name  string
	ttl   time.Duration
	store *gocache.Cache
}

var _ cache.Adapter[any] = (*Adapter[any])(nil)

// New validates cfg and creates the tier. A negative TTL means no override.
func New[V any](cfg Config) (*Adapter[V], error) {
	if cfg.TTL < 0 {
		cfg.TTL = 0
	}
	if err := cfg.Validate(); err != nil {
		return nil, &cache.ConfigError{Field: "expiring", Message: err.Error()}
	}

	if cfg.Name == "" {
		cfg.Name = DefaultName
	}

	retention := gocache.NoExpiration
	if cfg.Retention > 0 {
		retention = cfg.Retention
	}

	return &Adapter[V]{
		name:  cfg.Name,
		ttl:   cfg.TTL,
		store: gocache.New(retention, cfg.CleanupInterval),
	}, nil
}

// Name implements cache.Adapter.
func (a *Adapter[V]) Name() string { return a.name }

// TTL implements cache.Adapter.
func (a *Adapter[V]) TTL() (time.Duration, bool) {
	return a.ttl, a.ttl > 0
}

// Get implements cache.Adapter.
func (a *Adapter[V]) Get(_ context.Context, key string) (*cache.Entry[V], error) {
	raw, ok := a.store.Get(key)
	if !ok {
		return nil, nil
	}
	entry, ok := raw.(*cache.Entry[V])
	if !ok {
		// A foreign value under our key; treat it as absent.
		return nil, nil
	}
	return entry, nil
}

// Set implements cache.Adapter.
func (a *Adapter[V]) Set(_ context.Context, key string, entry *cache.Entry[V]) (V, error) {
	a.store.Set(key, entry, gocache.DefaultExpiration)
	return entry.Value, nil
}

// Evict implements cache.Adapter.
func (a *Adapter[V]) Evict(_ context.Context, key string) error {
	a.store.Delete(key)
	return nil
}

// Flush drops every entry.
func (a *Adapter[V]) Flush() {
	a.store.Flush()
}

// Len returns the number of stored entries, expired ones included.
func (a *Adapter[V]) Len() int {
	return a.store.ItemCount()
}
