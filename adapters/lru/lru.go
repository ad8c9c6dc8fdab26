// Package lru provides the in-process recency cache tier.
//
// The tier is a bounded map. Writes that push it over its size run a two
// phase sweep: entries past their TTL are dropped first, then the least
// recently accessed entries until the bound holds again. Access times are
// only updated by cache.IsFresh, so only fresh reads keep an entry alive.
//
// Get never checks freshness; callers must.
package lru

import (
	"context"
	"sort"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-tiered-cache/cache"
)

const (
	// DefaultName is used when Config.Name is empty.
	DefaultName = "LRU"
	// DefaultSize is used when Config.Size is not positive.
	DefaultSize = 100
)

// Config configures the recency cache.
type Config struct {
	// Name identifies the tier in events.
	Name string

	// Size is the maximum number of entries kept after a sweep.
	Size int

	// TTL overrides the client's stale time for entries stored here.
	// Ignored when TTLFunc is set. Zero means no override.
	TTL time.Duration

	// TTLFunc computes the override once, when the tier is created. A
	// negative result means no override, like a negative TTL.
	TTLFunc func() time.Duration

	// Clock drives the staleness sweep. Defaults to the system clock.
	Clock cache.Clock
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Size, validation.Min(0)),
		validation.Field(&c.TTL, validation.Min(time.Duration(0))),
	)
}

// withDefaults replaces invalid or missing values by their defaults.
func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.Size <= 0 {
		c.Size = DefaultSize
	}
	if c.TTLFunc != nil {
		c.TTL, c.TTLFunc = c.TTLFunc(), nil
	}
	if c.TTL < 0 {
		c.TTL = 0
	}
	if c.Clock == nil {
		c.Clock = cache.SystemClock()
	}
	return c
}

// Adapter is the recency cache tier.
type Adapter[V any] struct {
	mu      sync.Mutex
	cfg     Config
	entries map[string]*cache.Entry[V]
}

var _ cache.Adapter[any] = (*Adapter[any])(nil)

// New creates a recency cache. Invalid sizes and TTLs fall back to their
// defaults instead of failing.
func New[V any](cfg Config) *Adapter[V] {
	cfg = cfg.withDefaults()
	return &Adapter[V]{
		cfg:     cfg,
		entries: make(map[string]*cache.Entry[V], cfg.Size+1),
	}
}

// Name implements cache.Adapter.
func (a *Adapter[V]) Name() string { return a.cfg.Name }

// TTL implements cache.Adapter.
func (a *Adapter[V]) TTL() (time.Duration, bool) {
	return a.cfg.TTL, a.cfg.TTL > 0
}

// Get implements cache.Adapter. The entry is returned even when stale.
func (a *Adapter[V]) Get(_ context.Context, key string) (*cache.Entry[V], error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.entries[key], nil
}

// Set implements cache.Adapter.
func (a *Adapter[V]) Set(_ context.Context, key string, entry *cache.Entry[V]) (V, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.entries[key] = entry
	if len(a.entries) > a.cfg.Size {
		a.sweep(a.cfg.Clock.Now())
	}
	return entry.Value, nil
}

// Evict implements cache.Adapter.
func (a *Adapter[V]) Evict(_ context.Context, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.entries, key)
	return nil
}

// Len returns the number of stored entries.
func (a *Adapter[V]) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

// Keys returns the stored keys in no particular order.
func (a *Adapter[V]) Keys() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	keys := make([]string, 0, len(a.entries))
	for k := range a.entries {
		keys = append(keys, k)
	}
	return keys
}

// sweep must be called with a.mu held.
func (a *Adapter[V]) sweep(now time.Time) {
	for key, entry := range a.entries {
		if entry.Metadata != nil && entry.Metadata.StaleAt(now) {
			delete(a.entries, key)
		}
	}

	excess := len(a.entries) - a.cfg.Size
	if excess <= 0 {
		return
	}

	type candidate struct {
		key      string
		accessed time.Time
	}
	candidates := make([]candidate, 0, len(a.entries))
	for key, entry := range a.entries {
		c := candidate{key: key}
		if entry.Metadata != nil {
			c.accessed = entry.Metadata.LastAccessedAt()
		}
		candidates = append(candidates, c)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].accessed.Equal(candidates[j].accessed) {
			return candidates[i].accessed.Before(candidates[j].accessed)
		}
		return candidates[i].key < candidates[j].key
	})

	for _, c := range candidates[:excess] {
		delete(a.entries, c.key)
	}
}
