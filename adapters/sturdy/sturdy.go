// Package sturdy provides a sharded in-process cache tier backed by sturdyc.
//
// sturdyc's own TTL is a hard retention bound: once it passes, the entry is
// gone. Freshness is decided by the entry metadata, so Retention should be
// longer than the client's stale time if stale entries are to be served.
package sturdy

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/viccon/sturdyc"

	"github.com/goliatone/go-tiered-cache/cache"
)

// DefaultName is used when Config.Name is empty.
const DefaultName = "sturdyc"

// Config holds the configuration for the sturdyc tier.
type Config struct {
	// Name identifies the tier in events.
	Name string

	// Capacity defines the maximum number of entries that the cache can store.
	// Must be greater than 0.
	Capacity int

	// NumShards determines the number of cache shards for concurrent access.
	// Higher values improve concurrency but increase memory overhead.
	// Must be greater than 0. Default: 256
	NumShards int

	// Retention is how long sturdyc keeps an entry, stale or not.
	// Must be greater than 0.
	Retention time.Duration

	// EvictionPercentage specifies what percentage of entries to evict
	// when the cache reaches its capacity. Must be between 1-100.
	// Default: 10 (evict 10% of entries)
	EvictionPercentage int

	// EvictionInterval sets how often the cache checks for expired entries.
	// Zero value uses the default interval.
	EvictionInterval time.Duration

	// TTL overrides the client's stale time for entries stored here.
	// Zero means no override.
	TTL time.Duration
}

// DefaultConfig returns a Config with sensible defaults for most use cases.
func DefaultConfig() Config {
	return Config{
		Name:               DefaultName,
		Capacity:           10000,
		NumShards:          256,
		Retention:          24 * time.Hour,
		EvictionPercentage: 10,
	}
}

// ToSturdycOptions converts the Config to sturdyc.Option slice.
// Capacity, NumShards, Retention and EvictionPercentage are passed directly
// to sturdyc.New.
func (c Config) ToSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option

	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}

	return options
}

// Validate checks if the configuration values are valid. The first failing
// field is reported as a *cache.ConfigError.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Capacity, validation.Required, validation.Min(1)),
		validation.Field(&c.NumShards, validation.Required, validation.Min(1)),
		validation.Field(&c.Retention, validation.Required, validation.Min(time.Duration(1))),
		validation.Field(&c.EvictionPercentage, validation.Required, validation.Min(1), validation.Max(100)),
		validation.Field(&c.EvictionInterval, validation.Min(time.Duration(0))),
		validation.Field(&c.TTL, validation.Min(time.Duration(0))),
	)

	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err
	}

	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return &cache.ConfigError{Field: fields[0], Message: errs[fields[0]].Error()}
}

// Adapter stores entries in a sturdyc client.
type Adapter[V any] struct {
	name   string
	ttl    time.Duration
	client *sturdyc.Client[*cache.Entry[V]]
}

var _ cache.Adapter[any] = (*Adapter[any])(nil)

// New validates cfg and creates the tier. A negative TTL means no override.
func New[V any](cfg Config) (*Adapter[V], error) {
	if cfg.TTL < 0 {
		cfg.TTL = 0
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Name == "" {
		cfg.Name = DefaultName
	}

	client := sturdyc.New[*cache.Entry[V]](
		cfg.Capacity,
		cfg.NumShards,
		cfg.Retention,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	return &Adapter[V]{name: cfg.Name, ttl: cfg.TTL, client: client}, nil
}

// Name implements cache.Adapter.
func (a *Adapter[V]) Name() string { return a.name }

// TTL implements cache.Adapter.
func (a *Adapter[V]) TTL() (time.Duration, bool) {
	return a.ttl, a.ttl > 0
}

// Get implements cache.Adapter.
func (a *Adapter[V]) Get(_ context.Context, key string) (*cache.Entry[V], error) {
	entry, ok := a.client.Get(key)
	if !ok {
		return nil, nil
	}
	return entry, nil
}

// Set implements cache.Adapter.
func (a *Adapter[V]) Set(_ context.Context, key string, entry *cache.Entry[V]) (V, error) {
	a.client.Set(key, entry)
	return entry.Value, nil
}

// Evict implements cache.Adapter.
func (a *Adapter[V]) Evict(_ context.Context, key string) error {
	a.client.Delete(key)
	return nil
}

// EvictPrefix removes every entry whose key starts with prefix.
func (a *Adapter[V]) EvictPrefix(_ context.Context, prefix string) error {
	for _, key := range a.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			a.client.Delete(key)
		}
	}
	return nil
}

// Len returns the number of stored entries.
func (a *Adapter[V]) Len() int {
	return a.client.Size()
}
