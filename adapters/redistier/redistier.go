// Package redistier provides a shared cache tier stored in Redis.
//
// Entries are msgpack encoded together with their metadata so freshness
// survives the round trip. Redis expiration is only a retention bound; by
// default keys never expire so stale entries remain available.
package redistier

import (
	"context"
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-redis/redis/v8"

	"github.com/goliatone/go-tiered-cache/cache"
	"github.com/goliatone/go-tiered-cache/internal/codec"
)

// DefaultName is used when Config.Name is empty.
const DefaultName = "redis"

// Config configures the tier.
type Config struct {
	Name string

	// Prefix namespaces every key as Prefix:key. Empty leaves keys untouched.
	Prefix string

	// Expiration is the Redis TTL set on each key. Zero keeps keys forever.
	Expiration time.Duration

	// TTL overrides the client's stale time. Zero means no override.
	TTL time.Duration
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Expiration, validation.Min(time.Duration(0))),
		validation.Field(&c.TTL, validation.Min(time.Duration(0))),
	)
}

// Adapter is a Redis backed tier. Any redis.Cmdable works: a single client,
// a cluster client or a ring.
type Adapter[V any] struct {
	cfg Config
	rdb redis.Cmdable
}

var _ cache.Adapter[any] = (*Adapter[any])(nil)

// New creates the tier on top of rdb. A negative TTL means no override.
func New[V any](rdb redis.Cmdable, cfg Config) (*Adapter[V], error) {
	if rdb == nil {
		return nil, &cache.ConfigError{Field: "Client", Message: "redis client is required"}
	}
	if cfg.TTL < 0 {
		cfg.TTL = 0
	}
	if err := cfg.Validate(); err != nil {
		return nil, &cache.ConfigError{Field: "redistier", Message: err.Error()}
	}
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	return &Adapter[V]{cfg: cfg, rdb: rdb}, nil
}

// Name implements cache.Adapter.
func (a *Adapter[V]) Name() string { return a.cfg.Name }

// TTL implements cache.Adapter.
func (a *Adapter[V]) TTL() (time.Duration, bool) {
	return a.cfg.TTL, a.cfg.TTL > 0
}

// Key returns the Redis key used for key.
func (a *Adapter[V]) Key(key string) string {
	if a.cfg.Prefix == "" {
		return key
	}
	return a.cfg.Prefix + ":" + key
}

// Get implements cache.Adapter.
func (a *Adapter[V]) Get(ctx context.Context, key string) (*cache.Entry[V], error) {
	data, err := a.rdb.Get(ctx, a.Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return codec.Decode[V](data)
}

// Set implements cache.Adapter.
func (a *Adapter[V]) Set(ctx context.Context, key string, entry *cache.Entry[V]) (V, error) {
	var zero V

	data, err := codec.Encode(entry)
	if err != nil {
		return zero, err
	}
	if err := a.rdb.Set(ctx, a.Key(key), data, a.cfg.Expiration).Err(); err != nil {
		return zero, fmt.Errorf("redis set: %w", err)
	}
	return entry.Value, nil
}

// Evict implements cache.Adapter.
func (a *Adapter[V]) Evict(ctx context.Context, key string) error {
	if err := a.rdb.Del(ctx, a.Key(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Clear removes every key under the configured prefix. Without a prefix it
// refuses to run.
func (a *Adapter[V]) Clear(ctx context.Context) error {
	if a.cfg.Prefix == "" {
		return &cache.ConfigError{Field: "Prefix", Message: "clear requires a prefix"}
	}

	iter := a.rdb.Scan(ctx, 0, a.cfg.Prefix+":*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}

	if len(keys) > 0 {
		return a.rdb.Del(ctx, keys...).Err()
	}
	return nil
}
