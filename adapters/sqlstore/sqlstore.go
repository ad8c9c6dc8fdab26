// Package sqlstore provides a durable cache tier stored in a SQL table
// through bun. Values are msgpack encoded; freshness metadata lives in its
// own columns.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-tiered-cache/cache"
	"github.com/goliatone/go-tiered-cache/internal/codec"
)

// DefaultName is used when Config.Name is empty.
const DefaultName = "sql"

// Config configures the tier.
type Config struct {
	Name string

	// TTL overrides the client's stale time. Zero means no override.
	TTL time.Duration

	// IsNotFound reports whether a Records error means the key is absent.
	// Defaults to matching sql.ErrNoRows.
	IsNotFound func(error) bool
}

// Adapter is a SQL backed tier.
type Adapter[V any] struct {
	name       string
	ttl        time.Duration
	records    Records
	isNotFound func(error) bool
}

var _ cache.Adapter[any] = (*Adapter[any])(nil)

// New creates the tier over records. A negative TTL means no override.
func New[V any](records Records, cfg Config) (*Adapter[V], error) {
	if records == nil {
		return nil, &cache.ConfigError{Field: "Records", Message: "records store is required"}
	}
	if cfg.TTL < 0 {
		cfg.TTL = 0
	}
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.IsNotFound == nil {
		cfg.IsNotFound = func(err error) bool { return errors.Is(err, sql.ErrNoRows) }
	}

	return &Adapter[V]{
		name:       cfg.Name,
		ttl:        cfg.TTL,
		records:    records,
		isNotFound: cfg.IsNotFound,
	}, nil
}

// Name implements cache.Adapter.
func (a *Adapter[V]) Name() string { return a.name }

// TTL implements cache.Adapter.
func (a *Adapter[V]) TTL() (time.Duration, bool) {
	return a.ttl, a.ttl > 0
}

// Get implements cache.Adapter.
func (a *Adapter[V]) Get(ctx context.Context, key string) (*cache.Entry[V], error) {
	record, err := a.records.GetByIdentifier(ctx, key)
	if err != nil {
		if a.isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlstore get: %w", err)
	}
	if record == nil {
		return nil, nil
	}
	return decodeRecord[V](record)
}

// Set implements cache.Adapter.
func (a *Adapter[V]) Set(ctx context.Context, key string, entry *cache.Entry[V]) (V, error) {
	var zero V

	record, err := encodeRecord(key, entry)
	if err != nil {
		return zero, err
	}
	if _, err := a.records.Upsert(ctx, record); err != nil {
		return zero, fmt.Errorf("sqlstore set: %w", err)
	}
	return entry.Value, nil
}

// Evict implements cache.Adapter.
func (a *Adapter[V]) Evict(ctx context.Context, key string) error {
	if err := a.records.Delete(ctx, &Record{Key: key}); err != nil && !a.isNotFound(err) {
		return fmt.Errorf("sqlstore evict: %w", err)
	}
	return nil
}

func encodeRecord[V any](key string, entry *cache.Entry[V]) (*Record, error) {
	payload, err := codec.EncodeValue(entry.Value)
	if err != nil {
		return nil, err
	}

	record := &Record{Key: key, Payload: payload}
	if m := entry.Metadata; m != nil {
		record.HasMeta = true
		record.CreatedAt = m.CreatedAt.UnixNano()
		record.TTL = int64(m.TTL)
		record.LastAccessedAt = m.LastAccessedAt().UnixNano()
	}
	return record, nil
}

func decodeRecord[V any](record *Record) (*cache.Entry[V], error) {
	value, err := codec.DecodeValue[V](record.Payload)
	if err != nil {
		return nil, err
	}

	entry := &cache.Entry[V]{Value: value}
	if record.HasMeta {
		entry.Metadata = cache.NewMetadata(time.Unix(0, record.CreatedAt), time.Duration(record.TTL))
		entry.Metadata.Touch(time.Unix(0, record.LastAccessedAt))
	}
	return entry, nil
}
