package cache

import (
	"math"
	"sync/atomic"
	"time"
)

// Forever is the TTL of an entry that never goes stale.
const Forever time.Duration = math.MaxInt64

// Metadata holds the freshness bookkeeping attached to a cached value.
// CreatedAt and TTL are fixed once the entry is built; the last access
// instant is updated concurrently by readers and must go through
// LastAccessedAt and Touch.
type Metadata struct {
	CreatedAt time.Time
	TTL       time.Duration

	lastAccessedAt atomic.Int64
}

// NewMetadata returns metadata created at createdAt whose last access is
// also createdAt.
func NewMetadata(createdAt time.Time, ttl time.Duration) *Metadata {
	m := &Metadata{CreatedAt: createdAt, TTL: ttl}
	m.Touch(createdAt)
	return m
}

// LastAccessedAt reports the last instant a fresh read was observed.
func (m *Metadata) LastAccessedAt() time.Time {
	return time.Unix(0, m.lastAccessedAt.Load())
}

// Touch records t as the last access instant.
func (m *Metadata) Touch(t time.Time) {
	m.lastAccessedAt.Store(t.UnixNano())
}

// ExpiresAt returns the instant the entry stops being fresh. The boolean is
// false for entries that never expire.
func (m *Metadata) ExpiresAt() (time.Time, bool) {
	if m.TTL >= Forever {
		return time.Time{}, false
	}
	return m.CreatedAt.Add(m.TTL), true
}

// StaleAt reports whether the entry is past its TTL at now. Used by sweeps
// that must not update the access time.
func (m *Metadata) StaleAt(now time.Time) bool {
	expiresAt, ok := m.ExpiresAt()
	return ok && expiresAt.Before(now)
}

// Entry is the unit stored in every tier.
type Entry[V any] struct {
	Value    V
	Metadata *Metadata
}

// IsFresh reports whether entry is still fresh at now and, when it is,
// records now as its last access. Entries without metadata are always fresh.
// A nil entry is never fresh.
func IsFresh[V any](entry *Entry[V], now time.Time) bool {
	if entry == nil {
		return false
	}
	if entry.Metadata == nil {
		return true
	}

	expiresAt, ok := entry.Metadata.ExpiresAt()
	if ok && !expiresAt.After(now) {
		return false
	}

	entry.Metadata.Touch(now)
	return true
}

// Clock abstracts time so tests can drive freshness deterministically.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return realClock{} }
