package testsupport

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-tiered-cache/cache"
)

var _ cache.Adapter[any] = (*Tier[any])(nil)

// Tier is an in-memory cache.Adapter that records calls and can be told to
// fail. It never evicts on its own.
type Tier[V any] struct {
	mu       sync.Mutex
	name     string
	ttl      time.Duration
	hasTTL   bool
	entries  map[string]*cache.Entry[V]
	calls    map[string]int
	getErr   error
	setErr   error
	evictErr error
}

// NewTier creates an empty tier.
func NewTier[V any](name string) *Tier[V] {
	return &Tier[V]{
		name:    name,
		entries: make(map[string]*cache.Entry[V]),
		calls:   make(map[string]int),
	}
}

// WithTTL sets the tier's TTL override.
func (t *Tier[V]) WithTTL(ttl time.Duration) *Tier[V] {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ttl, t.hasTTL = ttl, true
	return t
}

// FailGet makes every Get return err. A nil err restores normal behaviour.
func (t *Tier[V]) FailGet(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.getErr = err
}

// FailSet makes every Set return err.
func (t *Tier[V]) FailSet(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setErr = err
}

// FailEvict makes every Evict return err.
func (t *Tier[V]) FailEvict(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.evictErr = err
}

// Name implements cache.Adapter.
func (t *Tier[V]) Name() string { return t.name }

// TTL implements cache.Adapter.
func (t *Tier[V]) TTL() (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ttl, t.hasTTL
}

// Get implements cache.Adapter.
func (t *Tier[V]) Get(_ context.Context, key string) (*cache.Entry[V], error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls[cache.OpGet]++
	if t.getErr != nil {
		return nil, t.getErr
	}
	return t.entries[key], nil
}

// Set implements cache.Adapter.
func (t *Tier[V]) Set(_ context.Context, key string, entry *cache.Entry[V]) (V, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls[cache.OpSet]++
	if t.setErr != nil {
		var zero V
		return zero, t.setErr
	}
	t.entries[key] = entry
	return entry.Value, nil
}

// Evict implements cache.Adapter.
func (t *Tier[V]) Evict(_ context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls[cache.OpEvict]++
	if t.evictErr != nil {
		return t.evictErr
	}
	delete(t.entries, key)
	return nil
}

// Seed stores an entry without counting a call.
func (t *Tier[V]) Seed(key string, value V, createdAt time.Time, ttl time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[key] = &cache.Entry[V]{Value: value, Metadata: cache.NewMetadata(createdAt, ttl)}
}

// Peek returns the stored entry without counting a call.
func (t *Tier[V]) Peek(key string) (*cache.Entry[V], bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.entries[key]
	return entry, ok
}

// Len returns the number of stored entries.
func (t *Tier[V]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Calls returns how many times op (cache.OpGet, OpSet, OpEvict) ran.
func (t *Tier[V]) Calls(op string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls[op]
}

// ResetCalls clears the call counters.
func (t *Tier[V]) ResetCalls() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = make(map[string]int)
}
