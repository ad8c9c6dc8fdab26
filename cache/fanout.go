package cache

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// storeInTier writes value into one tier, reporting the outcome.
func (c *Client[P, V]) storeInTier(ctx context.Context, rc *Context[P], tier Adapter[V], value V) bool {
	adapter := tier.Name()
	rc.Report(StoreStart{Adapter: adapter})

	entry := newEntry(rc, tier, value)
	if _, err := tier.Set(ctx, rc.CacheKey, entry); err != nil {
		rc.Report(StoreError{Adapter: adapter, Err: &AdapterError{Adapter: adapter, Op: OpSet, Err: err}})
		return false
	}

	rc.Report(StoreSuccess{
		Adapter:  adapter,
		Result:   value,
		CacheKey: rc.CacheKey,
		TTL:      entry.Metadata.TTL,
	})
	return true
}

// storeValue writes value into every tier concurrently and waits for all of
// them. It reports true when at least one tier accepted the value.
func (c *Client[P, V]) storeValue(ctx context.Context, rc *Context[P], tiers []Adapter[V], value V) bool {
	var (
		g      errgroup.Group
		stored atomic.Bool
	)

	for _, tier := range tiers {
		g.Go(func() error {
			if c.storeInTier(ctx, rc, tier, value) {
				stored.Store(true)
			}
			return nil
		})
	}

	_ = g.Wait()
	return stored.Load()
}

// evictValue removes the request's key from every tier concurrently. Tier
// failures are reported and otherwise ignored.
func (c *Client[P, V]) evictValue(ctx context.Context, rc *Context[P]) {
	var g errgroup.Group

	for _, tier := range c.tiers {
		g.Go(func() error {
			adapter := tier.Name()
			rc.Report(EvictStart{Adapter: adapter})

			if err := tier.Evict(ctx, rc.CacheKey); err != nil {
				rc.Report(EvictError{Adapter: adapter, Err: &AdapterError{Adapter: adapter, Op: OpEvict, Err: err}})
				return nil
			}

			rc.Report(EvictSuccess{Adapter: adapter})
			return nil
		})
	}

	_ = g.Wait()
}
