package cache

import "context"

// cachedResult is the outcome of a tiered read.
type cachedResult[V any] struct {
	entry *Entry[V]
	stale bool
}

// readTier looks key up in one tier. It returns nil when the tier has no
// entry or fails.
func (c *Client[P, V]) readTier(ctx context.Context, rc *Context[P], tier Adapter[V]) *cachedResult[V] {
	adapter := tier.Name()
	rc.Report(GetCachedStart{Adapter: adapter})

	entry, err := tier.Get(ctx, rc.CacheKey)
	if err != nil {
		rc.Report(GetCachedError{Adapter: adapter, Err: &AdapterError{Adapter: adapter, Op: OpGet, Err: err}})
		return nil
	}

	if entry != nil && IsFresh(entry, c.clock.Now()) {
		rc.Report(GetCachedHit{Adapter: adapter, Result: entry.Value})
		return &cachedResult[V]{entry: entry}
	}

	rc.Report(GetCachedMiss{Adapter: adapter})
	if entry == nil {
		return nil
	}
	return &cachedResult[V]{entry: entry, stale: true}
}

// readTiers scans the tiers in order. The first fresh entry wins and is
// backfilled into every tier before it. A stale entry is only accepted from
// the last tier; earlier stale entries are skipped in case a later tier
// holds a fresh copy.
func (c *Client[P, V]) readTiers(ctx context.Context, rc *Context[P]) *cachedResult[V] {
	last := len(c.tiers) - 1

	for i, tier := range c.tiers {
		result := c.readTier(ctx, rc, tier)
		if result == nil || (result.stale && i != last) {
			continue
		}

		if !result.stale {
			c.storeValue(ctx, rc, c.tiers[:i], result.entry.Value)
		}
		return result
	}

	return nil
}
