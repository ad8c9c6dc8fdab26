package cache

import "time"

// Context is the request-scoped state of one Fetch call. It is handed to
// the producer and the failover and cacheability hooks, and discarded when
// the call returns.
type Context[P any] struct {
	// ID correlates every event reported for the request.
	ID string
	// CacheKey may be recomputed once the producer result is known.
	CacheKey  string
	CacheName string
	Params    P
	// CreatedAt and TTL are the metadata given to entries written by this request.
	CreatedAt time.Time
	TTL       time.Duration

	reporter Reporter
}

// Report sends e to the request's reporter.
func (c *Context[P]) Report(e Event) {
	c.reporter.Report(c.info(), e)
}

func (c *Context[P]) info() Info {
	return Info{ID: c.ID, CacheName: c.CacheName, CacheKey: c.CacheKey}
}

// newEntry builds an entry for a tier, applying its TTL override.
func newEntry[P, V any](c *Context[P], tier Adapter[V], value V) *Entry[V] {
	ttl := c.TTL
	if override, ok := tier.TTL(); ok {
		ttl = sanitizeTTL(override)
	}
	return &Entry[V]{Value: value, Metadata: NewMetadata(c.CreatedAt, ttl)}
}
