package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Client binds a producer, a key policy and an ordered list of tiers into a
// single stale-while-revalidate Fetch entry point. A Client is safe for
// concurrent use; concurrent fetches for the same key are not coalesced and
// may each invoke the producer.
type Client[P, V any] struct {
	cacheName            string
	tiers                []Adapter[V]
	fetch                Producer[P, V]
	cacheKey             KeyFunc[P, V]
	staleTime            func() time.Duration
	isCacheable          func(c *Context[P], result V) bool
	serveStaleHitOnError bool
	failover             func(c *Context[P], err error) (V, bool)
	reporter             func(params P) Reporter
	clock                Clock
}

// New validates cfg and builds a Client.
func New[P, V any](cfg Config[P, V]) (*Client[P, V], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	staleTime := TTLFunc(nil)
	if cfg.StaleTime != nil {
		staleTime = cfg.StaleTime
	}

	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock()
	}

	isCacheable := cfg.IsCacheable
	if isCacheable == nil {
		isCacheable = func(*Context[P], V) bool { return true }
	}

	return &Client[P, V]{
		cacheName:            cfg.CacheName,
		tiers:                append([]Adapter[V](nil), cfg.Tiers...),
		fetch:                cfg.Fetch,
		cacheKey:             cfg.CacheKey,
		staleTime:            staleTime.provider(),
		isCacheable:          isCacheable,
		serveStaleHitOnError: cfg.ServeStaleHitOnError,
		failover:             cfg.Failover,
		reporter:             cfg.Reporter,
		clock:                clock,
	}, nil
}

// FetchOption customises a single Fetch call.
type FetchOption func(*fetchOptions)

type fetchOptions struct {
	fresh bool
}

// Fresh skips every tier lookup and always invokes the producer.
func Fresh() FetchOption {
	return func(o *fetchOptions) { o.fresh = true }
}

// WithFresh is Fresh controlled by a flag.
func WithFresh(fresh bool) FetchOption {
	return func(o *fetchOptions) { o.fresh = fresh }
}

// Name returns the cache name.
func (c *Client[P, V]) Name() string {
	return c.cacheName
}

// Fetch returns the value for params, from the first tier holding a fresh
// entry or from the producer. When the producer fails, a stale entry is
// served if ServeStaleHitOnError is set (otherwise it is evicted), then the
// failover value is tried. If nothing applies the producer's error is
// returned unchanged.
func (c *Client[P, V]) Fetch(ctx context.Context, params P, opts ...FetchOption) (V, error) {
	var options fetchOptions
	for _, opt := range opts {
		opt(&options)
	}

	rc := c.newContext(params)

	var cached *cachedResult[V]
	if options.fresh {
		rc.Report(Skip{})
	} else {
		cached = c.readTiers(ctx, rc)
		if cached != nil && !cached.stale {
			return cached.entry.Value, nil
		}
	}

	value, err := c.fetchFresh(ctx, rc)
	if err == nil {
		return value, nil
	}

	if cached != nil {
		if c.serveStaleHitOnError {
			rc.Report(StaleHitFromError{})
			c.storeValue(ctx, rc, c.tiers, cached.entry.Value)
			return cached.entry.Value, nil
		}
		c.evictValue(ctx, rc)
	}

	if c.failover != nil {
		if fallback, ok := c.failover(rc, err); ok {
			return fallback, nil
		}
	}

	var zero V
	return zero, err
}

// Evict removes the entry derived from params from every tier.
func (c *Client[P, V]) Evict(ctx context.Context, params P) {
	c.evictValue(ctx, c.newContext(params))
}

// fetchFresh invokes the producer and stores its result when cacheable.
// Producer failures are reported and returned as is.
func (c *Client[P, V]) fetchFresh(ctx context.Context, rc *Context[P]) (V, error) {
	rc.Report(FetchStart{})

	value, err := c.fetch(ctx, rc)
	if err != nil {
		rc.Report(FetchError{Err: err})
		var zero V
		return zero, err
	}

	rc.Report(FetchSuccess{Result: value})

	rc.CacheKey = c.cacheKey(rc.Params, &value)
	if c.isCacheable(rc, value) {
		c.storeValue(ctx, rc, c.tiers, value)
	} else {
		rc.Report(StoreSkip{})
	}

	return value, nil
}

func (c *Client[P, V]) newContext(params P) *Context[P] {
	now := c.clock.Now()
	rc := &Context[P]{
		ID:        uuid.NewString(),
		CacheKey:  c.cacheKey(params, nil),
		CacheName: c.cacheName,
		Params:    params,
		CreatedAt: now,
		TTL:       c.staleTime(),
		reporter:  NopReporter{},
	}

	if c.reporter != nil {
		if r := c.reporter(params); r != nil {
			rc.reporter = r
		}
	}
	return rc
}
