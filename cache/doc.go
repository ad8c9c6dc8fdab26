// Package cache provides a tiered stale-while-revalidate cache client.
//
// # Overview
//
// A Client binds three things together:
//
//   - A producer: the authoritative, usually slow, source of a value
//   - A key policy: how request parameters (and optionally the result) map to a cache key
//   - An ordered list of tiers: storage adapters, fastest first
//
// Every tier implements Adapter and stores Entry values. An entry carries
// Metadata (creation time, TTL and last access time) that decides whether it
// is fresh.
//
// # Basic Usage
//
//	client, err := cache.New(cache.Config[PostParams, Post]{
//		CacheName: "posts",
//		Tiers:     []cache.Adapter[Post]{memory, durable},
//		Fetch: func(ctx context.Context, c *cache.Context[PostParams]) (Post, error) {
//			return api.GetPost(ctx, c.Params.Slug)
//		},
//		CacheKey: func(p PostParams, _ *Post) string {
//			return "posts-" + p.Slug
//		},
//		StaleTime:            cache.FixedTTL(time.Minute),
//		ServeStaleHitOnError: true,
//	})
//
//	post, err := client.Fetch(ctx, PostParams{Slug: "hello"})
//
// # Read Path
//
// Fetch reads the tiers in order:
//
//  1. The first fresh entry wins and is written back into every earlier tier
//  2. A stale entry in an earlier tier is skipped
//  3. A stale entry in the last tier is kept as the stale candidate
//  4. A failing tier counts as a miss
//
// When no fresh entry exists the producer runs. A successful result is written
// to every tier concurrently, unless IsCacheable rejects it. When the producer
// fails, the stale candidate is served (ServeStaleHitOnError) or evicted, then
// Failover gets a chance to supply a value. Otherwise the producer's error is
// returned unchanged.
//
// Fresh() skips the tiers entirely for a single call.
//
// # Freshness
//
// An entry is fresh while CreatedAt+TTL is after now. A zero TTL is never
// fresh and Forever is never stale. Entries without metadata are always fresh.
// A fresh check updates the last access time, which recency tiers use for
// eviction.
//
// # Events
//
// Each step reports an Event to the Reporter returned by Config.Reporter.
// Events from the same Fetch share an Info.ID. Writes and evictions run in
// parallel, so reporters must be safe for concurrent use.
//
// # Key Serialization
//
// KeyFromParams builds a KeyFunc from a KeySerializer, which turns arbitrary
// arguments into a deterministic string:
//
//   - Basic types: direct string representation
//   - Slices/arrays: recursive serialization of elements
//   - Maps: sorted key-value pairs for deterministic output
//   - Structs: exported fields with name:value pairs
//   - Functions and channels: pointer values, stable only within a process
//
// NewHashedKeySerializer bounds key length for backends with key size limits.
//
// # See Also
//
// The adapters directory holds tier implementations. The repositorycache
// package wraps go-repository-bun repositories with a Client per read method.
package cache
