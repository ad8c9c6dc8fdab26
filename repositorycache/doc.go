// Package repositorycache provides cached repository decorators for go-repository-bun.
//
// # Overview
//
// CachedRepository wraps any repository exposing GetByID, GetByIdentifier,
// Update and Delete (every go-repository-bun Repository[T] does) and serves
// the two reads through tiered stale-while-revalidate cache clients.
//
// # Basic Usage
//
//	base := repository.NewRepository[*User](db, handlers)
//
//	cached, err := repositorycache.New[*User](base, repositorycache.Config[*User]{
//		Tiers:                []cache.Adapter[*User]{memory, durable},
//		StaleTime:            cache.FixedTTL(5 * time.Minute),
//		ServeStaleHitOnError: true,
//	})
//
//	user, err := cached.GetByID(ctx, "user-123")
//
// # Keys
//
// Keys are built from the namespace (the snake_case type name unless set),
// the method, the lookup value and the select criteria. Criteria are
// functions, so their part of the key is only stable within a process;
// shared tiers should be used with criteria-less reads.
//
// # Writes
//
// Update and Delete pass through to the base repository. On success every
// cached read of the record is evicted from all tiers: the plain lookups by
// ID and identifier, and every criteria variant this process has read.
//
// # Bypassing the Cache
//
// WithFreshRead marks a context so reads skip the tiers and go to the base
// repository; the result is still written back.
package repositorycache
