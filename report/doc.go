// Package report provides cache.Reporter implementations: structured log
// sinks for logrus and zap, a Prometheus collector, in-memory counters and
// a fan-out combinator.
//
// Every reporter here is safe for concurrent use; the cache client reports
// from parallel store and evict goroutines.
package report
