package report

import (
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/goliatone/go-tiered-cache/cache"
)

// Stats keeps lock-free in-memory event counters, keyed by event name and
// by event name per adapter.
type Stats struct {
	counters *xsync.MapOf[string, *xsync.Counter]
}

var _ cache.Reporter = (*Stats)(nil)

// NewStats creates empty counters.
func NewStats() *Stats {
	return &Stats{counters: xsync.NewMapOf[string, *xsync.Counter]()}
}

// Report implements cache.Reporter.
func (s *Stats) Report(_ cache.Info, e cache.Event) {
	s.inc(string(e.Name()))
	if adapter := cache.AdapterOf(e); adapter != "" {
		s.inc(statsKey(e.Name(), adapter))
	}
}

func (s *Stats) inc(key string) {
	counter, _ := s.counters.LoadOrCompute(key, xsync.NewCounter)
	counter.Inc()
}

// Count returns how many times event was reported.
func (s *Stats) Count(event cache.EventName) int64 {
	return s.value(string(event))
}

// CountFor returns how many times event was reported for adapter.
func (s *Stats) CountFor(event cache.EventName, adapter string) int64 {
	return s.value(statsKey(event, adapter))
}

// HitRatio returns hits over lookups for adapter, or 0 before any lookup.
func (s *Stats) HitRatio(adapter string) float64 {
	hits := s.CountFor(cache.EventGetCachedHit, adapter)
	lookups := hits + s.CountFor(cache.EventGetCachedMiss, adapter) + s.CountFor(cache.EventGetCachedError, adapter)
	if lookups == 0 {
		return 0
	}
	return float64(hits) / float64(lookups)
}

// Snapshot copies every counter.
func (s *Stats) Snapshot() map[string]int64 {
	out := make(map[string]int64, s.counters.Size())
	s.counters.Range(func(key string, counter *xsync.Counter) bool {
		out[key] = counter.Value()
		return true
	})
	return out
}

// Reset zeroes every counter.
func (s *Stats) Reset() {
	s.counters.Clear()
}

func (s *Stats) value(key string) int64 {
	if counter, ok := s.counters.Load(key); ok {
		return counter.Value()
	}
	return 0
}

func statsKey(event cache.EventName, adapter string) string {
	return string(event) + "/" + adapter
}
