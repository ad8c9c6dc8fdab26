package cache

import "time"

// EventName is the canonical name of a lifecycle event.
type EventName string

const (
	EventGetCachedStart    EventName = "onGetCachedStart"
	EventGetCachedHit      EventName = "onGetCachedHit"
	EventGetCachedMiss     EventName = "onGetCachedMiss"
	EventGetCachedError    EventName = "onGetCachedError"
	EventSkip              EventName = "onSkip"
	EventFetchStart        EventName = "onFetchStart"
	EventFetchSuccess      EventName = "onFetchSuccess"
	EventFetchError        EventName = "onFetchError"
	EventStoreStart        EventName = "onStoreStart"
	EventStoreSkip         EventName = "onStoreSkip"
	EventStoreSuccess      EventName = "onStoreSuccess"
	EventStoreError        EventName = "onStoreError"
	EventStaleHitFromError EventName = "onStaleHitFromError"
	EventEvictStart        EventName = "onEvictStart"
	EventEvictSuccess      EventName = "onEvictSuccess"
	EventEvictError        EventName = "onEvictError"
	EventCustom            EventName = "onCustom"
)

// Event is one case of the lifecycle event union. The set of cases is
// closed: only types declared in this package implement it.
type Event interface {
	Name() EventName
	event()
}

type (
	// GetCachedStart is reported before a tier lookup.
	GetCachedStart struct{ Adapter string }
	// GetCachedHit is reported when a tier returns a fresh entry.
	GetCachedHit struct {
		Adapter string
		Result  any
	}
	// GetCachedMiss is reported when a tier has no entry or a stale one.
	GetCachedMiss struct{ Adapter string }
	// GetCachedError is reported when a tier lookup fails.
	GetCachedError struct {
		Adapter string
		Err     error
	}
	// Skip is reported when the caller bypasses the tiers.
	Skip struct{}
	// FetchStart is reported before the producer runs.
	FetchStart struct{}
	// FetchSuccess carries the value returned by the producer.
	FetchSuccess struct{ Result any }
	// FetchError carries the producer failure.
	FetchError struct{ Err error }
	// StoreStart is reported before a tier write.
	StoreStart struct{ Adapter string }
	// StoreSkip is reported when a fetched value is not cacheable.
	StoreSkip struct{}
	// StoreSuccess is reported after a tier write.
	StoreSuccess struct {
		Adapter  string
		Result   any
		CacheKey string
		TTL      time.Duration
	}
	// StoreError is reported when a tier write fails.
	StoreError struct {
		Adapter string
		Err     error
	}
	// StaleHitFromError is reported when a stale value is served because
	// the producer failed.
	StaleHitFromError struct{}
	// EvictStart is reported before a tier eviction.
	EvictStart struct{ Adapter string }
	// EvictSuccess is reported after a tier eviction.
	EvictSuccess struct{ Adapter string }
	// EvictError is reported when a tier eviction fails.
	EvictError struct {
		Adapter string
		Err     error
	}
	// Custom carries a free-form message, usually from a producer.
	Custom struct{ Message string }
)

func (GetCachedStart) Name() EventName    { return EventGetCachedStart }
func (GetCachedHit) Name() EventName      { return EventGetCachedHit }
func (GetCachedMiss) Name() EventName     { return EventGetCachedMiss }
func (GetCachedError) Name() EventName    { return EventGetCachedError }
func (Skip) Name() EventName              { return EventSkip }
func (FetchStart) Name() EventName        { return EventFetchStart }
func (FetchSuccess) Name() EventName      { return EventFetchSuccess }
func (FetchError) Name() EventName        { return EventFetchError }
func (StoreStart) Name() EventName        { return EventStoreStart }
func (StoreSkip) Name() EventName         { return EventStoreSkip }
func (StoreSuccess) Name() EventName      { return EventStoreSuccess }
func (StoreError) Name() EventName        { return EventStoreError }
func (StaleHitFromError) Name() EventName { return EventStaleHitFromError }
func (EvictStart) Name() EventName        { return EventEvictStart }
func (EvictSuccess) Name() EventName      { return EventEvictSuccess }
func (EvictError) Name() EventName        { return EventEvictError }
func (Custom) Name() EventName            { return EventCustom }

func (GetCachedStart) event()    {}
func (GetCachedHit) event()      {}
func (GetCachedMiss) event()     {}
func (GetCachedError) event()    {}
func (Skip) event()              {}
func (FetchStart) event()        {}
func (FetchSuccess) event()      {}
func (FetchError) event()        {}
func (StoreStart) event()        {}
func (StoreSkip) event()         {}
func (StoreSuccess) event()      {}
func (StoreError) event()        {}
func (StaleHitFromError) event() {}
func (EvictStart) event()        {}
func (EvictSuccess) event()      {}
func (EvictError) event()        {}
func (Custom) event()            {}

// AdapterOf returns the tier name carried by e, or "" for events that are
// not attributed to a tier.
func AdapterOf(e Event) string {
	switch ev := e.(type) {
	case GetCachedStart:
		return ev.Adapter
	case GetCachedHit:
		return ev.Adapter
	case GetCachedMiss:
		return ev.Adapter
	case GetCachedError:
		return ev.Adapter
	case StoreStart:
		return ev.Adapter
	case StoreSuccess:
		return ev.Adapter
	case StoreError:
		return ev.Adapter
	case EvictStart:
		return ev.Adapter
	case EvictSuccess:
		return ev.Adapter
	case EvictError:
		return ev.Adapter
	}
	return ""
}

// ErrorOf returns the error carried by e, if any.
func ErrorOf(e Event) error {
	switch ev := e.(type) {
	case GetCachedError:
		return ev.Err
	case FetchError:
		return ev.Err
	case StoreError:
		return ev.Err
	case EvictError:
		return ev.Err
	}
	return nil
}

// Info identifies the request an event belongs to. CacheKey is the key in
// effect when the event was reported; it can change once the producer
// result is known.
type Info struct {
	ID        string
	CacheName string
	CacheKey  string
}

// Reporter receives lifecycle events. Reporting never changes the outcome
// of a fetch.
type Reporter interface {
	Report(info Info, event Event)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(info Info, event Event)

// Report calls f.
func (f ReporterFunc) Report(info Info, event Event) { f(info, event) }

// NopReporter discards every event.
type NopReporter struct{}

// Report does nothing.
func (NopReporter) Report(Info, Event) {}
