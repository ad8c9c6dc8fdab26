package testsupport

import (
	"sync"

	"github.com/goliatone/go-tiered-cache/cache"
)

// Record is one reported event.
type Record struct {
	Info  cache.Info
	Event cache.Event
}

// EventLog is a cache.Reporter that keeps every event in memory.
type EventLog struct {
	mu      sync.Mutex
	records []Record
}

// Report implements cache.Reporter.
func (l *EventLog) Report(info cache.Info, event cache.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, Record{Info: info, Event: event})
}

// Records returns a copy of the recorded events.
func (l *EventLog) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Record(nil), l.records...)
}

// Names returns the event names in reporting order.
func (l *EventLog) Names() []cache.EventName {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]cache.EventName, len(l.records))
	for i, r := range l.records {
		names[i] = r.Event.Name()
	}
	return names
}

// Count returns how many events named name were reported.
func (l *EventLog) Count(name cache.EventName) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, r := range l.records {
		if r.Event.Name() == name {
			n++
		}
	}
	return n
}

// CountFor returns how many events named name were attributed to adapter.
func (l *EventLog) CountFor(name cache.EventName, adapter string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, r := range l.records {
		if r.Event.Name() == name && cache.AdapterOf(r.Event) == adapter {
			n++
		}
	}
	return n
}

// Reset drops every recorded event.
func (l *EventLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = nil
}

// ReporterFor returns a cache.Config reporter factory that sends every
// request's events to log.
func ReporterFor[P any](log *EventLog) func(P) cache.Reporter {
	return func(P) cache.Reporter { return log }
}
