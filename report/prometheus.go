package report

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-tiered-cache/cache"
)

// Prometheus counts events per cache, event name and adapter. It is both a
// cache.Reporter and a prometheus.Collector; register it once and share it
// between clients.
type Prometheus struct {
	events *prometheus.CounterVec
}

var (
	_ cache.Reporter       = (*Prometheus)(nil)
	_ prometheus.Collector = (*Prometheus)(nil)
)

// NewPrometheus creates the collector. namespace prefixes the metric name.
func NewPrometheus(namespace string) *Prometheus {
	return &Prometheus{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "events_total",
			Help:      "Cache events by cache name, event and adapter.",
		}, []string{"cache", "event", "adapter"}),
	}
}

// Report implements cache.Reporter.
func (p *Prometheus) Report(info cache.Info, e cache.Event) {
	p.events.WithLabelValues(info.CacheName, string(e.Name()), cache.AdapterOf(e)).Inc()
}

// Describe implements prometheus.Collector.
func (p *Prometheus) Describe(ch chan<- *prometheus.Desc) {
	p.events.Describe(ch)
}

// Collect implements prometheus.Collector.
func (p *Prometheus) Collect(ch chan<- prometheus.Metric) {
	p.events.Collect(ch)
}

// Counter returns the counter for one label set. Mostly useful in tests.
func (p *Prometheus) Counter(cacheName string, event cache.EventName, adapter string) prometheus.Counter {
	return p.events.WithLabelValues(cacheName, string(event), adapter)
}
