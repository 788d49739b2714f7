package progress

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// PromSink exports progress counters via Prometheus, partitioned by phase.
type PromSink struct {
	events   *prometheus.CounterVec
	failures *prometheus.CounterVec
}

// NewPromSink registers the collectors against the provided registry.
// A nil registry falls back to the default registerer.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "refharvest_progress_events_total",
			Help: "Progress events emitted, partitioned by phase.",
		}, []string{"phase"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "refharvest_item_failures_total",
			Help: "Per-item failures surfaced on the progress channel.",
		}, []string{"phase"}),
	}
	for _, collector := range []prometheus.Collector{s.events, s.failures} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the counters for one event.
func (s *PromSink) Consume(evt Event) {
	s.events.WithLabelValues(string(evt.Phase)).Inc()
	if evt.Err {
		s.failures.WithLabelValues(string(evt.Phase)).Inc()
	}
}
