package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outbox publish outcomes.
const (
	OutboxPublished = "published"
	OutboxRetry     = "retry"
	OutboxTerminal  = "terminal"
)

// OutboxMetrics tracks the outbox publisher: per-event outcomes, batch
// latency and the time of the last successful publish.
type OutboxMetrics struct {
	events        *prometheus.CounterVec
	batchDuration prometheus.Histogram
	lastPublished prometheus.Gauge
}

func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	m := &OutboxMetrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "events_total",
			Help:      "Outbox rows handled by event type and outcome.",
		}, []string{"event_type", "result"}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "batch_duration_seconds",
			Help:      "Time spent fetching and publishing one outbox batch.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 15},
		}),
		lastPublished: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "last_publish_timestamp_seconds",
			Help:      "Unix time of the last event acknowledged by the sink.",
		}),
	}
	reg.MustRegister(m.events, m.batchDuration, m.lastPublished)
	return m
}

// ObserveEvent counts one row outcome. Published events also move the
// last-publish gauge to at.
func (m *OutboxMetrics) ObserveEvent(eventType, result string, at time.Time) {
	if m == nil || m.events == nil {
		return
	}
	m.events.WithLabelValues(normalizeLabel(eventType), normalizeLabel(result)).Inc()
	if result == OutboxPublished {
		m.lastPublished.Set(float64(at.Unix()))
	}
}

func (m *OutboxMetrics) ObserveBatch(took time.Duration) {
	if m == nil || m.batchDuration == nil {
		return
	}
	m.batchDuration.Observe(took.Seconds())
}
