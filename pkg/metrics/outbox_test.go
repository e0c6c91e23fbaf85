package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestOutboxMetricsCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)
	at := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	m.ObserveEvent("order.created", OutboxPublished, at)
	m.ObserveEvent("order.created", OutboxRetry, at.Add(time.Hour))
	m.ObserveEvent("promotion.expired", OutboxTerminal, at.Add(time.Hour))
	m.ObserveBatch(120 * time.Millisecond)

	if got := testutil.ToFloat64(m.events.WithLabelValues("order.created", OutboxPublished)); got != 1 {
		t.Fatalf("expected 1 published, got %f", got)
	}
	if got := testutil.ToFloat64(m.events.WithLabelValues("promotion.expired", OutboxTerminal)); got != 1 {
		t.Fatalf("expected 1 terminal, got %f", got)
	}
	if got := testutil.ToFloat64(m.lastPublished); got != float64(at.Unix()) {
		t.Fatalf("last publish gauge should only follow published events, got %f", got)
	}
	if n := testutil.CollectAndCount(m.batchDuration); n != 1 {
		t.Fatalf("expected batch histogram series, got %d", n)
	}
}

func TestNilOutboxMetricsIsNoop(t *testing.T) {
	var m *OutboxMetrics
	m.ObserveEvent("order.created", OutboxPublished, time.Now())
	m.ObserveBatch(time.Second)

	NewOutboxMetrics(nil).ObserveEvent("order.created", OutboxRetry, time.Now())
}
