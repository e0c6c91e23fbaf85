package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestCronJobMetricsRecordsRunsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	end := time.Unix(1_775_000_000, 0)

	m.ObserveRun("promotion-expiry", 250*time.Millisecond, end, nil)
	m.ObserveRun("promotion-expiry", 100*time.Millisecond, end.Add(time.Hour), errors.New("db down"))
	m.ObserveRun("", time.Millisecond, end, nil)
	m.CycleSkipped()

	expected := `
# HELP storefront_cron_job_runs_total Cron job executions by job and result.
# TYPE storefront_cron_job_runs_total counter
storefront_cron_job_runs_total{job="promotion-expiry",result="error"} 1
storefront_cron_job_runs_total{job="promotion-expiry",result="ok"} 1
storefront_cron_job_runs_total{job="unknown",result="ok"} 1
# HELP storefront_cron_cycles_skipped_total Cycles skipped because the cron lock was held elsewhere.
# TYPE storefront_cron_cycles_skipped_total counter
storefront_cron_cycles_skipped_total 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"storefront_cron_job_runs_total", "storefront_cron_cycles_skipped_total"); err != nil {
		t.Fatalf("unexpected metrics: %v", err)
	}

	// the failed run must not move the last-success gauge
	if got := testutil.ToFloat64(m.lastSuccess.WithLabelValues("promotion-expiry")); got != float64(end.Unix()) {
		t.Fatalf("expected last success %d, got %f", end.Unix(), got)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if sum := histogramSum(mfs, "storefront_cron_job_duration_seconds", "promotion-expiry"); sum < 0.35 {
		t.Fatalf("expected duration sum >= 0.35s, got %f", sum)
	}
}

func TestCronJobMetricsNilRegistererIsNoop(t *testing.T) {
	m := NewCronJobMetrics(nil)
	m.ObserveRun("job", time.Second, time.Now(), nil)
	m.CycleSkipped()

	var nilMetrics *CronJobMetrics
	nilMetrics.ObserveRun("job", time.Second, time.Now(), errors.New("x"))
}

func histogramSum(mfs []*dto.MetricFamily, name, job string) float64 {
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "job" && label.GetValue() == job {
					return metric.GetHistogram().GetSampleSum()
				}
			}
		}
	}
	return -1
}
