package cron

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeExpirer struct {
	count int
	err   error
	calls int
}

func (f *fakeExpirer) DeactivateExpired(context.Context) (int, error) {
	f.calls++
	return f.count, f.err
}

type fakePruner struct {
	cutoff time.Time
	calls  int
	err    error
}

func (f *fakePruner) DeletePublishedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.calls++
	f.cutoff = cutoff
	return 7, f.err
}

func TestPromotionExpiryJob(t *testing.T) {
	expirer := &fakeExpirer{count: 2}
	job, err := NewPromotionExpiryJob(testLogger(), expirer)
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if job.Name() != "promotion-expiry" {
		t.Fatalf("unexpected name %q", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if expirer.calls != 1 {
		t.Fatalf("expected one call, got %d", expirer.calls)
	}

	expirer.err = errors.New("db down")
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	if _, err := NewPromotionExpiryJob(testLogger(), nil); err == nil {
		t.Fatal("expected error without service")
	}
}

func TestOutboxRetentionJobUsesRetentionWindow(t *testing.T) {
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	pruner := &fakePruner{}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:        testLogger(),
		Repository:    pruner,
		RetentionDays: 7,
		Clock:         func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if want := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC); !pruner.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, pruner.cutoff)
	}
}

func TestOutboxRetentionJobDefaultsAndErrors(t *testing.T) {
	pruner := &fakePruner{err: errors.New("boom")}
	jobIface, err := NewOutboxRetentionJob(OutboxRetentionJobParams{Logger: testLogger(), Repository: pruner})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	job := jobIface.(*outboxRetentionJob)
	if job.retention != defaultOutboxRetentionDays {
		t.Fatalf("expected default retention, got %d", job.retention)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
