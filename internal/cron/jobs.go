package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const defaultOutboxRetentionDays = 30

type promotionExpirer interface {
	DeactivateExpired(ctx context.Context) (int, error)
}

// NewPromotionExpiryJob deactivates promotions whose end date has passed.
func NewPromotionExpiryJob(logg *logger.Logger, promos promotionExpirer) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if promos == nil {
		return nil, fmt.Errorf("promotion service required")
	}
	return &promotionExpiryJob{logg: logg, promos: promos}, nil
}

type promotionExpiryJob struct {
	logg   *logger.Logger
	promos promotionExpirer
}

func (j *promotionExpiryJob) Name() string { return "promotion-expiry" }

func (j *promotionExpiryJob) Run(ctx context.Context) error {
	count, err := j.promos.DeactivateExpired(ctx)
	if err != nil {
		return fmt.Errorf("deactivate expired promotions: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "promotions_deactivated", count), "promotion expiry complete")
	return nil
}

type outboxPruner interface {
	DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// OutboxRetentionJobParams configure the published outbox cleanup.
type OutboxRetentionJobParams struct {
	Logger        *logger.Logger
	Repository    outboxPruner
	RetentionDays int
	Clock         func() time.Time
}

// NewOutboxRetentionJob deletes outbox rows published before the retention window.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	retention := params.RetentionDays
	if retention <= 0 {
		retention = defaultOutboxRetentionDays
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &outboxRetentionJob{
		logg:      params.Logger,
		repo:      params.Repository,
		retention: retention,
		now:       clock,
	}, nil
}

type outboxRetentionJob struct {
	logg      *logger.Logger
	repo      outboxPruner
	retention int
	now       func() time.Time
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().AddDate(0, 0, -j.retention)
	deleted, err := j.repo.DeletePublishedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("outbox retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "outbox retention cleanup complete")
	return nil
}
