package app

import (
	"fmt"

	"github.com/angelmondragon/storefront-backend/internal/cron"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
)

// CronRegistry registers the scheduled maintenance jobs.
func CronRegistry(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, services *Services) (*cron.Registry, error) {
	expiry, err := cron.NewPromotionExpiryJob(logg, services.Promotions)
	if err != nil {
		return nil, fmt.Errorf("promotion expiry job: %w", err)
	}
	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:        logg,
		Repository:    outbox.NewRepository(dbClient.DB()),
		RetentionDays: cfg.Cron.OutboxRetentionDay,
	})
	if err != nil {
		return nil, fmt.Errorf("outbox retention job: %w", err)
	}

	registry := cron.NewRegistry()
	for _, job := range []cron.Job{expiry, retention} {
		if err := registry.Register(job); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
