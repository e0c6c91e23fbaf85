package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/internal/app"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// runtime is the wired environment a command operates on.
type runtime struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *db.Client
	Services *app.Services
	close    func() error
}

func (r *runtime) Close() error {
	if r == nil || r.close == nil {
		return nil
	}
	return r.close()
}

type loader func(ctx context.Context) (*runtime, error)

func main() {
	if err := newRootCmd(loadRuntime).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(load loader) *cobra.Command {
	root := &cobra.Command{
		Use:           "storefrontctl",
		Short:         "Operate the storefront catalog, promotions and maintenance jobs",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(
		newSeedCmd(load),
		newPromotionsCmd(load),
		newCronCmd(load),
	)
	return root
}

// withRuntime loads the environment, runs fn and closes every connection it opened.
func withRuntime(cmd *cobra.Command, load loader, fn func(ctx context.Context, rt *runtime) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := load(ctx)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, rt.Close())
	}()
	return fn(ctx, rt)
}

func loadRuntime(ctx context.Context) (*runtime, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.Service.Kind = "storefrontctl"

	logg := logger.New(logger.Options{
		ServiceName: "storefrontctl",
		Environment: cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      "console",
		Output:      os.Stderr,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap database: %w", err)
	}
	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return nil, multierr.Append(fmt.Errorf("dev migrations: %w", err), dbClient.Close())
	}

	var redisClient *redis.Client
	if !cfg.FeatureFlags.MemoryCarts {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, multierr.Append(fmt.Errorf("bootstrap redis: %w", err), dbClient.Close())
		}
	}

	closeAll := func() error {
		err := dbClient.Close()
		if redisClient != nil {
			err = multierr.Append(err, redisClient.Close())
		}
		return err
	}

	services, err := app.Build(app.Params{
		Config: cfg,
		Logger: logg,
		DB:     dbClient,
		Redis:  redisClient,
	})
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("wire services: %w", err), closeAll())
	}

	return &runtime{
		Config:   cfg,
		Logger:   logg,
		DB:       dbClient,
		Services: services,
		close:    closeAll,
	}, nil
}
