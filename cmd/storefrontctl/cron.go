package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/storefront-backend/internal/app"
	"github.com/angelmondragon/storefront-backend/internal/cron"
)

func newCronCmd(load loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cron",
		Short: "Run maintenance jobs by hand",
	}

	var only string
	run := &cobra.Command{
		Use:   "run",
		Short: "Run every maintenance job once, or a single job with --job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, load, func(ctx context.Context, rt *runtime) error {
				registry, err := app.CronRegistry(rt.Config, rt.Logger, rt.DB, rt.Services)
				if err != nil {
					return err
				}
				if only != "" {
					job, ok := registry.Lookup(only)
					if !ok {
						return fmt.Errorf("unknown job %q", only)
					}
					if err := job.Run(ctx); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "job %s completed\n", only)
					return nil
				}
				svc, err := cron.NewService(cron.ServiceParams{
					Logger:   rt.Logger,
					Registry: registry,
					Lock:     &cron.LocalLock{},
				})
				if err != nil {
					return err
				}
				if err := svc.RunOnce(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d jobs completed\n", len(registry.Jobs()))
				return nil
			})
		},
	}
	run.Flags().StringVar(&only, "job", "", "name of a single job to run")

	cmd.AddCommand(run)
	return cmd
}
