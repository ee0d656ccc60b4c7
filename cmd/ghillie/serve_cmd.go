package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ghillie/internal/service/reporting"
)

func newServeCmd(dbPath *string) *cobra.Command {
	var (
		estateKey string
		cronSpec  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reporting scheduler for one estate until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer cancel()

			a, err := bootstrap(*dbPath)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			services, err := a.Services()
			if err != nil {
				return err
			}

			estateID, err := services.Registry.EstateIDForKey(ctx, estateKey)
			if err != nil {
				return err
			}

			scheduler := reporting.NewScheduler(services.EstateDriver, estateID, a.Logger)
			if err := scheduler.Start(cronSpec); err != nil {
				return fmt.Errorf("start scheduler: %w", err)
			}
			defer scheduler.Stop()

			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&estateKey, "estate", "", "estate key to generate reports for (required)")
	cmd.Flags().StringVar(&cronSpec, "schedule", "0 6 * * *", "standard 5-field cron schedule")
	_ = cmd.MarkFlagRequired("estate")
	return cmd
}
