package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"bahikhata/backend/internal/app"
	"bahikhata/backend/internal/config"
	"bahikhata/backend/internal/domain"
	"bahikhata/backend/internal/logger"
	"bahikhata/backend/internal/service"
)

var version = "0.1.0"

// loadApp is replaced in tests so commands run against a shared store.
var loadApp = func(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return app.Build(ctx, cfg, logger.WithComponent("billctl"))
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "billctl",
		Short: "Admin tasks for the billing backend",
		Long: `billctl runs catalog imports, weekly statements and invoice refreshes
against the same store the server uses (postgres when DATABASE_URL is set,
otherwise the seeded in-memory demo data).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("actor", "billctl", "Name recorded in the activity log")

	root.AddCommand(
		newImportItemsCmd(),
		newWeeklyReportCmd(),
		newConvertRateCmd(),
		newRefreshInvoiceCmd(),
	)
	return root
}

// withApp builds the application for one command run and closes it after.
func withApp(cmd *cobra.Command, run func(ctx context.Context, a *app.App) error) error {
	actor, _ := cmd.Flags().GetString("actor")
	ctx := service.WithActor(cmd.Context(), domain.Actor{Username: actor})

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	return run(ctx, a)
}
