package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bahikhata/backend/internal/app"
	"bahikhata/backend/internal/importer"
	"bahikhata/backend/internal/logger"
)

func newImportItemsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-items FILE",
		Short: "Bulk-create catalog items from a CSV or XLSX file",
		Long: `Reads items from FILE and creates the ones not already in the catalog.

The first row must name the columns name, unit and rate; category is optional.
Missing units and categories are created on the fly.`,
		Example: `  billctl import-items items.xlsx
  billctl import-items items.csv --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: runImportItems,
	}
	cmd.Flags().Bool("dry-run", false, "Parse and validate the file without writing")
	return cmd
}

func runImportItems(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("import-items")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	format, err := importer.FormatFromFilename(args[0])
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		file, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", args[0], err)
		}
		defer file.Close()

		rows, err := importer.ReadItems(file, format, a.Config.ImportMaxRows)
		if err != nil {
			return err
		}
		log.Info().Str("file", args[0]).Int("rows", len(rows)).Bool("dry_run", dryRun).Msg("parsed import file")

		out := cmd.OutOrStdout()
		if dryRun {
			fmt.Fprintf(out, "%d rows parsed, nothing written\n", len(rows))
			return nil
		}

		result, err := a.Service.ImportItems(ctx, rows)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		fmt.Fprintf(out, "created %d, skipped %d\n", len(result.Created), len(result.Skipped))
		for _, skip := range result.Skipped {
			fmt.Fprintf(out, "  row %d %q: %s\n", skip.Row, skip.Name, skip.Reason)
		}
		return nil
	})
}
