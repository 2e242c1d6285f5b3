package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"bahikhata/backend/internal/app"
	"bahikhata/backend/internal/domain"
)

func newRefreshInvoiceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh-invoice INVOICE_ID",
		Short: "List catalog changes since an invoice was saved",
		Long: `Compares a saved invoice with the current catalog and party record.
With --apply every listed change is written and the total recomputed.`,
		Args: cobra.ExactArgs(1),
		RunE: runRefreshInvoice,
	}
	cmd.Flags().Bool("apply", false, "Apply all listed updates")
	return cmd
}

func runRefreshInvoice(cmd *cobra.Command, args []string) error {
	apply, _ := cmd.Flags().GetBool("apply")

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		resp, err := a.Service.FetchInvoiceUpdates(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to compare invoice: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(resp.Updates) == 0 {
			fmt.Fprintln(out, "invoice is up to date")
			return nil
		}
		for _, u := range resp.Updates {
			where := "party"
			if u.Target == domain.UpdateTargetLine {
				where = fmt.Sprintf("line %d", u.LineIndex+1)
			}
			fmt.Fprintf(out, "%-8s %-10s %s -> %s", where, u.Field, u.OldValue, u.NewValue)
			if u.ConvertedFromRate != nil {
				fmt.Fprintf(out, " (old rate in new unit: %s)", u.ConvertedFromRate.StringFixed(2))
			}
			fmt.Fprintln(out)
		}
		if !apply {
			return nil
		}

		saved, err := a.Service.ApplyInvoiceUpdates(ctx, resp.InvoiceID, resp.Updates)
		if err != nil {
			return fmt.Errorf("failed to apply updates: %w", err)
		}
		fmt.Fprintf(out, "applied %d updates, new total %s\n", len(resp.Updates), saved.TotalAmount.StringFixed(2))
		return nil
	})
}
