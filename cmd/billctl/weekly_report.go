package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"bahikhata/backend/internal/app"
	"bahikhata/backend/internal/domain"
	"bahikhata/backend/internal/export"
)

func newWeeklyReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weekly-report PARTY_ID",
		Short: "Print a party's weekly statement",
		Example: `  billctl weekly-report party-sharma
  billctl weekly-report party-sharma --format xlsx --out sharma.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: runWeeklyReport,
	}
	cmd.Flags().String("format", "text", "Output format: text, json, csv, html or xlsx")
	cmd.Flags().String("out", "", "Write to this file instead of stdout")
	return cmd
}

func runWeeklyReport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	outPath, _ := cmd.Flags().GetString("out")

	render, err := reportWriter(strings.ToLower(strings.TrimSpace(format)))
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		report, err := a.Service.WeeklyReport(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to build weekly report: %w", err)
		}

		out := cmd.OutOrStdout()
		if outPath != "" {
			file, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", outPath, err)
			}
			defer file.Close()
			out = file
		}
		return render(out, report)
	})
}

func reportWriter(format string) (func(io.Writer, domain.WeeklyReport) error, error) {
	fromExport := func(fn func(io.Writer, domain.Party, domain.WeeklySummary) error) func(io.Writer, domain.WeeklyReport) error {
		return func(w io.Writer, report domain.WeeklyReport) error {
			return fn(w, report.Party, report.Summary)
		}
	}

	switch format {
	case "", "text":
		return writeReportText, nil
	case "json":
		return func(w io.Writer, report domain.WeeklyReport) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}, nil
	case "csv":
		return fromExport(export.WeeklyReportCSV), nil
	case "html":
		return fromExport(export.WeeklyReportHTML), nil
	case "xlsx":
		return fromExport(export.WeeklyReportXLSX), nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

func writeReportText(w io.Writer, report domain.WeeklyReport) error {
	s := report.Summary
	fmt.Fprintf(w, "%s\n", report.Party.Name)
	fmt.Fprintf(w, "Week %s to %s", s.WeekStart.Format("2006-01-02"), s.WeekEnd.Format("2006-01-02"))
	if s.Shifted {
		fmt.Fprint(w, " (previous week)")
	}
	fmt.Fprintln(w)
	for _, inv := range s.WeeklyInvoices {
		fmt.Fprintf(w, "  %s  %-40s %12s\n", inv.InvoiceDate.Format("2006-01-02"), inv.ID, inv.TotalAmount.StringFixed(2))
	}
	fmt.Fprintf(w, "Previous outstanding %12s\n", s.PreviousOutstanding.StringFixed(2))
	fmt.Fprintf(w, "This week            %12s\n", s.WeekTotal.StringFixed(2))
	fmt.Fprintf(w, "Paid this week       %12s\n", s.WeekPayments.StringFixed(2))
	_, err := fmt.Fprintf(w, "Grand total          %12s\n", s.GrandTotal.StringFixed(2))
	if report.Settled {
		_, err = fmt.Fprintln(w, "All dues cleared.")
	}
	return err
}
