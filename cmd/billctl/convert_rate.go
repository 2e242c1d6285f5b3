package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"bahikhata/backend/internal/billing"
)

func newConvertRateCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "convert-rate RATE FROM TO",
		Short:   "Re-express a per-unit rate in another unit",
		Example: `  billctl convert-rate 120 DOZ PCS`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			rate, err := decimal.NewFromString(args[0])
			if err != nil {
				return fmt.Errorf("invalid rate %q: %w", args[0], err)
			}
			if rate.IsNegative() {
				return fmt.Errorf("rate must not be negative")
			}

			conversion := billing.DescribeConversion(rate, args[1], args[2])
			out := cmd.OutOrStdout()
			if !conversion.Known {
				fmt.Fprintf(out, "no conversion from %s to %s; rate unchanged: %s\n", conversion.From, conversion.To, conversion.Converted.StringFixed(2))
				return nil
			}
			fmt.Fprintf(out, "%s per %s = %s per %s\n", conversion.Rate.StringFixed(2), conversion.From, conversion.Converted.StringFixed(2), conversion.To)
			return nil
		},
	}
}
