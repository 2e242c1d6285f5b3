package billing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"bahikhata/backend/internal/domain"
)

const moneyPlaces = 2

// Round2 rounds half away from zero to 2 places. For the non-negative amounts
// billed here that is round half-up.
func Round2(amount decimal.Decimal) domain.Money {
	return amount.Round(moneyPlaces)
}

// ResolveBundleRate prefers the party's own bundle rate over the system one.
func ResolveBundleRate(party *domain.Party, systemDefault domain.Money) domain.Money {
	if party != nil && party.BundleRate != nil {
		return *party.BundleRate
	}
	return systemDefault
}

func LineAmount(line domain.DraftInvoiceLine) domain.Money {
	return Round2(line.Quantity.Mul(line.Rate))
}

func SubTotal(lines []domain.DraftInvoiceLine) domain.Money {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(LineAmount(line))
	}
	return Round2(total)
}

func BundleCharge(bundleQuantity decimal.Decimal, bundleRate domain.Money) domain.Money {
	if bundleQuantity.IsZero() || bundleRate.IsZero() {
		return decimal.Zero
	}
	return Round2(bundleQuantity.Mul(bundleRate))
}

func GrandTotal(draft domain.DraftInvoice) domain.Money {
	return Round2(SubTotal(draft.Lines).Add(BundleCharge(draft.BundleQuantity, draft.BundleRate)))
}

// Calculate derives every total shown on an invoice form in one pass. It
// agrees with SubTotal, BundleCharge and GrandTotal for the same draft.
func Calculate(draft domain.DraftInvoice) domain.InvoiceTotals {
	amounts := make([]domain.Money, 0, len(draft.Lines))
	subTotal := decimal.Zero
	for _, line := range draft.Lines {
		amount := LineAmount(line)
		amounts = append(amounts, amount)
		subTotal = subTotal.Add(amount)
	}
	subTotal = Round2(subTotal)
	bundle := BundleCharge(draft.BundleQuantity, draft.BundleRate)

	return domain.InvoiceTotals{
		LineAmounts:  amounts,
		SubTotal:     subTotal,
		BundleCharge: bundle,
		GrandTotal:   Round2(subTotal.Add(bundle)),
	}
}

// ValidateDraft checks the preconditions the calculators assume. Callers
// run it before Calculate; the calculators never reject input themselves.
func ValidateDraft(draft domain.DraftInvoice) error {
	if strings.TrimSpace(draft.PartyID) == "" {
		return invalid("party_id", draft.PartyID, "party is required")
	}
	if draft.InvoiceDate.IsZero() {
		return invalid("invoice_date", draft.InvoiceDate, "invoice date is required")
	}
	if len(draft.Lines) == 0 {
		return invalid("lines", 0, "at least one line is required")
	}
	if draft.BundleRate.IsNegative() {
		return invalid("bundle_rate", draft.BundleRate, "must not be negative")
	}
	if draft.BundleQuantity.IsNegative() {
		return invalid("bundle_quantity", draft.BundleQuantity, "must not be negative")
	}
	for i, line := range draft.Lines {
		if strings.TrimSpace(line.ItemID) == "" {
			return invalid(lineField(i, "item_id"), line.ItemID, "item is required")
		}
		if !line.Quantity.IsPositive() {
			return invalid(lineField(i, "quantity"), line.Quantity, "must be greater than zero")
		}
		if line.Rate.IsNegative() {
			return invalid(lineField(i, "rate"), line.Rate, "must not be negative")
		}
	}
	return nil
}

func lineField(index int, field string) string {
	return fmt.Sprintf("lines[%d].%s", index, field)
}
