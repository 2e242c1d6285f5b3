package billing

import (
	"time"

	"github.com/shopspring/decimal"

	"bahikhata/backend/internal/domain"
)

// Paid sums every payment recorded against invoice.
func Paid(invoice domain.SavedInvoice) domain.Money {
	total := decimal.Zero
	for _, payment := range invoice.Payments {
		total = total.Add(payment.Amount)
	}
	return Round2(total)
}

// Net is billed minus paid. It goes negative on overpayment.
func Net(invoice domain.SavedInvoice) domain.Money {
	return Round2(invoice.TotalAmount.Sub(Paid(invoice)))
}

func TotalOutstanding(party domain.Party, invoices []domain.SavedInvoice) domain.Money {
	total := party.OpeningBalance
	for _, invoice := range invoices {
		total = total.Add(Net(invoice))
	}
	return Round2(total)
}

// Statement lists the invoices in the given order with a running balance
// that starts from the party's opening balance.
func Statement(party domain.Party, invoices []domain.SavedInvoice) []domain.LedgerEntry {
	entries := make([]domain.LedgerEntry, 0, len(invoices))
	balance := Round2(party.OpeningBalance)
	for _, invoice := range invoices {
		paid := Paid(invoice)
		balance = Round2(balance.Add(invoice.TotalAmount).Sub(paid))
		entries = append(entries, domain.LedgerEntry{
			InvoiceID:   invoice.ID,
			InvoiceDate: invoice.InvoiceDate,
			Billed:      Round2(invoice.TotalAmount),
			Paid:        paid,
			Balance:     balance,
		})
	}
	return entries
}

// WeekWindow returns the Monday 00:00 to Sunday 23:59:59.999999999 window
// containing now, in now's location.
func WeekWindow(now time.Time) (time.Time, time.Time) {
	year, month, day := now.Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, now.Location())
	sinceMonday := (int(midnight.Weekday()) + 6) % 7
	start := midnight.AddDate(0, 0, -sinceMonday)
	end := start.AddDate(0, 0, 7).Add(-time.Nanosecond)
	return start, end
}

// WeeklyReport splits a party's invoices into the reporting week and
// everything before it. When the week containing now has no invoices the
// window moves back exactly one week; it never walks further.
func WeeklyReport(party domain.Party, invoices []domain.SavedInvoice, now time.Time) domain.WeeklySummary {
	start, end := WeekWindow(now)
	current := invoicesBetween(invoices, start, end)
	shifted := false
	if len(current) == 0 {
		start, end = WeekWindow(now.AddDate(0, 0, -7))
		current = invoicesBetween(invoices, start, end)
		shifted = true
	}

	previous := party.OpeningBalance
	for _, invoice := range invoices {
		if invoice.InvoiceDate.Before(start) {
			previous = previous.Add(Net(invoice))
		}
	}

	weekTotal := decimal.Zero
	weekPayments := decimal.Zero
	for _, invoice := range current {
		weekTotal = weekTotal.Add(invoice.TotalAmount)
		weekPayments = weekPayments.Add(Paid(invoice))
	}

	previous = Round2(previous)
	weekTotal = Round2(weekTotal)
	weekPayments = Round2(weekPayments)

	return domain.WeeklySummary{
		PreviousOutstanding: previous,
		WeeklyInvoices:      current,
		WeekTotal:           weekTotal,
		WeekPayments:        weekPayments,
		GrandTotal:          Round2(previous.Add(weekTotal).Sub(weekPayments)),
		WeekStart:           start,
		WeekEnd:             end,
		Shifted:             shifted,
	}
}

func invoicesBetween(invoices []domain.SavedInvoice, start time.Time, end time.Time) []domain.SavedInvoice {
	selected := make([]domain.SavedInvoice, 0)
	for _, invoice := range invoices {
		if invoice.InvoiceDate.Before(start) || invoice.InvoiceDate.After(end) {
			continue
		}
		selected = append(selected, invoice)
	}
	return selected
}
