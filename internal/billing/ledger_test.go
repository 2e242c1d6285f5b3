package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bahikhata/backend/internal/domain"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func invoice(id string, date time.Time, total string, payments ...string) domain.SavedInvoice {
	inv := domain.SavedInvoice{
		DraftInvoice: domain.DraftInvoice{PartyID: "P", InvoiceDate: date},
		ID:           id,
		TotalAmount:  money(total),
	}
	for i, amount := range payments {
		inv.Payments = append(inv.Payments, domain.Payment{
			ID:          id + "-pay-" + string(rune('a'+i)),
			InvoiceID:   id,
			Amount:      money(amount),
			PaymentDate: date,
		})
	}
	return inv
}

func TestNetKeepsOverpaymentSign(t *testing.T) {
	assert.True(t, money("250").Equal(Net(invoice("I1", day(2026, 10, 1), "1000", "500", "250"))))
	assert.True(t, money("-50").Equal(Net(invoice("I2", day(2026, 10, 1), "100", "150"))))
	assert.True(t, money("100").Equal(Net(invoice("I3", day(2026, 10, 1), "100"))))
}

func TestTotalOutstandingFullyPaidInvoice(t *testing.T) {
	party := domain.Party{ID: "P", OpeningBalance: money("500")}
	invoices := []domain.SavedInvoice{invoice("I1", day(2026, 10, 1), "1000", "1000")}

	assert.True(t, money("500").Equal(TotalOutstanding(party, invoices)))
	assert.True(t, money("500").Equal(TotalOutstanding(party, nil)))
}

func TestStatementRunningBalance(t *testing.T) {
	party := domain.Party{ID: "P", OpeningBalance: money("100")}
	entries := Statement(party, []domain.SavedInvoice{
		invoice("I1", day(2026, 10, 1), "300", "100"),
		invoice("I2", day(2026, 10, 3), "50", "80"),
	})

	require.Len(t, entries, 2)
	assert.Equal(t, "I1", entries[0].InvoiceID)
	assert.True(t, money("300").Equal(entries[0].Billed))
	assert.True(t, money("100").Equal(entries[0].Paid))
	assert.True(t, money("300").Equal(entries[0].Balance))
	assert.True(t, money("270").Equal(entries[1].Balance))
	assert.True(t, entries[1].Balance.Equal(TotalOutstanding(party, []domain.SavedInvoice{
		invoice("I1", day(2026, 10, 1), "300", "100"),
		invoice("I2", day(2026, 10, 3), "50", "80"),
	})))
}

func TestWeekWindow(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		wantStart time.Time
	}{
		{name: "sunday belongs to the week that started monday", now: time.Date(2026, 10, 18, 21, 30, 0, 0, time.UTC), wantStart: day(2026, 10, 12)},
		{name: "monday starts its own week", now: time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), wantStart: day(2026, 10, 12)},
		{name: "midweek", now: time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC), wantStart: day(2026, 10, 12)},
		{name: "across a month boundary", now: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC), wantStart: day(2026, 9, 28)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := WeekWindow(tt.now)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, time.Monday, start.Weekday())
			assert.Equal(t, time.Sunday, end.Weekday())
			assert.Equal(t, tt.wantStart.AddDate(0, 0, 7).Add(-time.Nanosecond), end)
		})
	}
}

func TestWeekWindowKeepsLocation(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	start, _ := WeekWindow(time.Date(2026, 10, 14, 1, 0, 0, 0, loc))
	assert.Equal(t, time.Date(2026, 10, 12, 0, 0, 0, 0, loc), start)
}

func TestWeeklyReportCurrentWeek(t *testing.T) {
	party := domain.Party{ID: "P", OpeningBalance: money("500")}
	invoices := []domain.SavedInvoice{
		invoice("OLD1", day(2026, 9, 20), "1000", "400"),
		invoice("OLD2", day(2026, 10, 6), "200"),
		invoice("NOW1", day(2026, 10, 12), "300", "100"),
		invoice("NOW2", day(2026, 10, 18), "150"),
	}

	report := WeeklyReport(party, invoices, time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC))

	assert.False(t, report.Shifted)
	assert.Equal(t, day(2026, 10, 12), report.WeekStart)
	require.Len(t, report.WeeklyInvoices, 2)
	assert.Equal(t, "NOW1", report.WeeklyInvoices[0].ID)
	assert.Equal(t, "NOW2", report.WeeklyInvoices[1].ID)
	assert.True(t, money("1300").Equal(report.PreviousOutstanding), report.PreviousOutstanding.String())
	assert.True(t, money("450").Equal(report.WeekTotal))
	assert.True(t, money("100").Equal(report.WeekPayments))
	assert.True(t, money("1650").Equal(report.GrandTotal))
	assert.True(t, report.GrandTotal.Equal(TotalOutstanding(party, invoices)))
	assert.False(t, report.Settled())
}

func TestWeeklyReportFallsBackOneWeek(t *testing.T) {
	party := domain.Party{ID: "P"}
	invoices := []domain.SavedInvoice{
		invoice("PRIOR", day(2026, 10, 7), "250", "50"),
	}

	report := WeeklyReport(party, invoices, time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC))

	assert.True(t, report.Shifted)
	assert.Equal(t, day(2026, 10, 5), report.WeekStart)
	require.Len(t, report.WeeklyInvoices, 1)
	assert.Equal(t, "PRIOR", report.WeeklyInvoices[0].ID)
	assert.True(t, report.PreviousOutstanding.IsZero())
	assert.True(t, money("200").Equal(report.GrandTotal))
}

func TestWeeklyReportShiftsOnlyOnce(t *testing.T) {
	party := domain.Party{ID: "P", OpeningBalance: money("10")}
	invoices := []domain.SavedInvoice{
		invoice("ANCIENT", day(2026, 9, 1), "90"),
	}

	report := WeeklyReport(party, invoices, time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC))

	assert.True(t, report.Shifted)
	assert.Equal(t, day(2026, 10, 5), report.WeekStart)
	assert.Empty(t, report.WeeklyInvoices)
	assert.True(t, money("100").Equal(report.PreviousOutstanding))
	assert.True(t, money("100").Equal(report.GrandTotal))
}

func TestWeeklyReportSettledIsExactZero(t *testing.T) {
	party := domain.Party{ID: "P"}
	invoices := []domain.SavedInvoice{
		invoice("A", day(2026, 10, 1), "0.1"),
		invoice("B", day(2026, 10, 2), "0.2", "0.3"),
		invoice("C", day(2026, 10, 13), "33.335", "33.34"),
	}

	report := WeeklyReport(party, invoices, time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC))

	assert.True(t, report.PreviousOutstanding.IsZero(), report.PreviousOutstanding.String())
	assert.True(t, report.GrandTotal.IsZero(), report.GrandTotal.String())
	assert.True(t, report.Settled())
}
