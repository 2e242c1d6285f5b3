package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"bahikhata/backend/internal/domain"
)

func sampleReport() (domain.Party, domain.WeeklySummary) {
	party := domain.Party{ID: "party-1", Name: "Sharma <Traders>"}
	inv := domain.SavedInvoice{ID: "inv-1", TotalAmount: decimal.RequireFromString("450.5")}
	inv.InvoiceDate = time.Date(2026, 10, 13, 0, 0, 0, 0, time.UTC)
	summary := domain.WeeklySummary{
		PreviousOutstanding: decimal.NewFromInt(1300),
		WeeklyInvoices:      []domain.SavedInvoice{inv},
		WeekTotal:           decimal.RequireFromString("450.5"),
		WeekPayments:        decimal.NewFromInt(100),
		GrandTotal:          decimal.RequireFromString("1650.5"),
		WeekStart:           time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC),
		WeekEnd:             time.Date(2026, 10, 18, 23, 59, 59, 0, time.UTC),
	}
	return party, summary
}

func TestWeeklyReportCSV(t *testing.T) {
	party, summary := sampleReport()
	var buf bytes.Buffer
	require.NoError(t, WeeklyReportCSV(&buf, party, summary))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"section", "key", "value"}, records[0])
	assert.Contains(t, records, []string{"summary", "party", "Sharma <Traders>"})
	assert.Contains(t, records, []string{"summary", "week_start", "2026-10-12"})
	assert.Contains(t, records, []string{"summary", "grand_total", "1650.50"})
	assert.Contains(t, records, []string{"invoice", "2026-10-13 inv-1", "450.50"})
}

func TestWeeklyReportHTMLEscapesPartyName(t *testing.T) {
	party, summary := sampleReport()
	var buf bytes.Buffer
	require.NoError(t, WeeklyReportHTML(&buf, party, summary))

	out := buf.String()
	assert.Contains(t, out, "Sharma &lt;Traders&gt;")
	assert.NotContains(t, out, "<Traders>")
	assert.Contains(t, out, "1650.50")
	assert.NotContains(t, out, "All dues cleared")
}

func TestWeeklyReportHTMLSettled(t *testing.T) {
	party := domain.Party{ID: "party-2", Name: "Gupta"}
	summary := domain.WeeklySummary{
		WeekStart: time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC),
		WeekEnd:   time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC),
		Shifted:   true,
	}
	var buf bytes.Buffer
	require.NoError(t, WeeklyReportHTML(&buf, party, summary))
	assert.Contains(t, buf.String(), "All dues cleared")
	assert.Contains(t, buf.String(), "(previous week)")
}

func TestWeeklyReportXLSX(t *testing.T) {
	party, summary := sampleReport()
	var buf bytes.Buffer
	require.NoError(t, WeeklyReportXLSX(&buf, party, summary))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{weeklySheet}, f.GetSheetList())
	name, err := f.GetCellValue(weeklySheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Sharma <Traders>", name)

	id, err := f.GetCellValue(weeklySheet, "B5")
	require.NoError(t, err)
	assert.Equal(t, "inv-1", id)

	label, err := f.GetCellValue(weeklySheet, "A10")
	require.NoError(t, err)
	assert.Equal(t, "Grand total", label)
	grand, err := f.GetCellValue(weeklySheet, "C10")
	require.NoError(t, err)
	assert.Equal(t, "1650.50", grand)
}

func TestFilename(t *testing.T) {
	party, summary := sampleReport()
	assert.Equal(t, "weekly-report-party-1-2026-10-12.xlsx", Filename(party, summary, "xlsx"))
}
