// Package export renders a computed weekly summary for download or print.
// It never recomputes totals.
package export

import (
	"encoding/csv"
	"fmt"
	"html/template"
	"io"

	"github.com/xuri/excelize/v2"

	"bahikhata/backend/internal/domain"
)

const dateLayout = "2006-01-02"

func money(m domain.Money) string {
	return m.StringFixed(2)
}

// Filename returns the download name for a party's weekly report.
func Filename(party domain.Party, summary domain.WeeklySummary, ext string) string {
	return fmt.Sprintf("weekly-report-%s-%s.%s", party.ID, summary.WeekStart.Format(dateLayout), ext)
}

func WeeklyReportCSV(w io.Writer, party domain.Party, summary domain.WeeklySummary) error {
	cw := csv.NewWriter(w)
	records := [][]string{
		{"section", "key", "value"},
		{"summary", "party", party.Name},
		{"summary", "week_start", summary.WeekStart.Format(dateLayout)},
		{"summary", "week_end", summary.WeekEnd.Format(dateLayout)},
		{"summary", "previous_outstanding", money(summary.PreviousOutstanding)},
		{"summary", "week_total", money(summary.WeekTotal)},
		{"summary", "week_payments", money(summary.WeekPayments)},
		{"summary", "grand_total", money(summary.GrandTotal)},
	}
	for _, inv := range summary.WeeklyInvoices {
		records = append(records, []string{"invoice", inv.InvoiceDate.Format(dateLayout) + " " + inv.ID, money(inv.TotalAmount)})
	}
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

type htmlView struct {
	Party   domain.Party
	Start   string
	End     string
	Shifted bool
	Prev    string
	Total   string
	Paid    string
	Grand   string
	Settled bool
	Rows    []htmlRow
}

type htmlRow struct {
	Date   string
	ID     string
	Amount string
}

var weeklyReportHTMLTmpl = template.Must(template.New("weekly-report").Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Weekly Report {{.Party.Name}} {{.Start}}</title>
  <style>
    body { font-family: sans-serif; margin: 24px; }
    table { width: 100%; border-collapse: collapse; margin-top: 8px; }
    th, td { border: 1px solid #ddd; padding: 6px; font-size: 13px; }
    td.num { text-align: right; }
    h2, h3 { margin-bottom: 4px; }
  </style>
</head>
<body>
  <h2>{{.Party.Name}}</h2>
  <p>Week: {{.Start}} to {{.End}}{{if .Shifted}} (previous week){{end}}</p>
  {{if .Settled}}<p>All dues cleared.</p>{{end}}
  <table>
    <thead><tr><th>Date</th><th>Invoice</th><th>Amount</th></tr></thead>
    <tbody>{{range .Rows}}<tr><td>{{.Date}}</td><td>{{.ID}}</td><td class="num">{{.Amount}}</td></tr>{{end}}</tbody>
  </table>
  <table>
    <tr><td>Previous outstanding</td><td class="num">{{.Prev}}</td></tr>
    <tr><td>This week</td><td class="num">{{.Total}}</td></tr>
    <tr><td>Paid this week</td><td class="num">{{.Paid}}</td></tr>
    <tr><th>Grand total</th><th class="num">{{.Grand}}</th></tr>
  </table>
</body>
</html>
`))

func WeeklyReportHTML(w io.Writer, party domain.Party, summary domain.WeeklySummary) error {
	view := htmlView{
		Party:   party,
		Start:   summary.WeekStart.Format(dateLayout),
		End:     summary.WeekEnd.Format(dateLayout),
		Shifted: summary.Shifted,
		Prev:    money(summary.PreviousOutstanding),
		Total:   money(summary.WeekTotal),
		Paid:    money(summary.WeekPayments),
		Grand:   money(summary.GrandTotal),
		Settled: summary.Settled(),
		Rows:    make([]htmlRow, 0, len(summary.WeeklyInvoices)),
	}
	for _, inv := range summary.WeeklyInvoices {
		view.Rows = append(view.Rows, htmlRow{
			Date:   inv.InvoiceDate.Format(dateLayout),
			ID:     inv.ID,
			Amount: money(inv.TotalAmount),
		})
	}
	if err := weeklyReportHTMLTmpl.Execute(w, view); err != nil {
		return fmt.Errorf("failed to render weekly report: %w", err)
	}
	return nil
}

const weeklySheet = "Weekly Report"

// WeeklyReportXLSX writes a single-sheet workbook. Amounts are written as
// numbers with a 0.00 format so they stay summable in a spreadsheet.
func WeeklyReportXLSX(w io.Writer, party domain.Party, summary domain.WeeklySummary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), weeklySheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	set := func(cell string, value any) {
		if err == nil {
			err = f.SetCellValue(weeklySheet, cell, value)
		}
	}
	setAmount := func(row int, amount domain.Money) {
		set(fmt.Sprintf("C%d", row), amount.InexactFloat64())
		if err == nil {
			err = f.SetCellStyle(weeklySheet, fmt.Sprintf("C%d", row), fmt.Sprintf("C%d", row), amountStyle)
		}
	}

	set("A1", party.Name)
	set("A2", "Week")
	set("B2", summary.WeekStart.Format(dateLayout))
	set("C2", summary.WeekEnd.Format(dateLayout))
	set("A4", "Date")
	set("B4", "Invoice")
	set("C4", "Amount")

	row := 5
	for _, inv := range summary.WeeklyInvoices {
		set(fmt.Sprintf("A%d", row), inv.InvoiceDate.Format(dateLayout))
		set(fmt.Sprintf("B%d", row), inv.ID)
		setAmount(row, inv.TotalAmount)
		row++
	}

	row++
	totals := []struct {
		label  string
		amount domain.Money
	}{
		{"Previous outstanding", summary.PreviousOutstanding},
		{"This week", summary.WeekTotal},
		{"Paid this week", summary.WeekPayments},
		{"Grand total", summary.GrandTotal},
	}
	for i, total := range totals {
		set(fmt.Sprintf("A%d", row+i), total.label)
		setAmount(row+i, total.amount)
	}
	if err != nil {
		return fmt.Errorf("failed to fill weekly report: %w", err)
	}

	if err := f.SetCellStyle(weeklySheet, "A1", "A1", boldStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	if err := f.SetCellStyle(weeklySheet, "A4", "C4", boldStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	if err := f.SetColWidth(weeklySheet, "A", "C", 22); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
