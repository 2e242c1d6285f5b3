package billing

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bahikhata/backend/internal/domain"
)

func money(s string) domain.Money {
	return decimal.RequireFromString(s)
}

func moneyPtr(s string) *domain.Money {
	m := money(s)
	return &m
}

func line(itemID string, qty string, rate string, unit string) domain.DraftInvoiceLine {
	return domain.DraftInvoiceLine{
		ItemID:   itemID,
		ItemName: itemID,
		Quantity: money(qty),
		Rate:     money(rate),
		UnitName: unit,
	}
}

func TestLineAmountRoundsHalfUp(t *testing.T) {
	tests := []struct {
		name string
		qty  string
		rate string
		want string
	}{
		{name: "whole numbers", qty: "3", rate: "50", want: "150"},
		{name: "fractional quantity", qty: "1.5", rate: "33.33", want: "50"},
		{name: "half cent rounds up", qty: "0.5", rate: "0.05", want: "0.03"},
		{name: "no binary drift", qty: "3", rate: "0.1", want: "0.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LineAmount(line("A", tt.qty, tt.rate, "PCS"))
			assert.True(t, money(tt.want).Equal(got), "got %s want %s", got, tt.want)
		})
	}
}

func TestSubTotalIsSumOfLineAmounts(t *testing.T) {
	lines := []domain.DraftInvoiceLine{
		line("A", "3", "50", "PCS"),
		line("B", "2.333", "17.17", "KG"),
		line("C", "1", "0.005", "PCS"),
	}

	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(LineAmount(l))
	}
	assert.True(t, sum.Equal(SubTotal(lines)))
	assert.True(t, SubTotal(nil).IsZero())
	assert.True(t, SubTotal([]domain.DraftInvoiceLine{}).IsZero())
}

func TestBundleChargeZeroOperands(t *testing.T) {
	assert.True(t, BundleCharge(decimal.Zero, money("75")).IsZero())
	assert.True(t, BundleCharge(money("4"), decimal.Zero).IsZero())
	assert.True(t, money("300").Equal(BundleCharge(money("4"), money("75"))))
}

func TestGrandTotalScenario(t *testing.T) {
	itemA := domain.CatalogItem{ID: "A", Name: "Item A", DefaultRate: money("50"), Unit: domain.UnitRef{Name: "PCS"}}
	itemB := domain.CatalogItem{
		ID:             "B",
		Name:           "Item B",
		DefaultRate:    money("200"),
		Unit:           domain.UnitRef{Name: "DOZ"},
		PartyOverrides: map[string]domain.Money{"P": money("180")},
	}

	draft := domain.DraftInvoice{
		PartyID:        "P",
		InvoiceDate:    time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC),
		BundleRate:     money("50"),
		BundleQuantity: money("1"),
		Lines: []domain.DraftInvoiceLine{
			{ItemID: "A", ItemName: itemA.Name, Quantity: money("3"), Rate: ResolveRate(itemA, "P"), UnitName: "PCS"},
			{ItemID: "B", ItemName: itemB.Name, Quantity: money("2"), Rate: ResolveRate(itemB, "P"), UnitName: "DOZ"},
		},
	}

	assert.True(t, money("510").Equal(SubTotal(draft.Lines)))
	assert.True(t, money("50").Equal(BundleCharge(draft.BundleQuantity, draft.BundleRate)))
	assert.True(t, money("560").Equal(GrandTotal(draft)))

	totals := Calculate(draft)
	require.Len(t, totals.LineAmounts, 2)
	assert.True(t, money("150").Equal(totals.LineAmounts[0]))
	assert.True(t, money("360").Equal(totals.LineAmounts[1]))
	assert.True(t, totals.GrandTotal.Equal(GrandTotal(draft)))
}

func TestGrandTotalIsIdempotent(t *testing.T) {
	draft := domain.DraftInvoice{
		BundleRate:     money("12.5"),
		BundleQuantity: money("3"),
		Lines:          []domain.DraftInvoiceLine{line("A", "7", "13.37", "PCS")},
	}
	first := GrandTotal(draft)
	second := GrandTotal(draft)
	assert.True(t, first.Equal(second))
	assert.Equal(t, first.String(), second.String())
}

func TestGrandTotalEmptyDraft(t *testing.T) {
	assert.True(t, GrandTotal(domain.DraftInvoice{}).IsZero())
	totals := Calculate(domain.DraftInvoice{})
	assert.Empty(t, totals.LineAmounts)
	assert.True(t, totals.GrandTotal.IsZero())
}

func TestResolveBundleRate(t *testing.T) {
	systemDefault := money("40")

	assert.True(t, systemDefault.Equal(ResolveBundleRate(nil, systemDefault)))
	assert.True(t, systemDefault.Equal(ResolveBundleRate(&domain.Party{ID: "P"}, systemDefault)))
	assert.True(t, money("25").Equal(ResolveBundleRate(&domain.Party{ID: "P", BundleRate: moneyPtr("25")}, systemDefault)))
	assert.True(t, ResolveBundleRate(&domain.Party{ID: "P", BundleRate: moneyPtr("0")}, systemDefault).IsZero())
}

func TestValidateDraft(t *testing.T) {
	valid := domain.DraftInvoice{
		PartyID:     "P",
		InvoiceDate: time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC),
		Lines:       []domain.DraftInvoiceLine{line("A", "1", "10", "PCS")},
	}
	require.NoError(t, ValidateDraft(valid))

	tests := []struct {
		name   string
		mutate func(d *domain.DraftInvoice)
		field  string
	}{
		{name: "missing party", mutate: func(d *domain.DraftInvoice) { d.PartyID = " " }, field: "party_id"},
		{name: "missing date", mutate: func(d *domain.DraftInvoice) { d.InvoiceDate = time.Time{} }, field: "invoice_date"},
		{name: "no lines", mutate: func(d *domain.DraftInvoice) { d.Lines = nil }, field: "lines"},
		{name: "zero quantity", mutate: func(d *domain.DraftInvoice) { d.Lines = []domain.DraftInvoiceLine{line("A", "0", "10", "PCS")} }, field: "lines[0].quantity"},
		{name: "negative rate", mutate: func(d *domain.DraftInvoice) { d.Lines = []domain.DraftInvoiceLine{line("A", "1", "-1", "PCS")} }, field: "lines[0].rate"},
		{name: "negative bundle quantity", mutate: func(d *domain.DraftInvoice) { d.BundleQuantity = money("-1") }, field: "bundle_quantity"},
		{name: "negative bundle rate", mutate: func(d *domain.DraftInvoice) { d.BundleRate = money("-5") }, field: "bundle_rate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := valid
			draft.Lines = append([]domain.DraftInvoiceLine(nil), valid.Lines...)
			tt.mutate(&draft)

			err := ValidateDraft(draft)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))

			var inputErr *InvalidInputError
			require.True(t, errors.As(err, &inputErr))
			assert.Equal(t, tt.field, inputErr.Field)
		})
	}
}
