package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bahikhata/backend/internal/domain"
	"bahikhata/backend/internal/store"
)

var _ store.Repository = (*Store)(nil)

func TestPartySoftDeleteAndRestore(t *testing.T) {
	ctx := context.Background()
	s := NewSeeded()

	require.NoError(t, s.DeleteParty(ctx, "party-gupta", time.Now().UTC()))
	assert.ErrorIs(t, s.DeleteParty(ctx, "party-gupta", time.Now().UTC()), store.ErrConflict)

	_, err := s.GetParty(ctx, "party-gupta")
	assert.ErrorIs(t, err, store.ErrNotFound)

	live, err := s.ListParties(ctx)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, "party-sharma", live[0].ID)

	deleted, err := s.ListDeletedParties(ctx)
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.NotNil(t, deleted[0].DeletedAt)

	restored, err := s.RestoreParty(ctx, "party-gupta")
	require.NoError(t, err)
	assert.Nil(t, restored.DeletedAt)

	_, err = s.RestoreParty(ctx, "party-gupta")
	assert.ErrorIs(t, err, store.ErrConflict)
	_, err = s.RestoreParty(ctx, "party-missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPartyDuplicateNames(t *testing.T) {
	ctx := context.Background()
	s := NewSeeded()

	_, err := s.CreateParty(ctx, domain.Party{Name: "  sharma   TRADERS "})
	assert.ErrorIs(t, err, store.ErrDuplicateName)

	require.NoError(t, s.DeleteParty(ctx, "party-sharma", time.Now().UTC()))
	created, err := s.CreateParty(ctx, domain.Party{Name: "Sharma Traders"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	_, err = s.RestoreParty(ctx, "party-sharma")
	assert.ErrorIs(t, err, store.ErrDuplicateName)
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewSeeded()

	item, err := s.GetItem(ctx, "item-notebook")
	require.NoError(t, err)
	item.PartyOverrides["party-gupta"] = decimal.NewFromInt(1)

	again, err := s.GetItem(ctx, "item-notebook")
	require.NoError(t, err)
	assert.NotContains(t, again.PartyOverrides, "party-gupta")

	party, err := s.GetParty(ctx, "party-sharma")
	require.NoError(t, err)
	*party.BundleRate = decimal.NewFromInt(999)
	again2, err := s.GetParty(ctx, "party-sharma")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(25).Equal(*again2.BundleRate))
}

func TestPartyRates(t *testing.T) {
	ctx := context.Background()
	s := NewSeeded()

	require.NoError(t, s.SetPartyRate(ctx, "item-sugar", "party-gupta", decimal.NewFromInt(41)))
	item, err := s.GetItem(ctx, "item-sugar")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(41).Equal(item.PartyOverrides["party-gupta"]))

	assert.ErrorIs(t, s.SetPartyRate(ctx, "item-sugar", "party-nobody", decimal.NewFromInt(1)), store.ErrNotFound)
	assert.ErrorIs(t, s.SetPartyRate(ctx, "item-sugar", "party-gupta", decimal.NewFromInt(-1)), store.ErrInvalidInput)

	require.NoError(t, s.RemovePartyRate(ctx, "item-sugar", "party-gupta"))
	assert.ErrorIs(t, s.RemovePartyRate(ctx, "item-sugar", "party-gupta"), store.ErrNotFound)
}

func TestUnitInUseCannotBeDeleted(t *testing.T) {
	ctx := context.Background()
	s := NewSeeded()

	assert.ErrorIs(t, s.DeleteUnit(ctx, "unit-doz", time.Now().UTC()), store.ErrConflict)
	require.NoError(t, s.DeleteUnit(ctx, "unit-box", time.Now().UTC()))

	_, err := s.CreateItem(ctx, domain.CatalogItem{Name: "Crate", Unit: domain.UnitRef{ID: "unit-box", Name: "BOX"}})
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestInvoicesOrderedByDateAndPaymentsAppend(t *testing.T) {
	ctx := context.Background()
	s := NewSeeded()
	lines := []domain.DraftInvoiceLine{{ItemID: "item-sugar", ItemName: "Sugar", Quantity: decimal.NewFromInt(1), Rate: decimal.NewFromInt(44), UnitName: "KG"}}

	late, err := s.CreateInvoice(ctx, domain.SavedInvoice{
		DraftInvoice: domain.DraftInvoice{PartyID: "party-sharma", InvoiceDate: time.Date(2026, 10, 9, 0, 0, 0, 0, time.UTC), Lines: lines},
		TotalAmount:  decimal.NewFromInt(44),
		CreatedAt:    time.Now().UTC(),
	})
	require.NoError(t, err)
	early, err := s.CreateInvoice(ctx, domain.SavedInvoice{
		DraftInvoice: domain.DraftInvoice{PartyID: "party-sharma", InvoiceDate: time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC), Lines: lines},
		TotalAmount:  decimal.NewFromInt(44),
		CreatedAt:    time.Now().UTC(),
	})
	require.NoError(t, err)

	_, err = s.AddPayment(ctx, domain.Payment{InvoiceID: late.ID, Amount: decimal.NewFromInt(10)})
	require.NoError(t, err)
	_, err = s.AddPayment(ctx, domain.Payment{InvoiceID: late.ID, Amount: decimal.Zero})
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	invoices, err := s.ListInvoices(ctx, "party-sharma")
	require.NoError(t, err)
	require.Len(t, invoices, 2)
	assert.Equal(t, early.ID, invoices[0].ID)
	assert.Equal(t, late.ID, invoices[1].ID)
	assert.Len(t, invoices[1].Payments, 1)

	others, err := s.ListInvoices(ctx, "party-gupta")
	require.NoError(t, err)
	assert.Empty(t, others)

	require.NoError(t, s.DeleteInvoice(ctx, early.ID, time.Now().UTC()))
	invoices, err = s.ListInvoices(ctx, "")
	require.NoError(t, err)
	assert.Len(t, invoices, 1)
	deleted, err := s.ListDeletedInvoices(ctx)
	require.NoError(t, err)
	assert.Len(t, deleted, 1)
}

func TestUpdateInvoiceKeepsPayments(t *testing.T) {
	ctx := context.Background()
	s := NewSeeded()
	created, err := s.CreateInvoice(ctx, domain.SavedInvoice{
		DraftInvoice: domain.DraftInvoice{
			PartyID:     "party-gupta",
			InvoiceDate: time.Date(2026, 10, 9, 0, 0, 0, 0, time.UTC),
			Lines:       []domain.DraftInvoiceLine{{ItemID: "item-sugar", ItemName: "Sugar", Quantity: decimal.NewFromInt(2), Rate: decimal.NewFromInt(40), UnitName: "KG"}},
		},
		PartyName:   "Gupta",
		TotalAmount: decimal.NewFromInt(80),
	})
	require.NoError(t, err)
	_, err = s.AddPayment(ctx, domain.Payment{InvoiceID: created.ID, Amount: decimal.NewFromInt(30)})
	require.NoError(t, err)

	next := *created
	next.PartyName = "Gupta General Store"
	next.Lines[0].Rate = decimal.NewFromInt(44)
	next.TotalAmount = decimal.NewFromInt(88)
	updated, err := s.UpdateInvoice(ctx, next)
	require.NoError(t, err)

	assert.Equal(t, "Gupta General Store", updated.PartyName)
	assert.True(t, decimal.NewFromInt(88).Equal(updated.TotalAmount))
	assert.Len(t, updated.Payments, 1)
}

func TestActivityLogsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, action := range []string{"create", "update", "delete"} {
		require.NoError(t, s.CreateActivityLog(ctx, domain.ActivityLog{Action: action}))
	}

	logs, err := s.ListActivityLogs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "delete", logs[0].Action)
	assert.Equal(t, "update", logs[1].Action)
}
