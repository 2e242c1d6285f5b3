package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"bahikhata/backend/internal/domain"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrDuplicateName = errors.New("duplicate name")
	ErrConflict      = errors.New("conflict")
)

// Repository persists the billing records. Every Delete* is a soft delete:
// List* and Get* skip deleted rows, ListDeleted* returns only deleted rows
// and Restore* brings one back. Deleting a deleted row or restoring a live
// one returns ErrConflict.
type Repository interface {
	ListParties(ctx context.Context) ([]domain.Party, error)
	ListDeletedParties(ctx context.Context) ([]domain.Party, error)
	GetParty(ctx context.Context, id string) (*domain.Party, error)
	CreateParty(ctx context.Context, party domain.Party) (*domain.Party, error)
	UpdateParty(ctx context.Context, party domain.Party) (*domain.Party, error)
	DeleteParty(ctx context.Context, id string, at time.Time) error
	RestoreParty(ctx context.Context, id string) (*domain.Party, error)

	ListUnits(ctx context.Context) ([]domain.Unit, error)
	GetUnit(ctx context.Context, id string) (*domain.Unit, error)
	CreateUnit(ctx context.Context, unit domain.Unit) (*domain.Unit, error)
	DeleteUnit(ctx context.Context, id string, at time.Time) error

	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, category domain.Category) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id string, at time.Time) error

	ListItems(ctx context.Context) ([]domain.CatalogItem, error)
	ListDeletedItems(ctx context.Context) ([]domain.CatalogItem, error)
	GetItem(ctx context.Context, id string) (*domain.CatalogItem, error)
	GetItemsByIDs(ctx context.Context, ids []string) (map[string]domain.CatalogItem, error)
	CreateItem(ctx context.Context, item domain.CatalogItem) (*domain.CatalogItem, error)
	UpdateItem(ctx context.Context, item domain.CatalogItem) (*domain.CatalogItem, error)
	DeleteItem(ctx context.Context, id string, at time.Time) error
	RestoreItem(ctx context.Context, id string) (*domain.CatalogItem, error)
	SetPartyRate(ctx context.Context, itemID string, partyID string, rate domain.Money) error
	RemovePartyRate(ctx context.Context, itemID string, partyID string) error

	// ListInvoices returns live invoices ordered by invoice date then
	// creation time. An empty partyID lists every party.
	ListInvoices(ctx context.Context, partyID string) ([]domain.SavedInvoice, error)
	ListDeletedInvoices(ctx context.Context) ([]domain.SavedInvoice, error)
	GetInvoice(ctx context.Context, id string) (*domain.SavedInvoice, error)
	CreateInvoice(ctx context.Context, invoice domain.SavedInvoice) (*domain.SavedInvoice, error)
	// UpdateInvoice rewrites the party name, lines and total of a live
	// invoice. Payments are left untouched.
	UpdateInvoice(ctx context.Context, invoice domain.SavedInvoice) (*domain.SavedInvoice, error)
	DeleteInvoice(ctx context.Context, id string, at time.Time) error
	RestoreInvoice(ctx context.Context, id string) (*domain.SavedInvoice, error)
	AddPayment(ctx context.Context, payment domain.Payment) (*domain.Payment, error)

	CreateActivityLog(ctx context.Context, entry domain.ActivityLog) error
	ListActivityLogs(ctx context.Context, limit int) ([]domain.ActivityLog, error)
}

// NormalizeName is the key used for duplicate-name checks: trimmed, case
// folded, inner whitespace collapsed to single spaces.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
