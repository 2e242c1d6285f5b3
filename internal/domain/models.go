package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Money is a decimal amount. Finalized values carry 2 decimal places.
type Money = decimal.Decimal

type UnitRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Unit struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

func (u Unit) Ref() UnitRef {
	return UnitRef{ID: u.ID, Name: u.Name}
}

type UnitCreateRequest struct {
	Name string `json:"name"`
}

type Category struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

type CategoryCreateRequest struct {
	Name string `json:"name"`
}

type CatalogItem struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	CategoryID     string           `json:"category_id,omitempty"`
	DefaultRate    Money            `json:"default_rate"`
	Unit           UnitRef          `json:"unit"`
	PartyOverrides map[string]Money `json:"party_overrides,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	DeletedAt      *time.Time       `json:"deleted_at,omitempty"`
}

type ItemCreateRequest struct {
	Name        string `json:"name"`
	CategoryID  string `json:"category_id,omitempty"`
	UnitID      string `json:"unit_id"`
	DefaultRate Money  `json:"default_rate"`
}

type ItemUpdateRequest struct {
	Name        *string `json:"name,omitempty"`
	CategoryID  *string `json:"category_id,omitempty"`
	UnitID      *string `json:"unit_id,omitempty"`
	DefaultRate *Money  `json:"default_rate,omitempty"`
}

type PartyRateRequest struct {
	PartyID string `json:"party_id"`
	Rate    Money  `json:"rate"`
}

type ItemRateResponse struct {
	ItemID   string `json:"item_id"`
	PartyID  string `json:"party_id,omitempty"`
	Rate     Money  `json:"rate"`
	UnitName string `json:"unit_name"`
	Override bool   `json:"override"`
}

// ItemImportRow is one parsed row of a bulk item import. Row is the 1-based
// line number in the source file, header included.
type ItemImportRow struct {
	Row      int    `json:"row"`
	Name     string `json:"name"`
	Unit     string `json:"unit"`
	Rate     Money  `json:"rate"`
	Category string `json:"category,omitempty"`
}

type ImportSkip struct {
	Row    int    `json:"row"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type ImportResult struct {
	Created []CatalogItem `json:"created"`
	Skipped []ImportSkip  `json:"skipped"`
}

type Party struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Phone          string     `json:"phone,omitempty"`
	Address        string     `json:"address,omitempty"`
	BundleRate     *Money     `json:"bundle_rate,omitempty"`
	OpeningBalance Money      `json:"opening_balance"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

type PartyCreateRequest struct {
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	BundleRate     *Money `json:"bundle_rate,omitempty"`
	OpeningBalance Money  `json:"opening_balance"`
}

type PartyUpdateRequest struct {
	Name           *string `json:"name,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	Address        *string `json:"address,omitempty"`
	BundleRate     *Money  `json:"bundle_rate,omitempty"`
	ClearBundle    bool    `json:"clear_bundle_rate,omitempty"`
	OpeningBalance *Money  `json:"opening_balance,omitempty"`
}

type DraftInvoiceLine struct {
	ItemID   string          `json:"item_id"`
	ItemName string          `json:"item_name"`
	Quantity decimal.Decimal `json:"quantity"`
	Rate     Money           `json:"rate"`
	UnitName string          `json:"unit_name"`
}

type DraftInvoice struct {
	PartyID        string             `json:"party_id"`
	InvoiceDate    time.Time          `json:"invoice_date"`
	BundleRate     Money              `json:"bundle_rate"`
	BundleQuantity decimal.Decimal    `json:"bundle_quantity"`
	Lines          []DraftInvoiceLine `json:"lines"`
}

type Payment struct {
	ID          string    `json:"id"`
	InvoiceID   string    `json:"invoice_id"`
	Amount      Money     `json:"amount"`
	PaymentDate time.Time `json:"payment_date"`
	Note        string    `json:"note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type PaymentCreateRequest struct {
	Amount      Money     `json:"amount"`
	PaymentDate time.Time `json:"payment_date"`
	Note        string    `json:"note"`
}

type SavedInvoice struct {
	DraftInvoice
	ID          string     `json:"id"`
	PartyName   string     `json:"party_name"`
	TotalAmount Money      `json:"total_amount"`
	Payments    []Payment  `json:"payments"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// InvoiceCreateRequest carries a draft from the invoice form. A nil
// BundleRate means the party's (or the system default) bundle rate applies.
type InvoiceCreateRequest struct {
	PartyID        string             `json:"party_id"`
	InvoiceDate    time.Time          `json:"invoice_date"`
	BundleRate     *Money             `json:"bundle_rate,omitempty"`
	BundleQuantity decimal.Decimal    `json:"bundle_quantity"`
	Lines          []DraftInvoiceLine `json:"lines"`
}

type InvoiceTotals struct {
	LineAmounts  []Money `json:"line_amounts"`
	SubTotal     Money   `json:"sub_total"`
	BundleCharge Money   `json:"bundle_charge"`
	GrandTotal   Money   `json:"grand_total"`
}

type InvoicePreview struct {
	Draft  DraftInvoice  `json:"draft"`
	Totals InvoiceTotals `json:"totals"`
}

type LedgerEntry struct {
	InvoiceID   string    `json:"invoice_id"`
	InvoiceDate time.Time `json:"invoice_date"`
	Billed      Money     `json:"billed"`
	Paid        Money     `json:"paid"`
	Balance     Money     `json:"balance"`
}

type PartyLedger struct {
	Party       Party         `json:"party"`
	Outstanding Money         `json:"outstanding"`
	Entries     []LedgerEntry `json:"entries"`
}

type WeeklySummary struct {
	PreviousOutstanding Money          `json:"previous_outstanding"`
	WeeklyInvoices      []SavedInvoice `json:"weekly_invoices"`
	WeekTotal           Money          `json:"week_total"`
	WeekPayments        Money          `json:"week_payments"`
	GrandTotal          Money          `json:"grand_total"`
	WeekStart           time.Time      `json:"week_start"`
	WeekEnd             time.Time      `json:"week_end"`
	Shifted             bool           `json:"shifted"`
}

// Settled reports whether nothing was owed before the window and nothing is
// owed after it. Both amounts are already rounded to 2 decimals.
func (w WeeklySummary) Settled() bool {
	return w.PreviousOutstanding.IsZero() && w.GrandTotal.IsZero()
}

type WeeklyReport struct {
	Party   Party         `json:"party"`
	Summary WeeklySummary `json:"summary"`
	Settled bool          `json:"settled"`
}

type UpdateTarget string

type UpdateField string

const (
	UpdateTargetLine  UpdateTarget = "line"
	UpdateTargetParty UpdateTarget = "party"
)

const (
	FieldName      UpdateField = "name"
	FieldRate      UpdateField = "rate"
	FieldUnit      UpdateField = "unit"
	FieldPartyName UpdateField = "partyName"
)

// FieldUpdate is a proposed change to a saved invoice. LineIndex is only
// meaningful when Target is UpdateTargetLine. ConvertedFromRate is advisory:
// the saved rate re-expressed in the catalog's current unit.
type FieldUpdate struct {
	Target            UpdateTarget `json:"target"`
	LineIndex         int          `json:"line_index"`
	ItemID            string       `json:"item_id,omitempty"`
	Field             UpdateField  `json:"field"`
	OldValue          string       `json:"old_value"`
	NewValue          string       `json:"new_value"`
	ConvertedFromRate *Money       `json:"converted_from_rate,omitempty"`
}

type InvoiceUpdatesResponse struct {
	InvoiceID string        `json:"invoice_id"`
	Updates   []FieldUpdate `json:"updates"`
}

type ApplyUpdatesRequest struct {
	Updates []FieldUpdate `json:"updates"`
}

type RateConversion struct {
	Rate      Money  `json:"rate"`
	From      string `json:"from"`
	To        string `json:"to"`
	Converted Money  `json:"converted"`
	Known     bool   `json:"known"`
}

type Actor struct {
	Username string
}

type ActivityLog struct {
	ID         string    `json:"id"`
	Actor      string    `json:"actor"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Detail     string    `json:"detail"`
	CreatedAt  time.Time `json:"created_at"`
}

const (
	EntityParty    = "party"
	EntityItem     = "item"
	EntityInvoice  = "invoice"
	EntityPayment  = "payment"
	EntityUnit     = "unit"
	EntityCategory = "category"
)
