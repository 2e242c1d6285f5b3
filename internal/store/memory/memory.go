package memory

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"bahikhata/backend/internal/domain"
	"bahikhata/backend/internal/store"
	"bahikhata/backend/internal/xid"
)

type Store struct {
	mu           sync.RWMutex
	parties      map[string]domain.Party
	units        map[string]domain.Unit
	categories   map[string]domain.Category
	items        map[string]domain.CatalogItem
	invoicesByID map[string]domain.SavedInvoice
	invoiceOrder []string
	activityLogs []domain.ActivityLog
}

func New() *Store {
	return &Store{
		parties:      make(map[string]domain.Party),
		units:        make(map[string]domain.Unit),
		categories:   make(map[string]domain.Category),
		items:        make(map[string]domain.CatalogItem),
		invoicesByID: make(map[string]domain.SavedInvoice),
		activityLogs: make([]domain.ActivityLog, 0, 128),
	}
}

// NewSeeded returns a store with demo units, categories, parties and items
// for running the server without a database.
func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()

	for _, name := range []string{"PCS", "DOZ", "KG", "G", "BOX"} {
		id := "unit-" + strings.ToLower(name)
		s.units[id] = domain.Unit{ID: id, Name: name, CreatedAt: now}
	}
	for _, c := range []struct{ id, name string }{
		{"cat-stationery", "Stationery"},
		{"cat-grocery", "Grocery"},
	} {
		s.categories[c.id] = domain.Category{ID: c.id, Name: c.name, CreatedAt: now}
	}

	bundle := decimal.NewFromInt(25)
	s.parties["party-sharma"] = domain.Party{
		ID: "party-sharma", Name: "Sharma Traders", Phone: "9800000001", Address: "Sadar Bazaar",
		BundleRate: &bundle, OpeningBalance: decimal.NewFromInt(500), CreatedAt: now, UpdatedAt: now,
	}
	s.parties["party-gupta"] = domain.Party{
		ID: "party-gupta", Name: "Gupta General Store", Phone: "9800000002",
		OpeningBalance: decimal.Zero, CreatedAt: now, UpdatedAt: now,
	}

	seedItems := []domain.CatalogItem{
		{ID: "item-gel-pen", Name: "Gel Pen", CategoryID: "cat-stationery", DefaultRate: decimal.NewFromInt(120), Unit: s.units["unit-doz"].Ref()},
		{ID: "item-notebook", Name: "Notebook A4", CategoryID: "cat-stationery", DefaultRate: decimal.NewFromInt(45), Unit: s.units["unit-pcs"].Ref(),
			PartyOverrides: map[string]domain.Money{"party-sharma": decimal.NewFromInt(40)}},
		{ID: "item-sugar", Name: "Sugar", CategoryID: "cat-grocery", DefaultRate: decimal.NewFromInt(44), Unit: s.units["unit-kg"].Ref()},
		{ID: "item-tea", Name: "Tea Leaves", CategoryID: "cat-grocery", DefaultRate: decimal.RequireFromString("0.62"), Unit: s.units["unit-g"].Ref()},
	}
	for _, item := range seedItems {
		item.CreatedAt = now
		item.UpdatedAt = now
		s.items[item.ID] = item
	}
	return s
}

func (s *Store) ListParties(_ context.Context) ([]domain.Party, error) {
	return s.listParties(false), nil
}

func (s *Store) ListDeletedParties(_ context.Context) ([]domain.Party, error) {
	return s.listParties(true), nil
}

func (s *Store) listParties(deleted bool) []domain.Party {
	s.mu.RLock()
	defer s.mu.RUnlock()

	parties := make([]domain.Party, 0, len(s.parties))
	for _, p := range s.parties {
		if (p.DeletedAt != nil) != deleted {
			continue
		}
		parties = append(parties, cloneParty(p))
	}
	slices.SortFunc(parties, func(a, b domain.Party) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return parties
}

func (s *Store) GetParty(_ context.Context, id string) (*domain.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	party, ok := s.parties[id]
	if !ok || party.DeletedAt != nil {
		return nil, store.ErrNotFound
	}
	out := cloneParty(party)
	return &out, nil
}

func (s *Store) CreateParty(_ context.Context, party domain.Party) (*domain.Party, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(party.Name) == "" {
		return nil, store.ErrInvalidInput
	}
	if s.partyNameTaken(party.Name, "") {
		return nil, store.ErrDuplicateName
	}
	if party.ID == "" {
		party.ID = xid.New("party")
	}
	s.parties[party.ID] = cloneParty(party)
	out := cloneParty(party)
	return &out, nil
}

func (s *Store) UpdateParty(_ context.Context, party domain.Party) (*domain.Party, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.parties[party.ID]
	if !ok || existing.DeletedAt != nil {
		return nil, store.ErrNotFound
	}
	if strings.TrimSpace(party.Name) == "" {
		return nil, store.ErrInvalidInput
	}
	if s.partyNameTaken(party.Name, party.ID) {
		return nil, store.ErrDuplicateName
	}
	party.CreatedAt = existing.CreatedAt
	party.DeletedAt = nil
	s.parties[party.ID] = cloneParty(party)
	out := cloneParty(party)
	return &out, nil
}

func (s *Store) DeleteParty(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	party, ok := s.parties[id]
	if !ok {
		return store.ErrNotFound
	}
	if party.DeletedAt != nil {
		return store.ErrConflict
	}
	party.DeletedAt = &at
	s.parties[id] = party
	return nil
}

func (s *Store) RestoreParty(_ context.Context, id string) (*domain.Party, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	party, ok := s.parties[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if party.DeletedAt == nil {
		return nil, store.ErrConflict
	}
	if s.partyNameTaken(party.Name, id) {
		return nil, store.ErrDuplicateName
	}
	party.DeletedAt = nil
	s.parties[id] = party
	out := cloneParty(party)
	return &out, nil
}

func (s *Store) partyNameTaken(name string, exceptID string) bool {
	key := store.NormalizeName(name)
	for id, p := range s.parties {
		if id != exceptID && p.DeletedAt == nil && store.NormalizeName(p.Name) == key {
			return true
		}
	}
	return false
}

func (s *Store) ListUnits(_ context.Context) ([]domain.Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	units := make([]domain.Unit, 0, len(s.units))
	for _, u := range s.units {
		if u.DeletedAt == nil {
			units = append(units, u)
		}
	}
	slices.SortFunc(units, func(a, b domain.Unit) int { return strings.Compare(a.Name, b.Name) })
	return units, nil
}

func (s *Store) GetUnit(_ context.Context, id string) (*domain.Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	unit, ok := s.units[id]
	if !ok || unit.DeletedAt != nil {
		return nil, store.ErrNotFound
	}
	return &unit, nil
}

func (s *Store) CreateUnit(_ context.Context, unit domain.Unit) (*domain.Unit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(unit.Name) == "" {
		return nil, store.ErrInvalidInput
	}
	key := store.NormalizeName(unit.Name)
	for _, u := range s.units {
		if u.DeletedAt == nil && store.NormalizeName(u.Name) == key {
			return nil, store.ErrDuplicateName
		}
	}
	if unit.ID == "" {
		unit.ID = xid.New("unit")
	}
	s.units[unit.ID] = unit
	return &unit, nil
}

func (s *Store) DeleteUnit(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unit, ok := s.units[id]
	if !ok {
		return store.ErrNotFound
	}
	if unit.DeletedAt != nil {
		return store.ErrConflict
	}
	for _, item := range s.items {
		if item.DeletedAt == nil && item.Unit.ID == id {
			return store.ErrConflict
		}
	}
	unit.DeletedAt = &at
	s.units[id] = unit
	return nil
}

func (s *Store) ListCategories(_ context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		if c.DeletedAt == nil {
			categories = append(categories, c)
		}
	}
	slices.SortFunc(categories, func(a, b domain.Category) int { return strings.Compare(a.Name, b.Name) })
	return categories, nil
}

func (s *Store) CreateCategory(_ context.Context, category domain.Category) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(category.Name) == "" {
		return nil, store.ErrInvalidInput
	}
	key := store.NormalizeName(category.Name)
	for _, c := range s.categories {
		if c.DeletedAt == nil && store.NormalizeName(c.Name) == key {
			return nil, store.ErrDuplicateName
		}
	}
	if category.ID == "" {
		category.ID = xid.New("cat")
	}
	s.categories[category.ID] = category
	return &category, nil
}

func (s *Store) DeleteCategory(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	category, ok := s.categories[id]
	if !ok {
		return store.ErrNotFound
	}
	if category.DeletedAt != nil {
		return store.ErrConflict
	}
	category.DeletedAt = &at
	s.categories[id] = category
	return nil
}

func (s *Store) ListItems(_ context.Context) ([]domain.CatalogItem, error) {
	return s.listItems(false), nil
}

func (s *Store) ListDeletedItems(_ context.Context) ([]domain.CatalogItem, error) {
	return s.listItems(true), nil
}

func (s *Store) listItems(deleted bool) []domain.CatalogItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.CatalogItem, 0, len(s.items))
	for _, item := range s.items {
		if (item.DeletedAt != nil) != deleted {
			continue
		}
		items = append(items, cloneItem(item))
	}
	slices.SortFunc(items, func(a, b domain.CatalogItem) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return items
}

func (s *Store) GetItem(_ context.Context, id string) (*domain.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok || item.DeletedAt != nil {
		return nil, store.ErrNotFound
	}
	out := cloneItem(item)
	return &out, nil
}

// GetItemsByIDs skips ids that are unknown or deleted.
func (s *Store) GetItemsByIDs(_ context.Context, ids []string) (map[string]domain.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.CatalogItem, len(ids))
	for _, id := range ids {
		if item, ok := s.items[id]; ok && item.DeletedAt == nil {
			result[id] = cloneItem(item)
		}
	}
	return result, nil
}

func (s *Store) CreateItem(_ context.Context, item domain.CatalogItem) (*domain.CatalogItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkItem(item); err != nil {
		return nil, err
	}
	if item.ID == "" {
		item.ID = xid.New("item")
	}
	s.items[item.ID] = cloneItem(item)
	out := cloneItem(item)
	return &out, nil
}

func (s *Store) UpdateItem(_ context.Context, item domain.CatalogItem) (*domain.CatalogItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.items[item.ID]
	if !ok || existing.DeletedAt != nil {
		return nil, store.ErrNotFound
	}
	if err := s.checkItem(item); err != nil {
		return nil, err
	}
	item.CreatedAt = existing.CreatedAt
	item.PartyOverrides = existing.PartyOverrides
	item.DeletedAt = nil
	s.items[item.ID] = cloneItem(item)
	out := cloneItem(item)
	return &out, nil
}

func (s *Store) checkItem(item domain.CatalogItem) error {
	if strings.TrimSpace(item.Name) == "" || item.DefaultRate.IsNegative() {
		return store.ErrInvalidInput
	}
	if unit, ok := s.units[item.Unit.ID]; !ok || unit.DeletedAt != nil {
		return store.ErrInvalidInput
	}
	if item.CategoryID != "" {
		if category, ok := s.categories[item.CategoryID]; !ok || category.DeletedAt != nil {
			return store.ErrInvalidInput
		}
	}
	if s.itemNameTaken(item.Name, item.ID) {
		return store.ErrDuplicateName
	}
	return nil
}

func (s *Store) itemNameTaken(name string, exceptID string) bool {
	key := store.NormalizeName(name)
	for id, item := range s.items {
		if id != exceptID && item.DeletedAt == nil && store.NormalizeName(item.Name) == key {
			return true
		}
	}
	return false
}

func (s *Store) DeleteItem(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return store.ErrNotFound
	}
	if item.DeletedAt != nil {
		return store.ErrConflict
	}
	item.DeletedAt = &at
	s.items[id] = item
	return nil
}

func (s *Store) RestoreItem(_ context.Context, id string) (*domain.CatalogItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if item.DeletedAt == nil {
		return nil, store.ErrConflict
	}
	if s.itemNameTaken(item.Name, id) {
		return nil, store.ErrDuplicateName
	}
	item.DeletedAt = nil
	s.items[id] = item
	out := cloneItem(item)
	return &out, nil
}

func (s *Store) SetPartyRate(_ context.Context, itemID string, partyID string, rate domain.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok || item.DeletedAt != nil {
		return store.ErrNotFound
	}
	if party, ok := s.parties[partyID]; !ok || party.DeletedAt != nil {
		return store.ErrNotFound
	}
	if rate.IsNegative() {
		return store.ErrInvalidInput
	}
	overrides := maps.Clone(item.PartyOverrides)
	if overrides == nil {
		overrides = make(map[string]domain.Money)
	}
	overrides[partyID] = rate
	item.PartyOverrides = overrides
	item.UpdatedAt = time.Now().UTC()
	s.items[itemID] = item
	return nil
}

func (s *Store) RemovePartyRate(_ context.Context, itemID string, partyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok || item.DeletedAt != nil {
		return store.ErrNotFound
	}
	if _, ok := item.PartyOverrides[partyID]; !ok {
		return store.ErrNotFound
	}
	overrides := maps.Clone(item.PartyOverrides)
	delete(overrides, partyID)
	item.PartyOverrides = overrides
	item.UpdatedAt = time.Now().UTC()
	s.items[itemID] = item
	return nil
}

func (s *Store) ListInvoices(_ context.Context, partyID string) ([]domain.SavedInvoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	invoices := make([]domain.SavedInvoice, 0)
	for _, id := range s.invoiceOrder {
		inv := s.invoicesByID[id]
		if inv.DeletedAt != nil || (partyID != "" && inv.PartyID != partyID) {
			continue
		}
		invoices = append(invoices, cloneInvoice(inv))
	}
	slices.SortStableFunc(invoices, compareInvoices)
	return invoices, nil
}

func (s *Store) ListDeletedInvoices(_ context.Context) ([]domain.SavedInvoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	invoices := make([]domain.SavedInvoice, 0)
	for _, id := range s.invoiceOrder {
		if inv := s.invoicesByID[id]; inv.DeletedAt != nil {
			invoices = append(invoices, cloneInvoice(inv))
		}
	}
	slices.SortStableFunc(invoices, compareInvoices)
	return invoices, nil
}

func (s *Store) GetInvoice(_ context.Context, id string) (*domain.SavedInvoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invoicesByID[id]
	if !ok || inv.DeletedAt != nil {
		return nil, store.ErrNotFound
	}
	out := cloneInvoice(inv)
	return &out, nil
}

func (s *Store) CreateInvoice(_ context.Context, invoice domain.SavedInvoice) (*domain.SavedInvoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if party, ok := s.parties[invoice.PartyID]; !ok || party.DeletedAt != nil {
		return nil, store.ErrNotFound
	}
	if len(invoice.Lines) == 0 {
		return nil, store.ErrInvalidInput
	}
	if invoice.ID == "" {
		invoice.ID = xid.New("inv")
	}
	if _, exists := s.invoicesByID[invoice.ID]; exists {
		return nil, store.ErrConflict
	}
	invoice.Payments = nil
	s.invoicesByID[invoice.ID] = cloneInvoice(invoice)
	s.invoiceOrder = append(s.invoiceOrder, invoice.ID)
	out := cloneInvoice(invoice)
	out.Payments = []domain.Payment{}
	return &out, nil
}

func (s *Store) UpdateInvoice(_ context.Context, invoice domain.SavedInvoice) (*domain.SavedInvoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.invoicesByID[invoice.ID]
	if !ok || existing.DeletedAt != nil {
		return nil, store.ErrNotFound
	}
	if len(invoice.Lines) == 0 {
		return nil, store.ErrInvalidInput
	}
	existing.PartyName = invoice.PartyName
	existing.Lines = slices.Clone(invoice.Lines)
	existing.TotalAmount = invoice.TotalAmount
	existing.UpdatedAt = invoice.UpdatedAt
	s.invoicesByID[invoice.ID] = existing
	out := cloneInvoice(existing)
	return &out, nil
}

func (s *Store) DeleteInvoice(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoicesByID[id]
	if !ok {
		return store.ErrNotFound
	}
	if inv.DeletedAt != nil {
		return store.ErrConflict
	}
	inv.DeletedAt = &at
	s.invoicesByID[id] = inv
	return nil
}

func (s *Store) RestoreInvoice(_ context.Context, id string) (*domain.SavedInvoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoicesByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if inv.DeletedAt == nil {
		return nil, store.ErrConflict
	}
	inv.DeletedAt = nil
	s.invoicesByID[id] = inv
	out := cloneInvoice(inv)
	return &out, nil
}

func (s *Store) AddPayment(_ context.Context, payment domain.Payment) (*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoicesByID[payment.InvoiceID]
	if !ok || inv.DeletedAt != nil {
		return nil, store.ErrNotFound
	}
	if !payment.Amount.IsPositive() {
		return nil, store.ErrInvalidInput
	}
	if payment.ID == "" {
		payment.ID = xid.New("pay")
	}
	inv.Payments = append(slices.Clone(inv.Payments), payment)
	s.invoicesByID[inv.ID] = inv
	return &payment, nil
}

func (s *Store) CreateActivityLog(_ context.Context, entry domain.ActivityLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("act")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.activityLogs = append(s.activityLogs, entry)
	return nil
}

// ListActivityLogs returns the newest entries first.
func (s *Store) ListActivityLogs(_ context.Context, limit int) ([]domain.ActivityLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.ActivityLog, 0, len(s.activityLogs))
	for i := len(s.activityLogs) - 1; i >= 0; i-- {
		result = append(result, s.activityLogs[i])
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

func compareInvoices(a, b domain.SavedInvoice) int {
	if c := a.InvoiceDate.Compare(b.InvoiceDate); c != 0 {
		return c
	}
	return a.CreatedAt.Compare(b.CreatedAt)
}

func cloneParty(src domain.Party) domain.Party {
	out := src
	if src.BundleRate != nil {
		rate := *src.BundleRate
		out.BundleRate = &rate
	}
	return out
}

func cloneItem(src domain.CatalogItem) domain.CatalogItem {
	out := src
	out.PartyOverrides = maps.Clone(src.PartyOverrides)
	return out
}

func cloneInvoice(src domain.SavedInvoice) domain.SavedInvoice {
	out := src
	out.Lines = slices.Clone(src.Lines)
	out.Payments = slices.Clone(src.Payments)
	if out.Payments == nil {
		out.Payments = []domain.Payment{}
	}
	return out
}
