// Package billing holds the invoice arithmetic, party ledger roll-forward and
// catalog drift detection used by the service layer. Every function here is
// pure: inputs are plain values and nothing is mutated in place.
package billing

import (
	"github.com/shopspring/decimal"

	"bahikhata/backend/internal/domain"
)

// ResolveRate returns the rate to prefill for item on an invoice for partyID.
// An empty partyID means no party is selected yet.
func ResolveRate(item domain.CatalogItem, partyID string) domain.Money {
	if partyID != "" {
		if rate, ok := item.PartyOverrides[partyID]; ok {
			return rate
		}
	}
	return item.DefaultRate
}

// RateTable indexes catalog items by id for repeated rate lookups.
type RateTable struct {
	items map[string]domain.CatalogItem
}

func NewRateTable(items []domain.CatalogItem) RateTable {
	index := make(map[string]domain.CatalogItem, len(items))
	for _, item := range items {
		index[item.ID] = item
	}
	return RateTable{items: index}
}

func (t RateTable) Item(itemID string) (domain.CatalogItem, bool) {
	item, ok := t.items[itemID]
	return item, ok
}

// Rate resolves the rate for itemID. The bool is false for unknown items, in
// which case the rate is zero.
func (t RateTable) Rate(itemID string, partyID string) (domain.Money, bool) {
	item, ok := t.items[itemID]
	if !ok {
		return decimal.Zero, false
	}
	return ResolveRate(item, partyID), true
}
