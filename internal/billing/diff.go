package billing

import (
	"slices"

	"github.com/shopspring/decimal"

	"bahikhata/backend/internal/domain"
)

// DiffPartyName proposes a rename when the saved party name no longer
// matches the party record exactly.
func DiffPartyName(savedPartyName string, currentPartyName string) *domain.FieldUpdate {
	if savedPartyName == currentPartyName {
		return nil
	}
	return &domain.FieldUpdate{
		Target:    domain.UpdateTargetParty,
		LineIndex: -1,
		Field:     domain.FieldPartyName,
		OldValue:  savedPartyName,
		NewValue:  currentPartyName,
	}
}

// DiffInvoiceLine compares one saved line with the current catalog item and
// returns the name, unit and rate updates, in that order. A nil item yields
// nothing. The proposed rate is the party-resolved catalog rate as is;
// ConvertedFromRate only shows what the saved rate would be in the new unit.
func DiffInvoiceLine(lineIndex int, saved domain.DraftInvoiceLine, item *domain.CatalogItem, partyID string) []domain.FieldUpdate {
	if item == nil {
		return nil
	}

	updates := make([]domain.FieldUpdate, 0, 3)
	line := func(field domain.UpdateField, oldValue string, newValue string) domain.FieldUpdate {
		return domain.FieldUpdate{
			Target:    domain.UpdateTargetLine,
			LineIndex: lineIndex,
			ItemID:    saved.ItemID,
			Field:     field,
			OldValue:  oldValue,
			NewValue:  newValue,
		}
	}

	if saved.ItemName != item.Name {
		updates = append(updates, line(domain.FieldName, saved.ItemName, item.Name))
	}

	unitChanged := saved.UnitName != item.Unit.Name
	if unitChanged {
		updates = append(updates, line(domain.FieldUnit, saved.UnitName, item.Unit.Name))
	}

	catalogRate := ResolveRate(*item, partyID)
	if !saved.Rate.Equal(catalogRate) {
		update := line(domain.FieldRate, saved.Rate.String(), catalogRate.String())
		if unitChanged && CanConvert(saved.UnitName, item.Unit.Name) {
			converted := ConvertRate(saved.Rate, saved.UnitName, item.Unit.Name)
			update.ConvertedFromRate = &converted
		}
		updates = append(updates, update)
	}

	return updates
}

// DiffInvoice lists every proposed update for a saved invoice: the party
// name first, then each line in order. Lines whose item is missing from
// catalog are skipped.
func DiffInvoice(
	savedLines []domain.DraftInvoiceLine,
	catalog map[string]domain.CatalogItem,
	partyID string,
	savedPartyName string,
	currentPartyName string,
) []domain.FieldUpdate {
	updates := make([]domain.FieldUpdate, 0)
	if update := DiffPartyName(savedPartyName, currentPartyName); update != nil {
		updates = append(updates, *update)
	}
	for i, line := range savedLines {
		item, ok := catalog[line.ItemID]
		if !ok {
			continue
		}
		updates = append(updates, DiffInvoiceLine(i, line, &item, partyID)...)
	}
	return updates
}

// ApplyUpdates returns a copy of invoice with the accepted updates applied
// and its total recomputed. An update whose OldValue no longer matches the
// invoice is rejected as stale.
func ApplyUpdates(invoice domain.SavedInvoice, updates []domain.FieldUpdate) (domain.SavedInvoice, error) {
	next := invoice
	next.Lines = slices.Clone(invoice.Lines)
	next.Payments = slices.Clone(invoice.Payments)

	for _, update := range updates {
		if update.Target == domain.UpdateTargetParty {
			if update.Field != domain.FieldPartyName {
				return domain.SavedInvoice{}, invalid("field", update.Field, "unsupported party field")
			}
			if next.PartyName != update.OldValue {
				return domain.SavedInvoice{}, invalid("party_name", update.OldValue, "stale update")
			}
			next.PartyName = update.NewValue
			continue
		}

		if update.Target != domain.UpdateTargetLine {
			return domain.SavedInvoice{}, invalid("target", update.Target, "unknown update target")
		}
		if update.LineIndex < 0 || update.LineIndex >= len(next.Lines) {
			return domain.SavedInvoice{}, invalid("line_index", update.LineIndex, "no such line")
		}

		current := &next.Lines[update.LineIndex]
		switch update.Field {
		case domain.FieldName:
			if current.ItemName != update.OldValue {
				return domain.SavedInvoice{}, invalid(lineField(update.LineIndex, "item_name"), update.OldValue, "stale update")
			}
			current.ItemName = update.NewValue
		case domain.FieldUnit:
			if current.UnitName != update.OldValue {
				return domain.SavedInvoice{}, invalid(lineField(update.LineIndex, "unit_name"), update.OldValue, "stale update")
			}
			current.UnitName = update.NewValue
		case domain.FieldRate:
			oldRate, err := decimal.NewFromString(update.OldValue)
			if err != nil || !current.Rate.Equal(oldRate) {
				return domain.SavedInvoice{}, invalid(lineField(update.LineIndex, "rate"), update.OldValue, "stale update")
			}
			newRate, err := decimal.NewFromString(update.NewValue)
			if err != nil || newRate.IsNegative() {
				return domain.SavedInvoice{}, invalid(lineField(update.LineIndex, "rate"), update.NewValue, "not a valid rate")
			}
			current.Rate = newRate
		default:
			return domain.SavedInvoice{}, invalid("field", update.Field, "unsupported line field")
		}
	}

	next.TotalAmount = GrandTotal(next.DraftInvoice)
	return next, nil
}
