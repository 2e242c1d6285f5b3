package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bahikhata/backend/internal/billing"
	"bahikhata/backend/internal/domain"
	"bahikhata/backend/internal/store"
	"bahikhata/backend/internal/xid"
)

func (s *Service) ListUnits(ctx context.Context) ([]domain.Unit, error) {
	return s.repo.ListUnits(ctx)
}

func (s *Service) CreateUnit(ctx context.Context, req domain.UnitCreateRequest) (domain.Unit, error) {
	name := billing.NormalizeUnit(req.Name)
	if name == "" {
		return domain.Unit{}, invalidf("unit name is required")
	}

	created, err := s.repo.CreateUnit(ctx, domain.Unit{ID: xid.New("unit"), Name: name, CreatedAt: s.now().UTC()})
	if err != nil {
		return domain.Unit{}, fmt.Errorf("create unit: %w", err)
	}
	s.logActivity(ctx, "unit_create", domain.EntityUnit, created.ID, fmt.Sprintf("name=%s", created.Name))
	return *created, nil
}

func (s *Service) DeleteUnit(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if err := s.repo.DeleteUnit(ctx, id, s.now().UTC()); err != nil {
		return fmt.Errorf("delete unit: %w", err)
	}
	s.logActivity(ctx, "unit_delete", domain.EntityUnit, id, "")
	return nil
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) CreateCategory(ctx context.Context, req domain.CategoryCreateRequest) (domain.Category, error) {
	name := strings.Join(strings.Fields(req.Name), " ")
	if name == "" {
		return domain.Category{}, invalidf("category name is required")
	}

	created, err := s.repo.CreateCategory(ctx, domain.Category{ID: xid.New("cat"), Name: name, CreatedAt: s.now().UTC()})
	if err != nil {
		return domain.Category{}, fmt.Errorf("create category: %w", err)
	}
	s.logActivity(ctx, "category_create", domain.EntityCategory, created.ID, fmt.Sprintf("name=%s", created.Name))
	return *created, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if err := s.repo.DeleteCategory(ctx, id, s.now().UTC()); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.logActivity(ctx, "category_delete", domain.EntityCategory, id, "")
	return nil
}

func (s *Service) ListItems(ctx context.Context) ([]domain.CatalogItem, error) {
	return s.repo.ListItems(ctx)
}

func (s *Service) ListDeletedItems(ctx context.Context) ([]domain.CatalogItem, error) {
	return s.repo.ListDeletedItems(ctx)
}

func (s *Service) GetItem(ctx context.Context, id string) (domain.CatalogItem, error) {
	item, err := s.repo.GetItem(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.CatalogItem{}, err
	}
	return *item, nil
}

func (s *Service) CreateItem(ctx context.Context, req domain.ItemCreateRequest) (domain.CatalogItem, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.CatalogItem{}, invalidf("item name is required")
	}
	if req.DefaultRate.IsNegative() {
		return domain.CatalogItem{}, invalidf("default rate must not be negative")
	}
	unit, err := s.lookupUnit(ctx, req.UnitID)
	if err != nil {
		return domain.CatalogItem{}, err
	}

	now := s.now().UTC()
	created, err := s.repo.CreateItem(ctx, domain.CatalogItem{
		ID:          xid.New("item"),
		Name:        name,
		CategoryID:  strings.TrimSpace(req.CategoryID),
		DefaultRate: billing.Round2(req.DefaultRate),
		Unit:        unit.Ref(),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return domain.CatalogItem{}, fmt.Errorf("create item: %w", err)
	}

	s.logActivity(ctx, "item_create", domain.EntityItem, created.ID, fmt.Sprintf("name=%s,rate=%s,unit=%s", created.Name, created.DefaultRate, created.Unit.Name))
	return *created, nil
}

func (s *Service) UpdateItem(ctx context.Context, id string, req domain.ItemUpdateRequest) (domain.CatalogItem, error) {
	existing, err := s.repo.GetItem(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.CatalogItem{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.CatalogItem{}, invalidf("item name is required")
		}
		updated.Name = name
	}
	if req.CategoryID != nil {
		updated.CategoryID = strings.TrimSpace(*req.CategoryID)
	}
	if req.UnitID != nil {
		unit, err := s.lookupUnit(ctx, *req.UnitID)
		if err != nil {
			return domain.CatalogItem{}, err
		}
		updated.Unit = unit.Ref()
	}
	if req.DefaultRate != nil {
		if req.DefaultRate.IsNegative() {
			return domain.CatalogItem{}, invalidf("default rate must not be negative")
		}
		updated.DefaultRate = billing.Round2(*req.DefaultRate)
	}
	updated.UpdatedAt = s.now().UTC()

	saved, err := s.repo.UpdateItem(ctx, updated)
	if err != nil {
		return domain.CatalogItem{}, fmt.Errorf("update item: %w", err)
	}

	s.logActivity(ctx, "item_update", domain.EntityItem, saved.ID, fmt.Sprintf("name=%s,rate=%s,unit=%s", saved.Name, saved.DefaultRate, saved.Unit.Name))
	return *saved, nil
}

func (s *Service) DeleteItem(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if err := s.repo.DeleteItem(ctx, id, s.now().UTC()); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	s.logActivity(ctx, "item_delete", domain.EntityItem, id, "")
	return nil
}

func (s *Service) RestoreItem(ctx context.Context, id string) (domain.CatalogItem, error) {
	restored, err := s.repo.RestoreItem(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.CatalogItem{}, fmt.Errorf("restore item: %w", err)
	}
	s.logActivity(ctx, "item_restore", domain.EntityItem, restored.ID, fmt.Sprintf("name=%s", restored.Name))
	return *restored, nil
}

func (s *Service) SetPartyRate(ctx context.Context, itemID string, req domain.PartyRateRequest) (domain.ItemRateResponse, error) {
	itemID = strings.TrimSpace(itemID)
	partyID := strings.TrimSpace(req.PartyID)
	if partyID == "" {
		return domain.ItemRateResponse{}, invalidf("party_id is required")
	}
	if req.Rate.IsNegative() {
		return domain.ItemRateResponse{}, invalidf("rate must not be negative")
	}

	if err := s.repo.SetPartyRate(ctx, itemID, partyID, billing.Round2(req.Rate)); err != nil {
		return domain.ItemRateResponse{}, fmt.Errorf("set party rate: %w", err)
	}
	s.logActivity(ctx, "item_party_rate_set", domain.EntityItem, itemID, fmt.Sprintf("party=%s,rate=%s", partyID, billing.Round2(req.Rate)))
	return s.ResolveItemRate(ctx, itemID, partyID)
}

func (s *Service) RemovePartyRate(ctx context.Context, itemID string, partyID string) error {
	itemID = strings.TrimSpace(itemID)
	partyID = strings.TrimSpace(partyID)
	if err := s.repo.RemovePartyRate(ctx, itemID, partyID); err != nil {
		return fmt.Errorf("remove party rate: %w", err)
	}
	s.logActivity(ctx, "item_party_rate_remove", domain.EntityItem, itemID, fmt.Sprintf("party=%s", partyID))
	return nil
}

// ResolveItemRate prefills an invoice line: the party's override when one
// exists, the item's default rate otherwise.
func (s *Service) ResolveItemRate(ctx context.Context, itemID string, partyID string) (domain.ItemRateResponse, error) {
	item, err := s.repo.GetItem(ctx, strings.TrimSpace(itemID))
	if err != nil {
		return domain.ItemRateResponse{}, err
	}
	partyID = strings.TrimSpace(partyID)
	_, override := item.PartyOverrides[partyID]

	return domain.ItemRateResponse{
		ItemID:   item.ID,
		PartyID:  partyID,
		Rate:     billing.ResolveRate(*item, partyID),
		UnitName: item.Unit.Name,
		Override: partyID != "" && override,
	}, nil
}

// ImportItems creates catalog items in bulk. Rows whose name is already in
// the catalog, or repeats an earlier row, are skipped with a reason. Units
// and categories named by a row are created when missing.
func (s *Service) ImportItems(ctx context.Context, rows []domain.ItemImportRow) (domain.ImportResult, error) {
	result := domain.ImportResult{Created: []domain.CatalogItem{}, Skipped: []domain.ImportSkip{}}

	existing, err := s.repo.ListItems(ctx)
	if err != nil {
		return result, err
	}
	units, err := s.repo.ListUnits(ctx)
	if err != nil {
		return result, err
	}
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return result, err
	}

	taken := make(map[string]bool, len(existing))
	for _, item := range existing {
		taken[store.NormalizeName(item.Name)] = true
	}
	unitByName := make(map[string]domain.Unit, len(units))
	for _, unit := range units {
		unitByName[billing.NormalizeUnit(unit.Name)] = unit
	}
	categoryByName := make(map[string]domain.Category, len(categories))
	for _, category := range categories {
		categoryByName[store.NormalizeName(category.Name)] = category
	}
	seen := make(map[string]int, len(rows))

	skip := func(row domain.ItemImportRow, reason string) {
		result.Skipped = append(result.Skipped, domain.ImportSkip{Row: row.Row, Name: strings.TrimSpace(row.Name), Reason: reason})
	}

	for _, row := range rows {
		name := strings.TrimSpace(row.Name)
		key := store.NormalizeName(name)
		firstRow, duplicate := seen[key]
		switch {
		case name == "":
			skip(row, "name is required")
			continue
		case duplicate:
			skip(row, fmt.Sprintf("duplicate of row %d", firstRow))
			continue
		case taken[key]:
			skip(row, "item already exists")
			continue
		case billing.NormalizeUnit(row.Unit) == "":
			skip(row, "unit is required")
			continue
		case row.Rate.IsNegative():
			skip(row, "rate must not be negative")
			continue
		}
		seen[key] = row.Row

		unit, ok := unitByName[billing.NormalizeUnit(row.Unit)]
		if !ok {
			created, err := s.CreateUnit(ctx, domain.UnitCreateRequest{Name: row.Unit})
			if err != nil {
				return result, fmt.Errorf("row %d: %w", row.Row, err)
			}
			unit = created
			unitByName[billing.NormalizeUnit(unit.Name)] = unit
		}

		categoryID := ""
		if categoryKey := store.NormalizeName(row.Category); categoryKey != "" {
			category, ok := categoryByName[categoryKey]
			if !ok {
				created, err := s.CreateCategory(ctx, domain.CategoryCreateRequest{Name: row.Category})
				if err != nil {
					return result, fmt.Errorf("row %d: %w", row.Row, err)
				}
				category = created
				categoryByName[categoryKey] = category
			}
			categoryID = category.ID
		}

		now := s.now().UTC()
		created, err := s.repo.CreateItem(ctx, domain.CatalogItem{
			ID:          xid.New("item"),
			Name:        name,
			CategoryID:  categoryID,
			DefaultRate: billing.Round2(row.Rate),
			Unit:        unit.Ref(),
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if errors.Is(err, store.ErrDuplicateName) {
			skip(row, "item already exists")
			continue
		}
		if err != nil {
			return result, fmt.Errorf("row %d: %w", row.Row, err)
		}
		taken[key] = true
		result.Created = append(result.Created, *created)
	}

	s.logActivity(ctx, "item_import", domain.EntityItem, "", fmt.Sprintf("created=%d,skipped=%d", len(result.Created), len(result.Skipped)))
	return result, nil
}

func (s *Service) lookupUnit(ctx context.Context, unitID string) (domain.Unit, error) {
	unitID = strings.TrimSpace(unitID)
	if unitID == "" {
		return domain.Unit{}, invalidf("unit_id is required")
	}
	unit, err := s.repo.GetUnit(ctx, unitID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Unit{}, invalidf("unknown unit %q", unitID)
	}
	if err != nil {
		return domain.Unit{}, err
	}
	return *unit, nil
}
