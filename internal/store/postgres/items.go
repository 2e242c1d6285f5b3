package postgres

import (
	"context"
	"database/sql"
	"time"

	"bahikhata/backend/internal/domain"
	"bahikhata/backend/internal/store"
	"bahikhata/backend/internal/xid"
)

const itemSelect = `
	SELECT i.id, i.name, COALESCE(i.category_id, ''), i.default_rate, u.id, u.name,
		i.created_at, i.updated_at, i.deleted_at
	FROM items i
	JOIN units u ON u.id = i.unit_id
`

func scanItem(row rowScanner) (domain.CatalogItem, error) {
	var item domain.CatalogItem
	var deletedAt sql.NullTime
	if err := row.Scan(&item.ID, &item.Name, &item.CategoryID, &item.DefaultRate, &item.Unit.ID, &item.Unit.Name,
		&item.CreatedAt, &item.UpdatedAt, &deletedAt); err != nil {
		return domain.CatalogItem{}, err
	}
	item.CreatedAt = item.CreatedAt.UTC()
	item.UpdatedAt = item.UpdatedAt.UTC()
	item.DeletedAt = utcPtr(deletedAt)
	return item, nil
}

func (s *Store) ListItems(ctx context.Context) ([]domain.CatalogItem, error) {
	return s.queryItems(ctx, itemSelect+` WHERE i.deleted_at IS NULL ORDER BY lower(i.name)`)
}

func (s *Store) ListDeletedItems(ctx context.Context) ([]domain.CatalogItem, error) {
	return s.queryItems(ctx, itemSelect+` WHERE i.deleted_at IS NOT NULL ORDER BY lower(i.name)`)
}

func (s *Store) GetItem(ctx context.Context, id string) (*domain.CatalogItem, error) {
	items, err := s.queryItems(ctx, itemSelect+` WHERE i.id = $1 AND i.deleted_at IS NULL`, id)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, store.ErrNotFound
	}
	return &items[0], nil
}

func (s *Store) GetItemsByIDs(ctx context.Context, ids []string) (map[string]domain.CatalogItem, error) {
	result := make(map[string]domain.CatalogItem, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	items, err := s.queryItems(ctx, itemSelect+` WHERE i.id = ANY($1) AND i.deleted_at IS NULL`, ids)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		result[item.ID] = item
	}
	return result, nil
}

func (s *Store) queryItems(ctx context.Context, query string, args ...any) ([]domain.CatalogItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.CatalogItem, 0, 64)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.attachPartyRates(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) attachPartyRates(ctx context.Context, items []domain.CatalogItem) error {
	if len(items) == 0 {
		return nil
	}
	index := make(map[string]int, len(items))
	ids := make([]string, 0, len(items))
	for i, item := range items {
		index[item.ID] = i
		ids = append(ids, item.ID)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.item_id, r.party_id, r.rate
		FROM item_party_rates r
		JOIN parties p ON p.id = r.party_id
		WHERE r.item_id = ANY($1) AND p.deleted_at IS NULL
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var itemID, partyID string
		var rate domain.Money
		if err := rows.Scan(&itemID, &partyID, &rate); err != nil {
			return err
		}
		item := &items[index[itemID]]
		if item.PartyOverrides == nil {
			item.PartyOverrides = make(map[string]domain.Money)
		}
		item.PartyOverrides[partyID] = rate
	}
	return rows.Err()
}

func (s *Store) CreateItem(ctx context.Context, item domain.CatalogItem) (*domain.CatalogItem, error) {
	if item.ID == "" {
		item.ID = xid.New("item")
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = item.CreatedAt

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (id, name, normalized_name, category_id, unit_id, default_rate, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, item.ID, item.Name, store.NormalizeName(item.Name), nullIfEmpty(item.CategoryID), item.Unit.ID,
		item.DefaultRate, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return s.GetItem(ctx, item.ID)
}

func (s *Store) UpdateItem(ctx context.Context, item domain.CatalogItem) (*domain.CatalogItem, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE items
		SET name = $2, normalized_name = $3, category_id = $4, unit_id = $5, default_rate = $6, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`, item.ID, item.Name, store.NormalizeName(item.Name), nullIfEmpty(item.CategoryID), item.Unit.ID, item.DefaultRate)
	if err != nil {
		return nil, mapWriteError(err)
	}
	if err := expectAffected(res); err != nil {
		return nil, err
	}
	return s.GetItem(ctx, item.ID)
}

func (s *Store) DeleteItem(ctx context.Context, id string, at time.Time) error {
	return s.softDelete(ctx, "items", id, at)
}

func (s *Store) RestoreItem(ctx context.Context, id string) (*domain.CatalogItem, error) {
	if err := s.restore(ctx, "items", id); err != nil {
		return nil, err
	}
	return s.GetItem(ctx, id)
}

func (s *Store) SetPartyRate(ctx context.Context, itemID string, partyID string, rate domain.Money) error {
	if rate.IsNegative() {
		return store.ErrInvalidInput
	}

	var live bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM items WHERE id = $1 AND deleted_at IS NULL)
			AND EXISTS (SELECT 1 FROM parties WHERE id = $2 AND deleted_at IS NULL)
	`, itemID, partyID).Scan(&live)
	if err != nil {
		return err
	}
	if !live {
		return store.ErrNotFound
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO item_party_rates (item_id, party_id, rate, updated_at)
		VALUES ($1,$2,$3,now())
		ON CONFLICT (item_id, party_id)
		DO UPDATE SET rate = EXCLUDED.rate, updated_at = now()
	`, itemID, partyID, rate)
	return mapWriteError(err)
}

func (s *Store) RemovePartyRate(ctx context.Context, itemID string, partyID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM item_party_rates WHERE item_id = $1 AND party_id = $2
	`, itemID, partyID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}
