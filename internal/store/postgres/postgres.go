package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"bahikhata/backend/internal/domain"
	"bahikhata/backend/internal/store"
	"bahikhata/backend/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

const partyColumns = `id, name, phone, address, bundle_rate, opening_balance, created_at, updated_at, deleted_at`

func scanParty(row rowScanner) (domain.Party, error) {
	var p domain.Party
	var bundleRate decimal.NullDecimal
	var deletedAt sql.NullTime
	if err := row.Scan(&p.ID, &p.Name, &p.Phone, &p.Address, &bundleRate, &p.OpeningBalance, &p.CreatedAt, &p.UpdatedAt, &deletedAt); err != nil {
		return domain.Party{}, err
	}
	if bundleRate.Valid {
		rate := bundleRate.Decimal
		p.BundleRate = &rate
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	p.DeletedAt = utcPtr(deletedAt)
	return p, nil
}

func (s *Store) ListParties(ctx context.Context) ([]domain.Party, error) {
	return s.listParties(ctx, false)
}

func (s *Store) ListDeletedParties(ctx context.Context) ([]domain.Party, error) {
	return s.listParties(ctx, true)
}

func (s *Store) listParties(ctx context.Context, deleted bool) ([]domain.Party, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+partyColumns+`
		FROM parties
		WHERE (deleted_at IS NOT NULL) = $1
		ORDER BY lower(name)
	`, deleted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	parties := make([]domain.Party, 0, 32)
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, err
		}
		parties = append(parties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return parties, nil
}

func (s *Store) GetParty(ctx context.Context, id string) (*domain.Party, error) {
	p, err := scanParty(s.db.QueryRowContext(ctx, `
		SELECT `+partyColumns+`
		FROM parties
		WHERE id = $1 AND deleted_at IS NULL
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreateParty(ctx context.Context, party domain.Party) (*domain.Party, error) {
	if party.ID == "" {
		party.ID = xid.New("party")
	}
	now := time.Now().UTC()
	if party.CreatedAt.IsZero() {
		party.CreatedAt = now
	}
	party.UpdatedAt = party.CreatedAt

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO parties (id, name, normalized_name, phone, address, bundle_rate, opening_balance, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, party.ID, party.Name, store.NormalizeName(party.Name), party.Phone, party.Address,
		nullMoney(party.BundleRate), party.OpeningBalance, party.CreatedAt, party.UpdatedAt)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return &party, nil
}

func (s *Store) UpdateParty(ctx context.Context, party domain.Party) (*domain.Party, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE parties
		SET name = $2, normalized_name = $3, phone = $4, address = $5,
			bundle_rate = $6, opening_balance = $7, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`, party.ID, party.Name, store.NormalizeName(party.Name), party.Phone, party.Address,
		nullMoney(party.BundleRate), party.OpeningBalance)
	if err != nil {
		return nil, mapWriteError(err)
	}
	if err := expectAffected(res); err != nil {
		return nil, err
	}
	return s.GetParty(ctx, party.ID)
}

func (s *Store) DeleteParty(ctx context.Context, id string, at time.Time) error {
	return s.softDelete(ctx, "parties", id, at)
}

func (s *Store) RestoreParty(ctx context.Context, id string) (*domain.Party, error) {
	if err := s.restore(ctx, "parties", id); err != nil {
		return nil, err
	}
	return s.GetParty(ctx, id)
}

func (s *Store) ListUnits(ctx context.Context) ([]domain.Unit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at
		FROM units
		WHERE deleted_at IS NULL
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	units := make([]domain.Unit, 0, 16)
	for rows.Next() {
		var u domain.Unit
		if err := rows.Scan(&u.ID, &u.Name, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.CreatedAt = u.CreatedAt.UTC()
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return units, nil
}

func (s *Store) GetUnit(ctx context.Context, id string) (*domain.Unit, error) {
	var u domain.Unit
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at
		FROM units
		WHERE id = $1 AND deleted_at IS NULL
	`, id).Scan(&u.ID, &u.Name, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

func (s *Store) CreateUnit(ctx context.Context, unit domain.Unit) (*domain.Unit, error) {
	if unit.ID == "" {
		unit.ID = xid.New("unit")
	}
	if unit.CreatedAt.IsZero() {
		unit.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO units (id, name, normalized_name, created_at)
		VALUES ($1,$2,$3,$4)
	`, unit.ID, unit.Name, store.NormalizeName(unit.Name), unit.CreatedAt)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return &unit, nil
}

func (s *Store) DeleteUnit(ctx context.Context, id string, at time.Time) error {
	var inUse bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM items WHERE unit_id = $1 AND deleted_at IS NULL)
	`, id).Scan(&inUse); err != nil {
		return err
	}
	if inUse {
		return store.ErrConflict
	}
	return s.softDelete(ctx, "units", id, at)
}

func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at
		FROM categories
		WHERE deleted_at IS NULL
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]domain.Category, 0, 16)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.CreatedAt = c.CreatedAt.UTC()
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *Store) CreateCategory(ctx context.Context, category domain.Category) (*domain.Category, error) {
	if category.ID == "" {
		category.ID = xid.New("cat")
	}
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, normalized_name, created_at)
		VALUES ($1,$2,$3,$4)
	`, category.ID, category.Name, store.NormalizeName(category.Name), category.CreatedAt)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return &category, nil
}

func (s *Store) DeleteCategory(ctx context.Context, id string, at time.Time) error {
	return s.softDelete(ctx, "categories", id, at)
}

func (s *Store) CreateActivityLog(ctx context.Context, entry domain.ActivityLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("act")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_logs (id, actor, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, entry.ID, entry.Actor, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListActivityLogs(ctx context.Context, limit int) ([]domain.ActivityLog, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor, action, entity_type, entity_id, detail, created_at
		FROM activity_logs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.ActivityLog, 0, limit)
	for rows.Next() {
		var entry domain.ActivityLog
		if err := rows.Scan(&entry.ID, &entry.Actor, &entry.Action, &entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

// softDelete and restore only ever receive table names from this package.
func (s *Store) softDelete(ctx context.Context, table string, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE %s SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL
	`, table), id, at)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return s.missingOrConflict(ctx, table, id)
	}
	return nil
}

func (s *Store) restore(ctx context.Context, table string, id string) error {
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE %s SET deleted_at = NULL WHERE id = $1 AND deleted_at IS NOT NULL
	`, table), id)
	if err != nil {
		return mapWriteError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return s.missingOrConflict(ctx, table, id)
	}
	return nil
}

func (s *Store) missingOrConflict(ctx context.Context, table string, id string) error {
	var exists bool
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, table), id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return store.ErrNotFound
	}
	return store.ErrConflict
}

func expectAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func mapWriteError(err error) error {
	switch {
	case isUniqueViolation(err):
		return store.ErrDuplicateName
	case isForeignKeyViolation(err), isCheckViolation(err):
		return store.ErrInvalidInput
	default:
		return err
	}
}

func isUniqueViolation(err error) bool {
	return pgCode(err) == "23505"
}

func isForeignKeyViolation(err error) bool {
	return pgCode(err) == "23503"
}

func isCheckViolation(err error) bool {
	return pgCode(err) == "23514"
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func nullMoney(val *domain.Money) any {
	if val == nil {
		return nil
	}
	return *val
}

func dateOnly(t time.Time) string {
	return t.Format(time.DateOnly)
}

func utcPtr(val sql.NullTime) *time.Time {
	if !val.Valid {
		return nil
	}
	at := val.Time.UTC()
	return &at
}
