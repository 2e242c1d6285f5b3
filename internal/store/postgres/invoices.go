package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bahikhata/backend/internal/domain"
	"bahikhata/backend/internal/store"
	"bahikhata/backend/internal/xid"
)

const invoiceSelect = `
	SELECT id, party_id, party_name, invoice_date, bundle_rate, bundle_quantity, total_amount,
		created_at, updated_at, deleted_at
	FROM invoices
`

func scanInvoice(row rowScanner) (domain.SavedInvoice, error) {
	var inv domain.SavedInvoice
	var deletedAt sql.NullTime
	if err := row.Scan(&inv.ID, &inv.PartyID, &inv.PartyName, &inv.InvoiceDate, &inv.BundleRate, &inv.BundleQuantity,
		&inv.TotalAmount, &inv.CreatedAt, &inv.UpdatedAt, &deletedAt); err != nil {
		return domain.SavedInvoice{}, err
	}
	inv.InvoiceDate = calendarDate(inv.InvoiceDate)
	inv.CreatedAt = inv.CreatedAt.UTC()
	inv.UpdatedAt = inv.UpdatedAt.UTC()
	inv.DeletedAt = utcPtr(deletedAt)
	inv.Lines = []domain.DraftInvoiceLine{}
	inv.Payments = []domain.Payment{}
	return inv, nil
}

func (s *Store) ListInvoices(ctx context.Context, partyID string) ([]domain.SavedInvoice, error) {
	return s.queryInvoices(ctx, invoiceSelect+`
		WHERE deleted_at IS NULL AND ($1 = '' OR party_id = $1)
		ORDER BY invoice_date, created_at
	`, partyID)
}

func (s *Store) ListDeletedInvoices(ctx context.Context) ([]domain.SavedInvoice, error) {
	return s.queryInvoices(ctx, invoiceSelect+`
		WHERE deleted_at IS NOT NULL
		ORDER BY invoice_date, created_at
	`)
}

func (s *Store) GetInvoice(ctx context.Context, id string) (*domain.SavedInvoice, error) {
	invoices, err := s.queryInvoices(ctx, invoiceSelect+` WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return nil, err
	}
	if len(invoices) == 0 {
		return nil, store.ErrNotFound
	}
	return &invoices[0], nil
}

func (s *Store) queryInvoices(ctx context.Context, query string, args ...any) ([]domain.SavedInvoice, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invoices := make([]domain.SavedInvoice, 0, 32)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.attachInvoiceChildren(ctx, invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

func (s *Store) attachInvoiceChildren(ctx context.Context, invoices []domain.SavedInvoice) error {
	if len(invoices) == 0 {
		return nil
	}
	index := make(map[string]int, len(invoices))
	ids := make([]string, 0, len(invoices))
	for i, inv := range invoices {
		index[inv.ID] = i
		ids = append(ids, inv.ID)
	}

	lineRows, err := s.db.QueryContext(ctx, `
		SELECT invoice_id, item_id, item_name, quantity, rate, unit_name
		FROM invoice_lines
		WHERE invoice_id = ANY($1)
		ORDER BY invoice_id, line_no
	`, ids)
	if err != nil {
		return err
	}
	for lineRows.Next() {
		var invoiceID string
		var line domain.DraftInvoiceLine
		if err := lineRows.Scan(&invoiceID, &line.ItemID, &line.ItemName, &line.Quantity, &line.Rate, &line.UnitName); err != nil {
			_ = lineRows.Close()
			return err
		}
		inv := &invoices[index[invoiceID]]
		inv.Lines = append(inv.Lines, line)
	}
	if err := lineRows.Err(); err != nil {
		_ = lineRows.Close()
		return err
	}
	_ = lineRows.Close()

	paymentRows, err := s.db.QueryContext(ctx, `
		SELECT id, invoice_id, amount, payment_date, note, created_at
		FROM payments
		WHERE invoice_id = ANY($1)
		ORDER BY payment_date, created_at
	`, ids)
	if err != nil {
		return err
	}
	defer paymentRows.Close()
	for paymentRows.Next() {
		var p domain.Payment
		if err := paymentRows.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.PaymentDate, &p.Note, &p.CreatedAt); err != nil {
			return err
		}
		p.PaymentDate = calendarDate(p.PaymentDate)
		p.CreatedAt = p.CreatedAt.UTC()
		inv := &invoices[index[p.InvoiceID]]
		inv.Payments = append(inv.Payments, p)
	}
	return paymentRows.Err()
}

func (s *Store) CreateInvoice(ctx context.Context, invoice domain.SavedInvoice) (*domain.SavedInvoice, error) {
	if len(invoice.Lines) == 0 {
		return nil, store.ErrInvalidInput
	}
	if invoice.ID == "" {
		invoice.ID = xid.New("inv")
	}
	now := time.Now().UTC()
	if invoice.CreatedAt.IsZero() {
		invoice.CreatedAt = now
	}
	if invoice.UpdatedAt.IsZero() {
		invoice.UpdatedAt = invoice.CreatedAt
	}

	pgTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	var live bool
	if err := pgTx.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM parties WHERE id = $1 AND deleted_at IS NULL)
	`, invoice.PartyID).Scan(&live); err != nil {
		return nil, err
	}
	if !live {
		return nil, store.ErrNotFound
	}

	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO invoices (id, party_id, party_name, invoice_date, bundle_rate, bundle_quantity, total_amount, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, invoice.ID, invoice.PartyID, invoice.PartyName, dateOnly(invoice.InvoiceDate), invoice.BundleRate,
		invoice.BundleQuantity, invoice.TotalAmount, invoice.CreatedAt, invoice.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, mapWriteError(err)
	}
	if err := insertLines(ctx, pgTx, invoice.ID, invoice.Lines); err != nil {
		return nil, err
	}
	if err := pgTx.Commit(); err != nil {
		return nil, err
	}

	return s.GetInvoice(ctx, invoice.ID)
}

func (s *Store) UpdateInvoice(ctx context.Context, invoice domain.SavedInvoice) (*domain.SavedInvoice, error) {
	if len(invoice.Lines) == 0 {
		return nil, store.ErrInvalidInput
	}

	pgTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	updatedAt := invoice.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	res, err := pgTx.ExecContext(ctx, `
		UPDATE invoices
		SET party_name = $2, total_amount = $3, updated_at = $4
		WHERE id = $1 AND deleted_at IS NULL
	`, invoice.ID, invoice.PartyName, invoice.TotalAmount, updatedAt)
	if err != nil {
		return nil, err
	}
	if err := expectAffected(res); err != nil {
		return nil, err
	}
	if _, err := pgTx.ExecContext(ctx, `DELETE FROM invoice_lines WHERE invoice_id = $1`, invoice.ID); err != nil {
		return nil, err
	}
	if err := insertLines(ctx, pgTx, invoice.ID, invoice.Lines); err != nil {
		return nil, err
	}
	if err := pgTx.Commit(); err != nil {
		return nil, err
	}

	return s.GetInvoice(ctx, invoice.ID)
}

func insertLines(ctx context.Context, pgTx *sql.Tx, invoiceID string, lines []domain.DraftInvoiceLine) error {
	for i, line := range lines {
		_, err := pgTx.ExecContext(ctx, `
			INSERT INTO invoice_lines (invoice_id, line_no, item_id, item_name, quantity, rate, unit_name)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, invoiceID, i, line.ItemID, line.ItemName, line.Quantity, line.Rate, line.UnitName)
		if err != nil {
			return mapWriteError(err)
		}
	}
	return nil
}

func (s *Store) DeleteInvoice(ctx context.Context, id string, at time.Time) error {
	return s.softDelete(ctx, "invoices", id, at)
}

func (s *Store) RestoreInvoice(ctx context.Context, id string) (*domain.SavedInvoice, error) {
	if err := s.restore(ctx, "invoices", id); err != nil {
		return nil, err
	}
	return s.GetInvoice(ctx, id)
}

func (s *Store) AddPayment(ctx context.Context, payment domain.Payment) (*domain.Payment, error) {
	if !payment.Amount.IsPositive() {
		return nil, store.ErrInvalidInput
	}
	if payment.ID == "" {
		payment.ID = xid.New("pay")
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}

	pgTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	var invoiceID string
	err = pgTx.QueryRowContext(ctx, `
		SELECT id FROM invoices WHERE id = $1 AND deleted_at IS NULL FOR UPDATE
	`, payment.InvoiceID).Scan(&invoiceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO payments (id, invoice_id, amount, payment_date, note, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, payment.ID, payment.InvoiceID, payment.Amount, dateOnly(payment.PaymentDate), payment.Note, payment.CreatedAt)
	if err != nil {
		return nil, mapWriteError(err)
	}
	if err := pgTx.Commit(); err != nil {
		return nil, err
	}
	return &payment, nil
}

// calendarDate drops the clock and zone a DATE column picks up on scan.
func calendarDate(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
