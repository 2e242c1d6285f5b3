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

// PreviewInvoice prices a draft without saving it.
func (s *Service) PreviewInvoice(ctx context.Context, req domain.InvoiceCreateRequest) (domain.InvoicePreview, error) {
	draft, _, err := s.buildDraft(ctx, req)
	if err != nil {
		return domain.InvoicePreview{}, err
	}
	return domain.InvoicePreview{Draft: draft, Totals: billing.Calculate(draft)}, nil
}

func (s *Service) CreateInvoice(ctx context.Context, req domain.InvoiceCreateRequest) (domain.SavedInvoice, error) {
	draft, party, err := s.buildDraft(ctx, req)
	if err != nil {
		return domain.SavedInvoice{}, err
	}

	now := s.now().UTC()
	saved, err := s.repo.CreateInvoice(ctx, domain.SavedInvoice{
		DraftInvoice: draft,
		ID:           xid.New("inv"),
		PartyName:    party.Name,
		TotalAmount:  billing.GrandTotal(draft),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return domain.SavedInvoice{}, fmt.Errorf("create invoice: %w", err)
	}

	s.invalidateReports(ctx, saved.PartyID)
	s.logActivity(ctx, "invoice_create", domain.EntityInvoice, saved.ID, fmt.Sprintf("party=%s,lines=%d,total=%s", saved.PartyID, len(saved.Lines), saved.TotalAmount))
	return *saved, nil
}

// buildDraft resolves the party, fills line names and units from the
// catalog where the form left them blank, defaults the bundle rate and
// invoice date, then validates the result.
func (s *Service) buildDraft(ctx context.Context, req domain.InvoiceCreateRequest) (domain.DraftInvoice, domain.Party, error) {
	partyID := strings.TrimSpace(req.PartyID)
	if partyID == "" {
		return domain.DraftInvoice{}, domain.Party{}, invalidf("party_id is required")
	}
	party, err := s.repo.GetParty(ctx, partyID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.DraftInvoice{}, domain.Party{}, invalidf("unknown party %q", partyID)
	}
	if err != nil {
		return domain.DraftInvoice{}, domain.Party{}, err
	}

	ids := make([]string, 0, len(req.Lines))
	for _, line := range req.Lines {
		ids = append(ids, strings.TrimSpace(line.ItemID))
	}
	items, err := s.repo.GetItemsByIDs(ctx, ids)
	if err != nil {
		return domain.DraftInvoice{}, domain.Party{}, err
	}

	lines := make([]domain.DraftInvoiceLine, 0, len(req.Lines))
	for i, line := range req.Lines {
		line.ItemID = strings.TrimSpace(line.ItemID)
		item, ok := items[line.ItemID]
		if !ok {
			return domain.DraftInvoice{}, domain.Party{}, invalidf("lines[%d]: unknown item %q", i, line.ItemID)
		}
		line.ItemName = strings.TrimSpace(line.ItemName)
		if line.ItemName == "" {
			line.ItemName = item.Name
		}
		line.UnitName = strings.TrimSpace(line.UnitName)
		if line.UnitName == "" {
			line.UnitName = item.Unit.Name
		}
		lines = append(lines, line)
	}

	bundleRate := billing.ResolveBundleRate(party, s.defaultBundleRate)
	if req.BundleRate != nil {
		bundleRate = *req.BundleRate
	}
	invoiceDate := req.InvoiceDate
	if invoiceDate.IsZero() {
		invoiceDate = s.now().In(s.location)
	}

	draft := domain.DraftInvoice{
		PartyID:        party.ID,
		InvoiceDate:    calendarDate(invoiceDate),
		BundleRate:     bundleRate,
		BundleQuantity: req.BundleQuantity,
		Lines:          lines,
	}
	if err := billing.ValidateDraft(draft); err != nil {
		return domain.DraftInvoice{}, domain.Party{}, err
	}
	return draft, *party, nil
}

func (s *Service) GetInvoice(ctx context.Context, id string) (domain.SavedInvoice, error) {
	invoice, err := s.repo.GetInvoice(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.SavedInvoice{}, err
	}
	return *invoice, nil
}

func (s *Service) ListInvoices(ctx context.Context, partyID string) ([]domain.SavedInvoice, error) {
	return s.repo.ListInvoices(ctx, strings.TrimSpace(partyID))
}

func (s *Service) ListDeletedInvoices(ctx context.Context) ([]domain.SavedInvoice, error) {
	return s.repo.ListDeletedInvoices(ctx)
}

func (s *Service) DeleteInvoice(ctx context.Context, id string) error {
	invoice, err := s.repo.GetInvoice(ctx, strings.TrimSpace(id))
	if err != nil {
		return err
	}
	if err := s.repo.DeleteInvoice(ctx, invoice.ID, s.now().UTC()); err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	s.invalidateReports(ctx, invoice.PartyID)
	s.logActivity(ctx, "invoice_delete", domain.EntityInvoice, invoice.ID, fmt.Sprintf("party=%s,total=%s", invoice.PartyID, invoice.TotalAmount))
	return nil
}

func (s *Service) RestoreInvoice(ctx context.Context, id string) (domain.SavedInvoice, error) {
	restored, err := s.repo.RestoreInvoice(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.SavedInvoice{}, fmt.Errorf("restore invoice: %w", err)
	}
	s.invalidateReports(ctx, restored.PartyID)
	s.logActivity(ctx, "invoice_restore", domain.EntityInvoice, restored.ID, fmt.Sprintf("party=%s", restored.PartyID))
	return *restored, nil
}

// AddPayment records money received against an invoice. Paying more than
// is owed is allowed; the invoice's net goes negative.
func (s *Service) AddPayment(ctx context.Context, invoiceID string, req domain.PaymentCreateRequest) (domain.Payment, error) {
	if !req.Amount.IsPositive() {
		return domain.Payment{}, invalidf("payment amount must be positive")
	}
	invoice, err := s.repo.GetInvoice(ctx, strings.TrimSpace(invoiceID))
	if err != nil {
		return domain.Payment{}, err
	}

	paymentDate := req.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = s.now().In(s.location)
	}
	saved, err := s.repo.AddPayment(ctx, domain.Payment{
		ID:          xid.New("pay"),
		InvoiceID:   invoice.ID,
		Amount:      billing.Round2(req.Amount),
		PaymentDate: calendarDate(paymentDate),
		Note:        strings.TrimSpace(req.Note),
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		return domain.Payment{}, fmt.Errorf("add payment: %w", err)
	}

	s.invalidateReports(ctx, invoice.PartyID)
	s.logActivity(ctx, "payment_create", domain.EntityPayment, saved.ID, fmt.Sprintf("invoice=%s,amount=%s", invoice.ID, saved.Amount))
	return *saved, nil
}

func (s *Service) PartyLedger(ctx context.Context, partyID string) (domain.PartyLedger, error) {
	party, err := s.repo.GetParty(ctx, strings.TrimSpace(partyID))
	if err != nil {
		return domain.PartyLedger{}, err
	}
	invoices, err := s.repo.ListInvoices(ctx, party.ID)
	if err != nil {
		return domain.PartyLedger{}, err
	}

	return domain.PartyLedger{
		Party:       *party,
		Outstanding: billing.TotalOutstanding(*party, invoices),
		Entries:     billing.Statement(*party, invoices),
	}, nil
}

// WeeklyReport summarizes the party's account for the week containing now.
// Results are cached per party and week until an invoice or payment for the
// party changes.
func (s *Service) WeeklyReport(ctx context.Context, partyID string) (domain.WeeklyReport, error) {
	party, err := s.repo.GetParty(ctx, strings.TrimSpace(partyID))
	if err != nil {
		return domain.WeeklyReport{}, err
	}

	now := s.now().In(s.location)
	weekStart, _ := billing.WeekWindow(now)

	if cached, ok, err := s.reports.GetWeeklyReport(ctx, party.ID, weekStart); err != nil {
		s.log.Warn().Err(err).Str("party_id", party.ID).Msg("weekly report cache read failed")
	} else if ok {
		return domain.WeeklyReport{Party: *party, Summary: *cached, Settled: cached.Settled()}, nil
	}

	invoices, err := s.repo.ListInvoices(ctx, party.ID)
	if err != nil {
		return domain.WeeklyReport{}, err
	}
	summary := billing.WeeklyReport(*party, inLocation(invoices, s.location), now)

	if err := s.reports.SetWeeklyReport(ctx, party.ID, weekStart, &summary, s.reportTTL); err != nil {
		s.log.Warn().Err(err).Str("party_id", party.ID).Msg("weekly report cache write failed")
	}
	return domain.WeeklyReport{Party: *party, Summary: summary, Settled: summary.Settled()}, nil
}

// FetchInvoiceUpdates compares a saved invoice with the current catalog and
// party record and lists what changed. Nothing is written.
func (s *Service) FetchInvoiceUpdates(ctx context.Context, invoiceID string) (domain.InvoiceUpdatesResponse, error) {
	invoice, err := s.repo.GetInvoice(ctx, strings.TrimSpace(invoiceID))
	if err != nil {
		return domain.InvoiceUpdatesResponse{}, err
	}

	currentPartyName := invoice.PartyName
	party, err := s.repo.GetParty(ctx, invoice.PartyID)
	switch {
	case err == nil:
		currentPartyName = party.Name
	case !errors.Is(err, store.ErrNotFound):
		return domain.InvoiceUpdatesResponse{}, err
	}

	ids := make([]string, 0, len(invoice.Lines))
	for _, line := range invoice.Lines {
		ids = append(ids, line.ItemID)
	}
	catalog, err := s.repo.GetItemsByIDs(ctx, ids)
	if err != nil {
		return domain.InvoiceUpdatesResponse{}, err
	}

	return domain.InvoiceUpdatesResponse{
		InvoiceID: invoice.ID,
		Updates:   billing.DiffInvoice(invoice.Lines, catalog, invoice.PartyID, invoice.PartyName, currentPartyName),
	}, nil
}

// ApplyInvoiceUpdates writes the updates the user accepted and recomputes
// the invoice total. Updates that no longer match the invoice are rejected.
func (s *Service) ApplyInvoiceUpdates(ctx context.Context, invoiceID string, updates []domain.FieldUpdate) (domain.SavedInvoice, error) {
	if len(updates) == 0 {
		return domain.SavedInvoice{}, invalidf("no updates selected")
	}
	invoice, err := s.repo.GetInvoice(ctx, strings.TrimSpace(invoiceID))
	if err != nil {
		return domain.SavedInvoice{}, err
	}

	next, err := billing.ApplyUpdates(*invoice, updates)
	if err != nil {
		return domain.SavedInvoice{}, err
	}
	next.UpdatedAt = s.now().UTC()

	saved, err := s.repo.UpdateInvoice(ctx, next)
	if err != nil {
		return domain.SavedInvoice{}, fmt.Errorf("apply invoice updates: %w", err)
	}

	s.invalidateReports(ctx, saved.PartyID)
	s.logActivity(ctx, "invoice_refresh", domain.EntityInvoice, saved.ID,
		fmt.Sprintf("updates=%d,total=%s->%s", len(updates), invoice.TotalAmount, saved.TotalAmount))
	return *saved, nil
}
