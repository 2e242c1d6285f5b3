package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"bahikhata/backend/internal/billing"
	"bahikhata/backend/internal/cache"
	"bahikhata/backend/internal/domain"
	"bahikhata/backend/internal/logger"
	"bahikhata/backend/internal/store"
	"bahikhata/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Options struct {
	ReportCache       cache.ReportCache
	ReportTTL         time.Duration
	DefaultBundleRate domain.Money
	// Location decides which calendar week "now" falls in. Defaults to UTC.
	Location *time.Location
	Clock    func() time.Time
	Logger   *zerolog.Logger
}

type Service struct {
	repo              store.Repository
	reports           cache.ReportCache
	reportTTL         time.Duration
	defaultBundleRate domain.Money
	location          *time.Location
	now               func() time.Time
	log               zerolog.Logger
}

func New(repo store.Repository, opts Options) *Service {
	if opts.ReportCache == nil {
		opts.ReportCache = cache.NoopReportCache{}
	}
	if opts.ReportTTL <= 0 {
		opts.ReportTTL = 5 * time.Minute
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	log := logger.WithComponent("service")
	if opts.Logger != nil {
		log = *opts.Logger
	}

	return &Service{
		repo:              repo,
		reports:           opts.ReportCache,
		reportTTL:         opts.ReportTTL,
		defaultBundleRate: billing.Round2(opts.DefaultBundleRate),
		location:          opts.Location,
		now:               opts.Clock,
		log:               log,
	}
}

func (s *Service) ListParties(ctx context.Context) ([]domain.Party, error) {
	return s.repo.ListParties(ctx)
}

func (s *Service) ListDeletedParties(ctx context.Context) ([]domain.Party, error) {
	return s.repo.ListDeletedParties(ctx)
}

func (s *Service) GetParty(ctx context.Context, id string) (domain.Party, error) {
	party, err := s.repo.GetParty(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Party{}, err
	}
	return *party, nil
}

func (s *Service) CreateParty(ctx context.Context, req domain.PartyCreateRequest) (domain.Party, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Party{}, invalidf("party name is required")
	}
	if req.BundleRate != nil && req.BundleRate.IsNegative() {
		return domain.Party{}, invalidf("bundle rate must not be negative")
	}

	now := s.now().UTC()
	created, err := s.repo.CreateParty(ctx, domain.Party{
		ID:             xid.New("party"),
		Name:           name,
		Phone:          strings.TrimSpace(req.Phone),
		Address:        strings.TrimSpace(req.Address),
		BundleRate:     roundedPtr(req.BundleRate),
		OpeningBalance: billing.Round2(req.OpeningBalance),
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return domain.Party{}, fmt.Errorf("create party: %w", err)
	}

	s.logActivity(ctx, "party_create", domain.EntityParty, created.ID, fmt.Sprintf("name=%s", created.Name))
	return *created, nil
}

func (s *Service) UpdateParty(ctx context.Context, id string, req domain.PartyUpdateRequest) (domain.Party, error) {
	existing, err := s.repo.GetParty(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Party{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Party{}, invalidf("party name is required")
		}
		updated.Name = name
	}
	if req.Phone != nil {
		updated.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Address != nil {
		updated.Address = strings.TrimSpace(*req.Address)
	}
	if req.ClearBundle {
		updated.BundleRate = nil
	} else if req.BundleRate != nil {
		if req.BundleRate.IsNegative() {
			return domain.Party{}, invalidf("bundle rate must not be negative")
		}
		updated.BundleRate = roundedPtr(req.BundleRate)
	}
	if req.OpeningBalance != nil {
		updated.OpeningBalance = billing.Round2(*req.OpeningBalance)
	}
	updated.UpdatedAt = s.now().UTC()

	saved, err := s.repo.UpdateParty(ctx, updated)
	if err != nil {
		return domain.Party{}, fmt.Errorf("update party: %w", err)
	}

	s.invalidateReports(ctx, saved.ID)
	s.logActivity(ctx, "party_update", domain.EntityParty, saved.ID, fmt.Sprintf("name=%s", saved.Name))
	return *saved, nil
}

func (s *Service) DeleteParty(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if err := s.repo.DeleteParty(ctx, id, s.now().UTC()); err != nil {
		return fmt.Errorf("delete party: %w", err)
	}
	s.invalidateReports(ctx, id)
	s.logActivity(ctx, "party_delete", domain.EntityParty, id, "")
	return nil
}

func (s *Service) RestoreParty(ctx context.Context, id string) (domain.Party, error) {
	restored, err := s.repo.RestoreParty(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Party{}, fmt.Errorf("restore party: %w", err)
	}
	s.logActivity(ctx, "party_restore", domain.EntityParty, restored.ID, fmt.Sprintf("name=%s", restored.Name))
	return *restored, nil
}

func (s *Service) ListActivityLogs(ctx context.Context, limit int) ([]domain.ActivityLog, error) {
	if limit < 1 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}
	return s.repo.ListActivityLogs(ctx, limit)
}

// ConvertRate is the unit converter behind the invoice refresh dialog.
func (s *Service) ConvertRate(rate domain.Money, from string, to string) (domain.RateConversion, error) {
	if rate.IsNegative() {
		return domain.RateConversion{}, invalidf("rate must not be negative")
	}
	if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
		return domain.RateConversion{}, invalidf("from and to units are required")
	}
	return billing.DescribeConversion(rate, from, to), nil
}

func (s *Service) logActivity(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Username == "" {
		actor = domain.Actor{Username: "system"}
	}

	if err := s.repo.CreateActivityLog(ctx, domain.ActivityLog{
		ID:         xid.New("act"),
		Actor:      actor.Username,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
		CreatedAt:  s.now().UTC(),
	}); err != nil {
		s.log.Warn().Err(err).
			Str("action", action).
			Str("entity", entityType+"/"+entityID).
			Msg("failed to write activity log")
	}
}

func (s *Service) invalidateReports(ctx context.Context, partyID string) {
	if err := s.reports.InvalidateParty(ctx, partyID); err != nil {
		s.log.Warn().Err(err).Str("party_id", partyID).Msg("failed to invalidate weekly report cache")
	}
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", store.ErrInvalidInput, fmt.Sprintf(format, args...))
}

// IsInvalidInput reports whether err came from input validation, either
// here, in the store or in the billing calculators.
func IsInvalidInput(err error) bool {
	return errors.Is(err, store.ErrInvalidInput) || errors.Is(err, billing.ErrInvalidInput)
}

func roundedPtr(val *domain.Money) *domain.Money {
	if val == nil {
		return nil
	}
	rounded := billing.Round2(*val)
	return &rounded
}

// calendarDate keeps only the year, month and day of t, as UTC midnight.
// Invoice and payment dates are stored this way.
func calendarDate(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// inLocation re-anchors each invoice date to midnight in loc so weekly
// windows computed in loc see the same calendar day.
func inLocation(invoices []domain.SavedInvoice, loc *time.Location) []domain.SavedInvoice {
	out := make([]domain.SavedInvoice, len(invoices))
	for i, inv := range invoices {
		year, month, day := inv.InvoiceDate.Date()
		inv.InvoiceDate = time.Date(year, month, day, 0, 0, 0, 0, loc)
		out[i] = inv
	}
	return out
}
