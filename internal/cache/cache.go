package cache

import (
	"context"
	"fmt"
	"time"

	"bahikhata/backend/internal/domain"
)

//go:generate mockgen -destination=mocks/mock_cache.go -package=mocks bahikhata/backend/internal/cache ReportCache

// ReportCache stores computed weekly summaries per party and week. Writes to
// a party's invoices or payments must call InvalidateParty.
type ReportCache interface {
	GetWeeklyReport(ctx context.Context, partyID string, weekStart time.Time) (*domain.WeeklySummary, bool, error)
	SetWeeklyReport(ctx context.Context, partyID string, weekStart time.Time, value *domain.WeeklySummary, ttl time.Duration) error
	InvalidateParty(ctx context.Context, partyID string) error
}

type NoopReportCache struct{}

func (NoopReportCache) GetWeeklyReport(_ context.Context, _ string, _ time.Time) (*domain.WeeklySummary, bool, error) {
	return nil, false, nil
}

func (NoopReportCache) SetWeeklyReport(_ context.Context, _ string, _ time.Time, _ *domain.WeeklySummary, _ time.Duration) error {
	return nil
}

func (NoopReportCache) InvalidateParty(_ context.Context, _ string) error {
	return nil
}

const keyPrefix = "bahikhata:weekly"

func weeklyKey(partyID string, weekStart time.Time) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, partyID, weekStart.Format(time.DateOnly))
}

func partyPattern(partyID string) string {
	return fmt.Sprintf("%s:%s:*", keyPrefix, partyID)
}
