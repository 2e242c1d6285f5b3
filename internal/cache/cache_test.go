package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeeklyKeyIsScopedByPartyAndWeek(t *testing.T) {
	start := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "bahikhata:weekly:party-1:2026-10-12", weeklyKey("party-1", start))
	assert.Equal(t, "bahikhata:weekly:party-1:*", partyPattern("party-1"))
}

func TestNoopCacheNeverHits(t *testing.T) {
	var c ReportCache = NoopReportCache{}
	ctx := context.Background()
	start := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)

	require.NoError(t, c.SetWeeklyReport(ctx, "party-1", start, nil, time.Minute))
	got, ok, err := c.GetWeeklyReport(ctx, "party-1", start)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.NoError(t, c.InvalidateParty(ctx, "party-1"))
}
