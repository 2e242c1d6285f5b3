package app

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bahikhata/backend/internal/config"
	"bahikhata/backend/internal/logger"
	"bahikhata/backend/internal/store/memory"
)

func TestBuildDefaultsToMemoryAndNoopCache(t *testing.T) {
	a, err := Build(context.Background(), config.Config{Timezone: "UTC", DefaultBundleRate: decimal.Zero}, logger.Nop())
	require.NoError(t, err)
	defer a.Close()

	_, ok := a.Repo.(*memory.Store)
	assert.True(t, ok)

	parties, err := a.Service.ListParties(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, parties)
}

func TestBuildFallsBackWhenRedisIsDown(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	a, err := Build(ctx, config.Config{Timezone: "UTC", RedisAddr: "127.0.0.1:1"}, logger.Nop())
	require.NoError(t, err)
	assert.Empty(t, a.closers)
	assert.NoError(t, a.Close())
}

func TestBuildRejectsUnknownTimezone(t *testing.T) {
	_, err := Build(context.Background(), config.Config{Timezone: "Mars/Olympus"}, logger.Nop())
	assert.Error(t, err)
}
