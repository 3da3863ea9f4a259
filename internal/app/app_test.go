package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/influencer-analytics/internal/attribution"
	"github.com/ignite/influencer-analytics/internal/config"
	"github.com/ignite/influencer-analytics/internal/domain"
	"github.com/ignite/influencer-analytics/internal/storage"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Log:     config.LogConfig{Level: "error"},
		Source:  config.SourceConfig{Type: config.SourceFile, Key: "dataset.json"},
		Storage: config.StorageConfig{Type: "local", LocalPath: t.TempDir()},
		Goals:   config.GoalsConfig{Store: config.GoalStoreMemory},
		Scoring: config.ScoringConfig{RandomSeed: 7, Attribution: attribution.DefaultParams()},
	}
}

func seedDataset(t *testing.T, cfg *config.Config) {
	t.Helper()
	store, err := storage.NewLocalStore(cfg.Storage.LocalPath)
	require.NoError(t, err)
	ds := &domain.Dataset{
		Influencers: []domain.Influencer{
			{ID: "inf-1", Name: "Maya", Platform: domain.PlatformInstagram, Category: domain.CategoryFitness, FollowerCount: 1000, EngagementRate: 4},
		},
		TrackingEvents: []domain.TrackingEvent{
			{ID: "e-1", CustomerID: "c-1", OrderDate: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Revenue: 300,
				AttributionSource: domain.SourceInfluencer, AttributionDetails: domain.AttributionDetails{InfluencerID: "inf-1", CouponCode: "MAYA"}},
		},
		Payouts: []domain.Payout{{ID: "po-1", InfluencerID: "inf-1", Basis: domain.PayoutFlatFee, TotalPayout: 100}},
	}
	require.NoError(t, storage.SaveDataset(context.Background(), store, cfg.Source.Key, ds, nil))
}

func TestNew_FileSource(t *testing.T) {
	cfg := testConfig(t)
	seedDataset(t, cfg)

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.DB)
	assert.Nil(t, a.Redis)
	assert.Nil(t, a.Warehouse)

	roas, err := a.Service.IncrementalROAS(context.Background(), attribution.Scope{})
	require.NoError(t, err)
	assert.InDelta(t, 3.0, roas.ROAS, 1e-9)
}

func TestNew_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Redis = config.RedisConfig{Addr: mr.Addr(), CacheTTLSeconds: 60}
	seedDataset(t, cfg)

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()
	require.NotNil(t, a.Redis)

	_, err = a.Service.IncrementalROAS(context.Background(), attribution.Scope{})
	require.NoError(t, err)
	assert.NotEmpty(t, mr.Keys())
}

func TestNew_RedisUnreachable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Redis = config.RedisConfig{Addr: "127.0.0.1:1"}

	_, err := New(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping redis")
}

func TestNew_SnowflakeOverlayRequiresWarehouse(t *testing.T) {
	cfg := testConfig(t)
	cfg.Source.TrackingFromSnowflake = true

	_, err := New(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "snowflake.enabled")
}
