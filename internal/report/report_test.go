package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/influencer-analytics/internal/anomaly"
	"github.com/ignite/influencer-analytics/internal/domain"
	"github.com/ignite/influencer-analytics/internal/goals"
	"github.com/ignite/influencer-analytics/internal/pkg/distlock"
	"github.com/ignite/influencer-analytics/internal/service/analytics"
	"github.com/ignite/influencer-analytics/internal/storage"
)

var testNow = time.Date(2024, 2, 1, 6, 0, 0, 0, time.UTC)

type staticSource struct {
	ds  *domain.Dataset
	err error
}

func (s staticSource) Load(context.Context) (*domain.Dataset, map[string]string, error) {
	return s.ds, nil, s.err
}

func dataset() *domain.Dataset {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 12, 0, 0, 0, time.UTC) }
	return &domain.Dataset{
		Influencers: []domain.Influencer{
			{ID: "inf-1", Name: "Maya", Platform: domain.PlatformInstagram, Category: domain.CategoryFitness, FollowerCount: 10000, EngagementRate: 4},
		},
		TrackingEvents: []domain.TrackingEvent{
			{ID: "e-1", CustomerID: "c-1", OrderDate: day(3), Revenue: 10000, AttributionSource: domain.SourceInfluencer,
				AttributionDetails: domain.AttributionDetails{InfluencerID: "inf-1", CouponCode: "MAYA"}},
		},
		Payouts: []domain.Payout{
			{ID: "po-1", InfluencerID: "inf-1", Basis: domain.PayoutFlatFee, TotalPayout: 20000},
		},
	}
}

func setup(t *testing.T, src analytics.Source) (*Job, *storage.LocalStore, *miniredis.Miniredis, *goals.Tracker) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	clock := func() time.Time { return testNow }
	tracker := goals.NewTracker(goals.NewMemoryStore(), clock)
	svc := analytics.NewService(analytics.Options{
		Source:    src,
		Goals:     tracker,
		Anomalies: anomaly.NewDetector(anomaly.DefaultParams(), clock),
	})
	lock := distlock.NewRedisLock(client, "report", time.Minute)
	job := NewJob(svc, store, lock, Options{Prefix: "reports", Interval: time.Hour, Now: clock})
	return job, store, mr, tracker
}

func TestRunOnce_StoresReport(t *testing.T) {
	ctx := context.Background()
	job, store, _, tracker := setup(t, staticSource{ds: dataset()})

	_, err := tracker.CreateGoal(ctx, goals.CreateInput{
		Name: "Q1 revenue", Metric: goals.MetricRevenue, TargetValue: 100,
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Deadline:  time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	}, dataset())
	require.NoError(t, err)

	rep, err := job.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, testNow, rep.GeneratedAt)
	assert.NotEmpty(t, rep.DatasetVersion)
	assert.InDelta(t, 0.5, rep.ROAS.ROAS, 1e-9)
	require.Len(t, rep.Anomalies, 1)
	assert.Equal(t, anomaly.TypeLowROAS, rep.Anomalies[0].Type)
	require.Len(t, rep.Goals, 1)
	assert.Equal(t, goals.StatusExceeded, rep.Goals[0].Status)
	require.Len(t, rep.GoalAlerts, 1)

	keys, err := store.List(ctx, "reports/")
	require.NoError(t, err)
	assert.Equal(t, []string{"reports/2024-02-01T060000Z.json", "reports/latest.json"}, keys)

	latest, err := Latest(ctx, store, "reports")
	require.NoError(t, err)
	assert.Equal(t, rep.DatasetVersion, latest.DatasetVersion)
	assert.Equal(t, Stats{Runs: 1}, job.Stats())
}

func TestRunOnce_SkipsWhenLocked(t *testing.T) {
	ctx := context.Background()
	job, store, mr, _ := setup(t, staticSource{ds: dataset()})
	require.NoError(t, mr.Set("analytics:lock:report", "other-worker"))

	_, err := job.RunOnce(ctx)
	assert.ErrorIs(t, err, distlock.ErrNotAcquired)
	assert.Equal(t, Stats{Skipped: 1}, job.Stats())

	_, err = Latest(ctx, store, "reports")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRunOnce_SourceFailureReleasesLock(t *testing.T) {
	ctx := context.Background()
	job, _, mr, _ := setup(t, staticSource{err: errors.New("s3 timeout")})

	_, err := job.RunOnce(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refresh dataset")
	assert.Equal(t, Stats{Failed: 1}, job.Stats())
	assert.False(t, mr.Exists("analytics:lock:report"))
}

func TestStartStop(t *testing.T) {
	job, store, _, _ := setup(t, staticSource{ds: dataset()})

	require.NoError(t, job.Start(context.Background()))
	assert.Error(t, job.Start(context.Background()))

	require.Eventually(t, func() bool { return job.Stats().Runs == 1 }, 5*time.Second, 10*time.Millisecond)
	job.Stop()
	job.Stop()

	_, err := Latest(context.Background(), store, "")
	assert.NoError(t, err)
}
