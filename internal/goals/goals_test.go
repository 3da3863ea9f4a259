package goals

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/influencer-analytics/internal/anomaly"
	"github.com/ignite/influencer-analytics/internal/domain"
)

var (
	jan1  = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jan16 = time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)
	jan31 = time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
)

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func newTestTracker(now time.Time) *Tracker {
	tr := NewTracker(NewMemoryStore(), fixedClock(now))
	n := 0
	tr.newID = func() string {
		n++
		return fmt.Sprintf("goal-%d", n)
	}
	return tr
}

func revenueEvent(inf, campaign string, day time.Time, revenue float64) domain.TrackingEvent {
	return domain.TrackingEvent{
		ID:                fmt.Sprintf("%s-%s-%v", inf, day.Format("0102"), revenue),
		OrderDate:         day,
		Revenue:           revenue,
		AttributionSource: domain.SourceInfluencer,
		AttributionDetails: domain.AttributionDetails{
			InfluencerID: inf,
			CampaignID:   campaign,
		},
	}
}

func TestCreateGoal_Exceeded(t *testing.T) {
	ds := &domain.Dataset{TrackingEvents: []domain.TrackingEvent{
		revenueEvent("inf-1", "c-1", jan1.AddDate(0, 0, 2), 700),
		revenueEvent("inf-1", "c-1", jan1.AddDate(0, 0, 5), 500),
	}}
	tr := newTestTracker(jan16)

	g, err := tr.CreateGoal(context.Background(), CreateInput{
		Name:        "January revenue",
		Metric:      MetricRevenue,
		TargetValue: 1000,
		StartDate:   jan1,
		Deadline:    jan31,
	}, ds)
	require.NoError(t, err)

	assert.Equal(t, "goal-1", g.ID)
	assert.InDelta(t, 1200, g.CurrentValue, 1e-9)
	assert.InDelta(t, 100, g.ProgressPercentage, 1e-9)
	assert.Equal(t, StatusExceeded, g.Status)

	alerts := tr.GenerateGoalAlerts([]Goal{g})
	require.Len(t, alerts, 1)
	assert.Equal(t, anomaly.TypeOverperformance, alerts[0].Type)
	assert.Equal(t, anomaly.SeverityLow, alerts[0].Severity)
	assert.Equal(t, anomaly.EntityGoal, alerts[0].EntityType)
	assert.Equal(t, "goal-1", alerts[0].EntityID)
	assert.InDelta(t, 20, alerts[0].DeviationPct, 1e-9)
	assert.Equal(t, "January revenue exceeded its Revenue target of 1000.00 with 1200.00.", alerts[0].Description)

	stored, err := tr.Get(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Equal(t, g, stored)
}

func TestEvaluate_Status(t *testing.T) {
	tests := []struct {
		name    string
		revenue float64
		want    Status
	}{
		{"on track", 480, StatusOnTrack},
		{"just above on track threshold", 460, StatusOnTrack},
		{"at risk", 400, StatusAtRisk},
		{"behind", 200, StatusBehind},
		{"exceeded", 1000, StatusExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := &domain.Dataset{TrackingEvents: []domain.TrackingEvent{
				revenueEvent("inf-1", "", jan1.AddDate(0, 0, 3), tt.revenue),
			}}
			g := Goal{Metric: MetricRevenue, TargetValue: 1000, StartDate: jan1, Deadline: jan31}
			got := Evaluate(g, ds, jan16)
			assert.InDelta(t, 50, got.ExpectedProgress, 1e-9)
			assert.Equal(t, tt.want, got.Status)
			assert.Equal(t, jan16, got.UpdatedAt)
		})
	}
}

func TestEvaluate_BeforeStartIsOnTrack(t *testing.T) {
	g := Goal{Metric: MetricOrders, TargetValue: 50, StartDate: jan16, Deadline: jan31}
	got := Evaluate(g, &domain.Dataset{}, jan1)
	assert.Zero(t, got.ExpectedProgress)
	assert.Zero(t, got.CurrentValue)
	assert.Equal(t, StatusOnTrack, got.Status)
}

func TestCurrentValue_Metrics(t *testing.T) {
	saves := int64(5)
	ds := &domain.Dataset{
		TrackingEvents: []domain.TrackingEvent{
			revenueEvent("inf-1", "c-1", jan1.AddDate(0, 0, 1), 1000),
			revenueEvent("inf-1", "c-1", jan1.AddDate(0, 0, 2), 2000),
			revenueEvent("inf-2", "c-1", jan1.AddDate(0, 0, 2), 400),
			revenueEvent("inf-1", "c-1", jan31.AddDate(0, 0, 1), 9000),
		},
		Payouts: []domain.Payout{
			{InfluencerID: "inf-1", CampaignID: "c-1", TotalPayout: 1000},
			{InfluencerID: "inf-2", CampaignID: "c-1", TotalPayout: 800},
		},
		Posts: []domain.Post{
			{InfluencerID: "inf-1", CampaignID: "c-1", PublishDate: jan1.AddDate(0, 0, 4), Reach: 5000, Likes: 100, Comments: 20, Shares: 5, Saves: &saves},
			{InfluencerID: "inf-1", CampaignID: "c-2", PublishDate: jan1.AddDate(0, 0, 6), Reach: 3000, Likes: 50},
			{InfluencerID: "inf-2", CampaignID: "c-1", PublishDate: jan1.AddDate(0, 0, 6), Reach: 7000, Likes: 70},
		},
	}
	base := Goal{InfluencerID: "inf-1", StartDate: jan1, Deadline: jan31}

	tests := []struct {
		metric   Metric
		campaign string
		want     float64
	}{
		{MetricRevenue, "", 3000},
		{MetricOrders, "", 2},
		{MetricROAS, "", 3},
		{MetricReach, "", 8000},
		{MetricReach, "c-1", 5000},
		{MetricEngagement, "c-1", 125},
	}
	for _, tt := range tests {
		t.Run(string(tt.metric)+"/"+tt.campaign, func(t *testing.T) {
			g := base
			g.Metric = tt.metric
			g.CampaignID = tt.campaign
			assert.InDelta(t, tt.want, CurrentValue(g, ds), 1e-9)
		})
	}

	assert.Zero(t, CurrentValue(base, nil))
}

func TestCreateGoal_Validation(t *testing.T) {
	tr := newTestTracker(jan16)
	tests := []struct {
		name string
		in   CreateInput
		msg  string
	}{
		{"missing name", CreateInput{Metric: MetricRevenue, TargetValue: 1, Deadline: jan31}, "name is required"},
		{"bad metric", CreateInput{Name: "x", Metric: "likes", TargetValue: 1, Deadline: jan31}, `unknown metric "likes"`},
		{"zero target", CreateInput{Name: "x", Metric: MetricRevenue, Deadline: jan31}, "target_value must be positive"},
		{"no deadline", CreateInput{Name: "x", Metric: MetricRevenue, TargetValue: 1}, "deadline is required"},
		{"deadline before start", CreateInput{Name: "x", Metric: MetricRevenue, TargetValue: 1, StartDate: jan31, Deadline: jan1}, "deadline must be after start_date"},
		{"deadline before now", CreateInput{Name: "x", Metric: MetricRevenue, TargetValue: 1, Deadline: jan1}, "deadline must be after start_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tr.CreateGoal(context.Background(), tt.in, &domain.Dataset{})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidGoal)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}

	all, err := tr.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUpdateGoalProgress(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := jan1.AddDate(0, 0, 3)
	tr := NewTracker(store, func() time.Time { return now })

	g, err := tr.CreateGoal(ctx, CreateInput{
		Name: "Orders", Metric: MetricOrders, TargetValue: 10, StartDate: jan1, Deadline: jan31,
	}, &domain.Dataset{})
	require.NoError(t, err)
	assert.Equal(t, StatusBehind, g.Status)

	ds := &domain.Dataset{}
	for i := 0; i < 10; i++ {
		ds.TrackingEvents = append(ds.TrackingEvents, revenueEvent("inf-1", "", jan1.AddDate(0, 0, 2), 10))
	}
	now = jan16
	updated, err := tr.UpdateGoalProgress(ctx, g.ID, ds)
	require.NoError(t, err)
	assert.Equal(t, StatusExceeded, updated.Status)
	assert.Equal(t, jan16, updated.UpdatedAt)
	assert.Equal(t, g.CreatedAt, updated.CreatedAt)

	_, err = tr.UpdateGoalProgress(ctx, "missing", ds)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateAll(t *testing.T) {
	ctx := context.Background()
	tr := newTestTracker(jan16)
	ds := &domain.Dataset{TrackingEvents: []domain.TrackingEvent{
		revenueEvent("inf-1", "", jan1.AddDate(0, 0, 1), 600),
	}}

	for _, target := range []float64{500, 5000} {
		_, err := tr.CreateGoal(ctx, CreateInput{
			Name: "Revenue", Metric: MetricRevenue, TargetValue: target, StartDate: jan1, Deadline: jan31,
		}, &domain.Dataset{})
		require.NoError(t, err)
	}

	got, err := tr.UpdateAll(ctx, ds)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, StatusExceeded, got[0].Status)
	assert.Equal(t, StatusBehind, got[1].Status)

	alerts := tr.GenerateGoalAlerts(got)
	require.Len(t, alerts, 2)
	assert.Equal(t, anomaly.TypeGoalBehind, alerts[0].Type)
	assert.Equal(t, anomaly.SeverityMedium, alerts[0].Severity)
	assert.Equal(t, anomaly.TypeOverperformance, alerts[1].Type)
}

func TestGenerateGoalAlerts_Severity(t *testing.T) {
	now := jan1
	tests := []struct {
		status Status
		days   int
		typ    anomaly.Type
		sev    anomaly.Severity
	}{
		{StatusBehind, 5, anomaly.TypeGoalBehind, anomaly.SeverityCritical},
		{StatusBehind, 7, anomaly.TypeGoalBehind, anomaly.SeverityCritical},
		{StatusBehind, 10, anomaly.TypeGoalBehind, anomaly.SeverityHigh},
		{StatusBehind, 30, anomaly.TypeGoalBehind, anomaly.SeverityMedium},
		{StatusAtRisk, 3, anomaly.TypeGoalAtRisk, anomaly.SeverityHigh},
		{StatusAtRisk, 14, anomaly.TypeGoalAtRisk, anomaly.SeverityMedium},
		{StatusAtRisk, 20, anomaly.TypeGoalAtRisk, anomaly.SeverityLow},
		{StatusExceeded, 2, anomaly.TypeOverperformance, anomaly.SeverityLow},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%d", tt.status, tt.days), func(t *testing.T) {
			g := Goal{
				ID: "g", Name: "Goal", Metric: MetricRevenue, TargetValue: 100,
				Status: tt.status, Deadline: now.AddDate(0, 0, tt.days),
			}
			alerts := GenerateGoalAlerts([]Goal{g}, now)
			require.Len(t, alerts, 1)
			assert.Equal(t, tt.typ, alerts[0].Type)
			assert.Equal(t, tt.sev, alerts[0].Severity)
			assert.NotEmpty(t, alerts[0].Recommendations)
		})
	}

	onTrack := Goal{ID: "g", Status: StatusOnTrack, Deadline: now.AddDate(0, 0, 3)}
	assert.Empty(t, GenerateGoalAlerts([]Goal{onTrack}, now))
	assert.NotNil(t, GenerateGoalAlerts(nil, now))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Save(ctx, Goal{ID: "b", CreatedAt: jan1}))
	require.NoError(t, s.Save(ctx, Goal{ID: "a", CreatedAt: jan1}))
	require.NoError(t, s.Save(ctx, Goal{ID: "c", CreatedAt: jan1.Add(-time.Hour)}))

	all, err := s.List(ctx)
	require.NoError(t, err)
	ids := []string{all[0].ID, all[1].ID, all[2].ID}
	assert.Equal(t, []string{"c", "a", "b"}, ids)

	require.NoError(t, s.Delete(ctx, "a"))
	assert.ErrorIs(t, s.Delete(ctx, "a"), ErrNotFound)
	_, err = s.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}
