package anomaly

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/influencer-analytics/internal/domain"
)

var testNow = time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC)

func newTestDetector() *Detector {
	return NewDetector(DefaultParams(), func() time.Time { return testNow })
}

func postsWithLikes(infID string, likes ...int64) []domain.Post {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.Post, 0, len(likes))
	for i, l := range likes {
		out = append(out, domain.Post{
			ID:           fmt.Sprintf("%s-%d", infID, i),
			InfluencerID: infID,
			PublishDate:  base.AddDate(0, 0, i),
			Reach:        10000,
			Likes:        l,
		})
	}
	return out
}

func TestDetectAnomalies_EngagementDrop(t *testing.T) {
	influencers := []domain.Influencer{
		{ID: "crit", Name: "Critical Drop"},
		{ID: "high", Name: "High Drop"},
		{ID: "steady", Name: "Steady"},
		{ID: "short", Name: "Short History"},
	}
	var posts []domain.Post
	posts = append(posts, postsWithLikes("crit", 100, 100, 100, 40, 40, 40)...)
	posts = append(posts, postsWithLikes("high", 100, 100, 100, 70, 70, 70)...)
	posts = append(posts, postsWithLikes("steady", 100, 100, 100, 90, 95, 100)...)
	posts = append(posts, postsWithLikes("short", 100, 10, 10)...)

	got := newTestDetector().DetectAnomalies(influencers, posts, nil, nil)
	require.Len(t, got, 2)

	assert.Equal(t, TypeEngagementDrop, got[0].Type)
	assert.Equal(t, SeverityCritical, got[0].Severity)
	assert.Equal(t, "crit", got[0].EntityID)
	assert.InDelta(t, 40, got[0].CurrentValue, 1e-9)
	assert.InDelta(t, 100, got[0].ExpectedValue, 1e-9)
	assert.InDelta(t, -60, got[0].DeviationPct, 1e-9)
	assert.Equal(t, "Engagement for Critical Drop dropped 60.0% over the last three posts.", got[0].Description)
	assert.Len(t, got[0].Recommendations, 3)
	assert.Equal(t, testNow, got[0].DetectedAt)

	assert.Equal(t, SeverityHigh, got[1].Severity)
	assert.Equal(t, "high", got[1].EntityID)
}

func TestDetectAnomalies_LowROAS(t *testing.T) {
	influencers := []domain.Influencer{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	ev := func(inf string, rev float64) domain.TrackingEvent {
		return domain.TrackingEvent{Revenue: rev, AttributionDetails: domain.AttributionDetails{InfluencerID: inf}}
	}
	events := []domain.TrackingEvent{ev("a", 15000), ev("b", 25000), ev("d", 40000)}
	payouts := []domain.Payout{
		{InfluencerID: "a", TotalPayout: 20000},
		{InfluencerID: "b", TotalPayout: 20000},
		{InfluencerID: "c", TotalPayout: 5000},
		{InfluencerID: "d", TotalPayout: 20000},
	}

	got := newTestDetector().DetectAnomalies(influencers, nil, events, payouts)
	require.Len(t, got, 2)

	assert.Equal(t, TypeLowROAS, got[0].Type)
	assert.Equal(t, "a", got[0].EntityID)
	assert.Equal(t, SeverityHigh, got[0].Severity)
	assert.InDelta(t, 0.75, got[0].CurrentValue, 1e-9)
	assert.InDelta(t, 1.5, got[0].ExpectedValue, 1e-9)
	assert.InDelta(t, -50, got[0].DeviationPct, 1e-9)
	assert.Equal(t, "a returned 0.75x on $20000.00 of spend.", got[0].Description)

	assert.Equal(t, "b", got[1].EntityID)
	assert.Equal(t, SeverityMedium, got[1].Severity)
}

func TestDetectCrossChannelAnomalies(t *testing.T) {
	influencers := []domain.Influencer{
		{ID: "ig", Platform: domain.PlatformInstagram},
		{ID: "tw", Platform: domain.PlatformTwitter},
		{ID: "yt", Platform: domain.PlatformYouTube},
	}
	posts := []domain.Post{
		{ID: "p1", InfluencerID: "ig", Reach: 1000, Likes: 15},
		{ID: "p2", InfluencerID: "tw", Platform: domain.PlatformTwitter, Reach: 1000, Likes: 35},
		{ID: "p3", InfluencerID: "yt", Reach: 1000, Likes: 40},
	}

	var events []domain.TrackingEvent
	addOrders := func(day int, n int) {
		for i := 0; i < n; i++ {
			events = append(events, domain.TrackingEvent{
				ID:        fmt.Sprintf("d%d-%d", day, i),
				OrderDate: time.Date(2024, 1, day, 10+i, 0, 0, 0, time.UTC),
			})
		}
	}
	for day := 1; day <= 7; day++ {
		addOrders(day, 2)
	}
	addOrders(8, 6)
	// Jan 9 has no orders
	addOrders(10, 2)

	got := newTestDetector().DetectCrossChannelAnomalies(influencers, posts, events)
	require.Len(t, got, 4)

	assert.Equal(t, TypeOrderSpike, got[0].Type)
	assert.Equal(t, SeverityHigh, got[0].Severity)
	assert.Equal(t, "2024-01-08", got[0].EntityID)
	assert.InDelta(t, 200, got[0].DeviationPct, 1e-9)

	assert.Equal(t, TypePlatformUnderperformance, got[1].Type)
	assert.Equal(t, SeverityHigh, got[1].Severity)
	assert.Equal(t, "Instagram", got[1].EntityID)
	assert.InDelta(t, 1.5, got[1].CurrentValue, 1e-9)

	assert.Equal(t, TypeOrderDrop, got[2].Type)
	assert.Equal(t, SeverityMedium, got[2].Severity)
	assert.Equal(t, "2024-01-09", got[2].EntityID)
	assert.InDelta(t, -100, got[2].DeviationPct, 1e-9)

	assert.Equal(t, TypeOverperformance, got[3].Type)
	assert.Equal(t, SeverityLow, got[3].Severity)
	assert.Equal(t, "Twitter", got[3].EntityID)
}

func TestDetectCrossChannelAnomalies_NeedsFullWindow(t *testing.T) {
	var events []domain.TrackingEvent
	for day := 1; day <= 6; day++ {
		events = append(events, domain.TrackingEvent{OrderDate: time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)})
	}
	for i := 0; i < 20; i++ {
		events = append(events, domain.TrackingEvent{OrderDate: time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)})
	}

	got := newTestDetector().DetectCrossChannelAnomalies(nil, nil, events)
	assert.Empty(t, got)
}

func TestDetect_Empty(t *testing.T) {
	d := newTestDetector()
	assert.Empty(t, d.DetectAnomalies(nil, nil, nil, nil))
	assert.Empty(t, d.DetectCrossChannelAnomalies(nil, nil, nil))
}

func TestDetect_Deterministic(t *testing.T) {
	influencers := []domain.Influencer{{ID: "crit"}}
	posts := postsWithLikes("crit", 100, 100, 100, 40, 40, 40)

	a := newTestDetector().DetectAnomalies(influencers, posts, nil, nil)
	b := newTestDetector().DetectAnomalies(influencers, posts, nil, nil)
	assert.Equal(t, a, b)
}

func TestDetectionID(t *testing.T) {
	day := time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC)
	id := DetectionID(TypeLowROAS, EntityInfluencer, "a", day)

	assert.Equal(t, id, DetectionID(TypeLowROAS, EntityInfluencer, "a", day.Add(-time.Hour)))
	assert.NotEqual(t, id, DetectionID(TypeLowROAS, EntityInfluencer, "b", day))
	assert.NotEqual(t, id, DetectionID(TypeEngagementDrop, EntityInfluencer, "a", day))
	assert.NotEqual(t, id, DetectionID(TypeLowROAS, EntityInfluencer, "a", day.AddDate(0, 0, 1)))
}

func TestSort(t *testing.T) {
	ds := []Detection{
		{Type: TypeOverperformance, Severity: SeverityLow, EntityID: "x"},
		{Type: TypeLowROAS, Severity: SeverityHigh, EntityID: "b"},
		{Type: TypeLowROAS, Severity: SeverityHigh, EntityID: "a"},
		{Type: TypeEngagementDrop, Severity: SeverityCritical, EntityID: "z"},
		{Type: TypeEngagementDrop, Severity: SeverityHigh, EntityID: "z"},
	}
	Sort(ds)

	var order []string
	for _, d := range ds {
		order = append(order, string(d.Severity)+"/"+string(d.Type)+"/"+d.EntityID)
	}
	assert.Equal(t, []string{
		"critical/engagement_drop/z",
		"high/engagement_drop/z",
		"high/low_roas/a",
		"high/low_roas/b",
		"low/overperformance/x",
	}, order)
}
