package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDataset() *Dataset {
	return &Dataset{
		Influencers: []Influencer{
			{ID: "inf-1", Name: "Ana", Platform: PlatformInstagram, Category: CategoryFitness, FollowerCount: 1000, EngagementRate: 4.5},
		},
		Posts: []Post{
			{ID: "post-1", InfluencerID: "inf-1", PostType: PostReel, Reach: 500, Likes: 40},
		},
		TrackingEvents: []TrackingEvent{
			{ID: "evt-1", CustomerID: "c-1", OrderDate: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Revenue: 50, AttributionSource: SourceOrganic},
		},
		Payouts: []Payout{
			{ID: "pay-1", InfluencerID: "inf-1", Basis: PayoutFlatFee, TotalPayout: 200},
		},
		Campaigns: []Campaign{
			{ID: "camp-1", Name: "Spring", Brand: "vitalfuel", Budget: 5000, Status: CampaignActive},
		},
	}
}

func TestValidate_ValidDataset(t *testing.T) {
	assert.NoError(t, Validate(validDataset()))
}

func TestValidate_EmptyDataset(t *testing.T) {
	assert.NoError(t, Validate(&Dataset{}))
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	ds := validDataset()
	ds.Influencers[0].Platform = "MySpace"
	ds.Influencers[0].FollowerCount = -1
	ds.TrackingEvents[0].Revenue = -10
	ds.TrackingEvents[0].OrderDate = time.Time{}
	ds.Payouts[0].ID = ""

	err := Validate(ds)
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 5)
	assert.Contains(t, err.Error(), "influencer inf-1: platform unknown value \"MySpace\"")
	assert.Contains(t, err.Error(), "tracking_event evt-1: revenue must not be negative")
	assert.Contains(t, err.Error(), "payout #0: id is required")
}

func TestPostEngagementRate(t *testing.T) {
	p := Post{Reach: 1000, Likes: 30, Comments: 15, Shares: 5}
	assert.Equal(t, int64(50), p.Engagements())
	assert.InDelta(t, 5.0, p.EngagementRate(), 0.0001)

	assert.Equal(t, 0.0, Post{Likes: 10}.EngagementRate())
}

func TestExportDocument_KeysAndRoundTrip(t *testing.T) {
	ds := validDataset()
	doc := NewExportDocument(ds, map[string]string{"currency": "USD"})

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var keys map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &keys))
	for _, k := range []string{"influencers", "campaigns", "posts", "trackingData", "payouts", "settings"} {
		assert.Contains(t, keys, k)
	}

	back := doc.Dataset()
	assert.Equal(t, ds.Influencers, back.Influencers)
	assert.Equal(t, ds.TrackingEvents, back.TrackingEvents)
}

func TestNewExportDocument_EmptySlicesNotNull(t *testing.T) {
	doc := NewExportDocument(&Dataset{}, nil)
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"influencers":[],"campaigns":[],"posts":[],"trackingData":[],"payouts":[],"settings":{}}`, string(data))
}

func TestDatasetLookups(t *testing.T) {
	ds := validDataset()

	inf, ok := ds.Influencer("inf-1")
	require.True(t, ok)
	assert.Equal(t, "Ana", inf.Name)

	_, ok = ds.Influencer("missing")
	assert.False(t, ok)

	assert.Len(t, ds.PostsFor("inf-1"), 1)
	assert.Empty(t, ds.PostsFor("inf-2"))
	assert.Equal(t, 200.0, TotalPayout(ds.Payouts))
	assert.Equal(t, 50.0, TotalRevenue(ds.TrackingEvents))
}
