package goals

import (
	"math"
	"time"

	"github.com/ignite/influencer-analytics/internal/attribution"
	"github.com/ignite/influencer-analytics/internal/domain"
)

// Status thresholds as a share of expected progress.
const (
	onTrackRatio = 0.9
	atRiskRatio  = 0.7
)

// CurrentValue sums the goal's metric over its scoped records. Dated records
// (tracking events, posts) must fall inside [StartDate, Deadline]; payouts
// are undated and counted whenever they match the scope.
func CurrentValue(g Goal, ds *domain.Dataset) float64 {
	if ds == nil {
		return 0
	}
	switch g.Metric {
	case MetricRevenue:
		return domain.TotalRevenue(scopedEvents(g, ds.TrackingEvents))
	case MetricOrders:
		return float64(len(scopedEvents(g, ds.TrackingEvents)))
	case MetricROAS:
		revenue := domain.TotalRevenue(scopedEvents(g, ds.TrackingEvents))
		return attribution.ROAS(revenue, domain.TotalPayout(scopedPayouts(g, ds.Payouts)))
	case MetricEngagement:
		var sum int64
		for _, p := range scopedPosts(g, ds.Posts) {
			sum += p.Engagements()
		}
		return float64(sum)
	case MetricReach:
		var sum int64
		for _, p := range scopedPosts(g, ds.Posts) {
			sum += p.Reach
		}
		return float64(sum)
	}
	return 0
}

// ExpectedProgress is the elapsed share of the goal window, as a percentage
// clamped to [0, 100].
func ExpectedProgress(g Goal, now time.Time) float64 {
	total := g.Deadline.Sub(g.StartDate)
	if total <= 0 {
		return 100
	}
	elapsed := now.Sub(g.StartDate)
	return math.Max(0, math.Min(100, float64(elapsed)/float64(total)*100))
}

// Evaluate returns g with current value, progress, expected progress and
// status recomputed from ds at now.
func Evaluate(g Goal, ds *domain.Dataset, now time.Time) Goal {
	g.CurrentValue = CurrentValue(g, ds)
	if g.TargetValue > 0 {
		g.ProgressPercentage = math.Min(g.CurrentValue/g.TargetValue*100, 100)
	} else {
		g.ProgressPercentage = 0
	}
	g.ExpectedProgress = ExpectedProgress(g, now)
	g.Status = classify(g)
	g.UpdatedAt = now
	return g
}

func classify(g Goal) Status {
	if g.TargetValue > 0 && g.CurrentValue >= g.TargetValue {
		return StatusExceeded
	}
	if g.ExpectedProgress <= 0 {
		return StatusOnTrack
	}
	ratio := g.ProgressPercentage / g.ExpectedProgress
	switch {
	case ratio >= onTrackRatio:
		return StatusOnTrack
	case ratio >= atRiskRatio:
		return StatusAtRisk
	default:
		return StatusBehind
	}
}

func inWindow(g Goal, t time.Time) bool {
	if !g.StartDate.IsZero() && t.Before(g.StartDate) {
		return false
	}
	if !g.Deadline.IsZero() && t.After(g.Deadline) {
		return false
	}
	return true
}

func scopedEvents(g Goal, events []domain.TrackingEvent) []domain.TrackingEvent {
	var out []domain.TrackingEvent
	for _, e := range events {
		if g.InfluencerID != "" && e.AttributionDetails.InfluencerID != g.InfluencerID {
			continue
		}
		if g.CampaignID != "" && e.AttributionDetails.CampaignID != g.CampaignID {
			continue
		}
		if !inWindow(g, e.OrderDate) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func scopedPosts(g Goal, posts []domain.Post) []domain.Post {
	var out []domain.Post
	for _, p := range posts {
		if g.InfluencerID != "" && p.InfluencerID != g.InfluencerID {
			continue
		}
		if g.CampaignID != "" && p.CampaignID != g.CampaignID {
			continue
		}
		if !inWindow(g, p.PublishDate) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func scopedPayouts(g Goal, payouts []domain.Payout) []domain.Payout {
	var out []domain.Payout
	for _, p := range payouts {
		if g.InfluencerID != "" && p.InfluencerID != g.InfluencerID {
			continue
		}
		if g.CampaignID != "" && p.CampaignID != g.CampaignID {
			continue
		}
		out = append(out, p)
	}
	return out
}
