package predictive

import (
	"fmt"
	"time"

	"github.com/ignite/influencer-analytics/internal/domain"
)

// ConfidenceInterval bounds a revenue forecast.
type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Multipliers are the adjustments applied to historical averages.
type Multipliers struct {
	Growth      float64 `json:"growth"`
	Platform    float64 `json:"platform"`
	Category    float64 `json:"category"`
	Seasonality float64 `json:"seasonality"`
}

// Combined is the product of every multiplier.
func (m Multipliers) Combined() float64 {
	return m.Growth * m.Platform * m.Category * m.Seasonality
}

// PredictiveMetrics is a per-post forecast for one influencer over the
// forecast horizon.
type PredictiveMetrics struct {
	InfluencerID         string             `json:"influencer_id"`
	ForecastPeriod       string             `json:"forecast_period"`
	ForecastMonth        string             `json:"forecast_month"`
	PredictedReach       float64            `json:"predicted_reach"`
	PredictedEngagement  float64            `json:"predicted_engagement"`
	PredictedConversions float64            `json:"predicted_conversions"`
	PredictedRevenue     float64            `json:"predicted_revenue"`
	ConfidenceInterval   ConfidenceInterval `json:"confidence_interval"`
	ConfidenceScore      float64            `json:"confidence_score"`
	Multipliers          Multipliers        `json:"multipliers"`
	BasedOnHistory       bool               `json:"based_on_history"`
	RiskFactors          []string           `json:"risk_factors"`
	GeneratedAt          time.Time          `json:"generated_at"`
}

// PredictInfluencerPerformance projects reach, engagement, conversions and
// revenue from the influencer's per-post history, or from follower-based
// estimates when there is none. Posts and events are filtered to the
// influencer.
func (e *Engine) PredictInfluencerPerformance(inf domain.Influencer, posts []domain.Post, events []domain.TrackingEvent) PredictiveMetrics {
	posts = domain.PostsByInfluencer(posts, inf.ID)
	events = domain.EventsByInfluencer(events, inf.ID)
	p := e.params

	var avgReach, avgEngagement, avgConversions, avgRevenue float64
	if n := float64(len(posts)); n > 0 {
		var reach, engagement int64
		for _, post := range posts {
			reach += post.Reach
			engagement += post.Engagements()
		}
		avgReach = float64(reach) / n
		avgEngagement = float64(engagement) / n
		avgConversions = float64(len(events)) / n
		avgRevenue = domain.TotalRevenue(events) / n
	} else {
		avgReach = float64(inf.FollowerCount) * p.FallbackReachRate
		avgEngagement = avgReach * inf.EngagementRate / 100
		avgConversions = avgReach * p.FallbackConversionRate
		avgRevenue = avgConversions * p.FallbackOrderValue
	}

	now := e.nowFn()
	target := now.AddDate(0, 0, p.HorizonDays)
	mult := Multipliers{
		Growth:      1 + p.GrowthJitter*e.rng.Float64(),
		Platform:    lookupOr(p.PlatformMultipliers, inf.Platform, 1),
		Category:    lookupOr(p.CategoryMultipliers, inf.Category, 1),
		Seasonality: p.SeasonalityByMonth[target.Month()-1],
	}
	if mult.Seasonality == 0 {
		mult.Seasonality = 1
	}
	combined := mult.Combined()

	out := PredictiveMetrics{
		InfluencerID:         inf.ID,
		ForecastPeriod:       fmt.Sprintf("%dd", p.HorizonDays),
		ForecastMonth:        target.Format("2006-01"),
		PredictedReach:       avgReach * combined,
		PredictedEngagement:  avgEngagement * combined,
		PredictedConversions: avgConversions * combined,
		PredictedRevenue:     avgRevenue * combined,
		Multipliers:          mult,
		BasedOnHistory:       len(posts) > 0,
		RiskFactors:          []string{},
		GeneratedAt:          now,
	}
	out.ConfidenceInterval = ConfidenceInterval{
		Lower: out.PredictedRevenue * (1 - p.ConfidenceBand),
		Upper: out.PredictedRevenue * (1 + p.ConfidenceBand),
	}

	out.ConfidenceScore = clamp(float64(len(posts))/10, 0, 1) * 0.6
	if len(events) > 0 {
		out.ConfidenceScore += 0.4
	}

	if inf.EngagementRate < 2 {
		out.RiskFactors = append(out.RiskFactors, "Engagement rate below 2% may limit conversions")
	}
	if len(posts) < 3 {
		out.RiskFactors = append(out.RiskFactors, "Limited post history reduces forecast accuracy")
	}
	if len(events) == 0 {
		out.RiskFactors = append(out.RiskFactors, "No tracking data available to validate conversions")
	}
	if avgReach < float64(inf.FollowerCount)*0.1 {
		out.RiskFactors = append(out.RiskFactors, "Average reach is below 10% of followers")
	}
	return out
}

func lookupOr[K comparable](m map[K]float64, key K, def float64) float64 {
	if v, ok := m[key]; ok {
		return v
	}
	return def
}
