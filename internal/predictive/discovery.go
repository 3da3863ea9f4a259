package predictive

import (
	"sort"

	"github.com/ignite/influencer-analytics/internal/attribution"
	"github.com/ignite/influencer-analytics/internal/audience"
	"github.com/ignite/influencer-analytics/internal/domain"
	"github.com/ignite/influencer-analytics/internal/pkg/tmpl"
)

// Discovery bucket maxima.
const (
	MaxROASPotential      = 25
	MaxEngagementQuality  = 20
	MaxAudienceAlignment  = 20
	MaxContentConsistency = 15
	MaxGrowthTrajectory   = 20
)

// RiskLevel classifies the risk of partnering with an influencer.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// History is the record set an influencer is scored on.
type History struct {
	Posts    []domain.Post
	Tracking []domain.TrackingEvent
	Payouts  []domain.Payout
}

// InfluencerDiscoveryScore ranks an influencer as a partnership candidate.
type InfluencerDiscoveryScore struct {
	InfluencerID       string       `json:"influencer_id"`
	InfluencerName     string       `json:"influencer_name"`
	Brand              domain.Brand `json:"brand"`
	OverallScore       int          `json:"overall_score"`
	ROASPotential      int          `json:"roas_potential"`
	EngagementQuality  int          `json:"engagement_quality"`
	AudienceAlignment  int          `json:"audience_alignment"`
	ContentConsistency int          `json:"content_consistency"`
	GrowthTrajectory   int          `json:"growth_trajectory"`
	HistoricalROAS     float64      `json:"historical_roas"`
	RiskLevel          RiskLevel    `json:"risk_level"`
	RecommendedBudget  float64      `json:"recommended_budget"`
	Strengths          []string     `json:"strengths"`
	Concerns           []string     `json:"concerns"`
}

// CalculateDiscoveryScore scores one influencer for a brand. History is
// filtered to the influencer. With no spend the ROAS bucket is a neutral 10,
// while risk and budget use the zero ROAS like any other value below 1.5.
func (e *Engine) CalculateDiscoveryScore(inf domain.Influencer, h History, brand domain.Brand) (InfluencerDiscoveryScore, error) {
	profile, ok := e.audience.Profile(brand)
	if !ok {
		return InfluencerDiscoveryScore{}, audience.ErrUnknownBrand
	}

	posts := domain.PostsByInfluencer(h.Posts, inf.ID)
	revenue := domain.TotalRevenue(domain.EventsByInfluencer(h.Tracking, inf.ID))
	spend := domain.TotalPayout(domain.PayoutsByInfluencer(h.Payouts, inf.ID))
	hasSpend := spend > 0
	roas := attribution.ROAS(revenue, spend)

	fit := audience.Score(inf, profile)
	growth := growthTrajectory(posts)

	s := InfluencerDiscoveryScore{
		InfluencerID:       inf.ID,
		InfluencerName:     inf.Name,
		Brand:              brand,
		ROASPotential:      roasPotential(roas, hasSpend),
		EngagementQuality:  engagementScore(inf.EngagementRate),
		AudienceAlignment:  round(float64(fit.OverallFitScore) * 0.2),
		ContentConsistency: contentConsistency(len(posts)),
		GrowthTrajectory:   growth,
		HistoricalROAS:     roas,
	}
	s.OverallScore = s.ROASPotential + s.EngagementQuality + s.AudienceAlignment + s.ContentConsistency + s.GrowthTrajectory

	risk := 0
	if inf.EngagementRate < 2 {
		risk += 2
	}
	if len(posts) < 5 {
		risk++
	}
	if roas < 1.5 {
		risk += 2
	}
	if inf.FollowerCount > 1_000_000 {
		risk++
	}
	switch {
	case risk >= 4:
		s.RiskLevel = RiskHigh
	case risk >= 2:
		s.RiskLevel = RiskMedium
	default:
		s.RiskLevel = RiskLow
	}

	s.RecommendedBudget = float64(inf.FollowerCount) * 0.01 * engagementBudgetMultiplier(inf.EngagementRate) * roasBudgetMultiplier(roas)
	s.Strengths, s.Concerns = discoveryNotes(s, inf, profile, len(posts), hasSpend)
	return s, nil
}

// DiscoverInfluencers scores every influencer and sorts by overall score
// descending, then influencer id.
func (e *Engine) DiscoverInfluencers(influencers []domain.Influencer, h History, brand domain.Brand) ([]InfluencerDiscoveryScore, error) {
	out := make([]InfluencerDiscoveryScore, 0, len(influencers))
	for _, inf := range influencers {
		s, err := e.CalculateDiscoveryScore(inf, h, brand)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OverallScore != out[j].OverallScore {
			return out[i].OverallScore > out[j].OverallScore
		}
		return out[i].InfluencerID < out[j].InfluencerID
	})
	return out, nil
}

func roasPotential(roas float64, hasSpend bool) int {
	if !hasSpend {
		return 10
	}
	switch {
	case roas >= 4:
		return 25
	case roas >= 3:
		return 20
	case roas >= 2:
		return 15
	case roas >= 1.5:
		return 10
	default:
		return 5
	}
}

func engagementScore(rate float64) int {
	switch {
	case rate >= 6:
		return 20
	case rate >= 4:
		return 16
	case rate >= 2:
		return 10
	default:
		return 5
	}
}

func contentConsistency(posts int) int {
	switch {
	case posts >= 10:
		return 15
	case posts >= 5:
		return 10
	case posts >= 3:
		return 6
	case posts >= 1:
		return 3
	default:
		return 0
	}
}

// growthTrajectory compares the average engagement rate of the newer half of
// the posts against the older half.
func growthTrajectory(posts []domain.Post) int {
	if len(posts) < 4 {
		return 10
	}
	sorted := append([]domain.Post(nil), posts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PublishDate.Before(sorted[j].PublishDate)
	})

	half := len(sorted) / 2
	older := avgEngagementRate(sorted[:half])
	recent := avgEngagementRate(sorted[half:])
	if older <= 0 {
		return 10
	}
	ratio := recent / older
	switch {
	case ratio >= 1.2:
		return 20
	case ratio >= 1.05:
		return 15
	case ratio >= 0.95:
		return 10
	default:
		return 5
	}
}

func avgEngagementRate(posts []domain.Post) float64 {
	if len(posts) == 0 {
		return 0
	}
	var sum float64
	for _, p := range posts {
		sum += p.EngagementRate()
	}
	return sum / float64(len(posts))
}

func engagementBudgetMultiplier(rate float64) float64 {
	switch {
	case rate >= 6:
		return 1.5
	case rate >= 4:
		return 1.2
	case rate >= 2:
		return 1.0
	default:
		return 0.7
	}
}

func roasBudgetMultiplier(roas float64) float64 {
	switch {
	case roas >= 4:
		return 1.5
	case roas >= 2:
		return 1.2
	case roas >= 1.5:
		return 1.0
	default:
		return 0.8
	}
}

func discoveryNotes(s InfluencerDiscoveryScore, inf domain.Influencer, profile audience.BrandProfile, posts int, hasSpend bool) (strengths, concerns []string) {
	vars := map[string]interface{}{
		"roas":       s.HistoricalROAS,
		"engagement": inf.EngagementRate,
		"brand":      profile.Name,
		"posts":      posts,
		"followers":  inf.FollowerCount,
	}
	add := func(list *[]string, src string) {
		*list = append(*list, tmpl.Render(src, vars))
	}

	strengths, concerns = []string{}, []string{}
	if hasSpend && s.HistoricalROAS >= 3 {
		add(&strengths, "Proven return of {{ roas | fixed: 2 }}x on past spend")
	}
	if inf.EngagementRate >= 4 {
		add(&strengths, "High engagement rate of {{ engagement | percentage }}")
	}
	if s.AudienceAlignment >= 16 {
		add(&strengths, "Audience closely matches the {{ brand }} target customer")
	}
	if posts >= 10 {
		add(&strengths, "Consistent publishing history ({{ posts }} posts)")
	}
	if s.GrowthTrajectory >= 15 {
		add(&strengths, "Engagement is trending up")
	}

	if inf.EngagementRate < 2 {
		add(&concerns, "Engagement rate of {{ engagement | percentage }} is below the 2% benchmark")
	}
	if posts < 5 {
		add(&concerns, "Limited content history ({{ posts }} posts)")
	}
	switch {
	case !hasSpend:
		add(&concerns, "No payout history to measure return")
	case s.HistoricalROAS < 1.5:
		add(&concerns, "Past return of {{ roas | fixed: 2 }}x is below the 1.5x target")
	}
	if inf.FollowerCount > 1_000_000 {
		add(&concerns, "Large audience may carry premium rates and lower engagement")
	}
	if s.GrowthTrajectory <= 5 {
		add(&concerns, "Engagement is trending down")
	}
	return strengths, concerns
}
