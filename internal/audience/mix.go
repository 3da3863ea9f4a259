package audience

import (
	"github.com/ignite/influencer-analytics/internal/domain"
)

// Mix selection constants.
const (
	MinMixFitScore = 60
	MaxMixSize     = 5
)

// RiskLevel labels the risk of an influencer mix.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// OptimalMix is a budget-constrained selection of well-fitting influencers.
type OptimalMix struct {
	Brand             domain.Brand       `json:"brand"`
	Budget            float64            `json:"budget"`
	CostPerInfluencer float64            `json:"cost_per_influencer"`
	TotalCost         float64            `json:"total_cost"`
	TotalReach        int64              `json:"total_reach"`
	AvgFitScore       float64            `json:"avg_fit_score"`
	RiskLevel         RiskLevel          `json:"risk_level"`
	Selected          []AudienceFitScore `json:"selected"`
}

// GetOptimalInfluencerMix picks influencers with a fit of at least 60 in
// ranking order. The budget is split evenly across up to five candidates and
// candidates are taken while the cumulative cost stays within budget.
func (s *Scorer) GetOptimalInfluencerMix(influencers []domain.Influencer, brand domain.Brand, budget float64) (OptimalMix, error) {
	rankings, err := s.GetBrandFitRankings(influencers, brand)
	if err != nil {
		return OptimalMix{}, err
	}

	followers := make(map[string]int64, len(influencers))
	for _, inf := range influencers {
		followers[inf.ID] = inf.FollowerCount
	}

	var candidates []AudienceFitScore
	for _, r := range rankings {
		if r.OverallFitScore >= MinMixFitScore {
			candidates = append(candidates, r)
		}
	}

	mix := OptimalMix{Brand: brand, Budget: budget, RiskLevel: RiskHigh, Selected: []AudienceFitScore{}}
	if len(candidates) == 0 || budget <= 0 {
		return mix, nil
	}

	n := len(candidates)
	if n > MaxMixSize {
		n = MaxMixSize
	}
	mix.CostPerInfluencer = budget / float64(n)

	var fitSum int
	for _, c := range candidates {
		// small epsilon absorbs float error from budget/n*n
		if mix.TotalCost+mix.CostPerInfluencer > budget+1e-9 {
			break
		}
		mix.TotalCost += mix.CostPerInfluencer
		mix.TotalReach += followers[c.InfluencerID]
		mix.Selected = append(mix.Selected, c)
		fitSum += c.OverallFitScore
	}

	if len(mix.Selected) > 0 {
		mix.AvgFitScore = float64(fitSum) / float64(len(mix.Selected))
	}
	switch {
	case mix.AvgFitScore >= 70:
		mix.RiskLevel = RiskLow
	case mix.AvgFitScore >= 50:
		mix.RiskLevel = RiskMedium
	}
	return mix, nil
}

var defaultScorer = NewScorer(nil)

// CalculateAudienceFit scores against the built-in brand table.
func CalculateAudienceFit(inf domain.Influencer, brand domain.Brand) (AudienceFitScore, error) {
	return defaultScorer.CalculateAudienceFit(inf, brand)
}

// GetBrandFitRankings ranks against the built-in brand table.
func GetBrandFitRankings(influencers []domain.Influencer, brand domain.Brand) ([]AudienceFitScore, error) {
	return defaultScorer.GetBrandFitRankings(influencers, brand)
}

// GetOptimalInfluencerMix selects against the built-in brand table.
func GetOptimalInfluencerMix(influencers []domain.Influencer, brand domain.Brand, budget float64) (OptimalMix, error) {
	return defaultScorer.GetOptimalInfluencerMix(influencers, brand, budget)
}
