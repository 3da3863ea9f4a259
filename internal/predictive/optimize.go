package predictive

import (
	"sort"

	"github.com/ignite/influencer-analytics/internal/attribution"
	"github.com/ignite/influencer-analytics/internal/domain"
	"github.com/ignite/influencer-analytics/internal/pkg/tmpl"
	"github.com/ignite/influencer-analytics/internal/sentiment"
)

// ReallocationShare is the fraction of an underperformer's spend suggested
// for a move.
const ReallocationShare = 0.2

// CampaignPerformance is the current state of a campaign.
type CampaignPerformance struct {
	Spend   float64 `json:"spend"`
	Revenue float64 `json:"revenue"`
	ROAS    float64 `json:"roas"`
	Orders  int     `json:"orders"`
}

// InfluencerROAS is one influencer's result inside a campaign.
type InfluencerROAS struct {
	InfluencerID   string  `json:"influencer_id"`
	InfluencerName string  `json:"influencer_name"`
	Spend          float64 `json:"spend"`
	Revenue        float64 `json:"revenue"`
	ROAS           float64 `json:"roas"`
}

// Reallocation suggests moving budget from a weak to a strong performer.
type Reallocation struct {
	FromInfluencerID string  `json:"from_influencer_id"`
	ToInfluencerID   string  `json:"to_influencer_id"`
	Amount           float64 `json:"amount"`
	ExpectedLift     float64 `json:"expected_lift"`
	Reason           string  `json:"reason"`
}

// CampaignOptimization is the set of suggestions for one campaign.
type CampaignOptimization struct {
	CampaignID            string              `json:"campaign_id"`
	Current               CampaignPerformance `json:"current"`
	InfluencerPerformance []InfluencerROAS    `json:"influencer_performance"`
	BudgetReallocations   []Reallocation      `json:"budget_reallocations"`
	ContentSuggestions    []string            `json:"content_suggestions"`
	AudienceSuggestions   []string            `json:"audience_suggestions"`
	TotalExpectedLift     float64             `json:"total_expected_lift"`
	ProjectedRevenue      float64             `json:"projected_revenue"`
	ProjectedROAS         float64             `json:"projected_roas"`
}

const (
	recReallocate       = "Move {{ amount | currency }} from {{ from }} ({{ from_roas | fixed: 2 }}x) to {{ to }} ({{ to_roas | fixed: 2 }}x)."
	recBestFormat       = "Shift more content to {{ post_type }} posts, which average {{ revenue | currency }} in attributed revenue."
	recCouponPerPost    = "Give every post a unique coupon code to tighten attribution."
	recRepurpose        = "Repurpose top-performing captions across each influencer's other platforms."
	recRetarget         = "Retarget engaged followers of the top performers with paid amplification."
	recLookalike        = "Build lookalike audiences from customers who converted through this campaign."
	recNewCustomerOffer = "Test a first-order offer for new customers to lift conversion."
)

// OptimizeCampaign ranks the campaign's influencers by ROAS and pairs the top
// third with the bottom third, suggesting a move of 20% of each
// underperformer's spend. Expected lift is the moved amount times the ROAS
// difference.
func (e *Engine) OptimizeCampaign(campaignID string, influencers []domain.Influencer, posts []domain.Post, events []domain.TrackingEvent, payouts []domain.Payout) CampaignOptimization {
	names := make(map[string]string, len(influencers))
	for _, inf := range influencers {
		names[inf.ID] = inf.Name
	}

	perInf := make(map[string]*InfluencerROAS)
	get := func(id string) *InfluencerROAS {
		r, ok := perInf[id]
		if !ok {
			r = &InfluencerROAS{InfluencerID: id, InfluencerName: names[id]}
			perInf[id] = r
		}
		return r
	}

	out := CampaignOptimization{CampaignID: campaignID}

	var campaignEvents []domain.TrackingEvent
	for _, ev := range events {
		if ev.AttributionDetails.CampaignID != campaignID {
			continue
		}
		campaignEvents = append(campaignEvents, ev)
		out.Current.Revenue += ev.Revenue
		out.Current.Orders++
		if id := ev.AttributionDetails.InfluencerID; id != "" {
			get(id).Revenue += ev.Revenue
		}
	}
	for _, p := range payouts {
		if p.CampaignID != campaignID {
			continue
		}
		out.Current.Spend += p.TotalPayout
		get(p.InfluencerID).Spend += p.TotalPayout
	}
	out.Current.ROAS = attribution.ROAS(out.Current.Revenue, out.Current.Spend)

	ranked := make([]InfluencerROAS, 0, len(perInf))
	for _, r := range perInf {
		r.ROAS = attribution.ROAS(r.Revenue, r.Spend)
		ranked = append(ranked, *r)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].ROAS != ranked[j].ROAS {
			return ranked[i].ROAS > ranked[j].ROAS
		}
		return ranked[i].InfluencerID < ranked[j].InfluencerID
	})
	out.InfluencerPerformance = ranked

	n := len(ranked)
	third := n / 3
	if third == 0 && n >= 2 {
		third = 1
	}
	out.BudgetReallocations = []Reallocation{}
	for i := 0; i < third; i++ {
		if i >= n-1-i {
			break
		}
		top, bottom := ranked[i], ranked[n-1-i]
		if top.ROAS <= bottom.ROAS || bottom.Spend <= 0 {
			continue
		}
		amount := bottom.Spend * ReallocationShare
		lift := amount * (top.ROAS - bottom.ROAS)
		out.BudgetReallocations = append(out.BudgetReallocations, Reallocation{
			FromInfluencerID: bottom.InfluencerID,
			ToInfluencerID:   top.InfluencerID,
			Amount:           amount,
			ExpectedLift:     lift,
			Reason: tmpl.Render(recReallocate, map[string]interface{}{
				"amount":    amount,
				"from":      displayName(bottom),
				"from_roas": bottom.ROAS,
				"to":        displayName(top),
				"to_roas":   top.ROAS,
			}),
		})
		out.TotalExpectedLift += lift
	}

	out.ContentSuggestions = []string{}
	campaignPosts := make([]domain.Post, 0)
	for _, p := range posts {
		if p.CampaignID == campaignID {
			campaignPosts = append(campaignPosts, p)
		}
	}
	insights := sentiment.AnalyzeContentInsights(campaignPosts, campaignEvents)
	if len(insights.ContentTypePerformance) > 0 {
		best := insights.ContentTypePerformance[0]
		out.ContentSuggestions = append(out.ContentSuggestions, tmpl.Render(recBestFormat, map[string]interface{}{
			"post_type": string(best.PostType),
			"revenue":   best.AvgRevenue,
		}))
	}
	out.ContentSuggestions = append(out.ContentSuggestions, tmpl.Render(recCouponPerPost, nil), tmpl.Render(recRepurpose, nil))
	out.AudienceSuggestions = []string{
		tmpl.Render(recRetarget, nil),
		tmpl.Render(recLookalike, nil),
		tmpl.Render(recNewCustomerOffer, nil),
	}

	out.ProjectedRevenue = out.Current.Revenue + out.TotalExpectedLift
	out.ProjectedROAS = attribution.ROAS(out.ProjectedRevenue, out.Current.Spend)
	return out
}

func displayName(r InfluencerROAS) string {
	if r.InfluencerName != "" {
		return r.InfluencerName
	}
	return r.InfluencerID
}
