// Package audience scores how well an influencer's audience matches a brand's
// target customer.
//
// A fit score is the sum of five independently rounded buckets:
//
//	demographic fit      0-30
//	geographic fit       0-25
//	interest alignment   0-25
//	engagement quality   0-15
//	brand safety         0-5
package audience

import (
	"math"
	"sort"
	"strings"

	"github.com/ignite/influencer-analytics/internal/domain"
	"github.com/ignite/influencer-analytics/internal/pkg/tmpl"
)

// Bucket maxima.
const (
	MaxDemographic = 30
	MaxGeographic  = 25
	MaxInterest    = 25
	MaxEngagement  = 15
	MaxSafety      = 5
)

// FitLevel labels an overall fit score.
type FitLevel string

const (
	FitExcellent FitLevel = "excellent"
	FitGood      FitLevel = "good"
	FitFair      FitLevel = "fair"
	FitPoor      FitLevel = "poor"
)

// AudienceFitScore is the scored match of one influencer against one brand.
type AudienceFitScore struct {
	InfluencerID      string       `json:"influencer_id"`
	InfluencerName    string       `json:"influencer_name"`
	Brand             domain.Brand `json:"brand"`
	OverallFitScore   int          `json:"overall_fit_score"`
	DemographicFit    int          `json:"demographic_fit"`
	GeographicFit     int          `json:"geographic_fit"`
	InterestAlignment int          `json:"interest_alignment"`
	EngagementQuality int          `json:"engagement_quality"`
	BrandSafetyScore  int          `json:"brand_safety_score"`
	FitLevel          FitLevel     `json:"fit_level"`
	Recommendations   []string     `json:"recommendations"`
}

const (
	recExcellentPartner = "Excellent fit for {{ brand }}: prioritize {{ name }} for a long-term ambassador partnership."
	recExcellentLaunch  = "Use {{ name }} for product launches and exclusive co-branded content."
	recGoodTrial        = "Good fit for {{ brand }}: run a trial campaign with {{ name }} before committing long term."
	recGoodMessaging    = "Align briefs with the brand's core interests ({{ interests | join: \", \" }})."
	recLimited          = "Limited fit for {{ brand }}: consider {{ name }} only for niche or awareness campaigns."
	recDemographic      = "Audience demographics differ from the {{ age_range }} target; tailor creative to that age group."
	recGeographic       = "Geographic overlap is limited; focus content on {{ locations | join: \", \" }}."
	recInterest         = "Audience interests only partly match; brief content around {{ interests | join: \", \" }}."
	recEngagement       = "Engagement is below benchmark; prefer performance-based compensation."
	recSafety           = "Review past content for brand safety before contracting."
)

// Scorer computes fit scores against a fixed brand profile table.
type Scorer struct {
	profiles map[domain.Brand]BrandProfile
}

// NewScorer creates a scorer. A nil or empty table uses DefaultBrandProfiles.
func NewScorer(profiles map[domain.Brand]BrandProfile) *Scorer {
	if len(profiles) == 0 {
		profiles = DefaultBrandProfiles()
	}
	return &Scorer{profiles: profiles}
}

// Profile returns the profile for a brand.
func (s *Scorer) Profile(brand domain.Brand) (BrandProfile, bool) {
	p, ok := s.profiles[brand]
	return p, ok
}

// Brands lists the configured brands in sorted order.
func (s *Scorer) Brands() []domain.Brand {
	out := make([]domain.Brand, 0, len(s.profiles))
	for b := range s.profiles {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CalculateAudienceFit scores one influencer against a brand.
func (s *Scorer) CalculateAudienceFit(inf domain.Influencer, brand domain.Brand) (AudienceFitScore, error) {
	profile, ok := s.profiles[brand]
	if !ok {
		return AudienceFitScore{}, ErrUnknownBrand
	}
	return Score(inf, profile), nil
}

// GetBrandFitRankings scores every influencer and sorts by overall score
// descending, then influencer id.
func (s *Scorer) GetBrandFitRankings(influencers []domain.Influencer, brand domain.Brand) ([]AudienceFitScore, error) {
	profile, ok := s.profiles[brand]
	if !ok {
		return nil, ErrUnknownBrand
	}
	scores := make([]AudienceFitScore, 0, len(influencers))
	for _, inf := range influencers {
		scores = append(scores, Score(inf, profile))
	}
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].OverallFitScore != scores[j].OverallFitScore {
			return scores[i].OverallFitScore > scores[j].OverallFitScore
		}
		return scores[i].InfluencerID < scores[j].InfluencerID
	})
	return scores, nil
}

// Score computes the fit of inf against profile.
func Score(inf domain.Influencer, profile BrandProfile) AudienceFitScore {
	demo := round(demographicFit(inf.AudienceDemographics, profile))
	geo := round(geographicFit(inf.AudienceDemographics.Locations, profile.TargetLocations))
	interest := round(interestAlignment(inf, profile))
	engagement := round(engagementQuality(inf.EngagementRate))
	safety := round(brandSafety(inf.Platform))

	score := AudienceFitScore{
		InfluencerID:      inf.ID,
		InfluencerName:    inf.Name,
		Brand:             profile.Brand,
		DemographicFit:    demo,
		GeographicFit:     geo,
		InterestAlignment: interest,
		EngagementQuality: engagement,
		BrandSafetyScore:  safety,
		OverallFitScore:   demo + geo + interest + engagement + safety,
	}
	score.FitLevel = levelFor(score.OverallFitScore)
	score.Recommendations = recommendations(score, inf, profile)
	return score
}

func demographicFit(d domain.AudienceDemographics, p BrandProfile) float64 {
	var pts float64
	if d.AgeRange == p.TargetAgeRange {
		pts += 15
	} else {
		pts += 8
	}

	diff := math.Abs(d.GenderSplit.Female - p.TargetGenderSplit.Female)
	switch {
	case diff <= 10:
		pts += 15
	case diff <= 20:
		pts += 10
	case diff <= 30:
		pts += 5
	}
	return math.Min(pts, MaxDemographic)
}

func geographicFit(locations, targets []string) float64 {
	if len(locations) == 0 || len(targets) == 0 {
		return 10
	}
	want := toSet(targets)
	overlap := 0
	for l := range toSet(locations) {
		if _, ok := want[l]; ok {
			overlap++
		}
	}
	denom := math.Min(float64(len(toSet(locations))), float64(len(want)))
	return math.Min(float64(overlap)/denom*MaxGeographic, MaxGeographic)
}

func interestAlignment(inf domain.Influencer, p BrandProfile) float64 {
	var pts float64
	if len(p.TargetInterests) > 0 {
		have := toSet(append(CategoryKeywords(inf.Category), inf.AudienceDemographics.Interests...))
		matched := 0
		for _, t := range p.TargetInterests {
			if _, ok := have[normalize(t)]; ok {
				matched++
			}
		}
		pts = float64(matched) / float64(len(p.TargetInterests)) * 15
	}

	switch inf.Platform {
	case domain.PlatformInstagram, domain.PlatformYouTube:
		pts += 10
	default:
		pts += 5
	}
	return math.Min(pts, MaxInterest)
}

func engagementQuality(rate float64) float64 {
	switch {
	case rate >= 6:
		return 15
	case rate >= 4:
		return 12
	case rate >= 2:
		return 8
	default:
		return 4
	}
}

func brandSafety(platform domain.Platform) float64 {
	pts := float64(MaxSafety)
	if platform == domain.PlatformYouTube {
		pts--
	}
	return math.Max(pts, 0)
}

func levelFor(score int) FitLevel {
	switch {
	case score >= 80:
		return FitExcellent
	case score >= 60:
		return FitGood
	case score >= 40:
		return FitFair
	default:
		return FitPoor
	}
}

func recommendations(s AudienceFitScore, inf domain.Influencer, p BrandProfile) []string {
	brandName := p.Name
	if brandName == "" {
		brandName = string(p.Brand)
	}
	vars := map[string]interface{}{
		"brand":     brandName,
		"name":      inf.Name,
		"age_range": p.TargetAgeRange,
		"locations": p.TargetLocations,
		"interests": p.TargetInterests,
	}

	var templates []string
	switch {
	case s.OverallFitScore >= 80:
		templates = append(templates, recExcellentPartner, recExcellentLaunch)
	case s.OverallFitScore >= 60:
		templates = append(templates, recGoodTrial, recGoodMessaging)
	default:
		templates = append(templates, recLimited)
	}
	if s.DemographicFit < 20 {
		templates = append(templates, recDemographic)
	}
	if s.GeographicFit < 15 {
		templates = append(templates, recGeographic)
	}
	if s.InterestAlignment < 15 {
		templates = append(templates, recInterest)
	}
	if s.EngagementQuality < 10 {
		templates = append(templates, recEngagement)
	}
	if s.BrandSafetyScore < 4 {
		templates = append(templates, recSafety)
	}

	out := make([]string, 0, len(templates))
	for _, t := range templates {
		out = append(out, tmpl.Render(t, vars))
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[normalize(v)] = struct{}{}
	}
	return set
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func round(v float64) int {
	return int(math.Round(v))
}
