package anomaly

import (
	"math"
	"sort"
	"time"

	"github.com/ignite/influencer-analytics/internal/attribution"
	"github.com/ignite/influencer-analytics/internal/domain"
	"github.com/ignite/influencer-analytics/internal/pkg/tmpl"
)

// Params are the detection thresholds.
type Params struct {
	// Engagement drop, recent three posts against older posts, in percent.
	EngagementDropHigh     float64 `json:"engagement_drop_high" yaml:"engagement_drop_high"`
	EngagementDropCritical float64 `json:"engagement_drop_critical" yaml:"engagement_drop_critical"`
	RecentPosts            int     `json:"recent_posts" yaml:"recent_posts"`

	LowROASThreshold float64 `json:"low_roas_threshold" yaml:"low_roas_threshold"`
	LowROASMinSpend  float64 `json:"low_roas_min_spend" yaml:"low_roas_min_spend"`

	// ExpectedEngagement is the benchmark engagement rate per platform, in percent.
	ExpectedEngagement map[domain.Platform]float64 `json:"expected_engagement" yaml:"expected_engagement"`
	PlatformMedium     float64                     `json:"platform_medium" yaml:"platform_medium"`
	PlatformHigh       float64                     `json:"platform_high" yaml:"platform_high"`
	PlatformOver       float64                     `json:"platform_over" yaml:"platform_over"`

	OrderWindowDays int     `json:"order_window_days" yaml:"order_window_days"`
	OrderDeviation  float64 `json:"order_deviation" yaml:"order_deviation"`
	OrderHigh       float64 `json:"order_high" yaml:"order_high"`
}

// DefaultParams returns the thresholds used by the dashboard.
func DefaultParams() Params {
	return Params{
		EngagementDropHigh:     25,
		EngagementDropCritical: 50,
		RecentPosts:            3,
		LowROASThreshold:       1.5,
		LowROASMinSpend:        10000,
		ExpectedEngagement: map[domain.Platform]float64{
			domain.PlatformInstagram: 3.5,
			domain.PlatformYouTube:   4.0,
			domain.PlatformTwitter:   2.0,
		},
		PlatformMedium:  20,
		PlatformHigh:    40,
		PlatformOver:    50,
		OrderWindowDays: 7,
		OrderDeviation:  50,
		OrderHigh:       100,
	}
}

const (
	recEngagementRefresh = "Review recent content from {{ name }} and refresh formats that performed well before."
	recEngagementTiming  = "Check posting times and frequency against the audience's active hours."
	recEngagementCheckIn = "Schedule a check-in with {{ name }} about audience feedback."
	recROASPause         = "Pause new spend with {{ name }} until the return recovers above {{ threshold | fixed: 1 }}x."
	recROASRenegotiate   = "Renegotiate toward commission-based payouts to align cost with results."
	recPlatformMix       = "Rebalance the {{ platform }} content mix toward formats with higher engagement."
	recPlatformAudit     = "Audit {{ platform }} influencers individually to find the underperformers."
	recPlatformScale     = "Scale {{ platform }} activity while engagement runs above benchmark."
	recOrderSpike        = "Confirm inventory and fulfillment capacity for the {{ day }} order spike."
	recOrderSpikeSource  = "Trace the {{ day }} spike to its source to repeat what worked."
	recOrderDrop         = "Check checkout, tracking and coupon validity around {{ day }}."
	recOrderDropPromo    = "Consider a short promotion to recover order volume."
)

// Detector runs the anomaly checks with fixed thresholds and clock.
type Detector struct {
	params Params
	nowFn  func() time.Time
}

// NewDetector creates a detector. A nil now uses the wall clock.
func NewDetector(p Params, now func() time.Time) *Detector {
	def := DefaultParams()
	if p.EngagementDropHigh <= 0 {
		p.EngagementDropHigh = def.EngagementDropHigh
	}
	if p.EngagementDropCritical <= 0 {
		p.EngagementDropCritical = def.EngagementDropCritical
	}
	if p.RecentPosts <= 0 {
		p.RecentPosts = def.RecentPosts
	}
	if p.LowROASThreshold <= 0 {
		p.LowROASThreshold = def.LowROASThreshold
	}
	if p.LowROASMinSpend <= 0 {
		p.LowROASMinSpend = def.LowROASMinSpend
	}
	if p.ExpectedEngagement == nil {
		p.ExpectedEngagement = def.ExpectedEngagement
	}
	if p.PlatformMedium <= 0 {
		p.PlatformMedium = def.PlatformMedium
	}
	if p.PlatformHigh <= 0 {
		p.PlatformHigh = def.PlatformHigh
	}
	if p.PlatformOver <= 0 {
		p.PlatformOver = def.PlatformOver
	}
	if p.OrderWindowDays <= 0 {
		p.OrderWindowDays = def.OrderWindowDays
	}
	if p.OrderDeviation <= 0 {
		p.OrderDeviation = def.OrderDeviation
	}
	if p.OrderHigh <= 0 {
		p.OrderHigh = def.OrderHigh
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Detector{params: p, nowFn: now}
}

// DetectAnomalies runs the per-influencer checks: engagement drop and low
// ROAS.
func (d *Detector) DetectAnomalies(influencers []domain.Influencer, posts []domain.Post, events []domain.TrackingEvent, payouts []domain.Payout) []Detection {
	now := d.nowFn()
	out := []Detection{}
	for _, inf := range influencers {
		if det, ok := d.engagementDrop(inf, domain.PostsByInfluencer(posts, inf.ID), now); ok {
			out = append(out, det)
		}
		if det, ok := d.lowROAS(inf, events, payouts, now); ok {
			out = append(out, det)
		}
	}
	Sort(out)
	return out
}

// DetectCrossChannelAnomalies runs the platform benchmark and daily order
// volume checks.
func (d *Detector) DetectCrossChannelAnomalies(influencers []domain.Influencer, posts []domain.Post, events []domain.TrackingEvent) []Detection {
	now := d.nowFn()
	out := []Detection{}
	out = append(out, d.platformDeviations(influencers, posts, now)...)
	out = append(out, d.orderVolume(events, now)...)
	Sort(out)
	return out
}

func (d *Detector) engagementDrop(inf domain.Influencer, posts []domain.Post, now time.Time) (Detection, bool) {
	if len(posts) <= d.params.RecentPosts {
		return Detection{}, false
	}
	sorted := append([]domain.Post(nil), posts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PublishDate.After(sorted[j].PublishDate)
	})

	recent := avgEngagements(sorted[:d.params.RecentPosts])
	prior := avgEngagements(sorted[d.params.RecentPosts:])
	if prior <= 0 {
		return Detection{}, false
	}
	drop := (prior - recent) / prior * 100
	if drop <= d.params.EngagementDropHigh {
		return Detection{}, false
	}

	sev := SeverityHigh
	if drop > d.params.EngagementDropCritical {
		sev = SeverityCritical
	}
	det := New(TypeEngagementDrop, sev, EntityInfluencer, inf.ID, now, now)
	vars := map[string]interface{}{"name": displayName(inf), "drop": drop}
	det.Description = tmpl.Render("Engagement for {{ name }} dropped {{ drop | percentage }} over the last three posts.", vars)
	det.CurrentValue = recent
	det.ExpectedValue = prior
	det.DeviationPct = -drop
	det.Recommendations = render(vars, recEngagementRefresh, recEngagementTiming, recEngagementCheckIn)
	return det, true
}

func (d *Detector) lowROAS(inf domain.Influencer, events []domain.TrackingEvent, payouts []domain.Payout, now time.Time) (Detection, bool) {
	spend := domain.TotalPayout(domain.PayoutsByInfluencer(payouts, inf.ID))
	if spend <= d.params.LowROASMinSpend {
		return Detection{}, false
	}
	revenue := domain.TotalRevenue(domain.EventsByInfluencer(events, inf.ID))
	roas := attribution.ROAS(revenue, spend)
	if roas >= d.params.LowROASThreshold {
		return Detection{}, false
	}

	sev := SeverityMedium
	if roas < 1 {
		sev = SeverityHigh
	}
	det := New(TypeLowROAS, sev, EntityInfluencer, inf.ID, now, now)
	vars := map[string]interface{}{
		"name":      displayName(inf),
		"roas":      roas,
		"spend":     spend,
		"threshold": d.params.LowROASThreshold,
	}
	det.Description = tmpl.Render("{{ name }} returned {{ roas | fixed: 2 }}x on {{ spend | currency }} of spend.", vars)
	det.CurrentValue = roas
	det.ExpectedValue = d.params.LowROASThreshold
	det.DeviationPct = (roas - d.params.LowROASThreshold) / d.params.LowROASThreshold * 100
	det.Recommendations = render(vars, recROASPause, recROASRenegotiate)
	return det, true
}

func (d *Detector) platformDeviations(influencers []domain.Influencer, posts []domain.Post, now time.Time) []Detection {
	platformOf := make(map[string]domain.Platform, len(influencers))
	for _, inf := range influencers {
		platformOf[inf.ID] = inf.Platform
	}

	type acc struct {
		sum   float64
		count int
	}
	byPlatform := make(map[domain.Platform]*acc)
	for _, p := range posts {
		platform := p.Platform
		if platform == "" {
			platform = platformOf[p.InfluencerID]
		}
		if platform == "" {
			continue
		}
		a, ok := byPlatform[platform]
		if !ok {
			a = &acc{}
			byPlatform[platform] = a
		}
		a.sum += p.EngagementRate()
		a.count++
	}

	var out []Detection
	for _, platform := range domain.Platforms {
		a, ok := byPlatform[platform]
		expected := d.params.ExpectedEngagement[platform]
		if !ok || expected <= 0 {
			continue
		}
		actual := a.sum / float64(a.count)
		dev := (actual - expected) / expected * 100

		var (
			typ  Type
			sev  Severity
			recs []string
		)
		switch {
		case dev < -d.params.PlatformHigh:
			typ, sev, recs = TypePlatformUnderperformance, SeverityHigh, []string{recPlatformMix, recPlatformAudit}
		case dev < -d.params.PlatformMedium:
			typ, sev, recs = TypePlatformUnderperformance, SeverityMedium, []string{recPlatformMix, recPlatformAudit}
		case dev > d.params.PlatformOver:
			typ, sev, recs = TypeOverperformance, SeverityLow, []string{recPlatformScale}
		default:
			continue
		}

		det := New(typ, sev, EntityPlatform, string(platform), now, now)
		vars := map[string]interface{}{"platform": string(platform), "actual": actual, "expected": expected}
		det.Description = tmpl.Render("{{ platform }} engagement averages {{ actual | percentage }} against a {{ expected | percentage }} benchmark.", vars)
		det.CurrentValue = actual
		det.ExpectedValue = expected
		det.DeviationPct = dev
		det.Recommendations = render(vars, recs...)
		out = append(out, det)
	}
	return out
}

// orderVolume compares each day's order count with the mean of the preceding
// window, zero-order days included. Days without a full window of history are
// skipped.
func (d *Detector) orderVolume(events []domain.TrackingEvent, now time.Time) []Detection {
	if len(events) == 0 {
		return nil
	}
	counts := make(map[time.Time]int)
	var first, last time.Time
	for i, e := range events {
		day := truncateDay(e.OrderDate)
		counts[day]++
		if i == 0 || day.Before(first) {
			first = day
		}
		if i == 0 || day.After(last) {
			last = day
		}
	}

	window := d.params.OrderWindowDays
	var out []Detection
	for day := first.AddDate(0, 0, window); !day.After(last); day = day.AddDate(0, 0, 1) {
		var sum int
		for k := 1; k <= window; k++ {
			sum += counts[day.AddDate(0, 0, -k)]
		}
		mean := float64(sum) / float64(window)
		if mean <= 0 {
			continue
		}
		current := float64(counts[day])
		dev := (current - mean) / mean * 100
		if math.Abs(dev) <= d.params.OrderDeviation {
			continue
		}

		sev := SeverityMedium
		if math.Abs(dev) > d.params.OrderHigh {
			sev = SeverityHigh
		}
		typ := TypeOrderSpike
		recs := []string{recOrderSpike, recOrderSpikeSource}
		if dev < 0 {
			typ = TypeOrderDrop
			recs = []string{recOrderDrop, recOrderDropPromo}
		}

		label := day.Format("2006-01-02")
		det := New(typ, sev, EntityOrders, label, day, now)
		vars := map[string]interface{}{"day": label, "current": current, "mean": mean, "dev": math.Abs(dev)}
		if typ == TypeOrderSpike {
			det.Description = tmpl.Render("Orders on {{ day }} ran {{ dev | percentage }} above the trailing 7-day average.", vars)
		} else {
			det.Description = tmpl.Render("Orders on {{ day }} ran {{ dev | percentage }} below the trailing 7-day average.", vars)
		}
		det.CurrentValue = current
		det.ExpectedValue = mean
		det.DeviationPct = dev
		det.Recommendations = render(vars, recs...)
		out = append(out, det)
	}
	return out
}

func avgEngagements(posts []domain.Post) float64 {
	if len(posts) == 0 {
		return 0
	}
	var sum int64
	for _, p := range posts {
		sum += p.Engagements()
	}
	return float64(sum) / float64(len(posts))
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func displayName(inf domain.Influencer) string {
	if inf.Name != "" {
		return inf.Name
	}
	return inf.ID
}

func render(vars map[string]interface{}, templates ...string) []string {
	out := make([]string, 0, len(templates))
	for _, t := range templates {
		out = append(out, tmpl.Render(t, vars))
	}
	return out
}

// DetectAnomalies runs the per-influencer checks with default thresholds.
func DetectAnomalies(influencers []domain.Influencer, posts []domain.Post, events []domain.TrackingEvent, payouts []domain.Payout) []Detection {
	return NewDetector(DefaultParams(), nil).DetectAnomalies(influencers, posts, events, payouts)
}

// DetectCrossChannelAnomalies runs the cross-channel checks with default
// thresholds.
func DetectCrossChannelAnomalies(influencers []domain.Influencer, posts []domain.Post, events []domain.TrackingEvent) []Detection {
	return NewDetector(DefaultParams(), nil).DetectCrossChannelAnomalies(influencers, posts, events)
}
