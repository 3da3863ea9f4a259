// Package predictive forecasts influencer performance, scores influencers for
// discovery, and suggests budget moves within a campaign.
//
// All randomness comes from a RandomSource so forecasts are reproducible with
// a fixed seed.
package predictive

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/ignite/influencer-analytics/internal/audience"
	"github.com/ignite/influencer-analytics/internal/domain"
)

// RandomSource yields pseudo-random numbers in [0, 1).
type RandomSource interface {
	Float64() float64
}

type seededSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededSource returns a goroutine-safe RandomSource with a fixed seed.
func NewSeededSource(seed int64) RandomSource {
	return &seededSource{rng: rand.New(rand.NewSource(seed))}
}

func (s *seededSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// FixedSource always returns the same value. Useful in tests and for
// disabling jitter (FixedSource(0)).
type FixedSource float64

// Float64 implements RandomSource.
func (f FixedSource) Float64() float64 { return float64(f) }

// Params are the static multiplier tables and fallback estimates of the
// forecasting model.
type Params struct {
	PlatformMultipliers map[domain.Platform]float64 `json:"platform_multipliers" yaml:"platform_multipliers"`
	CategoryMultipliers map[domain.Category]float64 `json:"category_multipliers" yaml:"category_multipliers"`
	// SeasonalityByMonth is indexed by time.Month - 1.
	SeasonalityByMonth [12]float64 `json:"seasonality_by_month" yaml:"seasonality_by_month"`
	GrowthJitter       float64     `json:"growth_jitter" yaml:"growth_jitter"`
	ConfidenceBand     float64     `json:"confidence_band" yaml:"confidence_band"`
	HorizonDays        int         `json:"horizon_days" yaml:"horizon_days"`

	// Estimates used when an influencer has no post history.
	FallbackReachRate      float64 `json:"fallback_reach_rate" yaml:"fallback_reach_rate"`
	FallbackConversionRate float64 `json:"fallback_conversion_rate" yaml:"fallback_conversion_rate"`
	FallbackOrderValue     float64 `json:"fallback_order_value" yaml:"fallback_order_value"`
}

// DefaultParams returns the tables used by the dashboard.
func DefaultParams() Params {
	return Params{
		PlatformMultipliers: map[domain.Platform]float64{
			domain.PlatformInstagram: 1.0,
			domain.PlatformYouTube:   1.2,
			domain.PlatformTwitter:   0.8,
		},
		CategoryMultipliers: map[domain.Category]float64{
			domain.CategoryFitness:      1.1,
			domain.CategoryNutrition:    1.0,
			domain.CategoryWellness:     0.95,
			domain.CategoryBodybuilding: 1.05,
		},
		SeasonalityByMonth:     [12]float64{1.3, 1.1, 1.0, 1.0, 1.05, 1.1, 1.0, 0.95, 1.05, 1.0, 0.9, 0.85},
		GrowthJitter:           0.1,
		ConfidenceBand:         0.2,
		HorizonDays:            30,
		FallbackReachRate:      0.15,
		FallbackConversionRate: 0.002,
		FallbackOrderValue:     75,
	}
}

// Options configures an Engine. Zero values are replaced by defaults.
type Options struct {
	Random   RandomSource
	Now      func() time.Time
	Audience *audience.Scorer
	Params   *Params
}

// Engine runs forecasts, discovery scoring and campaign optimization.
type Engine struct {
	rng      RandomSource
	nowFn    func() time.Time
	audience *audience.Scorer
	params   Params
}

// NewEngine creates an engine.
func NewEngine(opts Options) *Engine {
	e := &Engine{
		rng:      opts.Random,
		nowFn:    opts.Now,
		audience: opts.Audience,
		params:   DefaultParams(),
	}
	if e.rng == nil {
		e.rng = NewSeededSource(1)
	}
	if e.nowFn == nil {
		e.nowFn = func() time.Time { return time.Now().UTC() }
	}
	if e.audience == nil {
		e.audience = audience.NewScorer(nil)
	}
	if opts.Params != nil {
		e.params = mergeParams(*opts.Params, e.params)
	}
	return e
}

func mergeParams(p, def Params) Params {
	if p.PlatformMultipliers == nil {
		p.PlatformMultipliers = def.PlatformMultipliers
	}
	if p.CategoryMultipliers == nil {
		p.CategoryMultipliers = def.CategoryMultipliers
	}
	if p.SeasonalityByMonth == ([12]float64{}) {
		p.SeasonalityByMonth = def.SeasonalityByMonth
	}
	if p.GrowthJitter < 0 {
		p.GrowthJitter = def.GrowthJitter
	}
	if p.ConfidenceBand <= 0 || p.ConfidenceBand >= 1 {
		p.ConfidenceBand = def.ConfidenceBand
	}
	if p.HorizonDays <= 0 {
		p.HorizonDays = def.HorizonDays
	}
	if p.FallbackReachRate <= 0 {
		p.FallbackReachRate = def.FallbackReachRate
	}
	if p.FallbackConversionRate <= 0 {
		p.FallbackConversionRate = def.FallbackConversionRate
	}
	if p.FallbackOrderValue <= 0 {
		p.FallbackOrderValue = def.FallbackOrderValue
	}
	return p
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func safeDiv(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}

func round(v float64) int {
	return int(math.Round(v))
}
