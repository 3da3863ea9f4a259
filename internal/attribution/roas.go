// Package attribution computes return on ad spend for the influencer channel,
// net of an estimated organic baseline.
package attribution

import (
	"math"

	"github.com/ignite/influencer-analytics/internal/domain"
)

// Params are the calibration constants of the organic-baseline model. They are
// modeling assumptions rather than measured values.
type Params struct {
	// BaselineDiscount scales the organic average order value when estimating
	// what influencer orders would have been worth without the influencer.
	BaselineDiscount float64 `json:"baseline_discount" yaml:"baseline_discount"`
	// OrganicShare is the fraction of influencer orders assumed to have
	// happened anyway.
	OrganicShare float64 `json:"organic_share" yaml:"organic_share"`
}

// DefaultParams returns the calibration used by the dashboard.
func DefaultParams() Params {
	return Params{BaselineDiscount: 0.7, OrganicShare: 0.3}
}

// Scope narrows a calculation to one influencer and/or campaign. Empty fields
// match everything.
type Scope struct {
	InfluencerID string
	CampaignID   string
}

// IncrementalROASMetrics is the output of CalculateIncrementalROAS.
type IncrementalROASMetrics struct {
	TotalRevenue          float64 `json:"total_revenue"`
	TotalOrders           int     `json:"total_orders"`
	TotalSpend            float64 `json:"total_spend"`
	OrganicAvgOrderValue  float64 `json:"organic_avg_order_value"`
	BaselineRevenue       float64 `json:"baseline_revenue"`
	IncrementalRevenue    float64 `json:"incremental_revenue"`
	IncrementalOrders     float64 `json:"incremental_orders"`
	ROAS                  float64 `json:"roas"`
	IncrementalROAS       float64 `json:"incremental_roas"`
	AttributionConfidence float64 `json:"attribution_confidence"`
	CostPerAcquisition    float64 `json:"cost_per_acquisition"`
}

// Calculator computes incremental ROAS with a fixed set of Params.
type Calculator struct {
	params Params
}

// NewCalculator creates a calculator. Zero-valued params fall back to the
// defaults.
func NewCalculator(p Params) *Calculator {
	def := DefaultParams()
	if p.BaselineDiscount <= 0 {
		p.BaselineDiscount = def.BaselineDiscount
	}
	if p.OrganicShare < 0 || p.OrganicShare > 1 {
		p.OrganicShare = def.OrganicShare
	}
	return &Calculator{params: p}
}

// Params returns the calculator's calibration.
func (c *Calculator) Params() Params { return c.params }

// CalculateIncrementalROAS attributes influencer-coupon orders in scope against
// payouts in scope. The organic baseline is always computed over every organic
// event regardless of scope.
func (c *Calculator) CalculateIncrementalROAS(events []domain.TrackingEvent, payouts []domain.Payout, scope Scope) IncrementalROASMetrics {
	var (
		m                 IncrementalROASMetrics
		withCoupon        int
		organicRevenue    float64
		organicOrderCount int
	)

	for _, e := range events {
		if e.AttributionSource == domain.SourceOrganic {
			organicRevenue += e.Revenue
			organicOrderCount++
		}
		if !scope.matchesEvent(e) {
			continue
		}
		if e.AttributionSource != domain.SourceInfluencer || !e.HasCoupon() {
			continue
		}
		m.TotalRevenue += e.Revenue
		m.TotalOrders++
		withCoupon++
	}

	for _, p := range payouts {
		if scope.matchesPayout(p) {
			m.TotalSpend += p.TotalPayout
		}
	}

	m.OrganicAvgOrderValue = safeDiv(organicRevenue, float64(organicOrderCount))
	orders := float64(m.TotalOrders)
	m.BaselineRevenue = orders * m.OrganicAvgOrderValue * c.params.BaselineDiscount
	m.IncrementalRevenue = math.Max(0, m.TotalRevenue-m.BaselineRevenue)
	m.IncrementalOrders = math.Max(0, orders-orders*c.params.OrganicShare)

	m.ROAS = safeDiv(m.TotalRevenue, m.TotalSpend)
	m.IncrementalROAS = safeDiv(m.IncrementalRevenue, m.TotalSpend)
	m.AttributionConfidence = safeDiv(float64(withCoupon), orders) * 100
	m.CostPerAcquisition = safeDiv(m.TotalSpend, orders)
	return m
}

// CalculateIncrementalROAS runs the default calculator.
func CalculateIncrementalROAS(events []domain.TrackingEvent, payouts []domain.Payout, scope Scope) IncrementalROASMetrics {
	return NewCalculator(DefaultParams()).CalculateIncrementalROAS(events, payouts, scope)
}

// ROAS is revenue over spend, 0 when spend is not positive.
func ROAS(revenue, spend float64) float64 {
	return safeDiv(revenue, spend)
}

func (s Scope) matchesEvent(e domain.TrackingEvent) bool {
	if s.InfluencerID != "" && e.AttributionDetails.InfluencerID != s.InfluencerID {
		return false
	}
	if s.CampaignID != "" && e.AttributionDetails.CampaignID != s.CampaignID {
		return false
	}
	return true
}

func (s Scope) matchesPayout(p domain.Payout) bool {
	if s.InfluencerID != "" && p.InfluencerID != s.InfluencerID {
		return false
	}
	if s.CampaignID != "" && p.CampaignID != s.CampaignID {
		return false
	}
	return true
}

func safeDiv(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}
