// Package cohort groups new-customer orders into acquisition cohorts and
// estimates retention and customer lifetime value for each.
//
// Retention is a simulated decay curve: a source-dependent base rate scaled
// by fixed horizon factors. It is not measured from longitudinal data.
package cohort

import (
	"math"
	"sort"
	"time"

	"github.com/ignite/influencer-analytics/internal/domain"
)

// RetentionRates holds the retention estimate at each horizon. Values are
// fractions in [0, 1] and never increase with the horizon.
type RetentionRates struct {
	Month1  float64 `json:"month_1"`
	Month3  float64 `json:"month_3"`
	Month6  float64 `json:"month_6"`
	Month12 float64 `json:"month_12"`
}

func (r RetentionRates) average() float64 {
	return (r.Month1 + r.Month3 + r.Month6 + r.Month12) / 4
}

// CustomerCohort summarizes the customers acquired in one month through one
// attribution source.
type CustomerCohort struct {
	CohortID              string                   `json:"cohort_id"`
	AcquisitionMonth      string                   `json:"acquisition_month"`
	AcquisitionSource     domain.AttributionSource `json:"acquisition_source"`
	InitialCustomers      int                      `json:"initial_customers"`
	TotalRevenue          float64                  `json:"total_revenue"`
	AvgOrderValue         float64                  `json:"avg_order_value"`
	RetentionRates        RetentionRates           `json:"retention_rates"`
	RepeatPurchaseRate    float64                  `json:"repeat_purchase_rate"`
	CustomerLifetimeValue float64                  `json:"customer_lifetime_value"`
}

// Params are the simulation constants of the retention and CLV model.
type Params struct {
	BaseRetention        map[domain.AttributionSource]float64 `json:"base_retention" yaml:"base_retention"`
	DefaultRetention     float64                              `json:"default_retention" yaml:"default_retention"`
	Decay                RetentionRates                       `json:"decay" yaml:"decay"`
	FrequencyMultiplier  float64                              `json:"frequency_multiplier" yaml:"frequency_multiplier"`
	LifespanMultiplier   float64                              `json:"lifespan_multiplier" yaml:"lifespan_multiplier"`
	StableRetentionRatio float64                              `json:"stable_retention_ratio" yaml:"stable_retention_ratio"`
}

// DefaultParams returns the constants used by the dashboard.
func DefaultParams() Params {
	return Params{
		BaseRetention: map[domain.AttributionSource]float64{
			domain.SourceInfluencer: 0.75,
			domain.SourceOrganic:    0.65,
		},
		DefaultRetention:     0.60,
		Decay:                RetentionRates{Month1: 1.0, Month3: 0.8, Month6: 0.6, Month12: 0.4},
		FrequencyMultiplier:  2,
		LifespanMultiplier:   2,
		StableRetentionRatio: 0.5,
	}
}

// Analyzer builds cohorts with a fixed set of Params.
type Analyzer struct {
	params Params
}

// NewAnalyzer creates an analyzer. Missing params fall back to the defaults.
func NewAnalyzer(p Params) *Analyzer {
	def := DefaultParams()
	if p.BaseRetention == nil {
		p.BaseRetention = def.BaseRetention
	}
	if p.DefaultRetention <= 0 {
		p.DefaultRetention = def.DefaultRetention
	}
	if p.Decay == (RetentionRates{}) {
		p.Decay = def.Decay
	}
	if p.FrequencyMultiplier <= 0 {
		p.FrequencyMultiplier = def.FrequencyMultiplier
	}
	if p.LifespanMultiplier <= 0 {
		p.LifespanMultiplier = def.LifespanMultiplier
	}
	if p.StableRetentionRatio <= 0 {
		p.StableRetentionRatio = def.StableRetentionRatio
	}
	return &Analyzer{params: p}
}

type cohortKey struct {
	month  string
	source domain.AttributionSource
}

type cohortAcc struct {
	customers map[string]struct{}
	revenue   float64
	orders    int
}

// AnalyzeCohorts groups new-customer events by acquisition month and source.
// Repeat purchases are searched across every event, new-customer or not.
// Output is sorted by initial customers descending, then cohort id.
func (a *Analyzer) AnalyzeCohorts(events []domain.TrackingEvent) []CustomerCohort {
	groups := make(map[cohortKey]*cohortAcc)
	for _, e := range events {
		if !e.IsNewCustomer || e.CustomerID == "" {
			continue
		}
		key := cohortKey{month: monthKey(e.OrderDate), source: e.AttributionSource}
		acc, ok := groups[key]
		if !ok {
			acc = &cohortAcc{customers: make(map[string]struct{})}
			groups[key] = acc
		}
		acc.customers[e.CustomerID] = struct{}{}
		acc.revenue += e.Revenue
		acc.orders++
	}

	lastOrder := make(map[string]time.Time)
	for _, e := range events {
		if e.CustomerID == "" {
			continue
		}
		if t, ok := lastOrder[e.CustomerID]; !ok || e.OrderDate.After(t) {
			lastOrder[e.CustomerID] = e.OrderDate
		}
	}

	cohorts := make([]CustomerCohort, 0, len(groups))
	for key, acc := range groups {
		n := len(acc.customers)
		if n == 0 {
			continue
		}

		c := CustomerCohort{
			CohortID:          key.month + "_" + string(key.source),
			AcquisitionMonth:  key.month,
			AcquisitionSource: key.source,
			InitialCustomers:  n,
			TotalRevenue:      acc.revenue,
		}
		if acc.orders > 0 {
			c.AvgOrderValue = acc.revenue / float64(acc.orders)
		}
		c.RetentionRates = a.retention(key.source)

		nextMonth := nextMonthStart(key.month)
		repeat := 0
		for id := range acc.customers {
			if t, ok := lastOrder[id]; ok && !t.Before(nextMonth) {
				repeat++
			}
		}
		c.RepeatPurchaseRate = float64(repeat) / float64(n) * 100

		frequency := 1 + (c.RepeatPurchaseRate/100)*a.params.FrequencyMultiplier
		lifespan := c.RetentionRates.average() * a.params.LifespanMultiplier
		c.CustomerLifetimeValue = c.AvgOrderValue * frequency * lifespan

		cohorts = append(cohorts, c)
	}

	sort.Slice(cohorts, func(i, j int) bool {
		if cohorts[i].InitialCustomers != cohorts[j].InitialCustomers {
			return cohorts[i].InitialCustomers > cohorts[j].InitialCustomers
		}
		return cohorts[i].CohortID < cohorts[j].CohortID
	})
	return cohorts
}

func (a *Analyzer) retention(source domain.AttributionSource) RetentionRates {
	base, ok := a.params.BaseRetention[source]
	if !ok {
		base = a.params.DefaultRetention
	}
	d := a.params.Decay
	r := RetentionRates{Month1: clamp01(base * d.Month1)}
	// later horizons never exceed earlier ones, even with custom decay factors
	r.Month3 = math.Min(r.Month1, clamp01(base*d.Month3))
	r.Month6 = math.Min(r.Month3, clamp01(base*d.Month6))
	r.Month12 = math.Min(r.Month6, clamp01(base*d.Month12))
	return r
}

// AnalyzeCohorts runs the default analyzer.
func AnalyzeCohorts(events []domain.TrackingEvent) []CustomerCohort {
	return NewAnalyzer(DefaultParams()).AnalyzeCohorts(events)
}

func monthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

func nextMonthStart(month string) time.Time {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}
	}
	return t.AddDate(0, 1, 0)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
