package cohort

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/influencer-analytics/internal/domain"
)

func newCustomerOrder(customer string, date time.Time, revenue float64, source domain.AttributionSource) domain.TrackingEvent {
	return domain.TrackingEvent{
		ID:                "evt-" + customer + date.Format("0102"),
		CustomerID:        customer,
		OrderDate:         date,
		Revenue:           revenue,
		AttributionSource: source,
		IsNewCustomer:     true,
	}
}

func jan(d int) time.Time { return time.Date(2024, 1, d, 12, 0, 0, 0, time.UTC) }

func TestAnalyzeCohorts_Scenario(t *testing.T) {
	var events []domain.TrackingEvent
	for i := 0; i < 10; i++ {
		events = append(events, newCustomerOrder(fmt.Sprintf("c%d", i), jan(i+1), 1500, domain.SourceInfluencer))
	}

	cohorts := AnalyzeCohorts(events)
	require.Len(t, cohorts, 1)

	c := cohorts[0]
	assert.Equal(t, "2024-01_influencer", c.CohortID)
	assert.Equal(t, "2024-01", c.AcquisitionMonth)
	assert.Equal(t, 10, c.InitialCustomers)
	assert.Equal(t, 15000.0, c.TotalRevenue)
	assert.Equal(t, 1500.0, c.AvgOrderValue)
	assert.InDelta(t, 0.75, c.RetentionRates.Month1, 1e-9)
	assert.InDelta(t, 0.60, c.RetentionRates.Month3, 1e-9)
	assert.InDelta(t, 0.45, c.RetentionRates.Month6, 1e-9)
	assert.InDelta(t, 0.30, c.RetentionRates.Month12, 1e-9)
	assert.Equal(t, 0.0, c.RepeatPurchaseRate)
	// 1500 × 1 × (0.525 × 2)
	assert.InDelta(t, 1575.0, c.CustomerLifetimeValue, 1e-6)
}

func TestAnalyzeCohorts_DistinctCustomersAndRepeats(t *testing.T) {
	events := []domain.TrackingEvent{
		newCustomerOrder("a", jan(3), 100, domain.SourceOrganic),
		newCustomerOrder("a", jan(20), 50, domain.SourceOrganic),
		newCustomerOrder("b", jan(5), 150, domain.SourceOrganic),
		// repeat purchase in February, not a new-customer event
		{ID: "r1", CustomerID: "a", OrderDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Revenue: 80, AttributionSource: domain.SourceDirect},
		// orders without a customer id are ignored
		{ID: "anon", OrderDate: jan(6), Revenue: 999, AttributionSource: domain.SourceOrganic, IsNewCustomer: true},
	}

	cohorts := AnalyzeCohorts(events)
	require.Len(t, cohorts, 1)

	c := cohorts[0]
	assert.Equal(t, 2, c.InitialCustomers)
	assert.Equal(t, 300.0, c.TotalRevenue)
	assert.InDelta(t, 100.0, c.AvgOrderValue, 1e-9)
	assert.Equal(t, 50.0, c.RepeatPurchaseRate)
	assert.InDelta(t, 0.65, c.RetentionRates.Month1, 1e-9)

	// 100 × (1 + 0.5×2) × (avg(0.65,0.52,0.39,0.26) × 2)
	assert.InDelta(t, 100*2*(0.455*2), c.CustomerLifetimeValue, 1e-6)
}

func TestAnalyzeCohorts_SortedBySizeThenID(t *testing.T) {
	events := []domain.TrackingEvent{
		newCustomerOrder("a", jan(1), 10, domain.SourcePaidSearch),
		newCustomerOrder("b", jan(1), 10, domain.SourceDirect),
		newCustomerOrder("c", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 10, domain.SourceInfluencer),
		newCustomerOrder("d", time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC), 10, domain.SourceInfluencer),
	}

	cohorts := AnalyzeCohorts(events)
	require.Len(t, cohorts, 3)
	assert.Equal(t, "2024-02_influencer", cohorts[0].CohortID)
	assert.Equal(t, "2024-01_direct", cohorts[1].CohortID)
	assert.Equal(t, "2024-01_paid_search", cohorts[2].CohortID)
	assert.InDelta(t, 0.60, cohorts[1].RetentionRates.Month1, 1e-9)
}

func TestAnalyzeCohorts_RetentionMonotonic(t *testing.T) {
	custom := NewAnalyzer(Params{Decay: RetentionRates{Month1: 1, Month3: 1.2, Month6: 0.5, Month12: 0.7}})
	events := []domain.TrackingEvent{
		newCustomerOrder("a", jan(1), 10, domain.SourceInfluencer),
		newCustomerOrder("b", jan(1), 10, domain.SourceOrganic),
		newCustomerOrder("c", jan(1), 10, domain.SourceDirect),
	}

	for _, a := range []*Analyzer{NewAnalyzer(DefaultParams()), custom} {
		for _, c := range a.AnalyzeCohorts(events) {
			r := c.RetentionRates
			assert.GreaterOrEqual(t, r.Month1, r.Month3, c.CohortID)
			assert.GreaterOrEqual(t, r.Month3, r.Month6, c.CohortID)
			assert.GreaterOrEqual(t, r.Month6, r.Month12, c.CohortID)
		}
	}
}

func TestAnalyzeCohorts_EmptyAndIdempotent(t *testing.T) {
	assert.Empty(t, AnalyzeCohorts(nil))

	events := []domain.TrackingEvent{
		newCustomerOrder("a", jan(1), 10, domain.SourceInfluencer),
		newCustomerOrder("b", jan(2), 20, domain.SourceOrganic),
	}
	assert.Equal(t, AnalyzeCohorts(events), AnalyzeCohorts(events))
}

func TestGetCohortInsights_Empty(t *testing.T) {
	in := GetCohortInsights(nil)
	assert.Equal(t, "N/A", in.BestPerformingSource)
	assert.Equal(t, 0.0, in.AvgCLV)
	assert.Equal(t, TrendInsufficient, in.RetentionTrend)
	assert.Len(t, in.Recommendations, 1)
}

func TestGetCohortInsights(t *testing.T) {
	cohorts := []CustomerCohort{
		{AcquisitionSource: domain.SourceInfluencer, CustomerLifetimeValue: 300, RetentionRates: RetentionRates{Month1: 0.75, Month12: 0.30}},
		{AcquisitionSource: domain.SourceInfluencer, CustomerLifetimeValue: 100, RetentionRates: RetentionRates{Month1: 0.75, Month12: 0.30}},
		{AcquisitionSource: domain.SourceOrganic, CustomerLifetimeValue: 150, RetentionRates: RetentionRates{Month1: 0.65, Month12: 0.26}},
	}

	in := GetCohortInsights(cohorts)
	assert.Equal(t, "influencer", in.BestPerformingSource)
	assert.InDelta(t, 550.0/3, in.AvgCLV, 1e-9)
	assert.Equal(t, TrendDeclining, in.RetentionTrend)
	require.Len(t, in.Recommendations, 4)
	assert.Contains(t, in.Recommendations[0], "Influencer")
	assert.Contains(t, in.Recommendations[0], "$200.00")
	assert.Contains(t, in.Recommendations[1], "declining")
}

func TestGetCohortInsights_StableAndTies(t *testing.T) {
	cohorts := []CustomerCohort{
		{AcquisitionSource: domain.SourceOrganic, CustomerLifetimeValue: 100, RetentionRates: RetentionRates{Month1: 0.6, Month12: 0.5}},
		{AcquisitionSource: domain.SourceDirect, CustomerLifetimeValue: 100, RetentionRates: RetentionRates{Month1: 0.6, Month12: 0.5}},
	}

	in := GetCohortInsights(cohorts)
	assert.Equal(t, "direct", in.BestPerformingSource)
	assert.Equal(t, TrendStable, in.RetentionTrend)
	assert.Contains(t, in.Recommendations[1], "Direct")
}
