package cohort

import (
	"sort"

	"github.com/ignite/influencer-analytics/internal/pkg/tmpl"
)

// Retention trend labels.
const (
	TrendStable       = "stable"
	TrendDeclining    = "declining"
	TrendInsufficient = "insufficient data"
)

// Insights aggregates a set of cohorts for the dashboard summary card.
type Insights struct {
	BestPerformingSource string   `json:"bestPerformingSource"`
	AvgCLV               float64  `json:"avgCLV"`
	RetentionTrend       string   `json:"retentionTrend"`
	Recommendations      []string `json:"recommendations"`
}

const (
	recBestSource       = "Increase investment in {{ best_source | title }} acquisition: its cohorts show the highest average lifetime value ({{ best_clv | currency }})."
	recDeclining        = "Retention is declining over 12 months; launch win-back and loyalty campaigns for cohorts past their first quarter."
	recStable           = "Retention holds steady over 12 months; scale acquisition through {{ best_source | title }} while monitoring cohort quality."
	recRepeatPurchase   = "Drive a second purchase within 90 days of acquisition with replenishment reminders and bundle offers."
	recTrackMonthly     = "Review cohort lifetime value monthly against acquisition cost to keep channel spend profitable."
	recInsufficientData = "Collect more new-customer orders to enable cohort analysis."
)

// GetCohortInsights summarizes cohorts. Best source is the source with the
// highest mean CLV; ties resolve alphabetically.
func (a *Analyzer) GetCohortInsights(cohorts []CustomerCohort) Insights {
	if len(cohorts) == 0 {
		return Insights{
			BestPerformingSource: "N/A",
			RetentionTrend:       TrendInsufficient,
			Recommendations:      []string{tmpl.Render(recInsufficientData, nil)},
		}
	}

	type sourceAcc struct {
		clv   float64
		count int
	}
	bySource := make(map[string]*sourceAcc)
	var totalCLV, month1, month12 float64
	for _, c := range cohorts {
		src := string(c.AcquisitionSource)
		acc, ok := bySource[src]
		if !ok {
			acc = &sourceAcc{}
			bySource[src] = acc
		}
		acc.clv += c.CustomerLifetimeValue
		acc.count++
		totalCLV += c.CustomerLifetimeValue
		month1 += c.RetentionRates.Month1
		month12 += c.RetentionRates.Month12
	}

	sources := make([]string, 0, len(bySource))
	for s := range bySource {
		sources = append(sources, s)
	}
	sort.Strings(sources)

	best, bestCLV := "", -1.0
	for _, s := range sources {
		avg := bySource[s].clv / float64(bySource[s].count)
		if avg > bestCLV {
			best, bestCLV = s, avg
		}
	}

	n := float64(len(cohorts))
	trend := TrendDeclining
	if month12/n >= a.params.StableRetentionRatio*(month1/n) {
		trend = TrendStable
	}

	vars := map[string]interface{}{
		"best_source": best,
		"best_clv":    bestCLV,
	}
	trendRec := recDeclining
	if trend == TrendStable {
		trendRec = recStable
	}

	return Insights{
		BestPerformingSource: best,
		AvgCLV:               totalCLV / n,
		RetentionTrend:       trend,
		Recommendations: []string{
			tmpl.Render(recBestSource, vars),
			tmpl.Render(trendRec, vars),
			tmpl.Render(recRepeatPurchase, vars),
			tmpl.Render(recTrackMonthly, vars),
		},
	}
}

// GetCohortInsights runs the default analyzer.
func GetCohortInsights(cohorts []CustomerCohort) Insights {
	return NewAnalyzer(DefaultParams()).GetCohortInsights(cohorts)
}
