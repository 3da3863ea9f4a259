// Package anomaly flags deviations between observed and expected metrics:
// engagement drops, weak ROAS, platform under- or over-performance and
// day-level order volume outliers.
package anomaly

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Severity of a detection. Higher rank sorts first.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities from 0 (low) to 3 (critical). Unknown values rank -1.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 0
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	}
	return -1
}

// Type names what was detected.
type Type string

const (
	TypeEngagementDrop           Type = "engagement_drop"
	TypeLowROAS                  Type = "low_roas"
	TypePlatformUnderperformance Type = "platform_underperformance"
	TypeOverperformance          Type = "overperformance"
	TypeOrderSpike               Type = "order_spike"
	TypeOrderDrop                Type = "order_drop"
	TypeGoalBehind               Type = "goal_behind"
	TypeGoalAtRisk               Type = "goal_at_risk"
)

// Entity types a detection can refer to.
const (
	EntityInfluencer = "influencer"
	EntityPlatform   = "platform"
	EntityOrders     = "orders"
	EntityGoal       = "goal"
)

// Detection is one flagged deviation.
type Detection struct {
	ID              string    `json:"id"`
	Type            Type      `json:"type"`
	Severity        Severity  `json:"severity"`
	EntityType      string    `json:"entity_type"`
	EntityID        string    `json:"entity_id"`
	Description     string    `json:"description"`
	CurrentValue    float64   `json:"current_value"`
	ExpectedValue   float64   `json:"expected_value"`
	DeviationPct    float64   `json:"deviation_pct"`
	Recommendations []string  `json:"recommendations"`
	DetectedAt      time.Time `json:"detected_at"`
}

var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("influencer-analytics/anomaly"))

// DetectionID derives a stable id from the detection type, entity and day so
// repeated runs over the same data produce the same id.
func DetectionID(t Type, entityType, entityID string, day time.Time) string {
	key := string(t) + "|" + entityType + "|" + entityID + "|" + day.UTC().Format("2006-01-02")
	return uuid.NewSHA1(idNamespace, []byte(key)).String()
}

// New creates a detection with its deterministic id set.
func New(t Type, sev Severity, entityType, entityID string, day, detectedAt time.Time) Detection {
	return Detection{
		ID:              DetectionID(t, entityType, entityID, day),
		Type:            t,
		Severity:        sev,
		EntityType:      entityType,
		EntityID:        entityID,
		Recommendations: []string{},
		DetectedAt:      detectedAt,
	}
}

// Sort orders detections by severity descending, then type, then entity id.
func Sort(ds []Detection) {
	sort.SliceStable(ds, func(i, j int) bool {
		a, b := ds[i], ds[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.EntityID < b.EntityID
	})
}
