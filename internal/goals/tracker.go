package goals

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/influencer-analytics/internal/anomaly"
	"github.com/ignite/influencer-analytics/internal/domain"
	"github.com/ignite/influencer-analytics/internal/pkg/tmpl"
)

// Tracker creates goals and keeps their progress current. It is safe for
// concurrent use if the underlying store is.
type Tracker struct {
	store Store
	nowFn func() time.Time
	newID func() string
}

// NewTracker creates a tracker. A nil store uses a MemoryStore; a nil now
// uses the wall clock.
func NewTracker(store Store, now func() time.Time) *Tracker {
	if store == nil {
		store = NewMemoryStore()
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Tracker{store: store, nowFn: now, newID: func() string { return uuid.New().String() }}
}

// Validate checks the caller-supplied fields of a goal.
func (in CreateInput) Validate() error {
	var problems []string
	if strings.TrimSpace(in.Name) == "" {
		problems = append(problems, "name is required")
	}
	if !in.Metric.Valid() {
		problems = append(problems, fmt.Sprintf("unknown metric %q", in.Metric))
	}
	if in.TargetValue <= 0 || math.IsNaN(in.TargetValue) || math.IsInf(in.TargetValue, 0) {
		problems = append(problems, "target_value must be positive")
	}
	if in.Deadline.IsZero() {
		problems = append(problems, "deadline is required")
	} else if !in.StartDate.IsZero() && !in.Deadline.After(in.StartDate) {
		problems = append(problems, "deadline must be after start_date")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidGoal, strings.Join(problems, "; "))
	}
	return nil
}

// CreateGoal validates input, computes the goal's initial progress from ds
// and stores it.
func (t *Tracker) CreateGoal(ctx context.Context, in CreateInput, ds *domain.Dataset) (Goal, error) {
	if err := in.Validate(); err != nil {
		return Goal{}, err
	}
	now := t.nowFn()
	start := in.StartDate
	if start.IsZero() {
		start = now
	}
	if !in.Deadline.After(start) {
		return Goal{}, fmt.Errorf("%w: deadline must be after start_date", ErrInvalidGoal)
	}

	g := Goal{
		ID:           t.newID(),
		Name:         strings.TrimSpace(in.Name),
		Metric:       in.Metric,
		TargetValue:  in.TargetValue,
		InfluencerID: in.InfluencerID,
		CampaignID:   in.CampaignID,
		StartDate:    start,
		Deadline:     in.Deadline,
		CreatedAt:    now,
	}
	g = Evaluate(g, ds, now)
	if err := t.store.Save(ctx, g); err != nil {
		return Goal{}, fmt.Errorf("save goal: %w", err)
	}
	return g, nil
}

// UpdateGoalProgress recomputes one goal from ds and stores the result.
func (t *Tracker) UpdateGoalProgress(ctx context.Context, id string, ds *domain.Dataset) (Goal, error) {
	g, err := t.store.Get(ctx, id)
	if err != nil {
		return Goal{}, err
	}
	g = Evaluate(g, ds, t.nowFn())
	if err := t.store.Save(ctx, g); err != nil {
		return Goal{}, fmt.Errorf("save goal %s: %w", id, err)
	}
	return g, nil
}

// UpdateAll recomputes every stored goal.
func (t *Tracker) UpdateAll(ctx context.Context, ds *domain.Dataset) ([]Goal, error) {
	all, err := t.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	now := t.nowFn()
	out := make([]Goal, 0, len(all))
	for _, g := range all {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		g = Evaluate(g, ds, now)
		if err := t.store.Save(ctx, g); err != nil {
			return out, fmt.Errorf("save goal %s: %w", g.ID, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// Get returns a stored goal.
func (t *Tracker) Get(ctx context.Context, id string) (Goal, error) {
	return t.store.Get(ctx, id)
}

// List returns every stored goal.
func (t *Tracker) List(ctx context.Context) ([]Goal, error) {
	return t.store.List(ctx)
}

// Delete removes a goal.
func (t *Tracker) Delete(ctx context.Context, id string) error {
	return t.store.Delete(ctx, id)
}

// GenerateGoalAlerts emits one alert per behind, at-risk or exceeded goal
// using the tracker's clock.
func (t *Tracker) GenerateGoalAlerts(gs []Goal) []anomaly.Detection {
	return GenerateGoalAlerts(gs, t.nowFn())
}

const (
	descBehind      = "{{ name }} is behind: {{ progress | percentage }} complete against {{ expected | percentage }} of the window elapsed, {{ days }} days left."
	descAtRisk      = "{{ name }} is at risk: {{ progress | percentage }} complete against {{ expected | percentage }} of the window elapsed, {{ days }} days left."
	descExceeded    = "{{ name }} exceeded its {{ metric | title }} target of {{ target | fixed: 2 }} with {{ current | fixed: 2 }}."
	recIncrease     = "Increase posting frequency with the strongest influencers in scope."
	recReallocate   = "Move budget toward influencers with the highest ROAS for this {{ metric | title }} goal."
	recReviewTarget = "Review whether the {{ metric | title }} target is still realistic for the remaining {{ days }} days."
	recMonitor      = "Monitor {{ metric | title }} daily until the deadline."
	recRaiseTarget  = "Consider raising the target or extending the goal to capture the momentum."
	recScaleWinners = "Scale the content and influencers driving this result."
)

// GenerateGoalAlerts emits one alert per behind, at-risk or exceeded goal.
// Severity depends on the days left before the deadline.
func GenerateGoalAlerts(gs []Goal, now time.Time) []anomaly.Detection {
	out := []anomaly.Detection{}
	for _, g := range gs {
		days := daysLeft(g, now)
		vars := map[string]interface{}{
			"name":     g.Name,
			"metric":   string(g.Metric),
			"progress": g.ProgressPercentage,
			"expected": g.ExpectedProgress,
			"target":   g.TargetValue,
			"current":  g.CurrentValue,
			"days":     days,
		}

		var (
			det  anomaly.Detection
			desc string
			recs []string
		)
		switch g.Status {
		case StatusBehind:
			sev := anomaly.SeverityMedium
			if days <= 7 {
				sev = anomaly.SeverityCritical
			} else if days <= 14 {
				sev = anomaly.SeverityHigh
			}
			det = anomaly.New(anomaly.TypeGoalBehind, sev, anomaly.EntityGoal, g.ID, now, now)
			desc, recs = descBehind, []string{recIncrease, recReallocate, recReviewTarget}
		case StatusAtRisk:
			sev := anomaly.SeverityLow
			if days <= 7 {
				sev = anomaly.SeverityHigh
			} else if days <= 14 {
				sev = anomaly.SeverityMedium
			}
			det = anomaly.New(anomaly.TypeGoalAtRisk, sev, anomaly.EntityGoal, g.ID, now, now)
			desc, recs = descAtRisk, []string{recIncrease, recMonitor}
		case StatusExceeded:
			det = anomaly.New(anomaly.TypeOverperformance, anomaly.SeverityLow, anomaly.EntityGoal, g.ID, now, now)
			desc, recs = descExceeded, []string{recRaiseTarget, recScaleWinners}
		default:
			continue
		}

		det.Description = tmpl.Render(desc, vars)
		det.CurrentValue = g.CurrentValue
		if g.Status == StatusExceeded {
			det.ExpectedValue = g.TargetValue
		} else {
			det.ExpectedValue = g.TargetValue * g.ExpectedProgress / 100
		}
		if det.ExpectedValue > 0 {
			det.DeviationPct = (det.CurrentValue - det.ExpectedValue) / det.ExpectedValue * 100
		}
		for _, r := range recs {
			det.Recommendations = append(det.Recommendations, tmpl.Render(r, vars))
		}
		out = append(out, det)
	}
	anomaly.Sort(out)
	return out
}

// daysLeft is the whole number of days until the deadline, rounded up and
// never negative.
func daysLeft(g Goal, now time.Time) int {
	d := g.Deadline.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Hours() / 24))
}
