package domain

import (
	"fmt"
	"strings"
)

// FieldError describes a single malformed record field.
type FieldError struct {
	Entity  string `json:"entity"`
	ID      string `json:"id,omitempty"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every FieldError found in a dataset. It is
// returned instead of computing scores over garbage input.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid dataset"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.ID != "" {
			parts = append(parts, fmt.Sprintf("%s %s: %s %s", f.Entity, f.ID, f.Field, f.Message))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s %s", f.Entity, f.Field, f.Message))
		}
	}
	return "invalid dataset: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(entity, id, field, msg string) {
	e.Fields = append(e.Fields, FieldError{Entity: entity, ID: id, Field: field, Message: msg})
}

// Validate checks the dataset for records that would make scores
// meaningless. It returns nil or a *ValidationError.
func Validate(ds *Dataset) error {
	verr := &ValidationError{}

	for i, inf := range ds.Influencers {
		if inf.ID == "" {
			verr.add("influencer", fmt.Sprintf("#%d", i), "id", "is required")
		}
		if !inf.Platform.Valid() {
			verr.add("influencer", inf.ID, "platform", fmt.Sprintf("unknown value %q", inf.Platform))
		}
		if !inf.Category.Valid() {
			verr.add("influencer", inf.ID, "category", fmt.Sprintf("unknown value %q", inf.Category))
		}
		if inf.FollowerCount < 0 {
			verr.add("influencer", inf.ID, "follower_count", "must not be negative")
		}
		if inf.EngagementRate < 0 {
			verr.add("influencer", inf.ID, "engagement_rate", "must not be negative")
		}
	}

	for i, p := range ds.Posts {
		if p.ID == "" {
			verr.add("post", fmt.Sprintf("#%d", i), "id", "is required")
		}
		if p.InfluencerID == "" {
			verr.add("post", p.ID, "influencer_id", "is required")
		}
		if p.PostType != "" && !p.PostType.Valid() {
			verr.add("post", p.ID, "post_type", fmt.Sprintf("unknown value %q", p.PostType))
		}
		if p.Reach < 0 || p.Impressions < 0 || p.Likes < 0 || p.Comments < 0 || p.Shares < 0 {
			verr.add("post", p.ID, "metrics", "must not be negative")
		}
	}

	for i, e := range ds.TrackingEvents {
		if e.ID == "" {
			verr.add("tracking_event", fmt.Sprintf("#%d", i), "id", "is required")
		}
		if e.Revenue < 0 {
			verr.add("tracking_event", e.ID, "revenue", "must not be negative")
		}
		if e.OrderDate.IsZero() {
			verr.add("tracking_event", e.ID, "order_date", "is required")
		}
		if !e.AttributionSource.Valid() {
			verr.add("tracking_event", e.ID, "attribution_source", fmt.Sprintf("unknown value %q", e.AttributionSource))
		}
	}

	for i, p := range ds.Payouts {
		if p.ID == "" {
			verr.add("payout", fmt.Sprintf("#%d", i), "id", "is required")
		}
		if p.TotalPayout < 0 {
			verr.add("payout", p.ID, "total_payout", "must not be negative")
		}
		if p.Basis != "" && !p.Basis.Valid() {
			verr.add("payout", p.ID, "payout_basis", fmt.Sprintf("unknown value %q", p.Basis))
		}
	}

	for i, c := range ds.Campaigns {
		if c.ID == "" {
			verr.add("campaign", fmt.Sprintf("#%d", i), "id", "is required")
		}
		if c.Budget < 0 {
			verr.add("campaign", c.ID, "budget", "must not be negative")
		}
		if c.Status != "" && !c.Status.Valid() {
			verr.add("campaign", c.ID, "status", fmt.Sprintf("unknown value %q", c.Status))
		}
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}
