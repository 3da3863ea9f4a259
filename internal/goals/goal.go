// Package goals tracks performance goals against the tracked dataset.
//
// A goal's current value, progress and status are recomputed from the records
// every time it is refreshed; nothing about a goal's history is stored beyond
// the last computed snapshot. Goals are persisted through a Store so the API
// and the report worker see the same registry.
package goals

import (
	"errors"
	"time"
)

// Sentinel errors for goal operations.
var (
	ErrNotFound    = errors.New("goal not found")
	ErrInvalidGoal = errors.New("invalid goal")
)

// Metric is the quantity a goal measures.
type Metric string

const (
	MetricRevenue    Metric = "revenue"
	MetricROAS       Metric = "roas"
	MetricOrders     Metric = "orders"
	MetricEngagement Metric = "engagement"
	MetricReach      Metric = "reach"
)

// Valid reports whether m is a known metric.
func (m Metric) Valid() bool {
	switch m {
	case MetricRevenue, MetricROAS, MetricOrders, MetricEngagement, MetricReach:
		return true
	}
	return false
}

// Status is the recomputed state of a goal.
type Status string

const (
	StatusOnTrack  Status = "on_track"
	StatusAtRisk   Status = "at_risk"
	StatusBehind   Status = "behind"
	StatusExceeded Status = "exceeded"
)

// Goal is a target value for one metric over a time window, optionally scoped
// to an influencer and/or campaign.
type Goal struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Metric             Metric    `json:"metric"`
	TargetValue        float64   `json:"target_value"`
	CurrentValue       float64   `json:"current_value"`
	ProgressPercentage float64   `json:"progress_percentage"`
	ExpectedProgress   float64   `json:"expected_progress"`
	Status             Status    `json:"status"`
	InfluencerID       string    `json:"influencer_id,omitempty"`
	CampaignID         string    `json:"campaign_id,omitempty"`
	StartDate          time.Time `json:"start_date"`
	Deadline           time.Time `json:"deadline"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// CreateInput holds the caller-supplied fields of a new goal. A zero
// StartDate means the goal starts at creation time.
type CreateInput struct {
	Name         string    `json:"name"`
	Metric       Metric    `json:"metric"`
	TargetValue  float64   `json:"target_value"`
	InfluencerID string    `json:"influencer_id,omitempty"`
	CampaignID   string    `json:"campaign_id,omitempty"`
	StartDate    time.Time `json:"start_date"`
	Deadline     time.Time `json:"deadline"`
}
