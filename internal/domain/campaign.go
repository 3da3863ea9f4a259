package domain

import (
	"time"
)

// Brand identifies a brand profile (e.g. "vitalfuel").
type Brand string

// CampaignStatus enumerates the lifecycle states of a campaign.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
)

// Valid reports whether s is a known campaign status.
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignDraft, CampaignActive, CampaignPaused, CampaignCompleted:
		return true
	}
	return false
}

// Campaign is the scoping key for per-campaign aggregation.
type Campaign struct {
	ID        string         `json:"id" db:"id"`
	Name      string         `json:"name" db:"name"`
	Brand     Brand          `json:"brand" db:"brand"`
	Budget    float64        `json:"budget" db:"budget"`
	StartDate time.Time      `json:"start_date" db:"start_date"`
	EndDate   time.Time      `json:"end_date" db:"end_date"`
	Status    CampaignStatus `json:"status" db:"status"`
}

// IsTerminal returns true if the campaign is finished.
func (c *Campaign) IsTerminal() bool {
	return c.Status == CampaignCompleted
}
