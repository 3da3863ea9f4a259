package analytics

import (
	"errors"

	"github.com/ignite/influencer-analytics/internal/audience"
)

// Sentinel errors for the analytics service layer.
var (
	ErrUnknownBrand       = audience.ErrUnknownBrand
	ErrInfluencerNotFound = errors.New("influencer not found")
	ErrCampaignNotFound   = errors.New("campaign not found")
	ErrReadOnly           = errors.New("dataset source is read-only")
)
