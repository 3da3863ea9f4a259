package domain

import "time"

// AttributionSource enumerates the channels an order can be attributed to.
type AttributionSource string

const (
	SourceInfluencer AttributionSource = "influencer"
	SourceOrganic    AttributionSource = "organic"
	SourcePaidSearch AttributionSource = "paid_search"
	SourceDirect     AttributionSource = "direct"
)

// Valid reports whether s is a known attribution source.
func (s AttributionSource) Valid() bool {
	switch s {
	case SourceInfluencer, SourceOrganic, SourcePaidSearch, SourceDirect:
		return true
	}
	return false
}

// AttributionDetails carries the optional identifiers linking an order back
// to an influencer touchpoint.
type AttributionDetails struct {
	InfluencerID string `json:"influencer_id,omitempty" db:"influencer_id"`
	CampaignID   string `json:"campaign_id,omitempty" db:"campaign_id"`
	CouponCode   string `json:"coupon_code,omitempty" db:"coupon_code"`
	PostID       string `json:"post_id,omitempty" db:"post_id"`
}

// TrackingEvent is a single order / conversion.
type TrackingEvent struct {
	ID                 string             `json:"id" db:"id"`
	CustomerID         string             `json:"customer_id" db:"customer_id"`
	OrderDate          time.Time          `json:"order_date" db:"order_date"`
	Revenue            float64            `json:"revenue" db:"revenue"`
	AttributionSource  AttributionSource  `json:"attribution_source" db:"attribution_source"`
	AttributionDetails AttributionDetails `json:"attribution_details"`
	IsNewCustomer      bool               `json:"is_new_customer" db:"is_new_customer"`
}

// HasCoupon reports whether the order was placed with a coupon code.
func (e TrackingEvent) HasCoupon() bool {
	return e.AttributionDetails.CouponCode != ""
}
