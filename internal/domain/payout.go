package domain

// PayoutBasis enumerates how an influencer is compensated.
type PayoutBasis string

const (
	PayoutFlatFee    PayoutBasis = "flat_fee"
	PayoutCommission PayoutBasis = "commission"
	PayoutHybrid     PayoutBasis = "hybrid"
)

// Valid reports whether b is a known payout basis.
func (b PayoutBasis) Valid() bool {
	switch b {
	case PayoutFlatFee, PayoutCommission, PayoutHybrid:
		return true
	}
	return false
}

// PayoutStatus enumerates the settlement states of a payout.
type PayoutStatus string

const (
	PayoutPending    PayoutStatus = "pending"
	PayoutProcessing PayoutStatus = "processing"
	PayoutPaid       PayoutStatus = "paid"
	PayoutFailed     PayoutStatus = "failed"
)

// Payout is the spend side of ROAS.
type Payout struct {
	ID               string       `json:"id" db:"id"`
	InfluencerID     string       `json:"influencer_id" db:"influencer_id"`
	CampaignID       string       `json:"campaign_id" db:"campaign_id"`
	Basis            PayoutBasis  `json:"payout_basis" db:"payout_basis"`
	Rate             float64      `json:"rate" db:"rate"`
	FixedFee         float64      `json:"fixed_fee" db:"fixed_fee"`
	CommissionEarned float64      `json:"commission_earned" db:"commission_earned"`
	TotalPayout      float64      `json:"total_payout" db:"total_payout"`
	Status           PayoutStatus `json:"status" db:"status"`
}

// ComputeTotal returns FixedFee + CommissionEarned, the derived total.
func (p Payout) ComputeTotal() float64 {
	return p.FixedFee + p.CommissionEarned
}
