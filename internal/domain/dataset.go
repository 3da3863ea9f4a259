package domain

// Dataset is one immutable snapshot of every record an analysis run needs.
// Scoring functions treat it as read-only for the duration of a computation.
type Dataset struct {
	Influencers    []Influencer    `json:"influencers"`
	Posts          []Post          `json:"posts"`
	TrackingEvents []TrackingEvent `json:"tracking_events"`
	Payouts        []Payout        `json:"payouts"`
	Campaigns      []Campaign      `json:"campaigns"`
}

// Influencer returns the influencer with the given id.
func (d *Dataset) Influencer(id string) (Influencer, bool) {
	for _, inf := range d.Influencers {
		if inf.ID == id {
			return inf, true
		}
	}
	return Influencer{}, false
}

// Campaign returns the campaign with the given id.
func (d *Dataset) Campaign(id string) (Campaign, bool) {
	for _, c := range d.Campaigns {
		if c.ID == id {
			return c, true
		}
	}
	return Campaign{}, false
}

// PostsFor returns the posts published by one influencer, in input order.
func (d *Dataset) PostsFor(influencerID string) []Post {
	return PostsByInfluencer(d.Posts, influencerID)
}

// PostsByInfluencer filters posts to a single influencer.
func PostsByInfluencer(posts []Post, influencerID string) []Post {
	var out []Post
	for _, p := range posts {
		if p.InfluencerID == influencerID {
			out = append(out, p)
		}
	}
	return out
}

// EventsByInfluencer filters tracking events attributed to one influencer.
func EventsByInfluencer(events []TrackingEvent, influencerID string) []TrackingEvent {
	var out []TrackingEvent
	for _, e := range events {
		if e.AttributionDetails.InfluencerID == influencerID {
			out = append(out, e)
		}
	}
	return out
}

// PayoutsByInfluencer filters payouts made to one influencer.
func PayoutsByInfluencer(payouts []Payout, influencerID string) []Payout {
	var out []Payout
	for _, p := range payouts {
		if p.InfluencerID == influencerID {
			out = append(out, p)
		}
	}
	return out
}

// TotalPayout sums TotalPayout over the given payouts.
func TotalPayout(payouts []Payout) float64 {
	var total float64
	for _, p := range payouts {
		total += p.TotalPayout
	}
	return total
}

// TotalRevenue sums Revenue over the given events.
func TotalRevenue(events []TrackingEvent) float64 {
	var total float64
	for _, e := range events {
		total += e.Revenue
	}
	return total
}

// ExportDocument is the JSON shape of a full data export. The top-level keys
// match the dashboard's export feature.
type ExportDocument struct {
	Influencers  []Influencer      `json:"influencers"`
	Campaigns    []Campaign        `json:"campaigns"`
	Posts        []Post            `json:"posts"`
	TrackingData []TrackingEvent   `json:"trackingData"`
	Payouts      []Payout          `json:"payouts"`
	Settings     map[string]string `json:"settings"`
}

// NewExportDocument wraps a dataset and user settings for export.
func NewExportDocument(ds *Dataset, settings map[string]string) ExportDocument {
	if settings == nil {
		settings = map[string]string{}
	}
	return ExportDocument{
		Influencers:  nonNil(ds.Influencers),
		Campaigns:    nonNil(ds.Campaigns),
		Posts:        nonNil(ds.Posts),
		TrackingData: nonNil(ds.TrackingEvents),
		Payouts:      nonNil(ds.Payouts),
		Settings:     settings,
	}
}

// Dataset converts an export document back into a dataset snapshot.
func (doc ExportDocument) Dataset() *Dataset {
	return &Dataset{
		Influencers:    doc.Influencers,
		Posts:          doc.Posts,
		TrackingEvents: doc.TrackingData,
		Payouts:        doc.Payouts,
		Campaigns:      doc.Campaigns,
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
