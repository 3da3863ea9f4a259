package domain

// Platform enumerates the social platforms an influencer publishes on.
type Platform string

const (
	PlatformInstagram Platform = "Instagram"
	PlatformYouTube   Platform = "YouTube"
	PlatformTwitter   Platform = "Twitter"
)

// Platforms lists every supported platform in display order.
var Platforms = []Platform{PlatformInstagram, PlatformYouTube, PlatformTwitter}

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	switch p {
	case PlatformInstagram, PlatformYouTube, PlatformTwitter:
		return true
	}
	return false
}

// Category is the primary content vertical of an influencer.
type Category string

const (
	CategoryFitness      Category = "Fitness"
	CategoryNutrition    Category = "Nutrition"
	CategoryWellness     Category = "Wellness"
	CategoryBodybuilding Category = "Bodybuilding"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryFitness, CategoryNutrition, CategoryWellness, CategoryBodybuilding:
		return true
	}
	return false
}

// GenderSplit is the audience share by gender, in percent. The two values
// sum to roughly 100.
type GenderSplit struct {
	Male   float64 `json:"male" yaml:"male"`
	Female float64 `json:"female" yaml:"female"`
}

// AudienceDemographics describes who follows an influencer.
type AudienceDemographics struct {
	AgeRange    string      `json:"age_range"`
	GenderSplit GenderSplit `json:"gender_split"`
	Locations   []string    `json:"locations"`
	Interests   []string    `json:"interests"`
}

// Influencer is immutable reference data. Scoring functions never mutate it.
type Influencer struct {
	ID                   string               `json:"id" db:"id"`
	Name                 string               `json:"name" db:"name"`
	Handle               string               `json:"handle" db:"handle"`
	Platform             Platform             `json:"platform" db:"platform"`
	Category             Category             `json:"category" db:"category"`
	FollowerCount        int64                `json:"follower_count" db:"follower_count"`
	Gender               string               `json:"gender" db:"gender"`
	AudienceDemographics AudienceDemographics `json:"audience_demographics" db:"audience_demographics"`
	EngagementRate       float64              `json:"engagement_rate" db:"engagement_rate"` // percent, e.g. 4.2
	FeedURL              string               `json:"feed_url,omitempty" db:"feed_url"`
}
