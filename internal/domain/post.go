package domain

import "time"

// PostType enumerates the content formats a post can take.
type PostType string

const (
	PostImage    PostType = "image"
	PostVideo    PostType = "video"
	PostReel     PostType = "reel"
	PostStory    PostType = "story"
	PostCarousel PostType = "carousel"
	PostText     PostType = "text"
)

// Valid reports whether t is a known post type.
func (t PostType) Valid() bool {
	switch t {
	case PostImage, PostVideo, PostReel, PostStory, PostCarousel, PostText:
		return true
	}
	return false
}

// Post is a single piece of published influencer content.
type Post struct {
	ID           string    `json:"id" db:"id"`
	InfluencerID string    `json:"influencer_id" db:"influencer_id"`
	CampaignID   string    `json:"campaign_id" db:"campaign_id"`
	Platform     Platform  `json:"platform" db:"platform"`
	PostType     PostType  `json:"post_type" db:"post_type"`
	PublishDate  time.Time `json:"publish_date" db:"publish_date"`
	Caption      string    `json:"caption" db:"caption"`
	Reach        int64     `json:"reach" db:"reach"`
	Impressions  int64     `json:"impressions" db:"impressions"`
	Likes        int64     `json:"likes" db:"likes"`
	Comments     int64     `json:"comments" db:"comments"`
	Shares       int64     `json:"shares" db:"shares"`
	Saves        *int64    `json:"saves,omitempty" db:"saves"`
	VideoViews   *int64    `json:"video_views,omitempty" db:"video_views"`
}

// Engagements returns likes + comments + shares.
func (p Post) Engagements() int64 {
	return p.Likes + p.Comments + p.Shares
}

// EngagementRate returns engagements as a percentage of reach, or 0 when
// reach is unknown.
func (p Post) EngagementRate() float64 {
	if p.Reach <= 0 {
		return 0
	}
	return float64(p.Engagements()) / float64(p.Reach) * 100
}
