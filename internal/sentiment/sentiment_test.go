package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/influencer-analytics/internal/domain"
)

func TestAnalyzeSentiment_Empty(t *testing.T) {
	a := AnalyzeSentiment("")
	assert.Equal(t, 0.0, a.SentimentScore)
	assert.Equal(t, Neutral, a.SentimentLabel)
	assert.Equal(t, 0.0, a.Confidence)
	assert.Equal(t, Emotions{}, a.Emotions)
	assert.Equal(t, 0, a.WordCount)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"love", "this", "proteinshake", "2x"}, Tokenize("  LOVE this Protein-shake... 2x!! "))
	assert.Empty(t, Tokenize("!!! ..."))
}

func TestAnalyzeSentiment(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		score      float64
		label      Label
		confidence float64
	}{
		// 2 positive, 0 negative, no health words
		{"positive", "Amazing product, love it", 1.0, Positive, 0.2},
		// 0 positive, 1 negative
		{"negative", "Terrible taste", -1.0, Negative, 0.1},
		// 1 pos, 1 neg -> 0 + no health
		{"balanced", "great idea bad execution", 0.0, Neutral, 0.2},
		// no sentiment words, 1 health word out of 2 -> density 0.5 capped 0.3 -> 0.03
		{"health bias only", "protein shake", 0.03, Neutral, 0},
		// 1 neg + 1 health in 2 words: -1 + 0.03
		{"health bias on negative", "awful protein", -0.97, Negative, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := AnalyzeSentiment(tt.text)
			assert.InDelta(t, tt.score, a.SentimentScore, 1e-9)
			assert.Equal(t, tt.label, a.SentimentLabel)
			assert.InDelta(t, tt.confidence, a.Confidence, 1e-9)
			assert.GreaterOrEqual(t, a.SentimentScore, -1.0)
			assert.LessOrEqual(t, a.SentimentScore, 1.0)
		})
	}
}

func TestAnalyzeSentiment_ClampedAndConfidenceCapped(t *testing.T) {
	a := AnalyzeSentiment("love love love love love love love love love love love love healthy")
	assert.Equal(t, 1.0, a.SentimentScore)
	assert.Equal(t, 1.0, a.Confidence)
}

func TestAnalyzeSentiment_Emotions(t *testing.T) {
	a := AnalyzeSentiment("Launch coming soon! Best protein ever!")
	// positive=1 (best), health=1 (protein) of 6 words, anticipation=3
	assert.Greater(t, a.Emotions.Joy, 0.0)
	assert.InDelta(t, 0.4, a.Emotions.Surprise, 1e-9)
	assert.InDelta(t, 0.75, a.Emotions.Anticipation, 1e-9)
	assert.Equal(t, 0.0, a.Emotions.Fear)
	assert.Equal(t, 0.0, a.Emotions.Anger)
	assert.Equal(t, []string{"protein"}, a.MatchedHealthTerms)

	n := AnalyzeSentiment("worst, awful")
	assert.InDelta(t, 0.6, n.Emotions.Fear, 1e-9)
	assert.InDelta(t, 0.4, n.Emotions.Anger, 1e-9)
	assert.Equal(t, 0.0, n.Emotions.Joy)
}

func TestAnalyzeSentiment_Idempotent(t *testing.T) {
	text := "Best recovery drink, fantastic taste but overpriced"
	assert.Equal(t, AnalyzeSentiment(text), AnalyzeSentiment(text))
}

func TestAnalyzeContentInsights(t *testing.T) {
	posts := []domain.Post{
		{ID: "p1", PostType: domain.PostReel, Caption: "Amazing morning smoothie routine", Reach: 1000, Likes: 50},
		{ID: "p2", PostType: domain.PostImage, Caption: "Terrible weather, smoothie anyway", Reach: 1000, Likes: 10},
		{ID: "p3", PostType: domain.PostReel, Caption: "Unattributed smoothie post", Reach: 1000, Likes: 90},
	}
	events := []domain.TrackingEvent{
		{ID: "e1", Revenue: 300, AttributionDetails: domain.AttributionDetails{PostID: "p1"}},
		{ID: "e2", Revenue: 100, AttributionDetails: domain.AttributionDetails{PostID: "p1"}},
		{ID: "e3", Revenue: 50, AttributionDetails: domain.AttributionDetails{PostID: "p2"}},
		{ID: "e4", Revenue: 999, AttributionDetails: domain.AttributionDetails{PostID: "missing"}},
		{ID: "e5", Revenue: 999},
	}

	in := AnalyzeContentInsights(posts, events)

	assert.Equal(t, 2, in.AttributedPosts)
	assert.Equal(t, 450.0, in.AttributedRevenue)

	require.NotEmpty(t, in.TopKeywords)
	assert.Equal(t, "amazing", in.TopKeywords[0].Keyword)
	assert.Equal(t, 400.0, in.TopKeywords[0].RevenuePerUse)

	var smoothie KeywordPerformance
	for _, k := range in.TopKeywords {
		if k.Keyword == "smoothie" {
			smoothie = k
		}
	}
	assert.Equal(t, 2, smoothie.Uses)
	assert.Equal(t, 225.0, smoothie.RevenuePerUse)

	require.Len(t, in.SentimentPerformance, 3)
	assert.Equal(t, SentimentPerformance{Label: Positive, Posts: 1, AvgRevenue: 400}, in.SentimentPerformance[0])
	assert.Equal(t, SentimentPerformance{Label: Neutral}, in.SentimentPerformance[1])
	assert.Equal(t, SentimentPerformance{Label: Negative, Posts: 1, AvgRevenue: 50}, in.SentimentPerformance[2])

	require.Len(t, in.ContentTypePerformance, 2)
	assert.Equal(t, domain.PostReel, in.ContentTypePerformance[0].PostType)
	assert.Equal(t, 1, in.ContentTypePerformance[0].Posts)
	assert.InDelta(t, 5.0, in.ContentTypePerformance[0].AvgEngagementRate, 1e-9)
	assert.NotEmpty(t, in.EngagementPatterns.BestPostingTimes)
}

func TestAnalyzeContentInsights_KeywordFiltering(t *testing.T) {
	posts := []domain.Post{{ID: "p1", Caption: "this is the best gym with your crew"}}
	events := []domain.TrackingEvent{{Revenue: 10, AttributionDetails: domain.AttributionDetails{PostID: "p1"}}}

	in := AnalyzeContentInsights(posts, events)
	var words []string
	for _, k := range in.TopKeywords {
		words = append(words, k.Keyword)
	}
	assert.ElementsMatch(t, []string{"best", "crew"}, words)
}

func TestAnalyzeContentInsights_TopTen(t *testing.T) {
	posts := []domain.Post{{ID: "p1", Caption: "alpha bravo charlie delta echoes foxtrot golf1 hotel india juliet kilo1 lima1"}}
	events := []domain.TrackingEvent{{Revenue: 10, AttributionDetails: domain.AttributionDetails{PostID: "p1"}}}

	in := AnalyzeContentInsights(posts, events)
	require.Len(t, in.TopKeywords, 10)
	// equal revenue per use, so alphabetical
	assert.Equal(t, "alpha", in.TopKeywords[0].Keyword)
}

func TestAnalyzeContentInsights_Empty(t *testing.T) {
	in := AnalyzeContentInsights(nil, nil)
	assert.Equal(t, 0, in.AttributedPosts)
	assert.Empty(t, in.TopKeywords)
	assert.Len(t, in.SentimentPerformance, 3)
	assert.Empty(t, in.ContentTypePerformance)
}
