package sentiment

import (
	"sort"
	"unicode/utf8"

	"github.com/ignite/influencer-analytics/internal/domain"
)

const (
	minKeywordRunes = 4
	topKeywordCount = 10
)

// KeywordPerformance ties a caption keyword to the revenue of the posts using it.
type KeywordPerformance struct {
	Keyword       string  `json:"keyword"`
	Uses          int     `json:"uses"`
	TotalRevenue  float64 `json:"total_revenue"`
	RevenuePerUse float64 `json:"revenue_per_use"`
}

// SentimentPerformance is the revenue of posts with one sentiment label.
type SentimentPerformance struct {
	Label      Label   `json:"label"`
	Posts      int     `json:"posts"`
	AvgRevenue float64 `json:"avg_revenue"`
}

// ContentTypePerformance is the revenue and engagement of one post format.
type ContentTypePerformance struct {
	PostType          domain.PostType `json:"post_type"`
	Posts             int             `json:"posts"`
	TotalRevenue      float64         `json:"total_revenue"`
	AvgRevenue        float64         `json:"avg_revenue"`
	AvgEngagementRate float64         `json:"avg_engagement_rate"`
}

// EngagementPatterns are fixed content guidelines shown with the insights.
type EngagementPatterns struct {
	BestPostingTimes     []string `json:"best_posting_times"`
	OptimalCaptionLength string   `json:"optimal_caption_length"`
	OptimalHashtagCount  string   `json:"optimal_hashtag_count"`
	TopPerformingDays    []string `json:"top_performing_days"`
}

// ContentInsights aggregates caption sentiment and keywords against revenue.
type ContentInsights struct {
	AttributedPosts        int                      `json:"attributed_posts"`
	AttributedRevenue      float64                  `json:"attributed_revenue"`
	TopKeywords            []KeywordPerformance     `json:"top_keywords"`
	SentimentPerformance   []SentimentPerformance   `json:"sentiment_performance"`
	ContentTypePerformance []ContentTypePerformance `json:"content_type_performance"`
	EngagementPatterns     EngagementPatterns       `json:"engagement_patterns"`
}

func defaultEngagementPatterns() EngagementPatterns {
	return EngagementPatterns{
		BestPostingTimes:     []string{"07:00-09:00", "12:00-13:00", "18:00-21:00"},
		OptimalCaptionLength: "100-150 characters",
		OptimalHashtagCount:  "5-10",
		TopPerformingDays:    []string{"Tuesday", "Wednesday", "Sunday"},
	}
}

// AnalyzeContentInsights joins posts to tracking events on
// attribution_details.post_id. The join is inner: events without a matching
// post are dropped, and posts with no matching event are left out of every
// aggregate.
func (a *Analyzer) AnalyzeContentInsights(posts []domain.Post, events []domain.TrackingEvent) ContentInsights {
	revenueByPost := make(map[string]float64)
	matched := make(map[string]bool)
	for _, e := range events {
		if id := e.AttributionDetails.PostID; id != "" {
			revenueByPost[id] += e.Revenue
			matched[id] = true
		}
	}

	type keywordAcc struct {
		uses    int
		revenue float64
	}
	type typeAcc struct {
		posts      int
		revenue    float64
		engagement float64
	}
	keywords := make(map[string]*keywordAcc)
	bySentiment := make(map[Label]*SentimentPerformance)
	byType := make(map[domain.PostType]*typeAcc)

	out := ContentInsights{EngagementPatterns: defaultEngagementPatterns()}
	for _, p := range posts {
		if !matched[p.ID] {
			continue
		}
		revenue := revenueByPost[p.ID]
		out.AttributedPosts++
		out.AttributedRevenue += revenue

		label := a.AnalyzeSentiment(p.Caption).SentimentLabel
		sp, ok := bySentiment[label]
		if !ok {
			sp = &SentimentPerformance{Label: label}
			bySentiment[label] = sp
		}
		sp.Posts++
		sp.AvgRevenue += revenue

		ta, ok := byType[p.PostType]
		if !ok {
			ta = &typeAcc{}
			byType[p.PostType] = ta
		}
		ta.posts++
		ta.revenue += revenue
		ta.engagement += p.EngagementRate()

		seen := make(map[string]struct{})
		for _, w := range Tokenize(p.Caption) {
			if utf8.RuneCountInString(w) < minKeywordRunes {
				continue
			}
			if _, stop := a.lex.StopWords[w]; stop {
				continue
			}
			if _, dup := seen[w]; dup {
				continue
			}
			seen[w] = struct{}{}
			k, ok := keywords[w]
			if !ok {
				k = &keywordAcc{}
				keywords[w] = k
			}
			k.uses++
			k.revenue += revenue
		}
	}

	out.TopKeywords = make([]KeywordPerformance, 0, len(keywords))
	for w, k := range keywords {
		out.TopKeywords = append(out.TopKeywords, KeywordPerformance{
			Keyword:       w,
			Uses:          k.uses,
			TotalRevenue:  k.revenue,
			RevenuePerUse: k.revenue / float64(k.uses),
		})
	}
	sort.Slice(out.TopKeywords, func(i, j int) bool {
		ki, kj := out.TopKeywords[i], out.TopKeywords[j]
		if ki.RevenuePerUse != kj.RevenuePerUse {
			return ki.RevenuePerUse > kj.RevenuePerUse
		}
		return ki.Keyword < kj.Keyword
	})
	if len(out.TopKeywords) > topKeywordCount {
		out.TopKeywords = out.TopKeywords[:topKeywordCount]
	}

	out.SentimentPerformance = make([]SentimentPerformance, 0, 3)
	for _, label := range []Label{Positive, Neutral, Negative} {
		sp, ok := bySentiment[label]
		if !ok {
			out.SentimentPerformance = append(out.SentimentPerformance, SentimentPerformance{Label: label})
			continue
		}
		sp.AvgRevenue /= float64(sp.Posts)
		out.SentimentPerformance = append(out.SentimentPerformance, *sp)
	}

	out.ContentTypePerformance = make([]ContentTypePerformance, 0, len(byType))
	for t, acc := range byType {
		out.ContentTypePerformance = append(out.ContentTypePerformance, ContentTypePerformance{
			PostType:          t,
			Posts:             acc.posts,
			TotalRevenue:      acc.revenue,
			AvgRevenue:        acc.revenue / float64(acc.posts),
			AvgEngagementRate: acc.engagement / float64(acc.posts),
		})
	}
	sort.Slice(out.ContentTypePerformance, func(i, j int) bool {
		ci, cj := out.ContentTypePerformance[i], out.ContentTypePerformance[j]
		if ci.AvgRevenue != cj.AvgRevenue {
			return ci.AvgRevenue > cj.AvgRevenue
		}
		return ci.PostType < cj.PostType
	})
	return out
}

// AnalyzeContentInsights runs the default analyzer.
func AnalyzeContentInsights(posts []domain.Post, events []domain.TrackingEvent) ContentInsights {
	return defaultAnalyzer.AnalyzeContentInsights(posts, events)
}
