// Package feeds ingests influencer posts from RSS/Atom feeds such as YouTube
// channel feeds.
package feeds

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"github.com/ignite/influencer-analytics/internal/config"
	"github.com/ignite/influencer-analytics/internal/domain"
	"github.com/ignite/influencer-analytics/internal/pkg/httpretry"
	"github.com/ignite/influencer-analytics/internal/pkg/logger"
)

var postNamespace = uuid.MustParse("5b0cf0e4-8f0c-4a59-9d3e-6c1f1f4b8a21")

var htmlTag = regexp.MustCompile(`<[^>]*>`)

// Ingester fetches feeds over a retrying client and converts entries to posts.
type Ingester struct {
	client   *httpretry.RetryClient
	parser   *gofeed.Parser
	maxItems int
}

// NewIngester creates an Ingester from the feeds configuration. A nil doer
// uses an http.Client with the configured timeout.
func NewIngester(cfg config.FeedsConfig, doer httpretry.HTTPDoer) *Ingester {
	if doer == nil {
		doer = &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}
	}
	return &Ingester{
		client:   httpretry.NewRetryClient(doer, httpretry.Options{MaxRetries: cfg.MaxRetries}),
		parser:   gofeed.NewParser(),
		maxItems: cfg.MaxItems,
	}
}

// FetchPosts downloads inf's feed and returns its entries as posts, newest
// first, capped at the configured item count.
func (in *Ingester) FetchPosts(ctx context.Context, inf domain.Influencer) ([]domain.Post, error) {
	if inf.FeedURL == "" {
		return nil, nil
	}

	resp, err := in.client.Get(ctx, inf.FeedURL)
	if err != nil {
		return nil, fmt.Errorf("fetch feed for %s: %w", inf.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed for %s: unexpected status %d", inf.ID, resp.StatusCode)
	}

	feed, err := in.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed for %s: %w", inf.ID, err)
	}

	var posts []domain.Post
	for _, item := range feed.Items {
		if in.maxItems > 0 && len(posts) >= in.maxItems {
			break
		}
		p, ok := toPost(inf, item)
		if !ok {
			continue
		}
		posts = append(posts, p)
	}
	return posts, nil
}

// Ingest fetches every influencer feed in ds and returns a copy of ds with
// unseen posts appended. Feeds that fail are logged and skipped.
func (in *Ingester) Ingest(ctx context.Context, ds *domain.Dataset) (*domain.Dataset, int) {
	out := *ds
	out.Posts = append([]domain.Post(nil), ds.Posts...)

	seen := make(map[string]bool, len(out.Posts))
	for _, p := range out.Posts {
		seen[p.ID] = true
	}

	added := 0
	for _, inf := range ds.Influencers {
		if inf.FeedURL == "" {
			continue
		}
		posts, err := in.FetchPosts(ctx, inf)
		if err != nil {
			logger.Warn("feed ingestion failed", "influencer", inf.ID, "error", err)
			continue
		}
		for _, p := range posts {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			out.Posts = append(out.Posts, p)
			added++
		}
		logger.Debug("feed ingested", "influencer", inf.ID, "items", len(posts))
	}
	return &out, added
}

func toPost(inf domain.Influencer, item *gofeed.Item) (domain.Post, bool) {
	key := item.GUID
	if key == "" {
		key = item.Link
	}
	if key == "" {
		return domain.Post{}, false
	}

	var published time.Time
	switch {
	case item.PublishedParsed != nil:
		published = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		published = *item.UpdatedParsed
	default:
		return domain.Post{}, false
	}

	caption := strings.TrimSpace(item.Title + " " + stripHTML(item.Description))
	p := domain.Post{
		ID:           "feed-" + uuid.NewSHA1(postNamespace, []byte(inf.ID+"|"+key)).String(),
		InfluencerID: inf.ID,
		Platform:     inf.Platform,
		PostType:     domain.PostText,
		PublishDate:  published.UTC(),
		Caption:      caption,
	}

	if views, likes, ok := mediaStats(item.Extensions); ok {
		p.PostType = domain.PostVideo
		p.VideoViews = &views
		p.Reach = views
		p.Impressions = views
		p.Likes = likes
	}
	return p, true
}

// mediaStats reads the Media RSS community block YouTube publishes:
// media:group/media:community/{media:statistics@views, media:starRating@count}.
func mediaStats(extensions ext.Extensions) (views, likes int64, ok bool) {
	for _, group := range extensions["media"]["group"] {
		for _, community := range group.Children["community"] {
			for _, stats := range community.Children["statistics"] {
				if v, err := strconv.ParseInt(stats.Attrs["views"], 10, 64); err == nil {
					views, ok = v, true
				}
			}
			for _, rating := range community.Children["starRating"] {
				if v, err := strconv.ParseInt(rating.Attrs["count"], 10, 64); err == nil {
					likes = v
				}
			}
		}
	}
	return views, likes, ok
}

func stripHTML(input string) string {
	text := htmlTag.ReplaceAllString(input, "")
	text = html.UnescapeString(text)
	return strings.Join(strings.Fields(text), " ")
}
