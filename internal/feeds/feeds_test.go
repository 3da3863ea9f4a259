package feeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/influencer-analytics/internal/config"
	"github.com/ignite/influencer-analytics/internal/domain"
)

const youtubeFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns:media="http://search.yahoo.com/mrss/" xmlns="http://www.w3.org/2005/Atom">
  <title>Ava Lifts</title>
  <entry>
    <id>yt:video:abc123</id>
    <title>Leg day &amp; protein tips</title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=abc123"/>
    <published>2024-01-10T15:00:00+00:00</published>
    <media:group>
      <media:title>Leg day</media:title>
      <media:community>
        <media:starRating count="420" average="5.00" min="1" max="5"/>
        <media:statistics views="12000"/>
      </media:community>
    </media:group>
  </entry>
  <entry>
    <id>yt:video:def456</id>
    <title>Morning routine</title>
    <published>2024-01-08T09:00:00+00:00</published>
  </entry>
  <entry>
    <id>yt:video:nodate</id>
    <title>Undated</title>
  </entry>
</feed>`

const rssFeed = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Blog</title>
  <item><guid>post-1</guid><title>Clean eating</title><description>&lt;p&gt;Loving   the new &lt;b&gt;greens&lt;/b&gt;!&lt;/p&gt;</description><pubDate>Mon, 08 Jan 2024 10:00:00 GMT</pubDate></item>
  <item><guid>post-2</guid><title>Second</title><pubDate>Tue, 09 Jan 2024 10:00:00 GMT</pubDate></item>
</channel></rss>`

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/yt", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(youtubeFeed))
	})
	mux.HandleFunc("/rss", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(rssFeed))
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchPosts_YouTubeMediaStats(t *testing.T) {
	srv := newServer(t)
	in := NewIngester(config.FeedsConfig{MaxRetries: 1, TimeoutSeconds: 5}, nil)
	inf := domain.Influencer{ID: "inf-1", Platform: domain.PlatformYouTube, FeedURL: srv.URL + "/yt"}

	posts, err := in.FetchPosts(context.Background(), inf)
	require.NoError(t, err)
	require.Len(t, posts, 2, "undated entries are skipped")

	p := posts[0]
	assert.Equal(t, "inf-1", p.InfluencerID)
	assert.Equal(t, domain.PlatformYouTube, p.Platform)
	assert.Equal(t, domain.PostVideo, p.PostType)
	assert.Equal(t, "Leg day & protein tips", p.Caption)
	assert.Equal(t, time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC), p.PublishDate)
	require.NotNil(t, p.VideoViews)
	assert.Equal(t, int64(12000), *p.VideoViews)
	assert.Equal(t, int64(12000), p.Reach)
	assert.Equal(t, int64(420), p.Likes)

	assert.Equal(t, domain.PostText, posts[1].PostType)
	assert.Nil(t, posts[1].VideoViews)

	again, err := in.FetchPosts(context.Background(), inf)
	require.NoError(t, err)
	assert.Equal(t, posts[0].ID, again[0].ID, "post ids are stable across fetches")
}

func TestFetchPosts_RSSAndLimit(t *testing.T) {
	srv := newServer(t)
	in := NewIngester(config.FeedsConfig{MaxRetries: 1, TimeoutSeconds: 5, MaxItems: 1}, nil)

	posts, err := in.FetchPosts(context.Background(), domain.Influencer{ID: "inf-2", FeedURL: srv.URL + "/rss"})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Clean eating Loving the new greens!", posts[0].Caption)
}

func TestFetchPosts_Errors(t *testing.T) {
	srv := newServer(t)
	in := NewIngester(config.FeedsConfig{MaxRetries: 1, TimeoutSeconds: 5}, nil)

	posts, err := in.FetchPosts(context.Background(), domain.Influencer{ID: "none"})
	assert.NoError(t, err)
	assert.Nil(t, posts)

	_, err = in.FetchPosts(context.Background(), domain.Influencer{ID: "inf-3", FeedURL: srv.URL + "/gone"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 404")
}

func TestIngest_MergesWithoutDuplicates(t *testing.T) {
	srv := newServer(t)
	in := NewIngester(config.FeedsConfig{MaxRetries: 1, TimeoutSeconds: 5}, nil)

	ds := &domain.Dataset{
		Influencers: []domain.Influencer{
			{ID: "inf-1", Platform: domain.PlatformYouTube, FeedURL: srv.URL + "/yt"},
			{ID: "inf-2", FeedURL: srv.URL + "/gone"},
			{ID: "inf-3"},
		},
		Posts: []domain.Post{{ID: "p-existing", InfluencerID: "inf-3"}},
	}

	out, added := in.Ingest(context.Background(), ds)
	assert.Equal(t, 2, added)
	assert.Len(t, out.Posts, 3)
	assert.Len(t, ds.Posts, 1, "input dataset is not modified")

	again, added := in.Ingest(context.Background(), out)
	assert.Zero(t, added)
	assert.Len(t, again.Posts, 3)
}
