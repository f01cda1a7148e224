package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dailybriefing/internal/fetch"
)

const topHeadlines = `{
  "status": "ok",
  "totalResults": 38,
  "articles": [
    {"source": {"id": null, "name": "BBC News"}, "author": "Jane", "title": "First story",
     "description": "One", "url": "https://example.com/1", "publishedAt": "2024-06-01T07:00:00Z"},
    {"source": {"id": null, "name": ""}, "title": "[Removed]", "url": "https://removed.com"},
    {"source": {"id": null, "name": ""}, "title": "Second story", "url": "https://example.com/2"},
    {"source": {"id": null, "name": "Reuters"}, "title": "Third story", "url": "https://example.com/3"}
  ]
}`

func TestNewsAPIFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/top-headlines", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		q := r.URL.Query()
		assert.Equal(t, "us", q.Get("country"))
		assert.Equal(t, "technology", q.Get("category"))
		assert.Equal(t, "10", q.Get("pageSize"))
		w.Write([]byte(topHeadlines))
	}))
	defer server.Close()

	h, err := NewNewsAPI(server.URL, "secret", 2).Fetch(context.Background(), "us", "technology")
	require.NoError(t, err)

	assert.Equal(t, 38, h.TotalResults)
	assert.Equal(t, "Technology (US)", h.Label())
	require.Len(t, h.Articles, 2)
	assert.Equal(t, "First story", h.Articles[0].Title)
	assert.Equal(t, "BBC News", h.Articles[0].Source)
	assert.Equal(t, 2024, h.Articles[0].PublishedAt.Year())
	assert.Equal(t, "Second story", h.Articles[1].Title)
	assert.Equal(t, "Unknown", h.Articles[1].Source)
}

func TestNewsAPIMissingKey(t *testing.T) {
	_, err := NewNewsAPI("http://127.0.0.1:1", "", 5).Fetch(context.Background(), "us", "general")
	require.Error(t, err)
	assert.Equal(t, fetch.KindAuth, fetch.KindOf(err))
}

func TestNewsAPIErrorCodes(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   fetch.Kind
	}{
		{"invalid key", http.StatusUnauthorized, `{"status":"error","code":"apiKeyInvalid","message":"bad key"}`, fetch.KindAuth},
		{"missing key", http.StatusUnauthorized, `{"status":"error","code":"apiKeyMissing","message":"no key"}`, fetch.KindAuth},
		{"rate limited", http.StatusTooManyRequests, `{"status":"error","code":"rateLimited","message":"slow down"}`, fetch.KindRateLimited},
		{"unknown code", http.StatusBadRequest, `{"status":"error","code":"parametersIncompatible","message":"x"}`, fetch.KindNetwork},
		{"html error page", http.StatusBadGateway, `<html>bad gateway</html>`, fetch.KindNetwork},
		{"truncated body", http.StatusOK, `{"status":"ok","articles":[`, fetch.KindMalformed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			_, err := NewNewsAPI(server.URL, "k", 5).Fetch(context.Background(), "us", "general")
			require.Error(t, err)
			assert.Equal(t, tc.want, fetch.KindOf(err))
		})
	}
}

const googleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title>Top stories - Google News</title>
<item>
  <title>Markets rally on rate hopes - Reuters</title>
  <link>https://news.google.com/rss/articles/abc</link>
  <pubDate>Sat, 01 Jun 2024 07:00:00 GMT</pubDate>
  <description>&lt;a href="https://news.google.com/rss/articles/abc"&gt;Markets rally on rate hopes&lt;/a&gt;&amp;nbsp;&amp;nbsp;&lt;font color="#6f6f6f"&gt;Reuters&lt;/font&gt;</description>
</item>
<item>
  <title>Local team wins - The Daily - Sports Desk</title>
  <link>https://news.google.com/rss/articles/def</link>
  <description>&lt;p&gt;A &lt;b&gt;stunning&lt;/b&gt; comeback.&lt;/p&gt;</description>
</item>
<item>
  <title>Third</title>
  <link>https://news.google.com/rss/articles/ghi</link>
</item>
</channel></rss>`

func TestGoogleNewsFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rss/headlines/section/topic/SPORTS", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "de-DE", q.Get("hl"))
		assert.Equal(t, "DE", q.Get("gl"))
		assert.Equal(t, "DE:de", q.Get("ceid"))
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(googleFeed))
	}))
	defer server.Close()

	h, err := NewGoogleNews(server.URL, 2).Fetch(context.Background(), "de", "sports")
	require.NoError(t, err)

	assert.Equal(t, 3, h.TotalResults)
	require.Len(t, h.Articles, 2)

	first := h.Articles[0]
	assert.Equal(t, "Markets rally on rate hopes", first.Title)
	assert.Equal(t, "Reuters", first.Source)
	assert.Empty(t, first.Description)
	assert.Equal(t, "https://news.google.com/rss/articles/abc", first.URL)
	assert.Equal(t, 7, first.PublishedAt.UTC().Hour())

	second := h.Articles[1]
	assert.Equal(t, "Local team wins - The Daily", second.Title)
	assert.Equal(t, "Sports Desk", second.Source)
	assert.Equal(t, "A stunning comeback.", second.Description)
}

func TestGoogleNewsTopStoriesAndMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rss", r.URL.Path)
		assert.Equal(t, "US:en", r.URL.Query().Get("ceid"))
		w.Write([]byte("this is not a feed"))
	}))
	defer server.Close()

	_, err := NewGoogleNews(server.URL, 5).Fetch(context.Background(), "us", "general")
	require.Error(t, err)
	assert.Equal(t, fetch.KindMalformed, fetch.KindOf(err))
}

func TestBuildGoogleNewsParams(t *testing.T) {
	hl, gl, ceid := BuildGoogleNewsParams("hu", "HU")
	assert.Equal(t, "hu-HU", hl)
	assert.Equal(t, "HU", gl)
	assert.Equal(t, "HU:hu", ceid)

	hl, _, _ = BuildGoogleNewsParams("", "en")
	assert.Empty(t, hl)
	assert.Equal(t, "en", languageFor("in"))
	assert.Equal(t, "ja", languageFor("JP"))
}
