package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"dailybriefing/internal/fetch"
)

// GoogleNews reads the public Google News RSS feeds. It needs no API key.
type GoogleNews struct {
	BaseURL string
	Limit   int
	HTTP    *fetch.Client
}

func NewGoogleNews(baseURL string, limit int) *GoogleNews {
	return &GoogleNews{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Limit:   limit,
		HTTP:    fetch.NewClient(source, 20*time.Second),
	}
}

// Google News topic sections keyed by NewsAPI category. "general" maps to
// the top stories feed.
var topics = map[string]string{
	"business":      "BUSINESS",
	"entertainment": "ENTERTAINMENT",
	"health":        "HEALTH",
	"science":       "SCIENCE",
	"sports":        "SPORTS",
	"technology":    "TECHNOLOGY",
}

func (g *GoogleNews) feedURL(country, category string) string {
	hl, gl, ceid := BuildGoogleNewsParams(country, languageFor(country))
	params := url.Values{}
	params.Set("hl", hl)
	params.Set("gl", gl)
	params.Set("ceid", ceid)

	path := "/rss"
	if topic, ok := topics[category]; ok {
		path = "/rss/headlines/section/topic/" + topic
	}
	return g.BaseURL + path + "?" + params.Encode()
}

func (g *GoogleNews) Fetch(ctx context.Context, country, category string) (Headlines, error) {
	resp, err := g.HTTP.Get(ctx, g.feedURL(country, category), nil, "application/rss+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.1")
	if err != nil {
		return Headlines{}, err
	}
	defer resp.Body.Close()

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return Headlines{}, fetch.Wrap(source, fetch.KindNetwork, ctx.Err())
		}
		return Headlines{}, fetch.Wrap(source, fetch.KindMalformed, fmt.Errorf("parse feed: %w", err))
	}

	h := Headlines{
		Country:      country,
		Category:     category,
		TotalResults: len(feed.Items),
	}
	for _, it := range feed.Items {
		if len(h.Articles) >= g.Limit {
			break
		}
		title, publisher := splitPublisher(it.Title)
		if title == "" {
			continue
		}

		var pub time.Time
		if it.PublishedParsed != nil {
			pub = *it.PublishedParsed
		} else if it.UpdatedParsed != nil {
			pub = *it.UpdatedParsed
		}

		h.Articles = append(h.Articles, Headline{
			Title:       title,
			Source:      orDefault(publisher, "Google News"),
			Description: describe(it.Description, title, publisher),
			URL:         strings.TrimSpace(it.Link),
			PublishedAt: pub,
		})
	}
	return h, nil
}

// splitPublisher separates the " - Publisher" suffix Google appends to titles.
func splitPublisher(raw string) (title, publisher string) {
	raw = strings.TrimSpace(raw)
	i := strings.LastIndex(raw, " - ")
	if i <= 0 {
		return raw, ""
	}
	return strings.TrimSpace(raw[:i]), strings.TrimSpace(raw[i+3:])
}

// describe reduces an HTML description to text and drops it when it only
// repeats the title and publisher.
func describe(desc, title, publisher string) string {
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(desc))
	if err != nil {
		return ""
	}
	text := strings.Join(strings.Fields(doc.Text()), " ")
	text = strings.TrimSpace(strings.TrimPrefix(text, title))
	text = strings.TrimSpace(strings.TrimSuffix(text, publisher))
	return text
}
