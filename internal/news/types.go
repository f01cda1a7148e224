// Package news fetches top headlines from NewsAPI or the Google News RSS
// feeds.
package news

import (
	"context"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const source = "news"

// Headline is one article in source ranking order.
type Headline struct {
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	Author      string    `json:"author,omitempty"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
}

// Headlines is the ordered result of one fetch.
type Headlines struct {
	Country      string
	Category     string
	TotalResults int
	Articles     []Headline
}

// Label is the human form of the filters, e.g. "Technology (US)".
func (h Headlines) Label() string {
	return cases.Title(language.English).String(h.Category) + " (" + strings.ToUpper(h.Country) + ")"
}

type Provider interface {
	Fetch(ctx context.Context, country, category string) (Headlines, error)
}
