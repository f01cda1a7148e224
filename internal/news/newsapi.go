package news

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"dailybriefing/internal/fetch"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const pageSize = 10

// NewsAPI reads the top-headlines endpoint of newsapi.org.
type NewsAPI struct {
	BaseURL string
	APIKey  string
	Limit   int
	HTTP    *fetch.Client
}

func NewNewsAPI(baseURL, apiKey string, limit int) *NewsAPI {
	return &NewsAPI{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Limit:   limit,
		HTTP:    fetch.NewClient(source, 15*time.Second),
	}
}

type naResponse struct {
	Status       string `json:"status"`
	Code         string `json:"code"`
	Message      string `json:"message"`
	TotalResults int    `json:"totalResults"`
	Articles     []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Author      string `json:"author"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

func (n *NewsAPI) Fetch(ctx context.Context, country, category string) (Headlines, error) {
	if n.APIKey == "" {
		return Headlines{}, fetch.Errorf(source, fetch.KindAuth, "NEWS_API_KEY is not configured")
	}

	params := url.Values{}
	params.Set("country", country)
	params.Set("category", category)
	params.Set("pageSize", fmt.Sprint(pageSize))

	resp, err := n.HTTP.Do(ctx, n.BaseURL+"/v2/top-headlines?"+params.Encode(), http.Header{"X-Api-Key": {n.APIKey}}, "application/json")
	if err != nil {
		return Headlines{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return Headlines{}, fetch.Wrap(source, fetch.KindNetwork, err)
	}

	var out naResponse
	decodeErr := json.Unmarshal(body, &out)
	if decodeErr == nil && out.Status == "error" {
		return Headlines{}, fetch.Errorf(source, kindForCode(out.Code, resp.StatusCode), "%s: %s", out.Code, out.Message)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Headlines{}, fetch.Errorf(source, fetch.KindForStatus(resp.StatusCode), "http %d: %s", resp.StatusCode, snippet(body))
	}
	if decodeErr != nil {
		return Headlines{}, fetch.Wrap(source, fetch.KindMalformed, fmt.Errorf("decode body: %w", decodeErr))
	}
	if out.Status != "ok" {
		return Headlines{}, fetch.Errorf(source, fetch.KindMalformed, "unexpected status %q", out.Status)
	}

	h := Headlines{
		Country:      country,
		Category:     category,
		TotalResults: out.TotalResults,
	}
	for _, a := range out.Articles {
		if len(h.Articles) >= n.Limit {
			break
		}
		title := strings.TrimSpace(a.Title)
		if title == "" || title == "[Removed]" {
			continue
		}
		pub, _ := time.Parse(time.RFC3339, a.PublishedAt)
		h.Articles = append(h.Articles, Headline{
			Title:       title,
			Source:      orDefault(a.Source.Name, "Unknown"),
			Author:      strings.TrimSpace(a.Author),
			Description: strings.TrimSpace(a.Description),
			URL:         strings.TrimSpace(a.URL),
			PublishedAt: pub,
		})
	}
	return h, nil
}

// kindForCode maps NewsAPI error codes, falling back to the HTTP status.
func kindForCode(code string, status int) fetch.Kind {
	switch code {
	case "apiKeyInvalid", "apiKeyMissing", "apiKeyDisabled", "apiKeyExhausted":
		return fetch.KindAuth
	case "rateLimited":
		return fetch.KindRateLimited
	case "sourceDoesNotExist":
		return fetch.KindNotFound
	}
	if status >= 200 && status < 300 {
		return fetch.KindMalformed
	}
	return fetch.KindForStatus(status)
}

func snippet(body []byte) string {
	if len(body) > 4096 {
		body = body[:4096]
	}
	return strings.TrimSpace(string(body))
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}
