// Package stocks reads end-of-day quotes from the Alpha Vantage GLOBAL_QUOTE
// endpoint.
package stocks

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"dailybriefing/internal/fetch"
)

const source = "stocks"

// Quote is the latest quote for one symbol.
type Quote struct {
	Symbol           string
	Price            decimal.Decimal
	Change           decimal.Decimal
	ChangePercent    decimal.Decimal
	Open             decimal.Decimal
	High             decimal.Decimal
	Low              decimal.Decimal
	PreviousClose    decimal.Decimal
	Volume           int64
	LatestTradingDay string
}

// Up reports whether the price did not fall.
func (q Quote) Up() bool { return !q.Change.IsNegative() }

// Entry is the outcome for one requested symbol: a quote or the reason there
// is none.
type Entry struct {
	Symbol string
	Quote  *Quote
	Err    error
}

// Placeholders returns one failed entry per symbol, in order.
func Placeholders(symbols []string, err error) []Entry {
	out := make([]Entry, len(symbols))
	for i, s := range symbols {
		out[i] = Entry{Symbol: s, Err: err}
	}
	return out
}

type Client struct {
	BaseURL       string
	APIKey        string
	RatePerMinute int
	HTTP          *fetch.Client
}

func NewClient(baseURL, apiKey string, ratePerMinute int) *Client {
	return &Client{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		APIKey:        apiKey,
		RatePerMinute: ratePerMinute,
		HTTP:          fetch.NewClient(source, 15*time.Second),
	}
}

// Fetch requests each symbol in turn, paced to the configured requests per
// minute. It returns exactly one entry per symbol in input order; an error is
// returned only when no symbol can be attempted at all.
func (c *Client) Fetch(ctx context.Context, symbols []string) ([]Entry, error) {
	if c.APIKey == "" {
		return nil, fetch.Errorf(source, fetch.KindAuth, "STOCK_API_KEY is not configured")
	}

	perMinute := c.RatePerMinute
	if perMinute <= 0 {
		perMinute = 5
	}
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)

	out := make([]Entry, len(symbols))
	for i, symbol := range symbols {
		out[i].Symbol = symbol
		if err := limiter.Wait(ctx); err != nil {
			// Wait fails early when the next slot falls after the deadline.
			if ctx.Err() != nil {
				err = ctx.Err()
			} else {
				err = fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
			}
			out[i].Err = fetch.Wrap(source, fetch.KindNetwork, err)
			continue
		}
		q, err := c.quote(ctx, symbol)
		if err != nil {
			out[i].Err = err
			continue
		}
		out[i].Quote = &q
	}
	return out, nil
}

type avResponse struct {
	ErrorMessage string            `json:"Error Message"`
	Note         string            `json:"Note"`
	Information  string            `json:"Information"`
	GlobalQuote  map[string]string `json:"Global Quote"`
}

func (c *Client) quote(ctx context.Context, symbol string) (Quote, error) {
	params := url.Values{}
	params.Set("function", "GLOBAL_QUOTE")
	params.Set("symbol", symbol)
	params.Set("apikey", c.APIKey)

	var out avResponse
	if err := c.HTTP.GetJSON(ctx, c.BaseURL+"/query?"+params.Encode(), nil, &out); err != nil {
		return Quote{}, err
	}
	return parseQuote(symbol, out)
}

func parseQuote(symbol string, r avResponse) (Quote, error) {
	switch {
	case r.ErrorMessage != "":
		return Quote{}, fetch.Errorf(source, fetch.KindNotFound, "%s: %s", symbol, r.ErrorMessage)
	case r.Note != "":
		return Quote{}, fetch.Errorf(source, fetch.KindRateLimited, "%s: %s", symbol, r.Note)
	case r.Information != "":
		return Quote{}, fetch.Errorf(source, fetch.KindRateLimited, "%s: %s", symbol, r.Information)
	case len(r.GlobalQuote) == 0:
		return Quote{}, fetch.Errorf(source, fetch.KindNotFound, "%s: no quote data returned", symbol)
	}

	g := r.GlobalQuote
	p := &parser{fields: g}
	q := Quote{
		Symbol:           orDefault(g["01. symbol"], symbol),
		Open:             p.decimal("02. open"),
		High:             p.decimal("03. high"),
		Low:              p.decimal("04. low"),
		Price:            p.decimal("05. price"),
		PreviousClose:    p.decimal("08. previous close"),
		Change:           p.decimal("09. change"),
		ChangePercent:    p.decimal("10. change percent"),
		LatestTradingDay: strings.TrimSpace(g["07. latest trading day"]),
	}
	if v := strings.TrimSpace(g["06. volume"]); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil && p.err == nil {
			p.err = fmt.Errorf("06. volume: %w", err)
		}
		q.Volume = n
	}
	if p.err != nil {
		return Quote{}, fetch.Wrap(source, fetch.KindMalformed, fmt.Errorf("%s: %w", symbol, p.err))
	}
	return q, nil
}

// parser keeps the first conversion error so the fields read top to bottom.
type parser struct {
	fields map[string]string
	err    error
}

func (p *parser) decimal(key string) decimal.Decimal {
	raw := strings.TrimSuffix(strings.TrimSpace(p.fields[key]), "%")
	if raw == "" {
		if p.err == nil {
			p.err = fmt.Errorf("%s missing", key)
		}
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		if p.err == nil {
			p.err = fmt.Errorf("%s: %w", key, err)
		}
		return decimal.Zero
	}
	return d
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}
