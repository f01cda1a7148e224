// Package fetch holds the HTTP plumbing shared by the data-source clients and
// the error taxonomy they report failures with.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const userAgent = "dailybriefing/1.0 (+https://github.com/dailybriefing)"

// Kind classifies why a source could not produce data.
type Kind string

const (
	KindNetwork     Kind = "network"
	KindMalformed   Kind = "malformed"
	KindRateLimited Kind = "rate_limited"
	KindNotFound    Kind = "not_found"
	KindAuth        Kind = "auth"
)

// Error is a classified source failure.
type Error struct {
	Source string
	Kind   Kind
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Source, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap classifies err for source. A nil err stays nil.
func Wrap(source string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Source: source, Kind: kind, Err: err}
}

// Errorf builds a classified error from a format string.
func Errorf(source string, kind Kind, format string, args ...any) error {
	return &Error{Source: source, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf reports the kind of err. Unclassified errors count as network
// failures, since that is what an unexpected transport error usually is.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindNetwork
}

// Reason is the short human text used next to a placeholder.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out"
	}
	switch KindOf(err) {
	case KindMalformed:
		return "malformed response"
	case KindRateLimited:
		return "rate limited"
	case KindNotFound:
		return "not found"
	case KindAuth:
		return "credentials missing or rejected"
	default:
		return "network error"
	}
}

// KindForStatus maps a non-2xx HTTP status to a kind.
func KindForStatus(code int) Kind {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusTooManyRequests:
		return KindRateLimited
	default:
		return KindNetwork
	}
}

// Client performs GET requests on behalf of one named source.
type Client struct {
	Source string
	HTTP   *http.Client
}

func NewClient(source string, timeout time.Duration) *Client {
	return &Client{
		Source: source,
		HTTP:   &http.Client{Timeout: timeout},
	}
}

// Do issues the request without looking at the status. The caller closes the
// body.
func (c *Client) Do(ctx context.Context, rawURL string, header http.Header, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, Wrap(c.Source, KindNetwork, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("User-Agent", userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, Wrap(c.Source, KindNetwork, err)
	}
	return resp, nil
}

// Get issues the request and checks the status. The caller closes the body.
func (c *Client) Get(ctx context.Context, rawURL string, header http.Header, accept string) (*http.Response, error) {
	resp, err := c.Do(ctx, rawURL, header, accept)
	if err != nil {
		return nil, err
	}
	if err := CheckStatus(c.Source, resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

// GetJSON fetches rawURL and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, rawURL string, header http.Header, out any) error {
	resp, err := c.Get(ctx, rawURL, header, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctx.Err() != nil {
			return Wrap(c.Source, KindNetwork, ctx.Err())
		}
		return Wrap(c.Source, KindMalformed, fmt.Errorf("decode body: %w", err))
	}
	return nil
}

// CheckStatus turns a non-2xx response into a classified error carrying a
// short snippet of the body.
func CheckStatus(source string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &Error{
		Source: source,
		Kind:   KindForStatus(resp.StatusCode),
		Err:    fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
	}
}
