package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Slack posts the briefing to an incoming webhook.
type Slack struct {
	URL    string
	Client *http.Client
}

func NewSlack(webhookURL string) *Slack {
	return &Slack{
		URL:    strings.TrimSpace(webhookURL),
		Client: &http.Client{Timeout: 20 * time.Second},
	}
}

func (s *Slack) Name() string { return "slack" }

func (s *Slack) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(map[string]string{
		"text": "```" + strings.TrimRight(msg.Body, "\n") + "```",
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("slack webhook http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
