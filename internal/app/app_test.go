package app

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dailybriefing/internal/briefing"
	"dailybriefing/internal/calendar"
	"dailybriefing/internal/config"
	"dailybriefing/internal/fetch"
	"dailybriefing/internal/logging"
	"dailybriefing/internal/metrics"
	"dailybriefing/internal/news"
	"dailybriefing/internal/notify"
	"dailybriefing/internal/stocks"
	"dailybriefing/internal/weather"
)

type weatherFunc func(ctx context.Context, city, units string) (weather.Snapshot, error)

func (f weatherFunc) Fetch(ctx context.Context, city, units string) (weather.Snapshot, error) {
	return f(ctx, city, units)
}

type newsFunc func(ctx context.Context, country, category string) (news.Headlines, error)

func (f newsFunc) Fetch(ctx context.Context, country, category string) (news.Headlines, error) {
	return f(ctx, country, category)
}

type stocksFunc func(ctx context.Context, symbols []string) ([]stocks.Entry, error)

func (f stocksFunc) Fetch(ctx context.Context, symbols []string) ([]stocks.Entry, error) {
	return f(ctx, symbols)
}

// recordingChannel remembers what it was asked to deliver.
type recordingChannel struct {
	name string
	err  error
	got  []notify.Message
}

func (r *recordingChannel) Name() string { return r.name }

func (r *recordingChannel) Send(_ context.Context, msg notify.Message) error {
	r.got = append(r.got, msg)
	return r.err
}

func suratService(t *testing.T, channels ...notify.Channel) *Service {
	t.Helper()
	cfg := config.Config{
		Weather: config.Weather{City: "Surat", Units: "metric"},
		News:    config.News{Country: "in", Category: "general"},
		Stocks:  config.Stocks{Symbols: []string{"AAPL", "META"}},
	}

	w := weatherFunc(func(_ context.Context, city, units string) (weather.Snapshot, error) {
		return weather.Snapshot{
			Location:    weather.Location{Name: city, Country: "India", Latitude: 21.17, Longitude: 72.83},
			Units:       units,
			Temperature: 31,
			Low:         27,
			High:        34,
			Code:        1,
		}, nil
	})
	n := newsFunc(func(ctx context.Context, _, _ string) (news.Headlines, error) {
		return news.Headlines{}, fetch.Errorf("news", fetch.KindNetwork, "dial tcp: connection refused")
	})
	s := stocksFunc(func(_ context.Context, symbols []string) ([]stocks.Entry, error) {
		out := make([]stocks.Entry, 0, len(symbols))
		for _, sym := range symbols {
			out = append(out, stocks.Entry{Symbol: sym, Quote: &stocks.Quote{
				Symbol:        sym,
				Price:         decimal.RequireFromString("190.12"),
				Change:        decimal.RequireFromString("1.05"),
				ChangePercent: decimal.RequireFromString("0.56"),
			}})
		}
		return out, nil
	})

	log := logging.Discard()
	coordinator := briefing.NewCoordinator(w, n, s, calendar.NewClient(false), briefing.Timeouts{
		Weather: time.Second, News: time.Second, Stocks: time.Second, Calendar: time.Second,
	}, log, nil)
	coordinator.Now = func() time.Time { return time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC) }
	coordinator.NewID = func() string { return "run-1" }

	m := metrics.New()
	return &Service{
		Config:      cfg,
		Coordinator: coordinator,
		Notifier:    notify.New(channels, time.Second, log, m),
		Log:         log,
		Metrics:     m,
	}
}

func TestRunOnceDeliversPartialReport(t *testing.T) {
	email := &recordingChannel{name: "email"}
	svc := suratService(t, email)

	report, err := svc.RunOnce(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Weather.OK())
	assert.True(t, report.Stocks.OK())
	assert.False(t, report.News.OK())
	require.Len(t, report.Stocks.Data, 2)
	assert.Equal(t, "AAPL", report.Stocks.Data[0].Symbol)
	assert.Equal(t, "META", report.Stocks.Data[1].Symbol)

	require.Len(t, email.got, 1, "email is still attempted")
	msg := email.got[0]
	assert.Equal(t, "Daily Briefing - Saturday, June 01, 2024", msg.Subject)
	assert.Contains(t, msg.Body, "Surat")
	assert.Contains(t, msg.Body, "AAPL")
	assert.Contains(t, msg.Body, "META")
	assert.Contains(t, msg.Body, "data unavailable")

	id, at := svc.LastRun()
	assert.Equal(t, "run-1", id)
	assert.Equal(t, report.GeneratedAt, at)
}

func TestRunOnceAggregatesChannelFailures(t *testing.T) {
	failing := &recordingChannel{name: "email", err: errors.New("535 bad credentials")}
	console := &recordingChannel{name: "console"}
	svc := suratService(t, failing, console)

	_, err := svc.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email: 535 bad credentials")
	assert.Equal(t, 1, failedChannels(err))
	assert.Len(t, console.got, 1)
}

func TestPreviewDoesNotDeliver(t *testing.T) {
	ch := &recordingChannel{name: "console"}
	svc := suratService(t, ch)

	text := svc.Preview(context.Background())
	assert.True(t, strings.HasPrefix(text, "📋 Daily Briefing"))
	assert.Empty(t, ch.got)

	_, at := svc.LastRun()
	assert.True(t, at.IsZero())
}

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestOnlyDeliveredRunsAreCounted(t *testing.T) {
	svc := suratService(t, &recordingChannel{name: "console"})

	svc.Preview(context.Background())
	svc.Preview(context.Background())
	assert.Contains(t, scrape(t, svc.Metrics), "briefing_runs_total 0\n")
	assert.Contains(t, scrape(t, svc.Metrics), "briefing_last_run_timestamp_seconds 0\n")

	_, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	body := scrape(t, svc.Metrics)
	assert.Contains(t, body, "briefing_runs_total 1\n")
	assert.Contains(t, body, "briefing_last_run_timestamp_seconds 1.7172288e+09\n")
}

func TestChannelsOrder(t *testing.T) {
	cfg := config.Config{
		Console: config.Console{Enabled: true},
		Email: config.Email{
			From: "bot@example.com", Password: "pw", To: []string{"me@example.com"},
			Server: "smtp.example.com", Port: 587,
		},
		Webhooks: config.Webhooks{
			Discord: "https://discord.com/api/webhooks/1/token",
			Slack:   "https://hooks.slack.com/services/T/B/X",
		},
		Telegram: config.Telegram{Token: "123456:ABC-DEF", ChatID: "42"},
		Archive:  config.Archive{Dir: t.TempDir()},
	}

	channels, err := Channels(cfg, &bytes.Buffer{})
	require.NoError(t, err)
	names := make([]string, 0, len(channels))
	for _, c := range channels {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"console", "email", "discord", "slack", "telegram", "archive"}, names)
}

func TestChannelsSkipsIncompleteEmail(t *testing.T) {
	cfg := config.Config{Email: config.Email{From: "bot@example.com"}}
	channels, err := Channels(cfg, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Empty(t, channels)
}

func TestChannelsRejectsBadDiscordURL(t *testing.T) {
	cfg := config.Config{Webhooks: config.Webhooks{Discord: "https://example.com/not-a-webhook"}}
	_, err := Channels(cfg, &bytes.Buffer{})
	assert.ErrorContains(t, err, "DISCORD_WEBHOOK_URL")
}

func TestNewsProvider(t *testing.T) {
	assert.IsType(t, &news.GoogleNews{}, NewsProvider(config.News{Provider: "googlenews"}))
	assert.IsType(t, &news.NewsAPI{}, NewsProvider(config.News{Provider: "newsapi"}))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand(&out, &out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)

	out, err = execute(t, "version", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "Go version:")
}

func TestConfigCommandMasksSecrets(t *testing.T) {
	t.Setenv("WEATHER_CITY", "Surat")
	t.Setenv("NEWS_API_KEY", "abcdef123456")
	t.Setenv("STOCK_SYMBOLS", "AAPL,META")

	out, err := execute(t, "config", "--env", t.TempDir()+"/missing.env")
	require.NoError(t, err)
	assert.Contains(t, out, "Weather City:      Surat")
	assert.Contains(t, out, "Stock Symbols:     AAPL,META")
	assert.NotContains(t, out, "abcdef123456")
}

func TestRunCommandRejectsInvalidConfig(t *testing.T) {
	t.Setenv("WEATHER_UNITS", "kelvin")
	_, err := execute(t, "run", "--env", t.TempDir()+"/missing.env")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
