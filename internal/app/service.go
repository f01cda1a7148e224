package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"dailybriefing/internal/briefing"
	"dailybriefing/internal/calendar"
	"dailybriefing/internal/config"
	"dailybriefing/internal/metrics"
	"dailybriefing/internal/news"
	"dailybriefing/internal/notify"
	"dailybriefing/internal/stocks"
	"dailybriefing/internal/weather"
)

// Service runs the whole pipeline: generate, render, deliver.
type Service struct {
	Config      config.Config
	Coordinator *briefing.Coordinator
	Notifier    *notify.Notifier
	Log         logrus.FieldLogger
	// Metrics counts delivered runs only; previews are not runs.
	Metrics *metrics.Metrics

	mu        sync.Mutex
	lastRunID string
	lastRunAt time.Time
}

func NewService(cfg config.Config, log logrus.FieldLogger, m *metrics.Metrics, stdout io.Writer) (*Service, error) {
	channels, err := Channels(cfg, stdout)
	if err != nil {
		return nil, err
	}

	coordinator := briefing.NewCoordinator(
		weather.NewClient(cfg.Weather.ForecastURL, cfg.Weather.GeocodingURL),
		NewsProvider(cfg.News),
		stocks.NewClient(cfg.Stocks.APIURL, cfg.Stocks.APIKey, cfg.Stocks.RatePerMinute),
		calendar.NewClient(cfg.Calendar.Enabled),
		briefing.Timeouts{
			Weather:  cfg.Timeouts.Weather,
			News:     cfg.Timeouts.News,
			Stocks:   cfg.Timeouts.Stocks,
			Calendar: cfg.Timeouts.Calendar,
		},
		log, m,
	)

	return &Service{
		Config:      cfg,
		Coordinator: coordinator,
		Notifier:    notify.New(channels, cfg.Timeouts.Notify, log, m),
		Log:         log,
		Metrics:     m,
	}, nil
}

// NewsProvider picks the headline source named by NEWS_PROVIDER.
func NewsProvider(cfg config.News) briefing.NewsSource {
	if cfg.Provider == "googlenews" {
		return news.NewGoogleNews(cfg.RSSURL, cfg.Limit)
	}
	return news.NewNewsAPI(cfg.APIURL, cfg.APIKey, cfg.Limit)
}

// Channels builds the enabled delivery channels in delivery order.
func Channels(cfg config.Config, stdout io.Writer) ([]notify.Channel, error) {
	var out []notify.Channel

	if cfg.Console.Enabled {
		out = append(out, notify.NewConsole(stdout))
	}
	if cfg.Email.Enabled() {
		out = append(out, notify.NewEmail(cfg.Email))
	}
	if cfg.Webhooks.Discord != "" {
		d, err := notify.NewDiscord(cfg.Webhooks.Discord)
		if err != nil {
			return nil, fmt.Errorf("DISCORD_WEBHOOK_URL: %w", err)
		}
		out = append(out, d)
	}
	if cfg.Webhooks.Slack != "" {
		out = append(out, notify.NewSlack(cfg.Webhooks.Slack))
	}
	if cfg.Telegram.Token != "" {
		t, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN: %w", err)
		}
		out = append(out, t)
	}
	if cfg.Archive.Dir != "" {
		out = append(out, notify.NewArchive(cfg.Archive.Dir))
	}
	return out, nil
}

func (s *Service) Request() briefing.Request {
	return briefing.Request{
		City:         s.Config.Weather.City,
		Units:        s.Config.Weather.Units,
		NewsCountry:  s.Config.News.Country,
		NewsCategory: s.Config.News.Category,
		Symbols:      s.Config.Stocks.Symbols,
	}
}

// RunOnce generates one briefing and hands it to every channel. The report is
// returned even when delivery fails; the error aggregates channel failures.
func (s *Service) RunOnce(ctx context.Context) (briefing.Report, error) {
	report := s.Coordinator.Generate(ctx, s.Request())
	s.Metrics.Run(report.GeneratedAt, s.Coordinator.Now().Sub(report.GeneratedAt))
	log := s.Log.WithField("run_id", report.RunID)

	if failed := report.Failed(); failed > 0 {
		log.WithField("unavailable", failed).Warn("delivering briefing with missing sections")
	}

	msg := notify.Message{
		Subject: report.Subject(),
		Body:    briefing.Render(report),
		Date:    report.GeneratedAt,
	}
	err := s.Notifier.Send(ctx, msg)

	s.mu.Lock()
	s.lastRunID = report.RunID
	s.lastRunAt = report.GeneratedAt
	s.mu.Unlock()

	if err != nil {
		return report, fmt.Errorf("delivery: %w", err)
	}
	log.WithField("channels", len(s.Notifier.Channels)).Info("briefing delivered")
	return report, nil
}

// Preview renders a fresh briefing without delivering it.
func (s *Service) Preview(ctx context.Context) string {
	return briefing.Render(s.Coordinator.Generate(ctx, s.Request()))
}

func (s *Service) LastRun() (string, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRunID, s.lastRunAt
}

// failedChannels counts the channel errors aggregated in err.
func failedChannels(err error) int {
	if err == nil {
		return 0
	}
	var merr *multierror.Error
	if errors.As(err, &merr) {
		return len(merr.Errors)
	}
	return 1
}
