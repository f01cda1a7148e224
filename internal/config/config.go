// Package config loads the runtime settings from environment variables,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config is the full set of settings.
type Config struct {
	Weather    Weather
	News       News
	Stocks     Stocks
	Calendar   Calendar
	Email      Email
	Webhooks   Webhooks
	Telegram   Telegram
	Archive    Archive
	Console    Console
	Schedule   Schedule
	Timeouts   Timeouts
	Log        Log
	StatusAddr string `env:"STATUS_ADDR"` // status listener for schedule mode, empty disables
}

type Weather struct {
	City         string `env:"WEATHER_CITY" envDefault:"Surat"`
	Units        string `env:"WEATHER_UNITS" envDefault:"metric"` // metric | imperial
	GeocodingURL string `env:"WEATHER_GEOCODING_URL" envDefault:"https://geocoding-api.open-meteo.com"`
	ForecastURL  string `env:"WEATHER_FORECAST_URL" envDefault:"https://api.open-meteo.com"`
}

type News struct {
	Provider string `env:"NEWS_PROVIDER" envDefault:"newsapi"` // newsapi | googlenews
	APIKey   string `env:"NEWS_API_KEY"`
	Country  string `env:"NEWS_COUNTRY" envDefault:"us"`
	Category string `env:"NEWS_CATEGORY" envDefault:"general"`
	Limit    int    `env:"NEWS_LIMIT" envDefault:"5"`
	APIURL   string `env:"NEWS_API_URL" envDefault:"https://newsapi.org"`
	RSSURL   string `env:"NEWS_RSS_URL" envDefault:"https://news.google.com"`
}

type Stocks struct {
	APIKey        string   `env:"STOCK_API_KEY"`
	Symbols       []string `env:"STOCK_SYMBOLS" envSeparator:"," envDefault:"AAPL,GOOGL,MSFT,TSLA"`
	APIURL        string   `env:"STOCK_API_URL" envDefault:"https://www.alphavantage.co"`
	RatePerMinute int      `env:"STOCK_RATE_PER_MINUTE" envDefault:"5"`
}

type Calendar struct {
	Enabled bool `env:"CALENDAR_ENABLED" envDefault:"false"`
}

type Email struct {
	From     string   `env:"EMAIL_FROM"`
	Password string   `env:"EMAIL_PASSWORD"`
	To       []string `env:"EMAIL_TO" envSeparator:","`
	Username string   `env:"SMTP_USERNAME"` // defaults to From
	Server   string   `env:"SMTP_SERVER" envDefault:"smtp.gmail.com"`
	Port     int      `env:"SMTP_PORT" envDefault:"587"`
	UseTLS   bool     `env:"SMTP_USE_TLS" envDefault:"true"`
	UseSSL   bool     `env:"SMTP_USE_SSL" envDefault:"false"`
}

// Enabled reports whether every credential needed to send mail is present.
func (e Email) Enabled() bool {
	return e.From != "" && e.Password != "" && len(e.To) > 0
}

// partial reports whether some, but not all, email settings are present.
func (e Email) partial() bool {
	some := e.From != "" || e.Password != "" || len(e.To) > 0
	return some && !e.Enabled()
}

type Webhooks struct {
	Discord string `env:"DISCORD_WEBHOOK_URL"`
	Slack   string `env:"SLACK_WEBHOOK_URL"`
}

type Telegram struct {
	Token  string `env:"TELEGRAM_BOT_TOKEN"`
	ChatID string `env:"TELEGRAM_CHAT_ID"`
}

type Archive struct {
	Dir string `env:"ARCHIVE_DIR"` // docx output directory, empty disables
}

type Console struct {
	Enabled bool `env:"CONSOLE_ENABLED" envDefault:"true"`
}

type Schedule struct {
	Times    []string `env:"BRIEFING_TIMES" envSeparator:"," envDefault:"08:00"`
	Timezone string   `env:"BRIEFING_TIMEZONE" envDefault:"Local"`
}

// Location resolves the schedule timezone.
func (s Schedule) Location() (*time.Location, error) {
	if s.Timezone == "" || strings.EqualFold(s.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(s.Timezone)
}

type Timeouts struct {
	Weather  time.Duration `env:"WEATHER_TIMEOUT" envDefault:"15s"`
	News     time.Duration `env:"NEWS_TIMEOUT" envDefault:"15s"`
	Stocks   time.Duration `env:"STOCK_TIMEOUT" envDefault:"45s"`
	Calendar time.Duration `env:"CALENDAR_TIMEOUT" envDefault:"5s"`
	Notify   time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"30s"`
}

type Log struct {
	Level      string `env:"LOG_LEVEL" envDefault:"info"`
	Format     string `env:"LOG_FORMAT" envDefault:"text"` // text | json
	File       string `env:"LOG_FILE" envDefault:"logs/briefing_bot.log"`
	MaxSize    int    `env:"LOG_MAX_SIZE" envDefault:"10"` // megabytes
	MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"5"`
	MaxAge     int    `env:"LOG_MAX_AGE" envDefault:"30"` // days
}

// Load reads envfile (or ./.env when envfile is empty) if it exists, then
// parses the environment. Values already set in the environment win over the
// file.
func Load(envfile string) (Config, error) {
	if envfile == "" {
		envfile = ".env"
	}
	file, err := filepath.Abs(envfile)
	if err != nil {
		return Config{}, err
	}
	if _, err := os.Stat(file); err == nil {
		if err := godotenv.Load(file); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}

	return Parse()
}

// Parse reads the configuration from the process environment only.
func Parse() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("can't read config: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	c.Weather.City = strings.TrimSpace(c.Weather.City)
	c.Weather.Units = strings.ToLower(strings.TrimSpace(c.Weather.Units))
	c.News.Provider = strings.ToLower(strings.TrimSpace(c.News.Provider))
	c.News.Country = strings.ToLower(strings.TrimSpace(c.News.Country))
	c.News.Category = strings.ToLower(strings.TrimSpace(c.News.Category))

	symbols := make([]string, 0, len(c.Stocks.Symbols))
	for _, s := range c.Stocks.Symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			symbols = append(symbols, s)
		}
	}
	c.Stocks.Symbols = symbols

	to := make([]string, 0, len(c.Email.To))
	for _, addr := range c.Email.To {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}
	c.Email.To = to
	if c.Email.Username == "" {
		c.Email.Username = c.Email.From
	}

	times := make([]string, 0, len(c.Schedule.Times))
	for _, t := range c.Schedule.Times {
		if t = strings.TrimSpace(t); t != "" {
			times = append(times, t)
		}
	}
	c.Schedule.Times = times
}

var (
	reSymbol    = regexp.MustCompile(`^[A-Z0-9.\-]{1,12}$`)
	reClock     = regexp.MustCompile(`^([01]?\d|2[0-3]):([0-5]\d)$`)
	newsFilters = map[string]bool{
		"general": true, "business": true, "entertainment": true, "health": true,
		"science": true, "sports": true, "technology": true,
	}
)

// Validate returns the problems that must stop the program at startup.
func (c Config) Validate() error {
	var problems []string
	if c.Weather.City == "" {
		problems = append(problems, "WEATHER_CITY is required")
	}
	if c.Weather.Units != "metric" && c.Weather.Units != "imperial" {
		problems = append(problems, fmt.Sprintf("WEATHER_UNITS must be metric or imperial, got %q", c.Weather.Units))
	}
	if c.News.Provider != "newsapi" && c.News.Provider != "googlenews" {
		problems = append(problems, fmt.Sprintf("NEWS_PROVIDER must be newsapi or googlenews, got %q", c.News.Provider))
	}
	if !newsFilters[c.News.Category] {
		problems = append(problems, fmt.Sprintf("NEWS_CATEGORY %q is not a known category", c.News.Category))
	}
	if c.News.Limit <= 0 {
		problems = append(problems, "NEWS_LIMIT must be positive")
	}
	for _, s := range c.Stocks.Symbols {
		if !reSymbol.MatchString(s) {
			problems = append(problems, fmt.Sprintf("STOCK_SYMBOLS contains invalid symbol %q", s))
		}
	}
	if c.Stocks.RatePerMinute <= 0 {
		problems = append(problems, "STOCK_RATE_PER_MINUTE must be positive")
	}
	if len(c.Schedule.Times) == 0 {
		problems = append(problems, "BRIEFING_TIMES needs at least one HH:MM entry")
	}
	for _, t := range c.Schedule.Times {
		if !reClock.MatchString(t) {
			problems = append(problems, fmt.Sprintf("BRIEFING_TIMES entry %q is not HH:MM", t))
		}
	}
	if _, err := c.Schedule.Location(); err != nil {
		problems = append(problems, fmt.Sprintf("BRIEFING_TIMEZONE: %v", err))
	}
	if c.Telegram.Token != "" && c.Telegram.ChatID == "" {
		problems = append(problems, "TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.New("invalid configuration: " + strings.Join(problems, "; "))
}

// Warnings lists settings that degrade the briefing without being fatal.
func (c Config) Warnings() []string {
	var out []string
	if c.News.Provider == "newsapi" && c.News.APIKey == "" {
		out = append(out, "NEWS_API_KEY is not set, news will be unavailable")
	}
	if len(c.Stocks.Symbols) > 0 && c.Stocks.APIKey == "" {
		out = append(out, "STOCK_API_KEY is not set, stock quotes will be unavailable")
	}
	if c.Email.partial() {
		out = append(out, "email needs EMAIL_FROM, EMAIL_PASSWORD and EMAIL_TO, email delivery is disabled")
	}
	return out
}

// ParseClock splits an HH:MM entry already accepted by Validate.
func ParseClock(s string) (hour, minute int, err error) {
	m := reClock.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, fmt.Errorf("%q is not HH:MM", s)
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	return hour, minute, nil
}

// Redacted renders the effective configuration with secrets masked.
func (c Config) Redacted() []string {
	return []string{
		"Weather City:      " + c.Weather.City,
		"Weather Units:     " + c.Weather.Units,
		"News Provider:     " + c.News.Provider,
		"News API Key:      " + mask(c.News.APIKey),
		"News Country:      " + c.News.Country,
		"News Category:     " + c.News.Category,
		"Stock Symbols:     " + strings.Join(c.Stocks.Symbols, ","),
		"Stock API Key:     " + mask(c.Stocks.APIKey),
		fmt.Sprintf("Calendar Enabled:  %t", c.Calendar.Enabled),
		fmt.Sprintf("Email Enabled:     %t", c.Email.Enabled()),
		"Email To:          " + strings.Join(c.Email.To, ","),
		"Discord Webhook:   " + mask(c.Webhooks.Discord),
		"Slack Webhook:     " + mask(c.Webhooks.Slack),
		"Telegram Token:    " + mask(c.Telegram.Token),
		"Archive Dir:       " + c.Archive.Dir,
		"Briefing Times:    " + strings.Join(c.Schedule.Times, ","),
		"Briefing Timezone: " + c.Schedule.Timezone,
	}
}

func mask(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:2] + strings.Repeat("*", 6) + secret[len(secret)-2:]
}
