package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "Surat", cfg.Weather.City)
	assert.Equal(t, "metric", cfg.Weather.Units)
	assert.Equal(t, "newsapi", cfg.News.Provider)
	assert.Equal(t, "us", cfg.News.Country)
	assert.Equal(t, "general", cfg.News.Category)
	assert.Equal(t, 5, cfg.News.Limit)
	assert.Equal(t, []string{"AAPL", "GOOGL", "MSFT", "TSLA"}, cfg.Stocks.Symbols)
	assert.Equal(t, []string{"08:00"}, cfg.Schedule.Times)
	assert.Equal(t, 15*time.Second, cfg.Timeouts.Weather)
	assert.Equal(t, 587, cfg.Email.Port)
	assert.True(t, cfg.Console.Enabled)
	assert.False(t, cfg.Email.Enabled())
	assert.NoError(t, cfg.Validate())
}

func TestParseNormalizes(t *testing.T) {
	t.Setenv("WEATHER_CITY", "  Surat ")
	t.Setenv("WEATHER_UNITS", "Imperial")
	t.Setenv("STOCK_SYMBOLS", " aapl, meta ,,")
	t.Setenv("EMAIL_FROM", "bot@example.com")
	t.Setenv("EMAIL_PASSWORD", "pw")
	t.Setenv("EMAIL_TO", "a@example.com, b@example.com")
	t.Setenv("BRIEFING_TIMES", "08:00, 18:30")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "Surat", cfg.Weather.City)
	assert.Equal(t, "imperial", cfg.Weather.Units)
	assert.Equal(t, []string{"AAPL", "META"}, cfg.Stocks.Symbols)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Email.To)
	assert.Equal(t, "bot@example.com", cfg.Email.Username)
	assert.True(t, cfg.Email.Enabled())
	assert.Equal(t, []string{"08:00", "18:30"}, cfg.Schedule.Times)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "briefing.env")
	require.NoError(t, os.WriteFile(file, []byte("WEATHER_CITY=London\nNEWS_COUNTRY=GB\n"), 0o600))
	t.Setenv("WEATHER_CITY", "")
	os.Unsetenv("WEATHER_CITY")
	t.Setenv("NEWS_COUNTRY", "fr")

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, "London", cfg.Weather.City)
	assert.Equal(t, "fr", cfg.News.Country, "environment wins over the file")
}

func TestLoadMissingEnvFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "Surat", cfg.Weather.City)
}

func TestValidate(t *testing.T) {
	base, err := Parse()
	require.NoError(t, err)

	cases := map[string]func(c *Config){
		"empty city":       func(c *Config) { c.Weather.City = "" },
		"bad units":        func(c *Config) { c.Weather.Units = "kelvin" },
		"bad provider":     func(c *Config) { c.News.Provider = "bing" },
		"bad category":     func(c *Config) { c.News.Category = "gossip" },
		"bad symbol":       func(c *Config) { c.Stocks.Symbols = []string{"AAPL", "NOT A SYMBOL"} },
		"bad time":         func(c *Config) { c.Schedule.Times = []string{"25:00"} },
		"no times":         func(c *Config) { c.Schedule.Times = nil },
		"bad timezone":     func(c *Config) { c.Schedule.Timezone = "Mars/Olympus" },
		"telegram no chat": func(c *Config) { c.Telegram.Token = "123:abc" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base
			cfg.Stocks.Symbols = append([]string(nil), base.Stocks.Symbols...)
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestWarnings(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)
	cfg.Email.From = "bot@example.com"

	warnings := cfg.Warnings()
	assert.Len(t, warnings, 3)
	assert.Contains(t, warnings[0], "NEWS_API_KEY")
	assert.Contains(t, warnings[1], "STOCK_API_KEY")
	assert.Contains(t, warnings[2], "email")

	cfg.News.APIKey = "k"
	cfg.Stocks.APIKey = "k"
	cfg.Email.From = ""
	assert.Empty(t, cfg.Warnings())
}

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock("7:05")
	require.NoError(t, err)
	assert.Equal(t, 7, h)
	assert.Equal(t, 5, m)

	_, _, err = ParseClock("noon")
	assert.Error(t, err)
}

func TestRedactedMasksSecrets(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)
	cfg.News.APIKey = "abcdef123456"

	lines := cfg.Redacted()
	assert.Contains(t, lines, "News API Key:      ab******56")
	assert.Contains(t, lines, "Stock API Key:     (not set)")
}
