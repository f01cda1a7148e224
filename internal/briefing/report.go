// Package briefing gathers the four data sources into one report and renders
// it as text.
package briefing

import (
	"fmt"
	"time"

	"dailybriefing/internal/calendar"
	"dailybriefing/internal/fetch"
	"dailybriefing/internal/news"
	"dailybriefing/internal/stocks"
	"dailybriefing/internal/weather"
)

const (
	SourceWeather  = "weather"
	SourceNews     = "news"
	SourceStocks   = "stocks"
	SourceCalendar = "calendar"
)

// Request is what one briefing is generated for.
type Request struct {
	City         string
	Units        string
	NewsCountry  string
	NewsCategory string
	Symbols      []string
}

// Section holds a source's data, or the error that replaced it.
type Section[T any] struct {
	Data T
	Err  error
}

func (s Section[T]) OK() bool { return s.Err == nil }

// Report is the outcome of one Generate call. It is not modified afterwards.
type Report struct {
	RunID       string
	GeneratedAt time.Time
	Request     Request

	Weather  Section[weather.Snapshot]
	News     Section[news.Headlines]
	Stocks   Section[[]stocks.Entry]
	Calendar Section[calendar.Day]
}

// Date is the long form used in titles, e.g. "Saturday, June 01, 2024".
func (r Report) Date() string {
	return r.GeneratedAt.Format("Monday, January 02, 2006")
}

// Subject is the title used by delivery channels.
func (r Report) Subject() string {
	return "Daily Briefing - " + r.Date()
}

// Notes lists the sections that were replaced by placeholders.
func (r Report) Notes() []string {
	var out []string
	add := func(name string, err error) {
		if err != nil {
			out = append(out, fmt.Sprintf("%s: data unavailable (%s)", name, fetch.Reason(err)))
		}
	}
	add("Weather", r.Weather.Err)
	add("News", r.News.Err)
	add("Stocks", r.Stocks.Err)
	add("Calendar", r.Calendar.Err)
	return out
}

// Failed reports how many of the four sections are placeholders.
func (r Report) Failed() int {
	return len(r.Notes())
}
