package briefing

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"dailybriefing/internal/fetch"
	"dailybriefing/internal/stocks"
)

const (
	rule          = "--------------------"
	maxDescLength = 100
)

// Render formats r as plain text. The output depends only on r, so the same
// report always renders to the same bytes.
func Render(r Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 Daily Briefing for %s\n\n", r.Date())

	renderWeather(&b, r)
	renderNews(&b, r)
	renderStocks(&b, r)
	renderCalendar(&b, r)

	if notes := r.Notes(); len(notes) > 0 {
		section(&b, "⚠️ NOTES")
		for _, n := range notes {
			fmt.Fprintf(&b, "• %s\n", n)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Generated %s · run %s\n", r.GeneratedAt.Format("2006-01-02 15:04 MST"), r.RunID)
	return b.String()
}

func section(b *strings.Builder, title string) {
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(rule)
	b.WriteString("\n")
}

func unavailable(b *strings.Builder, err error) {
	fmt.Fprintf(b, "data unavailable (%s)\n\n", fetch.Reason(err))
}

func renderWeather(b *strings.Builder, r Report) {
	section(b, "🌤️ WEATHER")
	if !r.Weather.OK() {
		unavailable(b, r.Weather.Err)
		return
	}
	w := r.Weather.Data
	u := w.TempUnit()

	place := w.Location.Name
	if w.Location.Country != "" {
		place += ", " + w.Location.Country
	}
	fmt.Fprintf(b, "📍 %s (%s)\n", place, w.Coordinates())
	if w.Timezone != "" {
		fmt.Fprintf(b, "🕒 %s\n", strings.TrimSpace(w.Timezone+" "+w.TZAbbrev))
	}
	fmt.Fprintf(b, "🌡️ %.1f%s (feels like %.1f%s)\n", w.Temperature, u, w.FeelsLike, u)
	fmt.Fprintf(b, "📊 High: %.1f%s | Low: %.1f%s\n", w.High, u, w.Low, u)
	fmt.Fprintf(b, "%s %s\n", w.Icon(), w.Description())
	fmt.Fprintf(b, "💨 Wind: %.1f %s\n", w.WindSpeed, w.WindUnit())
	fmt.Fprintf(b, "💧 Humidity: %.0f%%\n", w.Humidity)
	if w.Rain > 0 {
		fmt.Fprintf(b, "🌧️ Rain: %.1f mm\n", w.Rain)
	}
	if len(w.Forecast) > 0 {
		b.WriteString("📈 Next 12 Hours:\n")
		for _, p := range w.Forecast {
			rain := ""
			if p.Rain > 0 {
				rain = fmt.Sprintf(" | %.1fmm", p.Rain)
			}
			fmt.Fprintf(b, "  %s: %.1f%s - %s %s%s\n", p.Time.Format("15:04"), p.Temperature, u, p.Icon(), p.Description(), rain)
		}
	}
	b.WriteString("\n")
}

func renderNews(b *strings.Builder, r Report) {
	if !r.News.OK() {
		section(b, "📰 NEWS HIGHLIGHTS")
		unavailable(b, r.News.Err)
		return
	}
	h := r.News.Data
	section(b, "📰 NEWS HIGHLIGHTS · "+h.Label())
	if len(h.Articles) == 0 {
		b.WriteString("No headlines right now\n\n")
		return
	}
	for i, a := range h.Articles {
		fmt.Fprintf(b, "%d. %s\n", i+1, a.Title)
		fmt.Fprintf(b, "   Source: %s\n", a.Source)
		if a.Description != "" {
			fmt.Fprintf(b, "   %s\n", truncate(a.Description, maxDescLength))
		}
		b.WriteString("\n")
	}
}

func renderStocks(b *strings.Builder, r Report) {
	section(b, "📈 STOCK PRICES")
	entries := r.Stocks.Data
	if len(entries) == 0 {
		if r.Stocks.Err != nil {
			unavailable(b, r.Stocks.Err)
			return
		}
		b.WriteString("No symbols configured\n\n")
		return
	}
	for _, e := range entries {
		b.WriteString(stockLine(e))
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func stockLine(e stocks.Entry) string {
	if e.Err != nil || e.Quote == nil {
		return fmt.Sprintf("⚠️ %s: data unavailable (%s)", e.Symbol, fetch.Reason(e.Err))
	}
	q := e.Quote
	arrow := "📉"
	if q.Up() {
		arrow = "📈"
	}
	return fmt.Sprintf("%s %s: $%s ($%s, %s%%)", arrow, e.Symbol, q.Price.StringFixed(2), signed(q.Change), signed(q.ChangePercent))
}

func signed(d decimal.Decimal) string {
	s := d.StringFixed(2)
	if !d.IsNegative() {
		return "+" + s
	}
	return s
}

func renderCalendar(b *strings.Builder, r Report) {
	section(b, "📅 TODAY'S SCHEDULE")
	if !r.Calendar.OK() {
		unavailable(b, r.Calendar.Err)
		return
	}
	day := r.Calendar.Data
	switch {
	case !day.Enabled:
		b.WriteString("Calendar integration not enabled\n")
	case len(day.Events) == 0:
		b.WriteString("No events scheduled for today\n")
	default:
		for _, e := range day.Events {
			where := ""
			if e.Location != "" {
				where = " @ " + e.Location
			}
			fmt.Fprintf(b, "🕐 %s-%s: %s%s\n", e.Start.Format("15:04"), e.End.Format("15:04"), e.Title, where)
		}
	}
	b.WriteString("\n")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n])) + "..."
}
