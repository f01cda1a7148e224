package briefing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"dailybriefing/internal/calendar"
	"dailybriefing/internal/fetch"
	"dailybriefing/internal/metrics"
	"dailybriefing/internal/news"
	"dailybriefing/internal/stocks"
	"dailybriefing/internal/weather"
)

type WeatherSource interface {
	Fetch(ctx context.Context, city, units string) (weather.Snapshot, error)
}

type NewsSource interface {
	Fetch(ctx context.Context, country, category string) (news.Headlines, error)
}

type StockSource interface {
	Fetch(ctx context.Context, symbols []string) ([]stocks.Entry, error)
}

type CalendarSource interface {
	Fetch(ctx context.Context, day time.Time) (calendar.Day, error)
}

// Timeouts bound each source call separately.
type Timeouts struct {
	Weather  time.Duration
	News     time.Duration
	Stocks   time.Duration
	Calendar time.Duration
}

// Coordinator fans a request out to the four sources.
type Coordinator struct {
	Weather  WeatherSource
	News     NewsSource
	Stocks   StockSource
	Calendar CalendarSource
	Timeouts Timeouts

	Log     logrus.FieldLogger
	Metrics *metrics.Metrics

	// Now and NewID are replaced in tests.
	Now   func() time.Time
	NewID func() string
}

func NewCoordinator(w WeatherSource, n NewsSource, s StockSource, c CalendarSource, t Timeouts, log logrus.FieldLogger, m *metrics.Metrics) *Coordinator {
	return &Coordinator{
		Weather:  w,
		News:     n,
		Stocks:   s,
		Calendar: c,
		Timeouts: t,
		Log:      log,
		Metrics:  m,
		Now:      time.Now,
		NewID:    uuid.NewString,
	}
}

// Generate always returns a complete report. Sources run concurrently, each
// under its own timeout derived from ctx; a source that fails, panics or runs
// out of time is replaced by a placeholder.
func (c *Coordinator) Generate(ctx context.Context, req Request) Report {
	started := c.Now()
	report := Report{
		RunID:       c.NewID(),
		GeneratedAt: started,
		Request:     req,
	}
	log := c.Log.WithField("run_id", report.RunID)
	log.WithFields(logrus.Fields{
		"city":    req.City,
		"symbols": len(req.Symbols),
	}).Info("generating briefing")

	var g errgroup.Group
	g.SetLimit(4)

	g.Go(func() error {
		report.Weather = fetchSection(ctx, c, log, SourceWeather, c.Timeouts.Weather, func(ctx context.Context) (weather.Snapshot, error) {
			return c.Weather.Fetch(ctx, req.City, req.Units)
		})
		return nil
	})
	g.Go(func() error {
		report.News = fetchSection(ctx, c, log, SourceNews, c.Timeouts.News, func(ctx context.Context) (news.Headlines, error) {
			return c.News.Fetch(ctx, req.NewsCountry, req.NewsCategory)
		})
		return nil
	})
	g.Go(func() error {
		report.Stocks = c.stocks(ctx, log, req.Symbols)
		return nil
	})
	g.Go(func() error {
		report.Calendar = fetchSection(ctx, c, log, SourceCalendar, c.Timeouts.Calendar, func(ctx context.Context) (calendar.Day, error) {
			return c.Calendar.Fetch(ctx, started)
		})
		return nil
	})
	_ = g.Wait()

	elapsed := c.Now().Sub(started)
	log.WithFields(logrus.Fields{
		"failed":   report.Failed(),
		"duration": elapsed.Round(time.Millisecond).String(),
	}).Info("briefing generated")
	return report
}

func (c *Coordinator) stocks(ctx context.Context, log logrus.FieldLogger, symbols []string) Section[[]stocks.Entry] {
	if len(symbols) == 0 {
		return Section[[]stocks.Entry]{Data: []stocks.Entry{}}
	}
	sec := fetchSection(ctx, c, log, SourceStocks, c.Timeouts.Stocks, func(ctx context.Context) ([]stocks.Entry, error) {
		got, err := c.Stocks.Fetch(ctx, symbols)
		if err != nil {
			return nil, err
		}
		entries := alignEntries(symbols, got)
		return entries, noQuotes(entries)
	})
	if sec.Err != nil && len(sec.Data) != len(symbols) {
		sec.Data = stocks.Placeholders(symbols, sec.Err)
	}
	return sec
}

// noQuotes returns the first entry's error when not a single symbol was
// quoted, so a source that failed symbol by symbol still counts as failed.
func noQuotes(entries []stocks.Entry) error {
	for _, e := range entries {
		if e.Err == nil {
			return nil
		}
	}
	return entries[0].Err
}

// alignEntries returns exactly one entry per requested symbol, in request
// order, whatever the source handed back.
func alignEntries(symbols []string, got []stocks.Entry) []stocks.Entry {
	bySymbol := make(map[string]stocks.Entry, len(got))
	for _, e := range got {
		if _, seen := bySymbol[e.Symbol]; !seen {
			bySymbol[e.Symbol] = e
		}
	}
	out := make([]stocks.Entry, len(symbols))
	for i, s := range symbols {
		e, ok := bySymbol[s]
		if !ok || (e.Quote == nil && e.Err == nil) {
			e = stocks.Entry{Symbol: s, Err: fetch.Errorf(SourceStocks, fetch.KindMalformed, "%s: no entry returned", s)}
		}
		out[i] = e
	}
	return out
}

// fetchSection runs fn under the source timeout and turns every way it can go
// wrong into a classified error on the section. Whatever fn returned alongside
// its error is kept as the section data.
func fetchSection[T any](ctx context.Context, c *Coordinator, log logrus.FieldLogger, name string, timeout time.Duration, fn func(context.Context) (T, error)) Section[T] {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := c.Now()
	data, err := within(ctx, name, fn)
	elapsed := c.Now().Sub(start)

	entry := log.WithFields(logrus.Fields{
		"source":   name,
		"duration": elapsed.Round(time.Millisecond).String(),
	})
	if err != nil {
		kind := fetch.KindOf(err)
		entry.WithField("kind", kind).WithError(err).Warn("source unavailable")
		c.Metrics.Source(name, string(kind), elapsed)
		return Section[T]{Data: data, Err: err}
	}
	entry.Debug("source ok")
	c.Metrics.Source(name, "", elapsed)
	return Section[T]{Data: data}
}

// within calls fn on its own goroutine so that a call ignoring ctx cannot
// hold the report past its deadline. A panic in fn becomes an error.
func within[T any](ctx context.Context, name string, fn func(context.Context) (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fetch.Errorf(name, fetch.KindNetwork, "panic: %v", r)}
			}
		}()
		v, err := fn(ctx)
		done <- result{v: v, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			if ctx.Err() != nil && fetch.KindOf(r.err) == fetch.KindNetwork {
				return r.v, fetch.Wrap(name, fetch.KindNetwork, fmt.Errorf("%w: %v", ctx.Err(), r.err))
			}
			return r.v, r.err
		}
		return r.v, nil
	case <-ctx.Done():
		var zero T
		return zero, fetch.Wrap(name, fetch.KindNetwork, ctx.Err())
	}
}
