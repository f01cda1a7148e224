// Package calendar provides the day's events. Only a fixed sample agenda is
// available; there is no calendar backend.
package calendar

import (
	"context"
	"time"
)

type Event struct {
	Title     string
	Start     time.Time
	End       time.Time
	Location  string
	Attendees []string
}

func (e Event) Duration() time.Duration { return e.End.Sub(e.Start) }

// Day is the agenda for one date. A disabled day carries no events.
type Day struct {
	Date    time.Time
	Enabled bool
	Events  []Event
}

type Client struct {
	Enabled bool
}

func NewClient(enabled bool) *Client {
	return &Client{Enabled: enabled}
}

type slot struct {
	title     string
	hour, min int
	length    time.Duration
	location  string
	attendees []string
}

var sampleAgenda = []slot{
	{"Morning Standup", 9, 0, 30 * time.Minute, "Conference Room A", []string{"team@company.com"}},
	{"Project Review Meeting", 14, 0, time.Hour, "Zoom", []string{"manager@company.com", "colleague@company.com"}},
	{"Doctor Appointment", 16, 30, 45 * time.Minute, "Medical Center", nil},
}

// Fetch returns the agenda for the calendar date of day, in day's location.
func (c *Client) Fetch(ctx context.Context, day time.Time) (Day, error) {
	if err := ctx.Err(); err != nil {
		return Day{}, err
	}

	y, m, d := day.Date()
	date := time.Date(y, m, d, 0, 0, 0, 0, day.Location())
	if !c.Enabled {
		return Day{Date: date}, nil
	}

	events := make([]Event, 0, len(sampleAgenda))
	for _, s := range sampleAgenda {
		start := time.Date(y, m, d, s.hour, s.min, 0, 0, day.Location())
		events = append(events, Event{
			Title:     s.title,
			Start:     start,
			End:       start.Add(s.length),
			Location:  s.location,
			Attendees: append([]string(nil), s.attendees...),
		})
	}
	return Day{Date: date, Enabled: true, Events: events}, nil
}
