// Package schedule fires the briefing pipeline at fixed times of day.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"dailybriefing/internal/config"
)

// Job is one pipeline run. Runs are not serialised; a slow run may overlap
// the next trigger.
type Job func(ctx context.Context)

type Scheduler struct {
	cron      *cron.Cron
	location  *time.Location
	schedules []cron.Schedule
	specs     []string
	job       Job
	log       logrus.FieldLogger

	base context.Context
}

// Spec converts an HH:MM time of day into a daily cron expression.
func Spec(clock string) (string, error) {
	hour, minute, err := config.ParseClock(clock)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

func New(cfg config.Schedule, job Job, log logrus.FieldLogger) (*Scheduler, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("schedule timezone %q: %w", cfg.Timezone, err)
	}
	if len(cfg.Times) == 0 {
		return nil, fmt.Errorf("no briefing times configured")
	}

	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cron.PrintfLogger(log)),
		),
		location: loc,
		job:      job,
		log:      log,
		base:     context.Background(),
	}
	for _, clock := range cfg.Times {
		spec, err := Spec(clock)
		if err != nil {
			return nil, fmt.Errorf("briefing time %q: %w", clock, err)
		}
		sched, err := cron.ParseStandard(spec)
		if err != nil {
			return nil, fmt.Errorf("briefing time %q: %w", clock, err)
		}
		s.add(sched)
		s.specs = append(s.specs, spec)
	}
	return s, nil
}

func (s *Scheduler) add(sched cron.Schedule) {
	s.schedules = append(s.schedules, sched)
	s.cron.Schedule(sched, cron.FuncJob(func() {
		s.job(s.base)
	}))
}

// Specs returns the cron expressions in configured order.
func (s *Scheduler) Specs() []string {
	return append([]string(nil), s.specs...)
}

// Next is the earliest trigger strictly after now.
func (s *Scheduler) Next(now time.Time) time.Time {
	var next time.Time
	for _, sched := range s.schedules {
		t := sched.Next(now.In(s.location))
		if next.IsZero() || t.Before(next) {
			next = t
		}
	}
	return next
}

// Run starts the scheduler and blocks until ctx is cancelled. A run that is
// already in progress is allowed to finish before Run returns; it does not
// see the cancellation.
func (s *Scheduler) Run(ctx context.Context) error {
	s.base = context.WithoutCancel(ctx)
	s.cron.Start()
	s.log.WithFields(logrus.Fields{
		"times":    s.specs,
		"timezone": s.location.String(),
		"next":     s.Next(time.Now()).Format(time.RFC3339),
	}).Info("scheduler started")

	<-ctx.Done()

	s.log.Info("scheduler stopping, waiting for running briefing")
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
	return nil
}
