// Package notify delivers a rendered briefing to the configured channels.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"dailybriefing/internal/metrics"
)

// Message is what every channel receives.
type Message struct {
	Subject string
	Body    string
	Date    time.Time
}

type Channel interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Notifier sends to each channel in order. A failing channel is logged and
// skipped; it never stops the channels after it.
type Notifier struct {
	Channels []Channel
	Timeout  time.Duration // per channel, zero means no limit
	Log      logrus.FieldLogger
	Metrics  *metrics.Metrics
}

func New(channels []Channel, timeout time.Duration, log logrus.FieldLogger, m *metrics.Metrics) *Notifier {
	return &Notifier{Channels: channels, Timeout: timeout, Log: log, Metrics: m}
}

// Send attempts every channel and returns the combined failures, if any.
func (n *Notifier) Send(ctx context.Context, msg Message) error {
	var result *multierror.Error
	for _, ch := range n.Channels {
		err := n.sendOne(ctx, ch, msg)
		n.Metrics.Channel(ch.Name(), err)

		entry := n.Log.WithField("channel", ch.Name())
		if err != nil {
			entry.WithError(err).Error("delivery failed")
			result = multierror.Append(result, fmt.Errorf("%s: %w", ch.Name(), err))
			continue
		}
		entry.Info("briefing delivered")
	}
	return result.ErrorOrNil()
}

func (n *Notifier) sendOne(ctx context.Context, ch Channel, msg Message) (err error) {
	if n.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.Timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return ch.Send(ctx, msg)
}

// Names lists the channel names in delivery order.
func (n *Notifier) Names() []string {
	out := make([]string, len(n.Channels))
	for i, ch := range n.Channels {
		out[i] = ch.Name()
	}
	return out
}
