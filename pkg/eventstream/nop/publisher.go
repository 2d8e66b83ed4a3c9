// Package nop provides the publisher used when no event backend is
// configured. It validates and counts events, logging each at debug level.
package nop

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/papercomputeco/codeer/pkg/eventstream"
)

// Publisher drops reply events after validating them.
type Publisher struct {
	logger    *slog.Logger
	published atomic.Int64
}

// NewPublisher creates a publisher that only logs to logger. A nil logger
// discards.
func NewPublisher(logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Publisher{logger: logger}
}

func (p *Publisher) PublishReply(_ context.Context, event *eventstream.ReplyEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}

	p.published.Add(1)
	p.logger.Debug("reply event dropped",
		"event_id", event.EventID,
		"history_id", event.HistoryID,
		"deltas", event.Deltas,
	)
	return nil
}

// Published returns how many valid events were handed to the publisher.
func (p *Publisher) Published() int64 {
	return p.published.Load()
}

func (p *Publisher) Close() error {
	return nil
}
