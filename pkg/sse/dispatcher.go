package sse

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// streamErrorMessage is reported when an error frame carries no message.
const streamErrorMessage = "Stream error"

// DispatchState is the mutable state of a single stream. It is owned by one
// Dispatcher and never shared between streams.
type DispatchState struct {
	// DoneSignalled guards the at-most-once OnDone call.
	DoneSignalled bool

	// HasEmittedDelta is set once a text delta has been delivered. A later
	// completed payload is then not rendered again.
	HasEmittedDelta bool

	// Errored is set once OnError has been called.
	Errored bool
}

// Option configures a Dispatcher or a Consume call.
type Option func(*options)

type options struct {
	logger *slog.Logger
	tee    io.Writer
}

// WithLogger sets the diagnostic logger used to report malformed payloads and
// failing message callbacks. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTee copies every raw stream line to w. Only used by Consume.
func WithTee(w io.Writer) Option {
	return func(o *options) {
		o.tee = w
	}
}

func newOptions(opts []Option) *options {
	o := &options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Dispatcher classifies frames and invokes the Handler callbacks.
type Dispatcher struct {
	handler Handler
	logger  *slog.Logger
	state   DispatchState
}

// NewDispatcher returns a Dispatcher delivering events to h.
func NewDispatcher(h Handler, opts ...Option) *Dispatcher {
	o := newOptions(opts)
	return &Dispatcher{
		handler: h,
		logger:  o.logger,
	}
}

// State returns a copy of the current dispatch state.
func (d *Dispatcher) State() DispatchState {
	return d.state
}

// Dispatch processes one frame and reports whether the caller must stop
// reading the stream.
func (d *Dispatcher) Dispatch(f *Frame) bool {
	if f.Empty() {
		return false
	}

	raw := f.Payload()
	errorEvent := strings.EqualFold(f.Event, TypeError)

	if raw == "" {
		if errorEvent {
			d.fail(streamErrorMessage)
			return true
		}
		return false
	}

	payload, err := DecodePayload(raw)
	if err != nil {
		d.logger.Warn("malformed stream payload, rendering as text",
			"error", err,
			"payload", raw,
		)
	}

	if payload.Kind == PayloadSentinel {
		d.Done()
		return true
	}

	if errorEvent || payload.Kind == PayloadError {
		msg := payload.Message
		if msg == "" {
			msg = raw
		}
		d.fail(msg)
		return true
	}

	if d.acceptsMessages() {
		d.emit(payload)
	}

	return false
}

// Done signals the end of the stream if it has not been signalled yet.
func (d *Dispatcher) Done() {
	if d.state.DoneSignalled {
		return
	}
	d.state.DoneSignalled = true
	d.handler.OnDone()
}

// Fail reports a transport failure: the error callback followed by done.
// It is a no-op once the stream has already ended.
func (d *Dispatcher) Fail(err error) {
	if d.state.DoneSignalled {
		return
	}

	msg := streamErrorMessage
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	d.fail(msg)
}

func (d *Dispatcher) fail(msg string) {
	if msg == "" {
		msg = streamErrorMessage
	}

	d.state.Errored = true
	d.handler.OnError(msg)
	d.Done()
}

func (d *Dispatcher) emit(p Payload) {
	switch p.Kind {
	case PayloadTextDelta:
		d.state.HasEmittedDelta = true
		d.deliver(p.Text)

	case PayloadTextCompleted:
		// Backends that do not stream deltas only send the completed text.
		if !d.state.HasEmittedDelta {
			d.deliver(p.Text)
		}

	case PayloadPlainText:
		d.deliver(p.Text)

	default:
		d.logger.Debug("ignoring unrecognized stream payload", "payload", p.Raw)
	}
}

// deliver calls OnMessage, logging instead of propagating any failure.
func (d *Dispatcher) deliver(text string) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("error processing message", "error", fmt.Sprint(r))
		}
	}()

	if err := d.handler.OnMessage(text); err != nil {
		d.logger.Error("error processing message", "error", err)
	}
}

func (d *Dispatcher) acceptsMessages() bool {
	if a, ok := d.handler.(messageAcceptor); ok {
		return a.AcceptsMessages()
	}
	return true
}
