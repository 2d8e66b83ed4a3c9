package sse

import (
	"errors"
	"fmt"
	"io"
)

// Consume reads the SSE stream r to its end and delivers its events to h.
//
// Reading stops at the "[DONE]" sentinel, at an error frame or when r is
// exhausted, in which case a partial trailing frame is flushed first. h.OnDone
// is called exactly once in all cases. A read failure is reported through
// h.OnError and returned.
func Consume(r io.Reader, h Handler, opts ...Option) error {
	o := newOptions(opts)
	reader := NewTeeReader(r, o.tee)
	dispatcher := NewDispatcher(h, opts...)

	for {
		frame, err := reader.Next()
		if errors.Is(err, ErrDone) {
			dispatcher.Done()
			return nil
		}
		if err != nil {
			o.logger.Error("error reading SSE stream", "error", err)
			dispatcher.Fail(err)
			return fmt.Errorf("reading stream: %w", err)
		}
		if frame == nil {
			break
		}

		if dispatcher.Dispatch(frame) {
			return nil
		}
	}

	dispatcher.Done()
	return nil
}
