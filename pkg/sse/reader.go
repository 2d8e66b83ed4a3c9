package sse

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// Sentinel is the literal data payload a server sends to end a stream.
const Sentinel = "[DONE]"

// ErrDone is returned by Reader.Next once a bare "data: [DONE]" line has been
// read. The stream is over: no further lines are consumed.
var ErrDone = errors.New("sse: stream done")

// Reader groups the lines of an SSE stream into frames. It can optionally tee
// every raw line to a destination io.Writer while parsing.
//
// ┌──────────────────┐
// │ source io.Reader │
// └──────────────────┘
// │
// ▼
// ┌──────────────────┐   ┌──────────────────────────────┐
// │  Reader.Next()   │──▶│ destination io.Writer (opt.) │
// └──────────────────┘   └──────────────────────────────┘
// │
// ▼
// ┌──────────────────┐
// │      Frame       │
// └──────────────────┘
type Reader struct {
	scanner *bufio.Scanner
	dest    io.Writer

	// current accumulates fields for the frame being built in the current scan.
	current *Frame
	done    bool
}

// NewReader returns a Reader that parses SSE frames from src.
func NewReader(src io.Reader) *Reader {
	return NewTeeReader(src, nil)
}

// NewTeeReader returns a Reader that parses SSE frames from src and writes
// every raw line, newline included, to dest. A nil dest disables the tee.
func NewTeeReader(src io.Reader, dest io.Writer) *Reader {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	return &Reader{
		scanner: scanner,
		dest:    dest,
		current: &Frame{},
	}
}

// Next returns the next complete frame. It blocks until a frame boundary (a
// blank line) is read or the source is exhausted.
//
// Next returns nil, nil when the source is exhausted and no partial frame is
// left to flush, and nil, ErrDone after a bare "[DONE]" data line.
func (r *Reader) Next() (*Frame, error) {
	if r.done {
		return nil, ErrDone
	}

	for r.scanner.Scan() {
		// bufio.ScanLines already drops a trailing "\r".
		raw := strings.ToValidUTF8(r.scanner.Text(), "\uFFFD")

		if r.dest != nil {
			if _, err := io.WriteString(r.dest, raw+"\n"); err != nil {
				return nil, err
			}
		}

		// A blank line signals the end of the current frame.
		if raw == "" {
			if !r.current.Empty() {
				frame := r.current
				r.reset()
				return frame, nil
			}

			// Keep-alive newline or blank line after an empty frame.
			continue
		}

		// Lines starting with ':' are comments.
		if strings.HasPrefix(raw, ":") {
			continue
		}

		if r.parseLine(raw) {
			r.done = true
			r.reset()
			return nil, ErrDone
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	// Source exhausted. Flush an in-progress frame once (the stream ended
	// without a trailing blank line).
	if !r.current.Empty() {
		frame := r.current
		r.reset()
		return frame, nil
	}

	return nil, nil
}

// parseLine accumulates a single non-empty, non-comment line into the current
// frame. It reports true when the line is the bare "[DONE]" sentinel.
func (r *Reader) parseLine(line string) bool {
	switch {
	case strings.HasPrefix(line, "event:"):
		r.current.Event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))

	case strings.HasPrefix(line, "data:"):
		// Strip at most one space after the colon.
		value := strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " ")
		if strings.TrimSpace(value) == Sentinel {
			return true
		}
		r.current.Data = append(r.current.Data, value)

	default:
		// Continuation of a multi-line payload sent without repeated
		// "data:" prefixes. Ignored until the frame has data.
		if len(r.current.Data) > 0 {
			r.current.Data = append(r.current.Data, line)
		}
	}

	return false
}

// reset clears the accumulated frame state for the next frame.
func (r *Reader) reset() {
	r.current = &Frame{}
}
