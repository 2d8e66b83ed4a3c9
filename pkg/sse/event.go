// Package sse provides a minimal, purpose-built SSE (Server-Sent Events)
// reader and dispatcher for consuming Codeer chat replies. It groups the
// lines of a streamed HTTP response body into frames, classifies each frame
// and delivers renderable text to a Handler.
//
// WriteFrame and WriteDone encode frames for the mock server. Reconnection
// and retry are left to callers.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

import "strings"

// Frame represents a single raw SSE frame, delimited by a blank line
// in the upstream byte stream.
type Frame struct {
	// Event is the trimmed value of the last "event:" line of the frame.
	// An empty string means no event name was given.
	Event string

	// Data holds the "data:" lines (and bare continuation lines) in arrival
	// order, without their field prefix.
	Data []string
}

// Empty reports whether the frame carries neither an event name nor data.
// Empty frames are never dispatched.
func (f *Frame) Empty() bool {
	return f == nil || (f.Event == "" && len(f.Data) == 0)
}

// Payload joins the data lines with "\n" and trims surrounding whitespace.
func (f *Frame) Payload() string {
	if f == nil {
		return ""
	}
	return strings.TrimSpace(strings.Join(f.Data, "\n"))
}
