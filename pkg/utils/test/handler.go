// Package testutils holds helpers shared by the codeer test suites.
package testutils

import (
	"strings"
	"sync"
)

// RecordingHandler is an sse.Handler that records every callback in order.
type RecordingHandler struct {
	mu sync.Mutex

	Calls    []string
	Messages []string
	Errors   []string
	Dones    int
}

func NewRecordingHandler() *RecordingHandler {
	return &RecordingHandler{}
}

func (r *RecordingHandler) OnMessage(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Calls = append(r.Calls, "message")
	r.Messages = append(r.Messages, text)
	return nil
}

func (r *RecordingHandler) OnError(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Calls = append(r.Calls, "error")
	r.Errors = append(r.Errors, message)
}

func (r *RecordingHandler) OnDone() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Calls = append(r.Calls, "done")
	r.Dones++
}

// Text returns all messages concatenated.
func (r *RecordingHandler) Text() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return strings.Join(r.Messages, "")
}
