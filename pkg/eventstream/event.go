package eventstream

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeReplyStreamed is emitted after a reply has been streamed to
	// the client, successfully or not.
	EventTypeReplyStreamed = "codeer.reply.streamed"
)

var (
	// ErrNilReplyEvent is returned when a nil event is handed to a publisher.
	ErrNilReplyEvent = errors.New("nil reply event")

	// ErrInvalidReplyEvent wraps the reason an event was rejected.
	ErrInvalidReplyEvent = errors.New("invalid reply event")
)

// ReplyEvent is a transport-neutral event payload for one question and the
// reply streamed back for it.
type ReplyEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`

	HistoryID int64  `json:"history_id"`
	AgentID   *int64 `json:"agent_id,omitempty"`
	Question  string `json:"question"`
	Reply     string `json:"reply,omitempty"`
	Error     string `json:"error,omitempty"`

	Stream     bool  `json:"stream"`
	Deltas     int   `json:"deltas"`
	DurationMs int64 `json:"duration_ms"`
}

// NewReplyEvent returns a ReplyEvent with the envelope fields filled in.
func NewReplyEvent(historyID int64, question string) *ReplyEvent {
	return &ReplyEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeReplyStreamed,
		EventID:       "evt_" + uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		HistoryID:     historyID,
		Question:      question,
	}
}

// Validate checks the fields every publisher relies on.
func (e *ReplyEvent) Validate() error {
	switch {
	case e == nil:
		return ErrNilReplyEvent
	case e.EventType == "":
		return fmt.Errorf("%w: missing event type", ErrInvalidReplyEvent)
	case e.HistoryID <= 0:
		return fmt.Errorf("%w: history id %d", ErrInvalidReplyEvent, e.HistoryID)
	}
	return nil
}
