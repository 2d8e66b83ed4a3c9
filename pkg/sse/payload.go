package sse

import (
	"encoding/json"
	"strings"
)

// Discriminant values of the "type" field in JSON payloads.
const (
	TypeError               = "error"
	TypeOutputTextDelta     = "response.output_text.delta"
	TypeOutputTextCompleted = "response.output_text.completed"
)

// PayloadKind tags the variant held by a Payload.
type PayloadKind int

const (
	// PayloadPlainText is a payload that is not a JSON object. Its raw text
	// is rendered verbatim.
	PayloadPlainText PayloadKind = iota

	// PayloadSentinel is the literal "[DONE]" marker.
	PayloadSentinel

	// PayloadError is a JSON object whose type is "error".
	PayloadError

	// PayloadTextDelta carries an incremental text fragment.
	PayloadTextDelta

	// PayloadTextCompleted carries the full final text of a reply.
	PayloadTextCompleted

	// PayloadUnrecognized is a JSON object of any other shape. It renders
	// nothing.
	PayloadUnrecognized
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadPlainText:
		return "plain_text"
	case PayloadSentinel:
		return "sentinel"
	case PayloadError:
		return "error"
	case PayloadTextDelta:
		return "text_delta"
	case PayloadTextCompleted:
		return "text_completed"
	case PayloadUnrecognized:
		return "unrecognized"
	default:
		return "unknown"
	}
}

// Payload is the decoded form of a frame's joined data lines.
type Payload struct {
	Kind PayloadKind

	// Raw is the trimmed payload string the Payload was decoded from.
	Raw string

	// Text is the renderable fragment: the delta for PayloadTextDelta, the
	// final text for PayloadTextCompleted and Raw for PayloadPlainText.
	Text string

	// Message is the error message carried by a PayloadError, if any.
	Message string
}

// Parsed reports whether the payload was decoded from a JSON object.
func (p Payload) Parsed() bool {
	return p.Kind != PayloadPlainText && p.Kind != PayloadSentinel
}

// wirePayload holds the top-level fields of a JSON payload. Fields are
// decoded individually so a field of an unexpected JSON type only disables
// the variant that needs it.
type wirePayload map[string]json.RawMessage

// DecodePayload classifies a trimmed payload string. JSON decoding is only
// attempted when raw starts with "{". A decoding failure yields a
// PayloadPlainText together with the decoding error, so callers can report
// it and still render the raw text.
func DecodePayload(raw string) (Payload, error) {
	if raw == Sentinel {
		return Payload{Kind: PayloadSentinel, Raw: raw}, nil
	}

	plain := Payload{Kind: PayloadPlainText, Raw: raw, Text: raw}
	if !strings.HasPrefix(raw, "{") {
		return plain, nil
	}

	var w wirePayload
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return plain, err
	}

	p := Payload{Kind: PayloadUnrecognized, Raw: raw, Message: w.message()}
	typ, _ := w.str("type")
	switch typ {
	case TypeError:
		p.Kind = PayloadError
	case TypeOutputTextDelta:
		if delta, ok := w.str("delta"); ok {
			p.Kind = PayloadTextDelta
			p.Text = delta
		}
	case TypeOutputTextCompleted:
		if final, ok := w.str("finalText"); ok {
			p.Kind = PayloadTextCompleted
			p.Text = final
		}
	}

	return p, nil
}

// str returns the named field when it holds a JSON string.
func (w wirePayload) str(key string) (string, bool) {
	v, ok := w[key]
	if !ok || string(v) == "null" {
		return "", false
	}

	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", false
	}
	return s, true
}

// message extracts a human readable error message, preferring "message" over
// "error". An "error" field may be a string or an object with a "message".
func (w wirePayload) message() string {
	if msg, ok := w.str("message"); ok && msg != "" {
		return msg
	}

	if msg, ok := w.str("error"); ok {
		return msg
	}

	var obj struct {
		Message string `json:"message"`
	}
	if v, ok := w["error"]; ok && json.Unmarshal(v, &obj) == nil {
		return obj.Message
	}

	return ""
}
