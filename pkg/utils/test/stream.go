package testutils

import (
	"encoding/json"
	"strings"
)

// DeltaFrame returns an SSE frame carrying an output text delta.
func DeltaFrame(delta string) string {
	return frame("response.output_text.delta", map[string]any{
		"type":  "response.output_text.delta",
		"delta": delta,
	})
}

// CompletedFrame returns an SSE frame carrying the final text of a reply.
func CompletedFrame(text string) string {
	return frame("response.output_text.completed", map[string]any{
		"type":      "response.output_text.completed",
		"finalText": text,
	})
}

// ErrorFrame returns an "event: error" frame with a JSON message.
func ErrorFrame(message string) string {
	return frame("error", map[string]any{"message": message})
}

// DoneFrame returns the terminating sentinel frame.
func DoneFrame() string {
	return "data: [DONE]\n\n"
}

// Stream joins frames into one SSE body.
func Stream(frames ...string) string {
	return strings.Join(frames, "")
}

func frame(event string, payload map[string]any) string {
	data, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	return "event: " + event + "\ndata: " + string(data) + "\n\n"
}
