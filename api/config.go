// Package api provides a local stand-in for the Codeer chat API. It creates
// chats, lists agents and streams replies as server-sent events, for demos
// and end-to-end tests of the codeer CLI.
package api

import (
	"time"

	"github.com/papercomputeco/codeer/pkg/codeer"
	"github.com/papercomputeco/codeer/pkg/eventstream"
	"github.com/papercomputeco/codeer/pkg/storage"
)

// Responder produces the reply to a question. A returned error is streamed
// to the client as an "event: error" frame.
type Responder func(question string, agent *codeer.Agent) (string, error)

// Config is the mock API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8000")
	ListenAddr string

	// APIKey, when set, must match the x-api-key header of every request.
	APIKey string

	// ChunkDelay is the pause between streamed deltas.
	ChunkDelay time.Duration

	// Agents are returned by the agents endpoint. A question addressed to an
	// agent outside this list is rejected.
	Agents []codeer.Agent

	// Responder produces replies. Defaults to EchoResponder.
	Responder Responder

	// Store persists chats and questions. Defaults to an in-memory driver.
	Store storage.Driver

	// Publisher receives an event for every streamed reply. Defaults to a
	// no-op publisher.
	Publisher eventstream.Publisher
}

// DefaultAgents is the agent list served when Config.Agents is empty.
var DefaultAgents = []codeer.Agent{
	{ID: 1, Name: "General", Description: "Answers general questions"},
	{ID: 2, Name: "Support", Description: "Helps with product issues"},
}

// EchoResponder replies with the question, prefixed by the agent name when
// an agent is selected.
func EchoResponder(question string, agent *codeer.Agent) (string, error) {
	if agent != nil {
		return "[" + agent.Name + "] You said: " + question, nil
	}
	return "You said: " + question, nil
}
