package codeer

import "time"

// Chat is a server side conversation. Its ID is the history id that
// messages are posted to.
type Chat struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// Agent is a workspace agent a question can be addressed to.
type Agent struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// QuestionRequest is the body of a message post. Stream is always sent as
// true by SendQuestion.
type QuestionRequest struct {
	Message string `json:"message"`
	Stream  bool   `json:"stream"`

	// AgentID selects the agent to answer. Nil lets the server pick.
	AgentID *int64 `json:"agent_id,omitempty"`
}

type createChatRequest struct {
	Name string `json:"name"`
}

// envelope is the {"data": ...} wrapper around every JSON response.
type envelope[T any] struct {
	Data T `json:"data"`
}
