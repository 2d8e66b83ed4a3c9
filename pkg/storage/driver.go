// Package storage persists the chats served by the mock Codeer API.
package storage

import (
	"context"

	"github.com/papercomputeco/codeer/pkg/codeer"
)

// Driver defines the interface for persisting chats and the questions
// posted to them.
type Driver interface {
	// CreateChat stores a new chat and returns it with its assigned id.
	// Ids are positive and increase with every created chat.
	CreateChat(ctx context.Context, name string) (*codeer.Chat, error)

	// GetChat retrieves a chat by id.
	GetChat(ctx context.Context, id int64) (*codeer.Chat, error)

	// AddQuestion appends a question to a chat. It returns NotFoundError
	// when the chat does not exist.
	AddQuestion(ctx context.Context, historyID int64, question string) error

	// Questions returns the questions of a chat, oldest first.
	Questions(ctx context.Context, historyID int64) ([]string, error)

	// Close closes the store and releases any resources.
	Close() error
}
