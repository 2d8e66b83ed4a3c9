// Package inmemory provides a map-backed storage driver.
package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/papercomputeco/codeer/pkg/codeer"
	"github.com/papercomputeco/codeer/pkg/storage"
)

// Driver implements storage.Driver using an in-memory map.
type Driver struct {
	// mu guards chats, questions and nextID
	mu sync.RWMutex

	chats     map[int64]codeer.Chat
	questions map[int64][]string
	nextID    int64
}

// NewDriver creates a new in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		chats:     make(map[int64]codeer.Chat),
		questions: make(map[int64][]string),
	}
}

// CreateChat stores a new chat under the next free id.
func (d *Driver) CreateChat(_ context.Context, name string) (*codeer.Chat, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	chat := codeer.Chat{
		ID:        d.nextID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	d.chats[chat.ID] = chat

	return &chat, nil
}

// GetChat retrieves a chat by id.
func (d *Driver) GetChat(_ context.Context, id int64) (*codeer.Chat, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	chat, ok := d.chats[id]
	if !ok {
		return nil, storage.NotFoundError{ID: id}
	}

	return &chat, nil
}

// AddQuestion appends a question to a chat.
func (d *Driver) AddQuestion(_ context.Context, historyID int64, question string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.chats[historyID]; !ok {
		return storage.NotFoundError{ID: historyID}
	}

	d.questions[historyID] = append(d.questions[historyID], question)
	return nil
}

// Questions returns a copy of the questions of a chat.
func (d *Driver) Questions(_ context.Context, historyID int64) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if _, ok := d.chats[historyID]; !ok {
		return nil, storage.NotFoundError{ID: historyID}
	}

	return append([]string(nil), d.questions[historyID]...), nil
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}
