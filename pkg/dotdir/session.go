package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

const (
	sessionFile = "session.json"
)

// SessionState is the persisted pointer to the last chat the user talked to.
// The chat command resumes from it when started with --resume.
type SessionState struct {
	// HistoryID is the server side chat identifier.
	HistoryID int64 `json:"history_id"`

	// Name is the chat name sent when the chat was created.
	Name string `json:"name"`

	// AgentID is the agent the chat was last addressed to, if any.
	AgentID string `json:"agent_id,omitempty"`

	// APIRoot is the backend the chat lives on. A session is only resumed
	// against the same API root.
	APIRoot string `json:"api_root"`

	UpdatedAt time.Time `json:"updated_at"`
}

// LoadSession loads the session state from a target .codeer/session.json.
// Returns nil, nil if no session has been saved yet.
// If overrideDir is non-empty, it is used instead of the default location.
func (m *Manager) LoadSession(overrideDir string) (*SessionState, error) {
	path, err := m.FilePath(overrideDir, sessionFile)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading session state: %w", err)
	}

	state := &SessionState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parsing session state: %w", err)
	}

	return state, nil
}

// SaveSession persists the session state to a target .codeer/session.json.
func (m *Manager) SaveSession(state *SessionState, overrideDir string) error {
	if state == nil {
		return errors.New("cannot save nil session state")
	}

	path, err := m.FilePath(overrideDir, sessionFile)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session state: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing session state: %w", err)
	}

	return nil
}

// ClearSession removes the session state file so the next chat starts fresh.
// Returns nil if the file doesn't exist (already cleared).
func (m *Manager) ClearSession(overrideDir string) error {
	path, err := m.FilePath(overrideDir, sessionFile)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing session state: %w", err)
	}

	return nil
}
