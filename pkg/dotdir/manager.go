// Package dotdir manages the .codeer/ and ~/.codeer directories.
//
// The directory holds the CLI's config.toml, the stored API credentials and
// the session state used to resume the last chat.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DirName is the name of the codeer directory.
	DirName = ".codeer"

	// dirMode keeps stored API keys private to the user.
	dirMode = 0o700
)

// Manager resolves the codeer directory. The zero value looks in the
// process working directory and home directory.
type Manager struct {
	// getwd and homeDir are replaceable in tests.
	getwd   func() (string, error)
	homeDir func() (string, error)
}

func NewManager() *Manager {
	return &Manager{getwd: os.Getwd, homeDir: os.UserHomeDir}
}

// Target returns the absolute path of the codeer directory, creating it
// when missing. The first match wins:
//  1. overrideDir, when non-empty
//  2. ./.codeer, when it exists
//  3. ~/.codeer
func (m *Manager) Target(overrideDir string) (string, error) {
	dir, err := m.resolve(overrideDir)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, dirMode); err != nil {
		return "", fmt.Errorf("creating codeer directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// FilePath returns the path of name inside the codeer directory. The file
// itself is not created.
func (m *Manager) FilePath(overrideDir, name string) (string, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func (m *Manager) resolve(overrideDir string) (string, error) {
	if overrideDir != "" {
		return overrideDir, nil
	}

	getwd := m.getwd
	if getwd == nil {
		getwd = os.Getwd
	}
	if cwd, err := getwd(); err == nil {
		local := filepath.Join(cwd, DirName)
		if info, err := os.Stat(local); err == nil && info.IsDir() {
			return local, nil
		}
	}

	homeDir := m.homeDir
	if homeDir == nil {
		homeDir = os.UserHomeDir
	}
	home, err := homeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}
