// Package credentials stores Codeer API keys in credentials.toml inside the
// .codeer/ directory.
package credentials

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/codeer/pkg/dotdir"
)

const (
	credentialsFile = "credentials.toml"

	currentVersion = 0

	// EnvVar is the environment variable that overrides any stored key.
	EnvVar = "CODEER_API_KEY"
)

// Manager manages reading and writing credentials.toml in the .codeer/ directory.
type Manager struct {
	ddm        *dotdir.Manager
	targetPath string
}

// NewManager creates a new credentials Manager. If override is non-empty it is
// used as the .codeer/ directory; otherwise the standard dotdir resolution applies.
func NewManager(override string) (*Manager, error) {
	ddm := dotdir.NewManager()
	path, err := ddm.FilePath(override, credentialsFile)
	if err != nil {
		return nil, err
	}

	return &Manager{ddm: ddm, targetPath: path}, nil
}

// Load reads credentials.toml from the target directory.
// Returns an empty Credentials if the file does not exist.
func (m *Manager) Load() (*Credentials, error) {
	data, err := os.ReadFile(m.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Credentials{
				Version: currentVersion,
				Hosts:   make(map[string]HostCredential),
			}, nil
		}
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	creds := &Credentials{}
	if err := toml.Unmarshal(data, creds); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}

	if creds.Hosts == nil {
		creds.Hosts = make(map[string]HostCredential)
	}

	return creds, nil
}

// Save writes credentials to credentials.toml with 0600 permissions.
func (m *Manager) Save(creds *Credentials) error {
	if creds == nil {
		return errors.New("cannot save nil credentials")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(creds); err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	if err := os.WriteFile(m.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}

	return nil
}

// SetKey stores an API key for the given API root.
func (m *Manager) SetKey(apiRoot, key string) error {
	host, err := hostKey(apiRoot)
	if err != nil {
		return err
	}

	creds, err := m.Load()
	if err != nil {
		return err
	}

	creds.Hosts[host] = HostCredential{APIKey: key}

	return m.Save(creds)
}

// GetKey returns the stored API key for the given API root.
// Returns an empty string if no key is stored.
func (m *Manager) GetKey(apiRoot string) (string, error) {
	host, err := hostKey(apiRoot)
	if err != nil {
		return "", err
	}

	creds, err := m.Load()
	if err != nil {
		return "", err
	}

	return creds.Hosts[host].APIKey, nil
}

// RemoveKey deletes the stored credential for an API root.
func (m *Manager) RemoveKey(apiRoot string) error {
	host, err := hostKey(apiRoot)
	if err != nil {
		return err
	}

	creds, err := m.Load()
	if err != nil {
		return err
	}

	delete(creds.Hosts, host)

	return m.Save(creds)
}

// ListHosts returns the API roots that have stored credentials.
func (m *Manager) ListHosts() ([]string, error) {
	creds, err := m.Load()
	if err != nil {
		return nil, err
	}

	hosts := make([]string, 0, len(creds.Hosts))
	for name := range creds.Hosts {
		hosts = append(hosts, name)
	}

	sort.Strings(hosts)

	return hosts, nil
}

// GetTarget returns the resolved path to the credentials file.
func (m *Manager) GetTarget() string {
	return m.targetPath
}

// Resolve returns the API key to use for apiRoot. A non-empty explicit key
// wins, then the CODEER_API_KEY environment variable, then the stored key.
func (m *Manager) Resolve(apiRoot, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	if env := os.Getenv(EnvVar); env != "" {
		return env, nil
	}

	return m.GetKey(apiRoot)
}

// NormalizeRoot trims whitespace and trailing slashes so equivalent API roots
// share one credential entry.
func NormalizeRoot(apiRoot string) string {
	return strings.TrimRight(strings.TrimSpace(apiRoot), "/")
}

func hostKey(apiRoot string) (string, error) {
	host := NormalizeRoot(apiRoot)
	if host == "" {
		return "", errors.New("api root must not be empty")
	}
	return host, nil
}
