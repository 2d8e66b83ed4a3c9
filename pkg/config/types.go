package config

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Config represents the persistent codeer configuration stored as config.toml
// in the .codeer/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version int        `toml:"version"`
	API     APIConfig  `toml:"api"`
	Chat    ChatConfig `toml:"chat"`
	Mock    MockConfig `toml:"mock"`
}

// APIConfig holds settings for talking to the Codeer backend.
type APIConfig struct {
	// Root is the backend base URL (scheme + host + port), without the
	// /api/v1 prefix.
	Root string `toml:"root,omitempty"`

	// Timeout bounds a whole request, including a streamed reply. It is a
	// Go duration string such as "5m".
	Timeout string `toml:"timeout,omitempty"`
}

// ChatConfig holds defaults for "codeer chat".
type ChatConfig struct {
	AgentID  string `toml:"agent_id,omitempty"`
	Markdown bool   `toml:"markdown,omitempty"`
}

// MockConfig holds settings for "codeer mock-server".
type MockConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeyOrder lists configKeys in the order of the TOML sections.
var configKeyOrder = []string{
	"api.root",
	"api.timeout",
	"chat.agent_id",
	"chat.markdown",
	"mock.listen",
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"api.root": {
		get: func(c *Config) string { return c.API.Root },
		set: func(c *Config, v string) error {
			if err := validateAPIRoot(v); err != nil {
				return fmt.Errorf("invalid value for api.root: %w", err)
			}
			c.API.Root = v
			return nil
		},
	},
	"api.timeout": {
		get: func(c *Config) string { return c.API.Timeout },
		set: func(c *Config, v string) error {
			if _, err := time.ParseDuration(v); err != nil {
				return fmt.Errorf("invalid value for api.timeout: %w", err)
			}
			c.API.Timeout = v
			return nil
		},
	},
	"chat.agent_id": {
		get: func(c *Config) string { return c.Chat.AgentID },
		set: func(c *Config, v string) error {
			if v != "" {
				if _, err := strconv.ParseInt(v, 10, 64); err != nil {
					return fmt.Errorf("invalid value for chat.agent_id: %w", err)
				}
			}
			c.Chat.AgentID = v
			return nil
		},
	},
	"chat.markdown": {
		get: func(c *Config) string { return strconv.FormatBool(c.Chat.Markdown) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for chat.markdown: %w", err)
			}
			c.Chat.Markdown = b
			return nil
		},
	},
	"mock.listen": {
		get: func(c *Config) string { return c.Mock.Listen },
		set: func(c *Config, v string) error { c.Mock.Listen = v; return nil },
	},
}

// ParseTimeout parses an api.timeout value. An empty or zero value disables
// the timeout.
func ParseTimeout(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid timeout %q: must not be negative", s)
	}
	return d, nil
}

// validateAPIRoot accepts absolute http and https URLs.
func validateAPIRoot(v string) error {
	u, err := url.Parse(v)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q must start with http:// or https://", v)
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", v)
	}
	return nil
}
