package config

const (
	defaultAPIRoot    = "http://localhost:8000"
	defaultAPITimeout = "5m"
	defaultMockListen = ":8000"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		API: APIConfig{
			Root:    defaultAPIRoot,
			Timeout: defaultAPITimeout,
		},
		Mock: MockConfig{
			Listen: defaultMockListen,
		},
	}
}
