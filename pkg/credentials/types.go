package credentials

// Credentials represents the stored API credentials in credentials.toml.
// Keys are stored per API root so one machine can talk to several backends.
type Credentials struct {
	Version int                       `toml:"version"`
	Hosts   map[string]HostCredential `toml:"hosts"`
}

// HostCredential holds the API key for a single API root.
type HostCredential struct {
	APIKey string `toml:"api_key"`
}
