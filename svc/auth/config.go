package auth

import "time"

// Config holds the manager settings, loadable with pkg/config.
type Config struct {
	LatestProtocolVersion  string `env:"AUTH_LATEST_PROTOCOL_VERSION" envDefault:"003"`
	PreferencesContentType string `env:"AUTH_PREFERENCES_CONTENT_TYPE" envDefault:"SN|UserPreferences"`
	// FlowTimeout bounds the context handed to the transport. Zero means no deadline.
	FlowTimeout time.Duration `env:"AUTH_FLOW_TIMEOUT" envDefault:"0s"`
}

// DefaultConfig returns the values used when no Config is supplied.
func DefaultConfig() Config {
	return Config{
		LatestProtocolVersion:  "003",
		PreferencesContentType: "SN|UserPreferences",
	}
}
