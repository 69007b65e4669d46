package config

import "time"

const (
	// DefaultBaseURL is the production Prolific API host.
	DefaultBaseURL = "https://api.prolific.com"
	// DefaultTimeoutSeconds bounds a single HTTP attempt.
	DefaultTimeoutSeconds = 30
	// DefaultMaxRetries is the retry ceiling; total attempts are MaxRetries+1.
	DefaultMaxRetries = 3
	// DefaultLogLevel is used when no level is configured.
	DefaultLogLevel = "info"
)

// Environment variables read by Load.
const (
	EnvToken       = "PROLIFIC_API_TOKEN"
	EnvBaseURL     = "PROLIFIC_BASE_URL"
	EnvWorkspaceID = "PROLIFIC_WORKSPACE_ID"
	EnvTimeout     = "PROLIFIC_TIMEOUT"
	EnvMaxRetries  = "PROLIFIC_MAX_RETRIES"
	EnvRateLimit   = "PROLIFIC_RATE_LIMIT"
	EnvRateBurst   = "PROLIFIC_RATE_BURST"
	EnvLogLevel    = "PROLIFIC_LOG_LEVEL"
	EnvLogPretty   = "PROLIFIC_LOG_PRETTY"

	envPrefix = "PROLIFIC_"
)

// Config holds the Prolific client settings.
//
// A Config is produced by New or Load and must be treated as read-only
// afterwards; consumers take a copy at construction time.
type Config struct {
	BaseURL     string `koanf:"base_url" json:"base_url" yaml:"base_url" validate:"required,url"`
	Token       string `koanf:"api_token" json:"-" yaml:"api_token" validate:"required"`
	WorkspaceID string `koanf:"workspace_id" json:"workspace_id" yaml:"workspace_id"`

	// TimeoutSeconds bounds each attempt, not the whole retried call.
	TimeoutSeconds int `koanf:"timeout" json:"timeout" yaml:"timeout" validate:"gt=0"`
	MaxRetries     int `koanf:"max_retries" json:"max_retries" yaml:"max_retries" validate:"gte=0"`

	// RateLimit is a client-side ceiling in requests per second; 0 disables it.
	RateLimit float64 `koanf:"rate_limit" json:"rate_limit" yaml:"rate_limit" validate:"gte=0"`
	RateBurst int     `koanf:"rate_burst" json:"rate_burst" yaml:"rate_burst" validate:"gte=0"`

	LogLevel  string `koanf:"log_level" json:"log_level" yaml:"log_level" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	LogPretty bool   `koanf:"log_pretty" json:"log_pretty" yaml:"log_pretty"`
}

// Default returns a Config populated with default values and no token.
func Default() Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		TimeoutSeconds: DefaultTimeoutSeconds,
		MaxRetries:     DefaultMaxRetries,
		LogLevel:       DefaultLogLevel,
	}
}

// Timeout returns the per-attempt timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// AuthHeaders returns the headers sent with every request.
// The returned map is a fresh copy owned by the caller.
func (c *Config) AuthHeaders() map[string]string {
	return map[string]string{
		"Authorization": "Token " + c.Token,
		"Content-Type":  "application/json",
		"Accept":        "application/json",
	}
}

// RedactedToken returns the token reduced to its last four characters,
// suitable for logs.
func (c *Config) RedactedToken() string {
	if len(c.Token) <= 4 {
		return "***"
	}
	return "***" + c.Token[len(c.Token)-4:]
}
