package config

import (
	"time"

	"github.com/knadh/koanf/v2"
)

// Config represents the overall client configuration structure. It includes
// sections for request execution, logging, circuit breaking, and metrics.
// The embedded koanf.Koanf instance allows for flexible access to additional
// custom configurations not explicitly defined in the struct.
type Config struct {
	Client  ClientConfig  `koanf:"client" json:"client" yaml:"client" toml:"client" mapstructure:"client"`
	Log     LogConfig     `koanf:"log" json:"log" yaml:"log" toml:"log" mapstructure:"log"`
	Breaker BreakerConfig `koanf:"breaker" json:"breaker" yaml:"breaker" toml:"breaker" mapstructure:"breaker"`
	Metrics MetricsConfig `koanf:"metrics" json:"metrics" yaml:"metrics" toml:"metrics" mapstructure:"metrics"`

	// k holds the underlying Koanf instance for flexible access to custom configurations
	k *koanf.Koanf `json:"-" yaml:"-" toml:"-" mapstructure:"-"`
}

// ClientConfig holds request execution settings.
type ClientConfig struct {
	// BaseURL is prepended verbatim to request URLs. Empty means requests
	// must carry absolute URLs.
	BaseURL string `koanf:"baseurl" json:"baseurl" yaml:"baseurl" toml:"baseurl" mapstructure:"baseurl"`

	// Token is the bearer token sent as the Authorization header.
	Token string `koanf:"token" json:"token" yaml:"token" toml:"token" mapstructure:"token"`

	// Timeout is the per-attempt deadline. Default: 8s.
	Timeout time.Duration `koanf:"timeout" json:"timeout" yaml:"timeout" toml:"timeout" mapstructure:"timeout"`

	// Attempts is the total attempt budget per request, including the first.
	// Default: 1 (no retries).
	Attempts int `koanf:"attempts" json:"attempts" yaml:"attempts" toml:"attempts" mapstructure:"attempts"`

	// Backoff is the base delay between attempts, grown exponentially with
	// jitter. Default: 0 (immediate retry).
	Backoff time.Duration `koanf:"backoff" json:"backoff" yaml:"backoff" toml:"backoff" mapstructure:"backoff"`

	// Debug enables per-request payload logging.
	Debug bool `koanf:"debug" json:"debug" yaml:"debug" toml:"debug" mapstructure:"debug"`

	// Headers are default headers applied to every request.
	Headers map[string]string `koanf:"headers" json:"headers" yaml:"headers" toml:"headers" mapstructure:"headers"`
}

// LogConfig holds logging preferences.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level" toml:"level" mapstructure:"level"`
	Pretty bool   `koanf:"pretty" json:"pretty" yaml:"pretty" toml:"pretty" mapstructure:"pretty"`
}

// BreakerConfig holds circuit breaker settings. The breaker is per resource
// (method plus path) and only active when Enabled is true.
type BreakerConfig struct {
	Enabled             bool          `koanf:"enabled" json:"enabled" yaml:"enabled" toml:"enabled" mapstructure:"enabled"`
	ConsecutiveFailures uint32        `koanf:"consecutivefailures" json:"consecutivefailures" yaml:"consecutivefailures" toml:"consecutivefailures" mapstructure:"consecutivefailures"`
	MaxRequests         uint32        `koanf:"maxrequests" json:"maxrequests" yaml:"maxrequests" toml:"maxrequests" mapstructure:"maxrequests"`
	Interval            time.Duration `koanf:"interval" json:"interval" yaml:"interval" toml:"interval" mapstructure:"interval"`
	Timeout             time.Duration `koanf:"timeout" json:"timeout" yaml:"timeout" toml:"timeout" mapstructure:"timeout"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled" json:"enabled" yaml:"enabled" toml:"enabled" mapstructure:"enabled"`
	Namespace string `koanf:"namespace" json:"namespace" yaml:"namespace" toml:"namespace" mapstructure:"namespace"`
}
