package config

import (
	"fmt"
	"slices"
	"strings"
)

// Log level constants
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

func Validate(cfg *Config) error {
	if err := validateClient(&cfg.Client); err != nil {
		return fmt.Errorf("client config: %w", err)
	}

	if err := validateLog(&cfg.Log); err != nil {
		return fmt.Errorf("log config: %w", err)
	}

	if err := validateBreaker(&cfg.Breaker); err != nil {
		return fmt.Errorf("breaker config: %w", err)
	}

	if err := validateMetrics(&cfg.Metrics); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}

	return nil
}

// validateClient validates the request execution configuration in cfg.
// It requires Timeout to be positive, Attempts to be at least 1, and
// Backoff to be non-negative. Returns an error describing the first
// failed validation, or nil if valid.
func validateClient(cfg *ClientConfig) error {
	if cfg.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	if cfg.Attempts < 1 {
		return fmt.Errorf("attempts must be at least 1")
	}

	if cfg.Backoff < 0 {
		return fmt.Errorf("backoff must not be negative")
	}

	return nil
}

func validateLog(cfg *LogConfig) error {
	validLevels := []string{LevelDebug, LevelInfo, LevelWarn, LevelError}
	if !slices.Contains(validLevels, cfg.Level) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)",
			cfg.Level, strings.Join(validLevels, ", "))
	}

	return nil
}

func validateBreaker(cfg *BreakerConfig) error {
	if !cfg.Enabled {
		return nil
	}

	if cfg.ConsecutiveFailures == 0 {
		return fmt.Errorf("consecutive failures must be positive")
	}

	if cfg.Timeout <= 0 {
		return fmt.Errorf("open state timeout must be positive")
	}

	return nil
}

func validateMetrics(cfg *MetricsConfig) error {
	if !cfg.Enabled {
		return nil
	}

	if cfg.Namespace == "" {
		return fmt.Errorf("metrics namespace is required")
	}

	return nil
}
