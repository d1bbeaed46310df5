// Package config loads client configuration from defaults, an optional YAML
// file, and environment variables, in ascending priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from environment variable names before they are
// mapped onto configuration keys (RESTCLIENT_CLIENT_TIMEOUT -> client.timeout).
const EnvPrefix = "RESTCLIENT_"

// Load loads configuration from multiple sources with priority:
// 1. Environment variables (highest priority)
// 2. The YAML file at path, when path is non-empty
// 3. Default values (lowest priority)
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			// The file is optional; anything else is a real failure.
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to load %s: %w", path, err)
			}
		}
	}

	if err := loadEnv(k); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	return finalize(k)
}

// LoadBytes loads configuration from defaults overlaid with raw YAML content.
// Environment variables are not consulted.
func LoadBytes(content []byte) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse config content: %w", err)
	}

	return finalize(k)
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"client.baseurl":  "",
		"client.token":    "",
		"client.timeout":  "8s",
		"client.attempts": 1,
		"client.backoff":  "0s",
		"client.debug":    false,

		"log.level":  "info",
		"log.pretty": false,

		"breaker.enabled":             false,
		"breaker.consecutivefailures": 5,
		"breaker.maxrequests":         1,
		"breaker.interval":            "0s",
		"breaker.timeout":             "60s",

		"metrics.enabled":   false,
		"metrics.namespace": "restclient",
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}

func loadEnv(k *koanf.Koanf) error {
	return k.Load(envprovider.Provider(".", envprovider.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			// Convert RESTCLIENT_UPPER_CASE to lower.case for koanf
			key = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), "_", ".")
			return key, value
		},
	}), nil)
}

func finalize(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Store the Koanf instance for flexible access
	cfg.k = k

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
