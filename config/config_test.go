package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Empty(t, cfg.Client.BaseURL)
	assert.Empty(t, cfg.Client.Token)
	assert.Equal(t, 8*time.Second, cfg.Client.Timeout)
	assert.Equal(t, 1, cfg.Client.Attempts)
	assert.Equal(t, time.Duration(0), cfg.Client.Backoff)
	assert.False(t, cfg.Client.Debug)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)

	assert.False(t, cfg.Breaker.Enabled)
	assert.Equal(t, uint32(5), cfg.Breaker.ConsecutiveFailures)
	assert.Equal(t, 60*time.Second, cfg.Breaker.Timeout)

	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "restclient", cfg.Metrics.Namespace)
}

func TestLoadBytes(t *testing.T) {
	content := []byte(`
client:
  baseurl: https://api.example.com
  token: s3cr3t
  timeout: 2s
  attempts: 3
  backoff: 50ms
  debug: true
  headers:
    Accept: application/json
log:
  level: debug
  pretty: true
breaker:
  enabled: true
  consecutivefailures: 3
  maxrequests: 2
  interval: 10s
  timeout: 30s
metrics:
  enabled: true
  namespace: billing
`)

	cfg, err := LoadBytes(content)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.Client.BaseURL)
	assert.Equal(t, "s3cr3t", cfg.Client.Token)
	assert.Equal(t, 2*time.Second, cfg.Client.Timeout)
	assert.Equal(t, 3, cfg.Client.Attempts)
	assert.Equal(t, 50*time.Millisecond, cfg.Client.Backoff)
	assert.True(t, cfg.Client.Debug)
	assert.Equal(t, "application/json", cfg.Client.Headers["Accept"])

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)

	assert.True(t, cfg.Breaker.Enabled)
	assert.Equal(t, uint32(3), cfg.Breaker.ConsecutiveFailures)
	assert.Equal(t, uint32(2), cfg.Breaker.MaxRequests)
	assert.Equal(t, 10*time.Second, cfg.Breaker.Interval)
	assert.Equal(t, 30*time.Second, cfg.Breaker.Timeout)

	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "billing", cfg.Metrics.Namespace)
}

func TestLoadBytesPartialOverride(t *testing.T) {
	cfg, err := LoadBytes([]byte("client:\n  attempts: 5\n"))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Client.Attempts)
	// Untouched keys keep their defaults.
	assert.Equal(t, 8*time.Second, cfg.Client.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadBytesMalformed(t *testing.T) {
	_, err := LoadBytes([]byte("client: [not a map"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config content")
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "restclient.yaml")
	content := []byte("client:\n  baseurl: https://files.example.com\n  attempts: 2\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://files.example.com", cfg.Client.BaseURL)
	assert.Equal(t, 2, cfg.Client.Attempts)
}

func TestLoadMissingFileIsOptional(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Client.Attempts)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("RESTCLIENT_CLIENT_TIMEOUT", "2s")
	t.Setenv("RESTCLIENT_CLIENT_ATTEMPTS", "4")
	t.Setenv("RESTCLIENT_CLIENT_BASEURL", "https://env.example.com")
	t.Setenv("RESTCLIENT_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Client.Timeout)
	assert.Equal(t, 4, cfg.Client.Attempts)
	assert.Equal(t, "https://env.example.com", cfg.Client.BaseURL)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestEnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "restclient.yaml")
	require.NoError(t, os.WriteFile(path, []byte("client:\n  attempts: 2\n"), 0o600))

	t.Setenv("RESTCLIENT_CLIENT_ATTEMPTS", "7")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Client.Attempts)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "zero timeout",
			content: "client:\n  timeout: 0s\n",
			wantErr: "timeout must be positive",
		},
		{
			name:    "zero attempts",
			content: "client:\n  attempts: 0\n",
			wantErr: "attempts must be at least 1",
		},
		{
			name:    "negative backoff",
			content: "client:\n  backoff: -1s\n",
			wantErr: "backoff must not be negative",
		},
		{
			name:    "bad log level",
			content: "log:\n  level: verbose\n",
			wantErr: "invalid log level",
		},
		{
			name:    "breaker without threshold",
			content: "breaker:\n  enabled: true\n  consecutivefailures: 0\n",
			wantErr: "consecutive failures must be positive",
		},
		{
			name:    "breaker without open timeout",
			content: "breaker:\n  enabled: true\n  timeout: 0s\n",
			wantErr: "open state timeout must be positive",
		},
		{
			name:    "metrics without namespace",
			content: "metrics:\n  enabled: true\n  namespace: \"\"\n",
			wantErr: "metrics namespace is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBytes([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetters(t *testing.T) {
	cfg, err := LoadBytes([]byte("client:\n  baseurl: https://api.example.com\n  attempts: 3\n"))
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.GetString("client.baseurl"))
	assert.Equal(t, "fallback", cfg.GetString("custom.key", "fallback"))
	assert.Equal(t, 3, cfg.GetInt("client.attempts"))
	assert.Equal(t, 42, cfg.GetInt("custom.count", 42))
	assert.False(t, cfg.GetBool("log.pretty"))
	assert.True(t, cfg.GetBool("custom.flag", true))
	assert.Equal(t, 8*time.Second, cfg.GetDuration("client.timeout"))
	assert.Equal(t, time.Minute, cfg.GetDuration("custom.window", time.Minute))
}

func TestGettersNilSafe(t *testing.T) {
	var cfg *Config

	assert.Equal(t, "d", cfg.GetString("any", "d"))
	assert.Equal(t, 0, cfg.GetInt("any"))
	assert.False(t, cfg.GetBool("any"))
	assert.Equal(t, time.Duration(0), cfg.GetDuration("any"))
}
