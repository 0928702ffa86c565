package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "memory", cfg.Transport.Provider)
	require.Equal(t, 8, cfg.Backend.SyncTimeoutSeconds)
	require.True(t, cfg.Logging.Development)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 9090
backend:
  base_url: https://api.scrapable.dev
transport:
  provider: redis
  redis:
    addr: redis.internal:6379
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "https://api.scrapable.dev", cfg.Backend.BaseURL)
	require.Equal(t, "redis", cfg.Transport.Provider)
	require.Equal(t, "redis.internal:6379", cfg.Transport.Redis.Addr)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"missing base url", func(c *Config) { c.Backend.BaseURL = "" }},
		{"zero sync timeout", func(c *Config) { c.Backend.SyncTimeoutSeconds = 0 }},
		{"unknown transport", func(c *Config) { c.Transport.Provider = "carrier-pigeon" }},
		{"redis without addr", func(c *Config) {
			c.Transport.Provider = "redis"
			c.Transport.Redis.Addr = ""
		}},
		{"pubsub without project", func(c *Config) { c.Transport.Provider = "pubsub" }},
		{"auth without key", func(c *Config) { c.Auth.Enabled = true }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tc.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
