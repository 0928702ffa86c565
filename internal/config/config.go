// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Transport TransportConfig `mapstructure:"transport"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Port           int `mapstructure:"port"`
	RequestTimeout int `mapstructure:"request_timeout_seconds"`
}

// BackendConfig points at the external scraping API.
type BackendConfig struct {
	BaseURL            string `mapstructure:"base_url"`
	SyncTimeoutSeconds int    `mapstructure:"sync_timeout_seconds"`
	TokenEnv           string `mapstructure:"token_env"`
	Token              string `mapstructure:"token"`
}

// AuthConfig defines inbound API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// TransportConfig selects and configures the push-channel transport.
type TransportConfig struct {
	Provider string       `mapstructure:"provider"`
	Redis    RedisConfig  `mapstructure:"redis"`
	PubSub   PubSubConfig `mapstructure:"pubsub"`
}

// RedisConfig holds Redis pub/sub connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// PubSubConfig holds Google Cloud Pub/Sub settings.
type PubSubConfig struct {
	ProjectID      string `mapstructure:"project_id"`
	SubscriptionID string `mapstructure:"subscription_id"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PREVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_seconds", 60)
	v.SetDefault("backend.base_url", "http://localhost:8000")
	v.SetDefault("backend.sync_timeout_seconds", 8)
	v.SetDefault("backend.token_env", "PREVIEW_BACKEND_TOKEN")
	v.SetDefault("transport.provider", "memory")
	v.SetDefault("transport.redis.addr", "localhost:6379")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if c.Backend.SyncTimeoutSeconds <= 0 {
		return fmt.Errorf("backend.sync_timeout_seconds must be > 0")
	}
	switch c.Transport.Provider {
	case "memory":
	case "redis":
		if c.Transport.Redis.Addr == "" {
			return fmt.Errorf("transport.redis.addr is required for the redis provider")
		}
	case "pubsub":
		if c.Transport.PubSub.ProjectID == "" || c.Transport.PubSub.SubscriptionID == "" {
			return fmt.Errorf("transport.pubsub.project_id and subscription_id are required for the pubsub provider")
		}
	default:
		return fmt.Errorf("unknown transport provider %q", c.Transport.Provider)
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	return nil
}

// SyncTimeout converts the backend timeout config into a duration.
func (c Config) SyncTimeout() time.Duration {
	return time.Duration(c.Backend.SyncTimeoutSeconds) * time.Second
}

// RequestTimeout converts the server timeout config into a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeout) * time.Second
}
