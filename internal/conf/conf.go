package conf

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/DevRickLin/telegram-relay-bridge/internal/biz/usecase"
)

// Settings storage backends
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Config represents application configuration
type Config struct {
	// Telegram configuration
	Telegram TelegramConfig

	// Relay configuration
	Relay RelayConfig

	// Settings storage configuration
	Settings SettingsConfig

	// HTTP API configuration
	API APIConfig

	// Logging configuration
	Log LogConfig

	// Debug mode
	Debug bool `env:"DEBUG"`
}

// TelegramConfig contains Telegram configuration
type TelegramConfig struct {
	Token string `env:"TELEGRAM_TOKEN"`
}

// RelayConfig contains routing configuration
type RelayConfig struct {
	DefaultChannel int64  `env:"DEFAULT_CHANNEL"`
	AdminID        int64  `env:"ADMIN_ID"`
	StartMessage   string `env:"START_MESSAGE" envDefault:"Hi! Send me a message and I will pass it on."`
	ParseMode      string `env:"DEFAULT_PARSE_MODE"`
	TraceMode      string `env:"TRACE_MODE" envDefault:"returned"`
	TraceLimit     int    `env:"TRACE_LIMIT" envDefault:"0"`
}

// SettingsConfig contains settings storage configuration
type SettingsConfig struct {
	Path               string        `env:"SETTINGS_PATH" envDefault:"settings.json"`
	Backend            string        `env:"SETTINGS_BACKEND" envDefault:"json"`
	CheckpointInterval time.Duration `env:"CHECKPOINT_INTERVAL" envDefault:"5m"`
}

// APIConfig contains HTTP API configuration
type APIConfig struct {
	Addr string `env:"HTTP_ADDR" envDefault:"127.0.0.1:9876"`
}

// LogConfig contains logging configuration
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
	File   string `env:"LOG_FILE" envDefault:"bot.log"`
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	return load(env.Options{})
}

// LoadFromMap loads configuration from the given variables instead of the process environment
func LoadFromMap(vars map[string]string) (*Config, error) {
	return load(env.Options{Environment: vars})
}

func load(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.Debug {
		cfg.Log.Level = "debug"
	}
	return &cfg, nil
}

// ToRouterConfig converts to router configuration
func (c *Config) ToRouterConfig() usecase.RouterConfig {
	return usecase.RouterConfig{
		DefaultChannel: c.Relay.DefaultChannel,
		AdminID:        c.Relay.AdminID,
		StartMessage:   c.Relay.StartMessage,
		ParseMode:      c.Relay.ParseMode,
		TraceMode:      usecase.TraceMode(c.Relay.TraceMode),
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return &ConfigError{Field: "TELEGRAM_TOKEN", Message: "required"}
	}
	if err := c.ValidateStorage(); err != nil {
		return err
	}
	if c.Relay.AdminID == 0 {
		return &ConfigError{Field: "ADMIN_ID", Message: "required"}
	}
	if c.Relay.DefaultChannel > 0 {
		return &ConfigError{Field: "DEFAULT_CHANNEL", Message: "must be a negative group or channel id"}
	}
	switch usecase.TraceMode(c.Relay.TraceMode) {
	case usecase.TraceModeReturned, usecase.TraceModePredicted:
	default:
		return &ConfigError{Field: "TRACE_MODE", Message: "must be returned or predicted"}
	}
	if c.Relay.TraceLimit < 0 {
		return &ConfigError{Field: "TRACE_LIMIT", Message: "must not be negative"}
	}
	if c.Settings.CheckpointInterval < 0 {
		return &ConfigError{Field: "CHECKPOINT_INTERVAL", Message: "must not be negative"}
	}
	return nil
}

// ValidateStorage validates only the settings storage fields, for commands
// that never talk to Telegram
func (c *Config) ValidateStorage() error {
	if c.Settings.Path == "" {
		return &ConfigError{Field: "SETTINGS_PATH", Message: "required"}
	}
	switch c.Settings.Backend {
	case BackendJSON, BackendSQLite:
	default:
		return &ConfigError{Field: "SETTINGS_BACKEND", Message: "must be json or sqlite"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
