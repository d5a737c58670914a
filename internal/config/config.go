// Package config provides application configuration management using Viper.
// Configuration is loaded from YAML files and environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"chat-coordination-service/internal/validator"
)

// Config holds all application configuration.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Logger  LoggerConfig  `mapstructure:"logger"`
	Sentry  SentryConfig  `mapstructure:"sentry"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Pools   PoolsConfig   `mapstructure:"pools"`
	Cleanup CleanupConfig `mapstructure:"cleanup"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name  string `mapstructure:"name" validate:"required"`
	Env   string `mapstructure:"env" validate:"oneof=development staging production"`
	Port  int    `mapstructure:"port" validate:"min=1,max=65535"`
	Debug bool   `mapstructure:"debug"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
	Output string `mapstructure:"output"`
}

// SentryConfig holds Sentry error tracking settings.
type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate" validate:"min=0,max=1"`
}

// RedisConfig holds the store connection settings. URL is either a direct
// Redis URL (no sentinels) or a Sentinel locator URL naming the master
// service (with sentinels).
type RedisConfig struct {
	URL       string   `mapstructure:"url" validate:"required,uri"`
	Sentinels []string `mapstructure:"sentinels" validate:"dive,hostname_port"`
}

// PoolsConfig names the remote hashes backing the presence pools.
type PoolsConfig struct {
	Sessions string `mapstructure:"sessions" validate:"required"`
	Users    string `mapstructure:"users" validate:"required"`
	Usage    string `mapstructure:"usage" validate:"required"`
}

// CleanupConfig holds usage cleanup job settings.
type CleanupConfig struct {
	LockName  string        `mapstructure:"lock_name" validate:"required"`
	LockTTL   time.Duration `mapstructure:"lock_ttl" validate:"min=1s"`
	Interval  time.Duration `mapstructure:"interval" validate:"min=1s"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"min=1s"`
	MaxAge    time.Duration `mapstructure:"max_age" validate:"min=1s"`
	OnStartup bool          `mapstructure:"on_startup"`
}

// Load reads configuration from file and environment variables.
// Priority: env vars > config file > defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Config file not found, continue with defaults + env vars
	}

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validator.New().Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "chat-coordination-service")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.debug", true)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output", "stdout")

	// Sentry defaults
	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")
	v.SetDefault("sentry.sample_rate", 1.0)

	// Redis defaults
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.sentinels", []string{})

	// Pool defaults
	v.SetDefault("pools.sessions", "chat:session-pool")
	v.SetDefault("pools.users", "chat:user-pool")
	v.SetDefault("pools.usage", "chat:usage-pool")

	// Cleanup defaults
	v.SetDefault("cleanup.lock_name", "chat:usage-cleanup:lock")
	v.SetDefault("cleanup.lock_ttl", "60s")
	v.SetDefault("cleanup.interval", "30s")
	v.SetDefault("cleanup.timeout", "15s")
	v.SetDefault("cleanup.max_age", "3m")
	v.SetDefault("cleanup.on_startup", true)
}
