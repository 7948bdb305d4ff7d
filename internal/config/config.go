package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration for the MotivAI engine.
//
// Sources (priority order, high to low):
//  1. Environment variables (MOTIVAI_* prefix, "." replaced by "_")
//  2. Optional YAML config file
//  3. Built-in defaults
type Config struct {
	Server struct {
		Host     string `mapstructure:"host"`
		HTTPPort int    `mapstructure:"http_port"`

		// GenerateRateLimit caps generation requests per client per minute.
		// 0 disables rate limiting.
		GenerateRateLimit int `mapstructure:"generate_rate_limit"`
	} `mapstructure:"server"`

	// Cache is the remote key-value store used for cache-aside and pub/sub.
	// Both URL and Token empty means the engine runs with caching disabled:
	// every read is a miss and every write is a no-op.
	Cache struct {
		URL      string `mapstructure:"url"`
		Token    string `mapstructure:"token"`
		Disabled bool   `mapstructure:"disabled"`
	} `mapstructure:"cache"`

	LLM struct {
		Provider  string `mapstructure:"provider"` // openai | custom (OpenAI-compatible)
		APIKey    string `mapstructure:"api_key"`
		Model     string `mapstructure:"model"`
		BaseURL   string `mapstructure:"base_url"`
		MaxTokens int    `mapstructure:"max_tokens"`
	} `mapstructure:"llm"`

	Database struct {
		Path string `mapstructure:"path"` // ":memory:" for non-persistent storage
	} `mapstructure:"database"`

	Realtime struct {
		Interval    time.Duration `mapstructure:"interval"`
		SnapshotTTL time.Duration `mapstructure:"snapshot_ttl"`
		Channel     string        `mapstructure:"channel"`
	} `mapstructure:"realtime"`

	Logging struct {
		Level      string `mapstructure:"level"`
		Path       string `mapstructure:"path"` // empty = stdout only
		MaxSizeMB  int    `mapstructure:"max_size_mb"`
		MaxBackups int    `mapstructure:"max_backups"`
		MaxAgeDays int    `mapstructure:"max_age_days"`
		Compress   bool   `mapstructure:"compress"`
	} `mapstructure:"logging"`
}

// Load reads configuration from the optional YAML file at path plus
// MOTIVAI_* environment variables, applying defaults for anything unset.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("MOTIVAI")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Missing cache credentials is not a startup error: the cache client
	// degrades to permanent miss / no-op mode instead.
	if cfg.Cache.URL == "" || cfg.Cache.Token == "" {
		cfg.Cache.Disabled = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every known key so AutomaticEnv picks up overrides.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.generate_rate_limit", 30)

	v.SetDefault("cache.url", "")
	v.SetDefault("cache.token", "")
	v.SetDefault("cache.disabled", false)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.max_tokens", 2048)

	v.SetDefault("database.path", "motivai.db")

	v.SetDefault("realtime.interval", "5s")
	v.SetDefault("realtime.snapshot_ttl", "30s")
	v.SetDefault("realtime.channel", "analytics:events")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)
	v.SetDefault("logging.compress", true)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.HTTPPort < 1 || c.Server.HTTPPort > 65535 {
		errs = append(errs, fmt.Sprintf("server.http_port out of range: %d", c.Server.HTTPPort))
	}
	if c.Server.GenerateRateLimit < 0 {
		errs = append(errs, "server.generate_rate_limit cannot be negative")
	}

	switch c.LLM.Provider {
	case "openai", "custom":
	default:
		errs = append(errs, fmt.Sprintf("llm.provider must be openai or custom, got %q", c.LLM.Provider))
	}
	if c.LLM.Provider == "custom" && c.LLM.BaseURL == "" {
		errs = append(errs, "llm.base_url is required when llm.provider is custom")
	}
	if c.LLM.MaxTokens <= 0 {
		errs = append(errs, fmt.Sprintf("llm.max_tokens must be positive, got %d", c.LLM.MaxTokens))
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path cannot be empty")
	}

	if c.Realtime.Interval <= 0 {
		errs = append(errs, "realtime.interval must be positive")
	}
	if c.Realtime.SnapshotTTL <= 0 {
		errs = append(errs, "realtime.snapshot_ttl must be positive")
	}
	if c.Realtime.Channel == "" {
		errs = append(errs, "realtime.channel cannot be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
