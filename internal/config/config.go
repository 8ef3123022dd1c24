// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures every knob the service reads. Loaded once at startup and
// injected into constructors; nothing reads viper after that.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Retry     RetryConfig     `mapstructure:"retry"`
	Crawlbase CrawlbaseConfig `mapstructure:"crawlbase"`
	Headless  HeadlessConfig  `mapstructure:"headless"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Port           int `mapstructure:"port"`
	RequestTimeout int `mapstructure:"request_timeout_seconds"`
}

// AuthConfig defines the shared-secret check on the API.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// HTTPConfig configures the outbound page fetcher.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// RetryConfig holds the uniform backoff policy applied to every backend call.
type RetryConfig struct {
	MaxAttempts   int     `mapstructure:"max_attempts"`
	InitialWaitMs int     `mapstructure:"initial_wait_ms"`
	Multiplier    float64 `mapstructure:"multiplier"`
	MaxWaitMs     int     `mapstructure:"max_wait_ms"`
}

// CrawlbaseConfig holds scraping-API credentials and limits.
type CrawlbaseConfig struct {
	Token    string `mapstructure:"token"`
	MaxPosts int    `mapstructure:"max_posts"`
}

// HeadlessConfig configures the browser-automation client.
type HeadlessConfig struct {
	NavTimeoutSeconds  int    `mapstructure:"nav_timeout_seconds"`
	ElementWaitSeconds int    `mapstructure:"element_wait_seconds"`
	MaxVideoLinks      int    `mapstructure:"max_video_links"`
	UserAgent          string `mapstructure:"user_agent"`
}

// LoggingConfig controls the zap logger build.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// configKeys lists every key Unmarshal reads. AutomaticEnv only resolves keys
// viper already knows about, so each one is bound explicitly; without this,
// env-only values for keys that carry no default (the credentials) would be
// silently dropped.
var configKeys = []string{
	"server.port",
	"server.request_timeout_seconds",
	"auth.enabled",
	"auth.api_key",
	"http.timeout_seconds",
	"http.user_agent",
	"retry.max_attempts",
	"retry.initial_wait_ms",
	"retry.multiplier",
	"retry.max_wait_ms",
	"crawlbase.token",
	"crawlbase.max_posts",
	"headless.nav_timeout_seconds",
	"headless.element_wait_seconds",
	"headless.max_video_links",
	"headless.user_agent",
	"logging.development",
	"logging.level",
}

// Load builds a Config from an optional file plus INSIGHT_* env vars.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("INSIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	for _, key := range configKeys {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

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
	v.SetDefault("server.request_timeout_seconds", 120)
	v.SetDefault("auth.enabled", true)
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_wait_ms", 2000)
	v.SetDefault("retry.multiplier", 1.5)
	v.SetDefault("retry.max_wait_ms", 10000)
	v.SetDefault("crawlbase.max_posts", 8)
	v.SetDefault("headless.nav_timeout_seconds", 45)
	v.SetDefault("headless.element_wait_seconds", 10)
	v.SetDefault("headless.max_video_links", 10)
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "info")
}

// Validate enforces required values so the service fails fast before
// serving traffic.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be >= 1")
	}
	if c.Retry.Multiplier <= 1.0 {
		return fmt.Errorf("retry.multiplier must be > 1.0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Headless.MaxVideoLinks <= 0 {
		return fmt.Errorf("headless.max_video_links must be > 0")
	}
	return nil
}

// RequestTimeout is the overall per-request deadline covering all attempts.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeout) * time.Second
}

// FetchTimeout is the per-call outbound HTTP timeout.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// InitialWait converts the retry initial wait to a duration.
func (c RetryConfig) InitialWait() time.Duration {
	return time.Duration(c.InitialWaitMs) * time.Millisecond
}

// MaxWait converts the retry wait cap to a duration.
func (c RetryConfig) MaxWait() time.Duration {
	return time.Duration(c.MaxWaitMs) * time.Millisecond
}
