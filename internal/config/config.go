// Package config handles configuration loading for the headlines tool.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable override.
const EnvPrefix = "HEADLINES"

// Config represents the complete application configuration.
type Config struct {
	Provider  ProviderConfig  `mapstructure:"provider"  yaml:"provider"`
	Fetch     FetchConfig     `mapstructure:"fetch"     yaml:"fetch"`
	Sentiment SentimentConfig `mapstructure:"sentiment" yaml:"sentiment"`
	Output    OutputConfig    `mapstructure:"output"    yaml:"output"`
	Batch     BatchConfig     `mapstructure:"batch"     yaml:"batch"`
	API       APIConfig       `mapstructure:"api"       yaml:"api"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
}

// ProviderConfig selects and tunes the news search provider.
type ProviderConfig struct {
	Name              string `mapstructure:"name"                yaml:"name"` // "googlenews", "finnhub" or "auto"
	BaseURL           string `mapstructure:"base_url"            yaml:"base_url"`
	FinnhubKey        string `mapstructure:"finnhub_key"         yaml:"finnhub_key"`
	Language          string `mapstructure:"language"            yaml:"language"`
	Country           string `mapstructure:"country"             yaml:"country"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	TimeoutSec        int    `mapstructure:"timeout_sec"         yaml:"timeout_sec"`
	CacheTTLSec       int    `mapstructure:"cache_ttl_sec"       yaml:"cache_ttl_sec"`
}

// FetchConfig holds historical fetch orchestration settings.
type FetchConfig struct {
	ChunkDays      int    `mapstructure:"chunk_days"       yaml:"chunk_days"`
	MaxResults     int    `mapstructure:"max_results"      yaml:"max_results"`
	MaxRetries     int    `mapstructure:"max_retries"      yaml:"max_retries"`
	RetryInitialMS int    `mapstructure:"retry_initial_ms" yaml:"retry_initial_ms"`
	DefaultPeriod  string `mapstructure:"default_period"   yaml:"default_period"` // e.g., "7d"
}

// SentimentConfig selects the headline scorer.
type SentimentConfig struct {
	Scorer string `mapstructure:"scorer" yaml:"scorer"` // "vader" or "keyword"
}

// OutputConfig controls where CSV files are written.
type OutputConfig struct {
	Dir           string `mapstructure:"dir"            yaml:"dir"`
	IncludeTicker bool   `mapstructure:"include_ticker" yaml:"include_ticker"`
}

// BatchConfig holds multi-ticker run settings.
type BatchConfig struct {
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Timeout returns the provider HTTP timeout.
func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSec) * time.Second
}

// CacheTTL returns the provider response cache TTL.
func (p ProviderConfig) CacheTTL() time.Duration {
	return time.Duration(p.CacheTTLSec) * time.Second
}

// RetryInitial returns the first retry delay.
func (f FetchConfig) RetryInitial() time.Duration {
	return time.Duration(f.RetryInitialMS) * time.Millisecond
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.headlines/config.yaml (home directory)
//  3. /etc/headlines/config.yaml (system)
//
// Environment variables override config file values.
// Format: HEADLINES_<SECTION>_<KEY>, e.g., HEADLINES_PROVIDER_FINNHUB_KEY
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".headlines"))
	v.AddConfigPath("/etc/headlines")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	switch c.Provider.Name {
	case "googlenews", "finnhub", "auto":
	default:
		return fmt.Errorf("provider.name: unknown provider %q", c.Provider.Name)
	}
	switch c.Sentiment.Scorer {
	case "vader", "keyword":
	default:
		return fmt.Errorf("sentiment.scorer: unknown scorer %q", c.Sentiment.Scorer)
	}
	if c.Fetch.ChunkDays <= 0 {
		return fmt.Errorf("fetch.chunk_days must be positive, got %d", c.Fetch.ChunkDays)
	}
	if c.Fetch.MaxResults <= 0 {
		return fmt.Errorf("fetch.max_results must be positive, got %d", c.Fetch.MaxResults)
	}
	if c.Fetch.MaxRetries < 0 {
		return fmt.Errorf("fetch.max_retries must not be negative, got %d", c.Fetch.MaxRetries)
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("batch.concurrency must be at least 1, got %d", c.Batch.Concurrency)
	}
	return nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Provider defaults
	v.SetDefault("provider.name", "googlenews")
	v.SetDefault("provider.base_url", "https://news.google.com")
	v.SetDefault("provider.language", "en")
	v.SetDefault("provider.country", "US")
	v.SetDefault("provider.requests_per_minute", 60)
	v.SetDefault("provider.timeout_sec", 30)
	v.SetDefault("provider.cache_ttl_sec", 600) // 10 minutes

	// Fetch defaults
	v.SetDefault("fetch.chunk_days", 30)
	v.SetDefault("fetch.max_results", 100)
	v.SetDefault("fetch.max_retries", 2)
	v.SetDefault("fetch.retry_initial_ms", 500)
	v.SetDefault("fetch.default_period", "7d")

	v.SetDefault("sentiment.scorer", "vader")

	v.SetDefault("output.dir", ".")
	v.SetDefault("output.include_ticker", true)

	v.SetDefault("batch.concurrency", 1)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
// FINNHUB_API_KEY is accepted as well since that is the name Finnhub documents.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("FINNHUB_API_KEY"); key != "" {
		cfg.Provider.FinnhubKey = key
	}
	if key := os.Getenv(EnvPrefix + "_PROVIDER_FINNHUB_KEY"); key != "" {
		cfg.Provider.FinnhubKey = key
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
