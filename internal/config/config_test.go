package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearKeyEnv blanks every env var that feeds the Finnhub key.
func clearKeyEnv(t *testing.T) {
	t.Helper()
	t.Setenv("FINNHUB_API_KEY", "")
	t.Setenv("HEADLINES_PROVIDER_FINNHUB_KEY", "")
}

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	clearKeyEnv(t)
	t.Chdir(t.TempDir()) // keep any ./config/config.yaml in the repo out of the way

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Provider defaults
	if cfg.Provider.Name != "googlenews" {
		t.Errorf("Provider.Name: got %q, want %q", cfg.Provider.Name, "googlenews")
	}
	if cfg.Provider.BaseURL != "https://news.google.com" {
		t.Errorf("Provider.BaseURL: got %q", cfg.Provider.BaseURL)
	}
	if cfg.Provider.RequestsPerMinute != 60 {
		t.Errorf("Provider.RequestsPerMinute: got %d, want 60", cfg.Provider.RequestsPerMinute)
	}
	if cfg.Provider.Timeout() != 30*time.Second {
		t.Errorf("Provider.Timeout(): got %v, want 30s", cfg.Provider.Timeout())
	}
	if cfg.Provider.CacheTTL() != 10*time.Minute {
		t.Errorf("Provider.CacheTTL(): got %v, want 10m", cfg.Provider.CacheTTL())
	}

	// Fetch defaults
	if cfg.Fetch.ChunkDays != 30 {
		t.Errorf("Fetch.ChunkDays: got %d, want 30", cfg.Fetch.ChunkDays)
	}
	if cfg.Fetch.MaxResults != 100 {
		t.Errorf("Fetch.MaxResults: got %d, want 100", cfg.Fetch.MaxResults)
	}
	if cfg.Fetch.MaxRetries != 2 {
		t.Errorf("Fetch.MaxRetries: got %d, want 2", cfg.Fetch.MaxRetries)
	}
	if cfg.Fetch.RetryInitial() != 500*time.Millisecond {
		t.Errorf("Fetch.RetryInitial(): got %v", cfg.Fetch.RetryInitial())
	}
	if cfg.Fetch.DefaultPeriod != "7d" {
		t.Errorf("Fetch.DefaultPeriod: got %q", cfg.Fetch.DefaultPeriod)
	}

	if cfg.Sentiment.Scorer != "vader" {
		t.Errorf("Sentiment.Scorer: got %q, want vader", cfg.Sentiment.Scorer)
	}
	if !cfg.Output.IncludeTicker {
		t.Error("Output.IncludeTicker should default to true")
	}
	if cfg.Batch.Concurrency != 1 {
		t.Errorf("Batch.Concurrency: got %d, want 1", cfg.Batch.Concurrency)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port: got %d, want 8080", cfg.API.Port)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("Logging: got %+v", cfg.Logging)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearKeyEnv(t)

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "test_config.yaml")
	content := []byte(`
provider:
  name: "finnhub"
  finnhub_key: "test_key_12345678901234"
  requests_per_minute: 30
fetch:
  chunk_days: 7
  max_results: 250
  max_retries: 0
sentiment:
  scorer: "keyword"
batch:
  concurrency: 4
api:
  port: 9090
logging:
  level: "debug"
  format: "json"
`)
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.Provider.Name != "finnhub" {
		t.Errorf("Provider.Name: got %q, want finnhub", cfg.Provider.Name)
	}
	if cfg.Provider.FinnhubKey != "test_key_12345678901234" {
		t.Errorf("Provider.FinnhubKey: got %q", cfg.Provider.FinnhubKey)
	}
	if cfg.Provider.RequestsPerMinute != 30 {
		t.Errorf("Provider.RequestsPerMinute: got %d, want 30", cfg.Provider.RequestsPerMinute)
	}
	if cfg.Fetch.ChunkDays != 7 || cfg.Fetch.MaxResults != 250 || cfg.Fetch.MaxRetries != 0 {
		t.Errorf("Fetch: got %+v", cfg.Fetch)
	}
	if cfg.Sentiment.Scorer != "keyword" {
		t.Errorf("Sentiment.Scorer: got %q", cfg.Sentiment.Scorer)
	}
	if cfg.Batch.Concurrency != 4 {
		t.Errorf("Batch.Concurrency: got %d, want 4", cfg.Batch.Concurrency)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port: got %d, want 9090", cfg.API.Port)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging: got %+v", cfg.Logging)
	}
	// Unset values keep defaults.
	if cfg.Provider.TimeoutSec != 30 {
		t.Errorf("Provider.TimeoutSec: got %d, want default 30", cfg.Provider.TimeoutSec)
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("LoadFromFile() with nonexistent path should return error")
	}
}

func TestLoadFromFileEnvOverride(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("HEADLINES_FETCH_CHUNK_DAYS", "14")

	cfgPath := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(cfgPath, []byte("fetch:\n  chunk_days: 7\n"), 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.Fetch.ChunkDays != 14 {
		t.Errorf("env should override file: got %d, want 14", cfg.Fetch.ChunkDays)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	clearKeyEnv(t)

	tests := []struct {
		name    string
		content string
		errPart string
	}{
		{"unknown provider", "provider:\n  name: bing\n", "provider.name"},
		{"unknown scorer", "sentiment:\n  scorer: llm\n", "sentiment.scorer"},
		{"zero chunk", "fetch:\n  chunk_days: 0\n", "fetch.chunk_days"},
		{"zero max", "fetch:\n  max_results: 0\n", "fetch.max_results"},
		{"negative retries", "fetch:\n  max_retries: -1\n", "fetch.max_retries"},
		{"zero concurrency", "batch:\n  concurrency: 0\n", "batch.concurrency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgPath := filepath.Join(t.TempDir(), "c.yaml")
			if err := os.WriteFile(cfgPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("write temp config: %v", err)
			}
			_, err := LoadFromFile(cfgPath)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.errPart) {
				t.Errorf("error %q should mention %q", err, tt.errPart)
			}
		})
	}
}

// ── overrideFromEnv ──

func TestOverrideFromEnv(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("FINNHUB_API_KEY", "finnhub-documented-name")

	cfg := &Config{}
	overrideFromEnv(cfg)
	if cfg.Provider.FinnhubKey != "finnhub-documented-name" {
		t.Errorf("FinnhubKey: got %q", cfg.Provider.FinnhubKey)
	}

	// The prefixed variable wins over the plain one.
	t.Setenv("HEADLINES_PROVIDER_FINNHUB_KEY", "prefixed-key")
	overrideFromEnv(cfg)
	if cfg.Provider.FinnhubKey != "prefixed-key" {
		t.Errorf("FinnhubKey: got %q, want prefixed-key", cfg.Provider.FinnhubKey)
	}
}

func TestOverrideFromEnvNoEnvSet(t *testing.T) {
	clearKeyEnv(t)

	cfg := &Config{
		Provider: ProviderConfig{FinnhubKey: "from-config"},
	}
	overrideFromEnv(cfg)

	// Should retain the original value when env is not set
	if cfg.Provider.FinnhubKey != "from-config" {
		t.Errorf("FinnhubKey should stay as 'from-config' when env is unset, got %q", cfg.Provider.FinnhubKey)
	}
}

// ── maskKey ──

func TestMaskKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "***"},
		{"abcd", "***"},
		{"12345678", "***"},
		{"123456789", "123...789"},
		{"cq1abcdef1234567890xyz", "cq1...xyz"},
	}
	for _, tc := range tests {
		got := maskKey(tc.input)
		if got != tc.want {
			t.Errorf("maskKey(%q): got %q, want %q", tc.input, got, tc.want)
		}
	}
}

// ── CheckAPIKeys / keyStatus ──

func TestCheckAPIKeysEmpty(t *testing.T) {
	clearKeyEnv(t)

	statuses := CheckAPIKeys(&Config{})
	if len(statuses) != 1 {
		t.Fatalf("CheckAPIKeys: got %d statuses, want 1", len(statuses))
	}
	if statuses[0].IsSet || statuses[0].Source != KeySourceNone {
		t.Errorf("empty key status: %+v", statuses[0])
	}
}

func TestCheckAPIKeysFromConfig(t *testing.T) {
	clearKeyEnv(t)

	cfg := &Config{Provider: ProviderConfig{FinnhubKey: "cq-test-very-long-key-value"}}
	s := CheckAPIKeys(cfg)[0]
	if !s.IsSet {
		t.Error("Finnhub key should be set")
	}
	if s.Source != KeySourceConfig {
		t.Errorf("Source: got %q, want %q", s.Source, KeySourceConfig)
	}
	if s.Masked != "cq-...lue" {
		t.Errorf("Masked: got %q, want %q", s.Masked, "cq-...lue")
	}
}

func TestKeyStatusSourceDetection(t *testing.T) {
	t.Setenv("TEST_VAR", "")
	t.Setenv("TEST_VAR_ALT", "")

	s := keyStatus("Test", "", "TEST_VAR")
	if s.Source != KeySourceNone || s.IsSet {
		t.Errorf("empty value: got %+v", s)
	}

	s = keyStatus("Test", "config-value-long-enough", "TEST_VAR", "TEST_VAR_ALT")
	if s.Source != KeySourceConfig {
		t.Errorf("config value: got source %q, want %q", s.Source, KeySourceConfig)
	}

	t.Setenv("TEST_VAR_ALT", "env-value-long-enough")
	s = keyStatus("Test", "env-value-long-enough", "TEST_VAR", "TEST_VAR_ALT")
	if s.Source != KeySourceEnv || s.EnvVar != "TEST_VAR_ALT" {
		t.Errorf("env value: got source %q from %q, want env from TEST_VAR_ALT", s.Source, s.EnvVar)
	}
}

func TestCheckAPIKeysRequired(t *testing.T) {
	clearKeyEnv(t)

	keys := CheckAPIKeys(&Config{Provider: ProviderConfig{Name: "finnhub"}})
	if !keys[0].Required {
		t.Error("Finnhub key should be required by the finnhub provider")
	}
	if got := MissingRequired(keys); len(got) != 1 || got[0] != "Finnhub API Key" {
		t.Errorf("MissingRequired: got %v", got)
	}

	keys = CheckAPIKeys(&Config{Provider: ProviderConfig{Name: "auto"}})
	if keys[0].Required {
		t.Error("auto provider should not require the Finnhub key")
	}
	if got := MissingRequired(keys); len(got) != 0 {
		t.Errorf("MissingRequired: got %v, want none", got)
	}
}

func TestHomeDirReturnsNonEmpty(t *testing.T) {
	if homeDir() == "" {
		t.Error("homeDir() should not return empty string")
	}
}
