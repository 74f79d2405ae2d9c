// Package config loads prodlens configuration: YAML file over defaults,
// with environment variable overrides for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all prodlens configuration.
type Config struct {
	Gemini  GeminiConfig  `yaml:"gemini"`
	Retry   RetryConfig   `yaml:"retry"`
	Batch   BatchConfig   `yaml:"batch"`
	Output  OutputConfig  `yaml:"output"`
	Store   StoreConfig   `yaml:"store"`
	Logging LoggingConfig `yaml:"logging"`
}

// GeminiConfig configures the model boundary.
type GeminiConfig struct {
	APIKey          string `yaml:"api_key"`
	Model           string `yaml:"model"`
	Timeout         string `yaml:"timeout"`
	MaxOutputTokens int32  `yaml:"max_output_tokens"`
}

// RetryConfig configures transport-level retries around the invoker.
type RetryConfig struct {
	Attempts int    `yaml:"attempts"`
	Backoff  string `yaml:"backoff"`
}

// BatchConfig configures the batch runner.
type BatchConfig struct {
	Concurrency int    `yaml:"concurrency"`
	SettleDelay string `yaml:"settle_delay"` // watch mode grace period
}

// OutputConfig configures export targets.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// StoreConfig configures result persistence.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig configures the category file logger.
type LoggingConfig struct {
	Level      string   `yaml:"level"`
	Dir        string   `yaml:"dir"`
	Categories []string `yaml:"categories"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Gemini: GeminiConfig{
			Model:           "gemini-3-flash-preview",
			Timeout:         "5m",
			MaxOutputTokens: 65536,
		},
		Retry: RetryConfig{
			Attempts: 3,
			Backoff:  "1s",
		},
		Batch: BatchConfig{
			Concurrency: 2,
			SettleDelay: "2s",
		},
		Output: OutputConfig{
			Dir: "results",
		},
		Store: StoreConfig{
			DatabasePath: ".prodlens/results.db",
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   ".",
		},
	}
}

// Load reads the config file at path, layering it over the defaults.
// A missing file is not an error; defaults apply. Environment overrides
// apply last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the config as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Gemini.APIKey = key
	}
}

// GeminiTimeout parses the configured model call timeout.
func (c *Config) GeminiTimeout() time.Duration {
	return parseDuration(c.Gemini.Timeout, 5*time.Minute)
}

// RetryBackoff parses the configured initial retry backoff.
func (c *Config) RetryBackoff() time.Duration {
	return parseDuration(c.Retry.Backoff, time.Second)
}

// SettleDelay parses the watch-mode settle delay.
func (c *Config) SettleDelay() time.Duration {
	return parseDuration(c.Batch.SettleDelay, 2*time.Second)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
