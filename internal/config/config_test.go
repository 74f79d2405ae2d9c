package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Gemini.Model != "gemini-3-flash-preview" {
		t.Errorf("default model = %q", cfg.Gemini.Model)
	}
	if cfg.Batch.Concurrency != 2 {
		t.Errorf("default concurrency = %d", cfg.Batch.Concurrency)
	}
	if cfg.GeminiTimeout() != 5*time.Minute {
		t.Errorf("default timeout = %v", cfg.GeminiTimeout())
	}
}

func TestLoadLayersFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prodlens.yaml")
	content := `
gemini:
  model: gemini-2.5-pro
  timeout: 90s
batch:
  concurrency: 8
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Gemini.Model != "gemini-2.5-pro" {
		t.Errorf("model = %q", cfg.Gemini.Model)
	}
	if cfg.GeminiTimeout() != 90*time.Second {
		t.Errorf("timeout = %v", cfg.GeminiTimeout())
	}
	if cfg.Batch.Concurrency != 8 {
		t.Errorf("concurrency = %d", cfg.Batch.Concurrency)
	}
	// Untouched sections keep their defaults.
	if cfg.Retry.Attempts != 3 {
		t.Errorf("retry attempts = %d, want default 3", cfg.Retry.Attempts)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("gemini: [not: a: mapping"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvOverridesAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Gemini.APIKey != "env-secret" {
		t.Errorf("APIKey = %q, want env override", cfg.Gemini.APIKey)
	}
}

func TestDurationFallbacks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gemini.Timeout = "not-a-duration"
	cfg.Retry.Backoff = ""
	cfg.Batch.SettleDelay = "-5s"

	if cfg.GeminiTimeout() != 5*time.Minute {
		t.Errorf("bad timeout should fall back, got %v", cfg.GeminiTimeout())
	}
	if cfg.RetryBackoff() != time.Second {
		t.Errorf("empty backoff should fall back, got %v", cfg.RetryBackoff())
	}
	if cfg.SettleDelay() != 2*time.Second {
		t.Errorf("negative settle delay should fall back, got %v", cfg.SettleDelay())
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := DefaultConfig()
	cfg.Output.Dir = "exports"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Output.Dir != "exports" {
		t.Errorf("Output.Dir = %q", loaded.Output.Dir)
	}
}
