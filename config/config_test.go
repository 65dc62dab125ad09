package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != "3000" {
		t.Errorf("port = %q, want 3000", cfg.Server.Port)
	}
	if cfg.Poller.Concurrency != 4 {
		t.Errorf("concurrency = %d, want 4", cfg.Poller.Concurrency)
	}
	if cfg.Poller.FetchTimeout != 30*time.Second {
		t.Errorf("fetch timeout = %v, want 30s", cfg.Poller.FetchTimeout)
	}
	if cfg.Health.FailureThreshold != 3 {
		t.Errorf("failure threshold = %d, want 3", cfg.Health.FailureThreshold)
	}
	if cfg.Ranking.Diversity.MediumSourceRun != 3 {
		t.Errorf("medium source run = %d, want 3", cfg.Ranking.Diversity.MediumSourceRun)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("server:\n  port: \"8080\"\npoller:\n  concurrency: 8\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Poller.Concurrency != 8 {
		t.Errorf("concurrency = %d, want 8", cfg.Poller.Concurrency)
	}
	// 未覆盖的字段保持默认
	if cfg.Cron.FetchInterval != "*/30 * * * *" {
		t.Errorf("fetch interval = %q, want default", cfg.Cron.FetchInterval)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9999" {
		t.Errorf("port = %q, want env override 9999", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("poller:\n  concurrency: 0\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("zero concurrency must be rejected")
	}
}

func TestGetServerAddress(t *testing.T) {
	tests := []struct {
		port string
		want string
	}{
		{"3000", ":3000"},
		{":3000", ":3000"},
		{"0.0.0.0:3000", "0.0.0.0:3000"},
	}
	for _, tt := range tests {
		cfg := Config{Server: ServerConfig{Port: tt.port}}
		if got := cfg.GetServerAddress(); got != tt.want {
			t.Errorf("GetServerAddress(%q) = %q, want %q", tt.port, got, tt.want)
		}
	}
}
