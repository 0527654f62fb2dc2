package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ListenAddress != defaultListenAddress {
		t.Fatalf("expected default listen address %s, got %s", defaultListenAddress, cfg.ListenAddress)
	}
	if cfg.LogLevel != defaultLogLevel {
		t.Fatalf("expected default log level %s, got %s", defaultLogLevel, cfg.LogLevel)
	}
	if cfg.Runner.URL != defaultRunnerURL {
		t.Fatalf("expected default runner url %s, got %s", defaultRunnerURL, cfg.Runner.URL)
	}
	if cfg.Runner.Timeout != defaultRunnerTimeout {
		t.Fatalf("expected default runner timeout %s, got %s", defaultRunnerTimeout, cfg.Runner.Timeout)
	}
	if cfg.ShutdownGracePeriod != defaultShutdownGracePeriod {
		t.Fatalf("expected default grace %s, got %s", defaultShutdownGracePeriod, cfg.ShutdownGracePeriod)
	}
	if cfg.MessageRate != defaultMessageRate {
		t.Fatalf("expected default message rate %v, got %v", defaultMessageRate, cfg.MessageRate)
	}
}

func TestLoadWithFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(`
listen_address: "127.0.0.1:7001"
log_level: "debug"
shutdown_grace_period: "5s"
message_burst: 50
runner:
  url: "http://localhost:2000/api/v2/execute"
  timeout: "15s"
`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CODEROOM_LISTEN_ADDRESS", ":6000")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ListenAddress != ":6000" {
		t.Fatalf("expected env override for listen address, got %s", cfg.ListenAddress)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected log level debug, got %s", cfg.LogLevel)
	}
	if cfg.ShutdownGracePeriod != 5*time.Second {
		t.Fatalf("expected grace 5s, got %s", cfg.ShutdownGracePeriod)
	}
	if cfg.MessageBurst != 50 {
		t.Fatalf("expected message burst 50, got %d", cfg.MessageBurst)
	}
	if cfg.Runner.URL != "http://localhost:2000/api/v2/execute" {
		t.Fatalf("unexpected runner url %s", cfg.Runner.URL)
	}
	if cfg.Runner.Timeout != 15*time.Second {
		t.Fatalf("expected runner timeout 15s, got %s", cfg.Runner.Timeout)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("shutdown_grace_period: \"soon\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}
