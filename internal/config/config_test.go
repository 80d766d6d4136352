package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ListenAddr != DefaultListenAddr {
		t.Errorf("expected listen addr %q, got %q", DefaultListenAddr, cfg.ListenAddr)
	}
	if cfg.TerminalPrefix != DefaultTerminalPrefix {
		t.Errorf("expected terminal prefix %q, got %q", DefaultTerminalPrefix, cfg.TerminalPrefix)
	}
	if cfg.IdleThresholdDuration() != DefaultIdleThreshold {
		t.Errorf("expected default idle threshold, got %v", cfg.IdleThresholdDuration())
	}
	if cfg.ReapIntervalDuration() != DefaultReapInterval {
		t.Errorf("expected default reap interval, got %v", cfg.ReapIntervalDuration())
	}
}

func TestLoadFromFile(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "config.json")

	content := `{
		"listen_addr": "localhost:9000",
		"workspace_root": "/tmp/caseroom-test",
		"idle_threshold": "10m",
		"reap_interval": "30s"
	}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ListenAddr != "localhost:9000" {
		t.Errorf("expected listen addr from file, got %q", cfg.ListenAddr)
	}
	if cfg.WorkspaceRoot != "/tmp/caseroom-test" {
		t.Errorf("expected workspace root from file, got %q", cfg.WorkspaceRoot)
	}
	if cfg.IdleThresholdDuration() != 10*time.Minute {
		t.Errorf("expected 10m idle threshold, got %v", cfg.IdleThresholdDuration())
	}
	if cfg.ReapIntervalDuration() != 30*time.Second {
		t.Errorf("expected 30s reap interval, got %v", cfg.ReapIntervalDuration())
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ListenAddr != DefaultListenAddr {
		t.Errorf("expected default listen addr, got %q", cfg.ListenAddr)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "config.json")

	content := `{"workspace_root": "/tmp/x", "idle_threshold": "not-a-duration"}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid idle_threshold")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CASEROOM_WORKSPACE_ROOT", "/srv/cases")
	t.Setenv("CASEROOM_IDLE_THRESHOLD", "5m")
	t.Setenv("CASEROOM_LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.WorkspaceRoot != "/srv/cases" {
		t.Errorf("expected workspace root from env, got %q", cfg.WorkspaceRoot)
	}
	if cfg.IdleThresholdDuration() != 5*time.Minute {
		t.Errorf("expected 5m idle threshold, got %v", cfg.IdleThresholdDuration())
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected debug log level, got %q", cfg.LogLevel)
	}
}
