package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Default configuration values
const (
	DefaultListenAddr     = "localhost:8741"
	DefaultTerminalPrefix = "caseroom"

	// DefaultIdleThreshold is how long a session may stay inactive before
	// the reaper releases its workspace and terminal.
	DefaultIdleThreshold = 30 * time.Minute

	// DefaultReapInterval is how often the reaper scans for idle sessions.
	DefaultReapInterval = 1 * time.Minute
)

// Config represents application configuration
type Config struct {
	ListenAddr     string `json:"listen_addr"`
	WorkspaceRoot  string `json:"workspace_root"`
	TemplateDir    string `json:"template_dir"`
	TerminalPrefix string `json:"terminal_prefix"`
	IdleThreshold  string `json:"idle_threshold"` // duration string, e.g. "30m"
	ReapInterval   string `json:"reap_interval"`  // duration string, e.g. "1m"
	LogLevel       string `json:"log_level"`      // debug, info, warn, error, none
	LogPath        string `json:"-"`
}

// DefaultConfig returns a Config populated with defaults
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:     DefaultListenAddr,
		WorkspaceRoot:  "/var/lib/caseroom/workspace",
		TerminalPrefix: DefaultTerminalPrefix,
		LogLevel:       "info",
	}
}

// DefaultPath returns the default configuration file location
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "caseroom", "config.json")
}

// Load reads configuration from an optional JSON file and applies
// environment overrides. A missing file or empty path loads defaults
// plus environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CASEROOM_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("CASEROOM_WORKSPACE_ROOT"); v != "" {
		c.WorkspaceRoot = v
	}
	if v := os.Getenv("CASEROOM_TEMPLATE_DIR"); v != "" {
		c.TemplateDir = v
	}
	if v := os.Getenv("CASEROOM_TERMINAL_PREFIX"); v != "" {
		c.TerminalPrefix = v
	}
	if v := os.Getenv("CASEROOM_IDLE_THRESHOLD"); v != "" {
		c.IdleThreshold = v
	}
	if v := os.Getenv("CASEROOM_REAP_INTERVAL"); v != "" {
		c.ReapInterval = v
	}
	if v := os.Getenv("CASEROOM_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("CASEROOM_LOG_PATH"); v != "" {
		c.LogPath = v
	}
}

func (c *Config) validate() error {
	if c.WorkspaceRoot == "" {
		return fmt.Errorf("workspace_root must not be empty")
	}
	if c.IdleThreshold != "" {
		if _, err := time.ParseDuration(c.IdleThreshold); err != nil {
			return fmt.Errorf("invalid idle_threshold %q: %w", c.IdleThreshold, err)
		}
	}
	if c.ReapInterval != "" {
		if _, err := time.ParseDuration(c.ReapInterval); err != nil {
			return fmt.Errorf("invalid reap_interval %q: %w", c.ReapInterval, err)
		}
	}
	return nil
}

// IdleThresholdDuration returns the parsed idle threshold or the default
func (c *Config) IdleThresholdDuration() time.Duration {
	if c.IdleThreshold == "" {
		return DefaultIdleThreshold
	}
	d, err := time.ParseDuration(c.IdleThreshold)
	if err != nil {
		return DefaultIdleThreshold
	}
	return d
}

// ReapIntervalDuration returns the parsed reap interval or the default
func (c *Config) ReapIntervalDuration() time.Duration {
	if c.ReapInterval == "" {
		return DefaultReapInterval
	}
	d, err := time.ParseDuration(c.ReapInterval)
	if err != nil {
		return DefaultReapInterval
	}
	return d
}
