package models

import "time"

// Failure policies for the log poller when the server cannot be reached.
const (
	FailurePolicyRetry = "retry"
	FailurePolicyStop  = "stop"
)

// ServerConfig holds how to reach the mailbot web app.
type ServerConfig struct {
	URL       string `yaml:"url"`
	Email     string `yaml:"email"`
	SessionID string `yaml:"session_id,omitempty"`
	CSRFToken string `yaml:"csrf_token,omitempty"`
}

// PollingConfig holds execution-log polling settings.
type PollingConfig struct {
	HistoryInterval time.Duration `yaml:"history_interval"`
	EditorInterval  time.Duration `yaml:"editor_interval"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	FailurePolicy   string        `yaml:"failure_policy"` // "retry" | "stop"
	MaxBackoff      time.Duration `yaml:"max_backoff"`
	PageSize        int           `yaml:"page_size"`
}

// DisplayConfig holds rendering settings.
type DisplayConfig struct {
	// LegacyPlaceholders prints "undefined" for missing values like the
	// web UI did.
	LegacyPlaceholders bool `yaml:"legacy_placeholders"`
}

// LoggingConfig holds diagnostic log settings.
type LoggingConfig struct {
	Level      string `yaml:"level"` // "debug" | "info" | "warn" | "error"
	File       string `yaml:"file"`  // empty = ~/.mailbot/logs/mailbot.log
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Settings represents the client settings.
// This corresponds to ~/.mailbot/settings.yaml.
type Settings struct {
	Version int           `yaml:"version"`
	Server  ServerConfig  `yaml:"server"`
	Polling PollingConfig `yaml:"polling"`
	Display DisplayConfig `yaml:"display"`
	Logging LoggingConfig `yaml:"logging"`
}

// NewSettings creates settings with default values.
func NewSettings() *Settings {
	return &Settings{
		Version: 1,
		Server: ServerConfig{
			URL: "http://localhost:8000",
		},
		Polling: PollingConfig{
			HistoryInterval: 2 * time.Second,
			EditorInterval:  5 * time.Second,
			RequestTimeout:  10 * time.Second,
			FailurePolicy:   FailurePolicyRetry,
			MaxBackoff:      time.Minute,
			PageSize:        10,
		},
		Display: DisplayConfig{
			LegacyPlaceholders: false,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}
