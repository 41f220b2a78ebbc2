// Package config handles settings loading, saving, and path management.
package config

import (
	"os"
	"path/filepath"
)

const (
	// GlobalDirName is the name of the mailbot directory under $HOME.
	GlobalDirName = ".mailbot"

	// LogsDirName is the name of the diagnostic logs directory.
	LogsDirName = "logs"

	// HomeEnv overrides the global directory location.
	HomeEnv = "MAILBOT_HOME"
)

// File names
const (
	SettingsFileName = "settings.yaml"
	LogFileName      = "mailbot.log"
)

// GlobalDir returns the path to the global mailbot directory (~/.mailbot/),
// or $MAILBOT_HOME when set.
func GlobalDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, GlobalDirName), nil
}

// GlobalSettingsFile returns the path to the settings.yaml file.
func GlobalSettingsFile() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SettingsFileName), nil
}

// GlobalLogsDir returns the path to the logs directory.
func GlobalLogsDir() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, LogsDirName), nil
}

// DefaultLogFile returns the path of the diagnostic log file.
func DefaultLogFile() (string, error) {
	dir, err := GlobalLogsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, LogFileName), nil
}

// EnsureGlobalLogsDir creates the logs directory if it doesn't exist.
func EnsureGlobalLogsDir() error {
	dir, err := GlobalLogsDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}
