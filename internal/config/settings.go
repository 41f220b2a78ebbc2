package config

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mailbot-io/mailbot/internal/models"
)

// Environment overrides applied on top of the settings file.
const (
	ServerEnv  = "MAILBOT_SERVER"
	SessionEnv = "MAILBOT_SESSION"
	CSRFEnv    = "MAILBOT_CSRF"
)

// LoadSettings loads the settings from ~/.mailbot/settings.yaml and applies
// environment overrides. If the file doesn't exist, defaults are used.
func LoadSettings() (*models.Settings, error) {
	path, err := GlobalSettingsFile()
	if err != nil {
		return nil, err
	}
	return LoadSettingsFrom(path)
}

// LoadSettingsFrom loads settings from an explicit path.
func LoadSettingsFrom(path string) (*models.Settings, error) {
	s, err := LoadYAMLOrDefault(path, models.NewSettings)
	if err != nil {
		return nil, err
	}
	ApplyEnv(s)
	if err := Validate(s); err != nil {
		return nil, fmt.Errorf("invalid settings in %s: %w", path, err)
	}
	return s, nil
}

// SaveSettings saves the settings to ~/.mailbot/settings.yaml.
func SaveSettings(s *models.Settings) error {
	path, err := GlobalSettingsFile()
	if err != nil {
		return err
	}
	return SaveYAML(path, s)
}

// ApplyEnv overrides server settings from the environment.
func ApplyEnv(s *models.Settings) {
	if v := os.Getenv(ServerEnv); v != "" {
		s.Server.URL = v
	}
	if v := os.Getenv(SessionEnv); v != "" {
		s.Server.SessionID = v
	}
	if v := os.Getenv(CSRFEnv); v != "" {
		s.Server.CSRFToken = v
	}
}

// Validate checks settings for values the client cannot work with.
func Validate(s *models.Settings) error {
	u, err := url.Parse(s.Server.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server.url must be an http(s) URL, got %q", s.Server.URL)
	}
	if s.Polling.HistoryInterval <= 0 || s.Polling.EditorInterval <= 0 {
		return fmt.Errorf("polling intervals must be positive")
	}
	if s.Polling.RequestTimeout <= 0 {
		return fmt.Errorf("polling.request_timeout must be positive")
	}
	switch s.Polling.FailurePolicy {
	case models.FailurePolicyRetry, models.FailurePolicyStop:
	default:
		return fmt.Errorf("polling.failure_policy must be %q or %q, got %q",
			models.FailurePolicyRetry, models.FailurePolicyStop, s.Polling.FailurePolicy)
	}
	return nil
}

// settingKeys maps dotted keys to setters for `mailbot settings set`.
var settingKeys = map[string]func(s *models.Settings, v string) error{
	"server.url":        func(s *models.Settings, v string) error { s.Server.URL = v; return nil },
	"server.email":      func(s *models.Settings, v string) error { s.Server.Email = v; return nil },
	"server.session_id": func(s *models.Settings, v string) error { s.Server.SessionID = v; return nil },
	"server.csrf_token": func(s *models.Settings, v string) error { s.Server.CSRFToken = v; return nil },
	"polling.history_interval": func(s *models.Settings, v string) error {
		return setDuration(&s.Polling.HistoryInterval, v)
	},
	"polling.editor_interval": func(s *models.Settings, v string) error {
		return setDuration(&s.Polling.EditorInterval, v)
	},
	"polling.request_timeout": func(s *models.Settings, v string) error {
		return setDuration(&s.Polling.RequestTimeout, v)
	},
	"polling.max_backoff": func(s *models.Settings, v string) error {
		return setDuration(&s.Polling.MaxBackoff, v)
	},
	"polling.failure_policy": func(s *models.Settings, v string) error { s.Polling.FailurePolicy = v; return nil },
	"polling.page_size": func(s *models.Settings, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid integer: %s", v)
		}
		s.Polling.PageSize = n
		return nil
	},
	"display.legacy_placeholders": func(s *models.Settings, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid boolean: %s", v)
		}
		s.Display.LegacyPlaceholders = b
		return nil
	},
	"logging.level": func(s *models.Settings, v string) error { s.Logging.Level = v; return nil },
	"logging.file":  func(s *models.Settings, v string) error { s.Logging.File = v; return nil },
}

// SetSetting assigns a dotted key and re-validates.
func SetSetting(s *models.Settings, key, value string) error {
	set, ok := settingKeys[strings.ToLower(key)]
	if !ok {
		return fmt.Errorf("unknown setting %q (known: %s)", key, strings.Join(SettingKeys(), ", "))
	}
	if err := set(s, strings.TrimSpace(value)); err != nil {
		return err
	}
	return Validate(s)
}

// SettingKeys lists the keys accepted by SetSetting.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingKeys))
	for k := range settingKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func setDuration(dst *time.Duration, v string) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid duration: %s", v)
	}
	*dst = d
	return nil
}
