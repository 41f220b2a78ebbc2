package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/mailbot-io/mailbot/internal/client"
	"github.com/mailbot-io/mailbot/internal/config"
	"github.com/mailbot-io/mailbot/internal/logging"
	"github.com/mailbot-io/mailbot/internal/models"
)

// session bundles what a server command needs: settings, a logger and a
// client configured from both.
type session struct {
	settings *models.Settings
	logger   *logging.Logger
	client   *client.Client
	closer   io.Closer
}

// Close flushes the log file, if any.
func (s *session) Close() {
	if s.closer != nil {
		_ = s.closer.Close()
	}
}

// loadSettings reads settings and applies the persistent flags on top.
func loadSettings() (*models.Settings, error) {
	s, err := config.LoadSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if flagServer != "" {
		s.Server.URL = flagServer
	}
	if flagSession != "" {
		s.Server.SessionID = flagSession
	}
	if err := config.Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

// newLogger builds the diagnostic logger. Full-screen commands log to the
// rotating file so the alt screen stays clean; the rest log to stderr.
func newLogger(s *models.Settings, toFile bool) (*logging.Logger, io.Closer, error) {
	level := logging.ParseLevel(s.Logging.Level)
	if flagVerbose {
		level = slog.LevelDebug
	}
	if !toFile {
		return logging.Stderr(level), nil, nil
	}

	path := s.Logging.File
	if path == "" {
		if err := config.EnsureGlobalLogsDir(); err != nil {
			return nil, nil, fmt.Errorf("failed to create logs directory: %w", err)
		}
		p, err := config.DefaultLogFile()
		if err != nil {
			return nil, nil, err
		}
		path = p
	}
	logger, closer := logging.NewFile(logging.FileConfig{
		Path:       path,
		MaxSizeMB:  s.Logging.MaxSizeMB,
		MaxBackups: s.Logging.MaxBackups,
	}, level)
	return logger, closer, nil
}

// newSession loads settings and connects a client.
func newSession(toFile bool) (*session, error) {
	s, err := loadSettings()
	if err != nil {
		return nil, err
	}
	logger, closer, err := newLogger(s, toFile)
	if err != nil {
		return nil, err
	}

	c, err := client.New(s.Server.URL,
		client.WithSession(s.Server.SessionID, s.Server.CSRFToken),
		client.WithLogger(logger.WithComponent("client")),
		client.WithTimeout(s.Polling.RequestTimeout),
	)
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, err
	}
	return &session{settings: s, logger: logger, client: c, closer: closer}, nil
}

// requireEmail returns the account email from a flag or settings.
func requireEmail(s *models.Settings, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if s.Server.Email != "" {
		return s.Server.Email, nil
	}
	return "", fmt.Errorf("no account email: run %s or pass --email",
		styleCommand.Render("mailbot login"))
}
