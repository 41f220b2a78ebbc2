package tui

import "github.com/mailbot-io/mailbot/internal/poller"

// RowsMsg carries a batch of newly rendered log rows.
type RowsMsg struct {
	Batch poller.Batch
}

// StatusMsg carries a changed user status message.
type StatusMsg struct {
	Message string
	Running bool
}

// ErrorMsg carries an error to display.
type ErrorMsg struct {
	Err error
}

// PollerStoppedMsg signals the poll loop ended. Err is nil on a clean
// shutdown.
type PollerStoppedMsg struct {
	Err error
}

// MailbotStoppedMsg signals the stop request was accepted.
type MailbotStoppedMsg struct{}

// ClearErrorMsg clears the error display.
type ClearErrorMsg struct{}

// ClearFlashMsg clears the transient confirmation in the status bar.
type ClearFlashMsg struct{}
