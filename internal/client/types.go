package client

import (
	"bytes"
	"encoding/json"
)

type statusCarrier interface {
	ok() bool
}

// Envelope is the part every response shares.
type Envelope struct {
	Status bool `json:"status"`
}

func (e *Envelope) ok() bool { return e.Status }

// Text accepts a JSON string, null, or any other JSON value. Strings are
// unquoted, null becomes "", and anything else is kept as compact JSON.
// The server double-encodes imap_log as a string, but older handlers send
// the object itself.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return err
	}
	*t = Text(buf.String())
	return nil
}

// LogResponse is the /fetch_execution_log response.
type LogResponse struct {
	Envelope
	IMAPLog       Text   `json:"imap_log"`
	UserStatusMsg string `json:"user_status_msg"`
}

// LoginResponse is the /login_imap response.
type LoginResponse struct {
	Envelope
	IMAPLog  Text `json:"imap_log"`
	IMAPCode Text `json:"imap_code"`
	Code     Text `json:"code"`
}

// RunResponse is the /run_mailbot response.
type RunResponse struct {
	Envelope
	IMAPError bool `json:"imap_error"`
	IMAPLog   Text `json:"imap_log"`
	Code      Text `json:"code"`
}

// ShortcutResponse is the /save_shortcut response.
type ShortcutResponse struct {
	Envelope
	Code Text `json:"code"`
}

// Mode is one editor tab: a named piece of user rule code.
type Mode struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// LoginRequest holds the /login_imap form.
type LoginRequest struct {
	Email    string
	Host     string
	Password string
	OAuth    bool
}

// RunRequest holds the /run_mailbot form. Running=false stops the bot;
// RunRequest=false with Running=true pushes updated code to a running bot.
type RunRequest struct {
	CurrentModeID string
	Modes         []Mode
	Email         string
	Running       bool
	RunRequest    bool
}
