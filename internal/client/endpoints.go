package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// Endpoint paths.
const (
	EndpointFetchLog   = "/fetch_execution_log"
	EndpointLogin      = "/login_imap"
	EndpointRun        = "/run_mailbot"
	EndpointShortcut   = "/save_shortcut"
	EndpointDeleteMode = "/delete_mailbot_mode"
)

// FetchExecutionLog polls the execution log and the running status.
func (c *Client) FetchExecutionLog(ctx context.Context) (*LogResponse, error) {
	var resp LogResponse
	if err := c.post(ctx, EndpointFetchLog, nil, &resp); err != nil {
		return &resp, err
	}
	return &resp, nil
}

// LoginIMAP authenticates the IMAP account for the session.
func (c *Client) LoginIMAP(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	form := url.Values{
		"email":    {req.Email},
		"host":     {req.Host},
		"password": {req.Password},
		"is_oauth": {strconv.FormatBool(req.OAuth)},
	}
	var resp LoginResponse
	if err := c.post(ctx, EndpointLogin, form, &resp); err != nil {
		return &resp, err
	}
	return &resp, nil
}

// RunMailbot starts, stops, or updates the running automation.
func (c *Client) RunMailbot(ctx context.Context, req RunRequest) (*RunResponse, error) {
	modes := req.Modes
	if modes == nil {
		modes = []Mode{}
	}
	modesJSON, err := json.Marshal(modesByID(modes))
	if err != nil {
		return nil, fmt.Errorf("encode modes: %w", err)
	}
	form := url.Values{
		"current_mode_id":   {req.CurrentModeID},
		"mailbot_mode_json": {string(modesJSON)},
		"email":             {req.Email},
		"is_running":        {strconv.FormatBool(req.Running)},
		"run_request":       {strconv.FormatBool(req.RunRequest)},
	}
	var resp RunResponse
	if err := c.post(ctx, EndpointRun, form, &resp); err != nil {
		return &resp, err
	}
	return &resp, nil
}

// StopMailbot stops the running automation for email.
func (c *Client) StopMailbot(ctx context.Context, email string) (*RunResponse, error) {
	return c.RunMailbot(ctx, RunRequest{Email: email, Running: false, RunRequest: true})
}

// SaveShortcut persists shortcut code.
func (c *Client) SaveShortcut(ctx context.Context, shortcuts string) (*ShortcutResponse, error) {
	var resp ShortcutResponse
	if err := c.post(ctx, EndpointShortcut, url.Values{"shortcuts": {shortcuts}}, &resp); err != nil {
		return &resp, err
	}
	return &resp, nil
}

// DeleteMailbotMode removes a saved mode.
func (c *Client) DeleteMailbotMode(ctx context.Context, modeID string) error {
	var resp Envelope
	return c.post(ctx, EndpointDeleteMode, url.Values{"mode-id": {modeID}}, &resp)
}

// modesByID keys modes by id, the shape the editor page posted.
func modesByID(modes []Mode) map[string]Mode {
	m := make(map[string]Mode, len(modes))
	for _, md := range modes {
		m[md.ID] = md
	}
	return m
}
