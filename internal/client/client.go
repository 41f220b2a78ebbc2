// Package client talks to the mailbot web app over its form-encoded POST
// endpoints. Every endpoint answers with a JSON envelope {status: bool, ...}.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"

	"github.com/mailbot-io/mailbot/internal/buildinfo"
	"github.com/mailbot-io/mailbot/internal/logging"
)

const (
	// SessionCookie is the session cookie name the web app issues.
	SessionCookie = "sessionid"

	// CSRFCookie is the cookie holding the CSRF token.
	CSRFCookie = "csrftoken"

	maxBodyBytes = 8 << 20
)

// Client is a mailbot web app client. It is safe for concurrent use.
type Client struct {
	base    *url.URL
	http    *http.Client
	logger  *logging.Logger
	csrf    string
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithSession seeds the cookie jar with an existing session, for clients
// that logged in through the browser.
func WithSession(sessionID, csrfToken string) Option {
	return func(c *Client) {
		var cookies []*http.Cookie
		if sessionID != "" {
			cookies = append(cookies, &http.Cookie{Name: SessionCookie, Value: sessionID, Path: "/"})
		}
		if csrfToken != "" {
			cookies = append(cookies, &http.Cookie{Name: CSRFCookie, Value: csrfToken, Path: "/"})
			c.csrf = csrfToken
		}
		if len(cookies) > 0 && c.http.Jar != nil {
			c.http.Jar.SetCookies(c.base, cookies)
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client. Its jar is kept if set.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc.Jar == nil {
			hc.Jar = c.http.Jar
		}
		c.http = hc
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTimeout bounds each request. Zero means no bound beyond the context.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New creates a client for the web app at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("server url %q must be absolute", baseURL)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	c := &Client{
		base:   base,
		http:   &http.Client{Jar: jar},
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the server URL.
func (c *Client) BaseURL() string { return c.base.String() }

// Session returns the current session and CSRF cookie values, as stored
// in the jar after a login.
func (c *Client) Session() (sessionID, csrfToken string) {
	if c.http.Jar == nil {
		return "", c.csrf
	}
	csrfToken = c.csrf
	for _, ck := range c.http.Jar.Cookies(c.base) {
		switch ck.Name {
		case SessionCookie:
			sessionID = ck.Value
		case CSRFCookie:
			csrfToken = ck.Value
		}
	}
	return sessionID, csrfToken
}

// post sends a form-encoded POST to endpoint and decodes the JSON envelope
// into out. A status:false envelope is returned as ErrApplication after out
// has been filled, so callers can still read fields like imap_log.
func (c *Client) post(ctx context.Context, endpoint string, form url.Values, out statusCarrier) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if form == nil {
		form = url.Values{}
	}
	u := c.base.JoinPath(endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return &TransportError{Endpoint: endpoint, Err: fmt.Errorf("create request: %w", err)}
	}

	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	if _, csrf := c.Session(); csrf != "" {
		req.Header.Set("X-CSRFToken", csrf)
	}

	log := c.logger.WithRequestID(reqID).With("endpoint", endpoint)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		log.Debug("request failed", "error", err)
		return &TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &TransportError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	log.Debug("request done", "status", resp.StatusCode, "bytes", len(body), "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransportError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("server returned %s", resp.Status)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &TransportError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode envelope: %w", err)}
	}
	if !out.ok() {
		return fmt.Errorf("%s: %w", endpoint, ErrApplication)
	}
	return nil
}
