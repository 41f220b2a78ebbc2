// Package mailbottest provides an in-process fake of the mailbot web app
// and helpers to build execution-log payloads for tests.
package mailbottest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Fixed cookie values handed out by the fake login.
const (
	SessionID = "fake-session"
	CSRFToken = "fake-csrf"
)

// LogReply is one queued /fetch_execution_log answer.
type LogReply struct {
	Status bool
	// IMAPLog is the log payload. It is sent double-encoded as a JSON
	// string, the way the server does it. Use Null to send JSON null.
	IMAPLog   string
	Null      bool
	StatusMsg string
	// HTTPStatus, when non-zero, replaces the whole reply with a bare
	// error response.
	HTTPStatus int
}

// Request is a recorded request.
type Request struct {
	Endpoint string
	Form     url.Values
	Header   http.Header
}

// Server is a fake mailbot web app.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	logs     []LogReply
	failing  map[string]bool
	requests []Request
	runReply map[string]any
}

// NewServer starts a fake server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{failing: make(map[string]bool)}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.record)
	r.Post("/fetch_execution_log", s.handleFetchLog)
	r.Post("/login_imap", s.handleLogin)
	r.Post("/run_mailbot", s.handleRun)
	r.Post("/save_shortcut", s.handleShortcut)
	r.Post("/delete_mailbot_mode", s.handleDeleteMode)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// QueueLog appends replies for /fetch_execution_log. Replies are served in
// order; the last one repeats once the queue is drained.
func (s *Server) QueueLog(replies ...LogReply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, replies...)
}

// Fail makes endpoint answer status:false until cleared.
func (s *Server) Fail(endpoint string, fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[endpoint] = fail
}

// SetRunReply overrides extra fields of the /run_mailbot reply.
func (s *Server) SetRunReply(fields map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runReply = fields
}

// Requests returns every recorded request.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// RequestsTo returns recorded requests for one endpoint.
func (s *Server) RequestsTo(endpoint string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Endpoint == endpoint {
			out = append(out, r)
		}
	}
	return out
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Endpoint: r.URL.Path,
			Form:     r.PostForm,
			Header:   r.Header.Clone(),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) isFailing(endpoint string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failing[endpoint]
}

func (s *Server) nextLog() LogReply {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.logs) == 0 {
		return LogReply{Status: true, Null: true}
	}
	reply := s.logs[0]
	if len(s.logs) > 1 {
		s.logs = s.logs[1:]
	}
	return reply
}

func (s *Server) handleFetchLog(w http.ResponseWriter, r *http.Request) {
	reply := s.nextLog()
	if reply.HTTPStatus != 0 {
		http.Error(w, http.StatusText(reply.HTTPStatus), reply.HTTPStatus)
		return
	}
	body := map[string]any{
		"status":          reply.Status && !s.isFailing(r.URL.Path),
		"user_status_msg": reply.StatusMsg,
		"imap_log":        reply.IMAPLog,
	}
	if reply.Null {
		body["imap_log"] = nil
	}
	writeJSON(w, body)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.isFailing(r.URL.Path) || r.PostForm.Get("password") == "" {
		writeJSON(w, map[string]any{"status": false, "code": "invalid credentials"})
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: SessionID, Path: "/"})
	http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: CSRFToken, Path: "/"})
	writeJSON(w, map[string]any{
		"status":    true,
		"imap_log":  "",
		"imap_code": "",
		"code":      "",
	})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":     !s.isFailing(r.URL.Path),
		"imap_error": false,
		"imap_log":   "",
		"code":       "",
	}
	s.mu.Lock()
	for k, v := range s.runReply {
		body[k] = v
	}
	s.mu.Unlock()
	writeJSON(w, body)
}

func (s *Server) handleShortcut(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status": !s.isFailing(r.URL.Path),
		"code":   r.PostForm.Get("shortcuts"),
	})
}

func (s *Server) handleDeleteMode(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"status": !s.isFailing(r.URL.Path) && r.PostForm.Get("mode-id") != ""})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
