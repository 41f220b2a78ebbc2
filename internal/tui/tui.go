// Package tui implements the interactive execution-log viewer.
package tui

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mailbot-io/mailbot/internal/client"
	"github.com/mailbot-io/mailbot/internal/poller"
)

// programRef is a shared reference to the tea.Program for goroutine sends.
// It's set after tea.NewProgram but before p.Run().
type programRef struct {
	mu sync.Mutex
	p  *tea.Program
}

func (r *programRef) Set(p *tea.Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.p = p
}

func (r *programRef) Send(msg tea.Msg) {
	r.mu.Lock()
	p := r.p
	r.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// Clear nils out the program reference, preventing post-exit sends.
func (r *programRef) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.p = nil
}

// programSink forwards poller output into the bubbletea event loop.
type programSink struct {
	program *programRef
}

func (s programSink) Rows(b poller.Batch) {
	s.program.Send(RowsMsg{Batch: b})
}

func (s programSink) Status(msg string, running bool) {
	s.program.Send(StatusMsg{Message: msg, Running: running})
}

func (s programSink) Notify(err error) {
	s.program.Send(ErrorMsg{Err: err})
}

// Options configures the viewer.
type Options struct {
	Client    *client.Client
	Email     string
	ServerURL string
	View      string // "history" or "editor", shown in the header
	Poller    poller.Options
}

// Run launches the viewer and blocks until the user quits or ctx is
// cancelled.
func Run(ctx context.Context, opts Options) error {
	ref := &programRef{}
	p := poller.New(opts.Client, programSink{program: ref}, opts.Poller)

	model := NewModel(ctx, p, ref, modelConfig{
		stopper:   opts.Client,
		email:     opts.Email,
		serverURL: opts.ServerURL,
		view:      opts.View,
	})

	prog := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	// Store program reference for goroutine sends
	ref.Set(prog)
	defer ref.Clear()

	_, err := prog.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
