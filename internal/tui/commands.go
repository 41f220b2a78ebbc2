package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mailbot-io/mailbot/internal/client"
)

// logSource is the poll loop behind the viewer.
type logSource interface {
	Run(ctx context.Context) error
	LoadMore()
}

// mailbotStopper stops the running automation.
type mailbotStopper interface {
	StopMailbot(ctx context.Context, email string) (*client.RunResponse, error)
}

// startPollerCmd runs the poll loop in the background. The loop reports
// through the program; the command itself returns nothing.
func startPollerCmd(ctx context.Context, src logSource, program *programRef) tea.Cmd {
	return func() tea.Msg {
		go func() {
			err := src.Run(ctx)
			program.Send(PollerStoppedMsg{Err: err})
		}()
		return nil
	}
}

func stopMailbotCmd(s mailbotStopper, email string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		resp, err := s.StopMailbot(ctx, email)
		if err != nil {
			return ErrorMsg{Err: fmt.Errorf("failed to stop mailbot: %w", err)}
		}
		if resp.IMAPError {
			return ErrorMsg{Err: fmt.Errorf("mailbot reported an error: %s", resp.IMAPLog)}
		}
		return MailbotStoppedMsg{}
	}
}

func clearErrorAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(_ time.Time) tea.Msg {
		return ClearErrorMsg{}
	})
}

func clearFlashAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(_ time.Time) tea.Msg {
		return ClearFlashMsg{}
	})
}
