package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// confirmMode values.
const (
	confirmNone = 0
	confirmStop = 1
)

func renderStatusBar(m *Model, width int) string {
	if m.confirmMode == confirmStop {
		return renderConfirmBar("Stop the running mailbot? (y/n)", width)
	}

	// Error display
	if m.err != nil {
		return renderErrorBar(m.err.Error(), width)
	}

	if m.flash != "" {
		return renderFlashBar(m.flash, width)
	}

	left := " " + getKeyHints(m)

	right := ""
	if m.pollerStopped {
		right = lipgloss.NewStyle().Foreground(colorYellow).Bold(true).Render("⚠ Polling stopped") + " "
	} else {
		right = lipgloss.NewStyle().Foreground(colorGreen).Render("Polling") + " "
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}

	return statusBarStyle.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}

func getKeyHints(m *Model) string {
	if m.activeOverlay != overlayNone {
		return keyHint("Esc", "close")
	}

	base := keyHint("q", "quit") + "  " + keyHint("?", "help") + "  " + keyHint("Tab", "switch")

	if m.focusedPanel == 0 {
		hints := base + "  " + keyHint("j/k", "navigate") + "  " + keyHint("Enter", "details")
		if m.table.HasMore() {
			hints += "  " + keyHint("m", "load more")
		}
		if m.running {
			hints += "  " + keyHint("S", "stop")
		}
		return hints
	}
	return base + "  " + keyHint("Enter", "expand") + "  " + keyHint("+/-", "all") + "  " + keyHint("Esc", "back")
}

func keyHint(k, desc string) string {
	if k == "" {
		return hintStyle.Render(desc)
	}
	return keyStyle.Render(k) + " " + hintStyle.Render(desc)
}

func renderConfirmBar(msg string, width int) string {
	return statusBarStyle.
		Background(colorYellow).
		Foreground(lipgloss.AdaptiveColor{Light: "0", Dark: "0"}).
		Width(width).
		Render(" " + msg)
}

func renderErrorBar(msg string, width int) string {
	return statusBarStyle.
		Background(colorRed).
		Width(width).
		Render(" " + msg)
}

func renderFlashBar(msg string, width int) string {
	return statusBarStyle.
		Width(width).
		Render(" " + lipgloss.NewStyle().Foreground(colorGreen).Render(msg))
}
