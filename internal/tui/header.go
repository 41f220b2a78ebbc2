package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func renderHeader(m *Model, width int) string {
	dot := lipgloss.NewStyle().Foreground(colorCyan).Render("✉")
	name := lipgloss.NewStyle().Bold(true).Render("mailbot")

	server := hintStyle.Render(m.serverURL)
	view := ""
	if m.view != "" {
		view = "  " + hintStyle.Render(m.view+" view")
	}

	count := hintStyle.Render(fmt.Sprintf("%d entries", m.table.Len()))
	if m.table.HasMore() {
		count = hintStyle.Render(fmt.Sprintf("%d entries +older", m.table.Len()))
	}
	badge := renderStatusBadge(m.running, m.statusMsg)

	left := fmt.Sprintf(" %s %s  %s%s", dot, name, server, view)
	right := fmt.Sprintf("%s  %s ", count, badge)

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}

	return headerStyle.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}

func renderStatusBadge(running bool, msg string) string {
	if !running {
		return badgeIdleStyle.Render("● Idle")
	}
	label := "● Running"
	if msg != "" && !strings.EqualFold(msg, "running") {
		label += ": " + msg
	}
	return badgeRunningStyle.Render(label)
}
