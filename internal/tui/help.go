package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type helpSection struct {
	title string
	keys  []helpKey
}

type helpKey struct {
	key  string
	desc string
}

var helpSections = []helpSection{
	{
		title: "Global",
		keys: []helpKey{
			{"q / Ctrl+q", "Quit"},
			{"? / Ctrl+h", "Toggle help"},
			{"Tab", "Switch panel focus"},
		},
	},
	{
		title: "Log Table",
		keys: []helpKey{
			{"j/k ↑/↓", "Navigate entries"},
			{"g / G", "Newest / oldest entry"},
			{"Enter", "Open entry details"},
			{"m", "Load older entries"},
			{"S", "Stop the running mailbot"},
		},
	},
	{
		title: "Details",
		keys: []helpKey{
			{"j/k ↑/↓", "Move through fields"},
			{"Enter / Space", "Expand or collapse"},
			{"+ / -", "Expand / collapse all"},
			{"PgUp/PgDn", "Scroll"},
			{"Esc", "Back to table"},
		},
	},
}

// renderHelp renders the help overlay content.
func renderHelp(width int) string {
	maxWidth := 60
	if width-4 < maxWidth {
		maxWidth = width - 4
	}
	if maxWidth < 30 {
		maxWidth = 30
	}

	title := overlayTitleStyle.Render("Keyboard Shortcuts")
	sections := make([]string, 0, len(helpSections)*4+3)
	sections = append(sections, title)

	for _, sec := range helpSections {
		header := lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Render(sec.title)
		sections = append(sections, "", header)

		for _, k := range sec.keys {
			keyCol := lipgloss.NewStyle().
				Width(16).
				Foreground(colorWhite).
				Bold(true).
				Render(k.key)
			descCol := lipgloss.NewStyle().
				Foreground(colorDim).
				Render(k.desc)
			sections = append(sections, "  "+keyCol+descCol)
		}
	}

	sections = append(sections, "", lipgloss.NewStyle().Foreground(colorDim).Render("Press Esc or ? to close"))

	content := strings.Join(sections, "\n")
	return overlayStyle.Width(maxWidth).Render(content)
}
