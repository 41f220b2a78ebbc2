package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Overlay constants.
const (
	overlayNone = 0
	overlayHelp = 1
)

// renderOverlay centers box over a dimmed copy of base.
func renderOverlay(base, box string, width, height int) string {
	rows := strings.Split(base, "\n")
	for i, line := range rows {
		rows[i] = overlayDimStyle.Render(ansi.Strip(line))
	}

	boxLines := strings.Split(box, "\n")
	top := max((height-len(boxLines))/2, 1)
	left := max((width-lipgloss.Width(box))/2, 1)

	for i, line := range boxLines {
		if row := top + i; row < len(rows) {
			rows[row] = spliceLine(rows[row], line, left)
		}
	}
	return strings.Join(rows, "\n")
}

// spliceLine writes fg over bg starting at column col, keeping the
// background on both sides. Widths are measured in cells.
func spliceLine(bg, fg string, col int) string {
	bgWidth := lipgloss.Width(bg)
	out := ansi.Truncate(bg, col, "")
	if pad := col - lipgloss.Width(out); pad > 0 {
		out += strings.Repeat(" ", pad)
	}
	out += "\033[0m" + fg + "\033[0m"
	if end := col + lipgloss.Width(fg); end < bgWidth {
		out += ansi.Cut(bg, end, bgWidth)
	}
	return out
}
