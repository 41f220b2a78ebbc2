package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// panelLayout holds computed dimensions for the table/detail layout.
type panelLayout struct {
	leftWidth     int
	rightWidth    int
	contentHeight int
}

// panel is one bordered box with a title on its first line.
type panel struct {
	title   string
	content string
}

func computeLayout(width, height int, splitRatio float64) panelLayout {
	// Reserve: 1 line header, 1 line status bar
	contentHeight := height - 2
	if contentHeight < 1 {
		contentHeight = 1
	}

	leftWidth := int(float64(width) * splitRatio)
	if leftWidth < 20 {
		leftWidth = 20
	}
	rightWidth := width - leftWidth
	if rightWidth < 20 {
		rightWidth = 20
	}

	return panelLayout{
		leftWidth:     leftWidth,
		rightWidth:    rightWidth,
		contentHeight: contentHeight,
	}
}

func renderPanels(left, right panel, layout panelLayout, focusedPanel int) string {
	innerHeight := layout.contentHeight - 2
	if innerHeight < 2 {
		innerHeight = 2
	}

	l := renderPanel(left, layout.leftWidth-2, innerHeight, focusedPanel == 0)
	r := renderPanel(right, layout.rightWidth-2, innerHeight, focusedPanel == 1)
	return lipgloss.JoinHorizontal(lipgloss.Top, l, r)
}

func renderPanel(p panel, width, height int, focused bool) string {
	if width < 1 {
		width = 1
	}
	style := unfocusedBorderStyle
	titleStyle := hintStyle
	if focused {
		style = focusedBorderStyle
		titleStyle = keyStyle
	}

	// The title takes the first inner line.
	body := titleStyle.Render(p.title) + "\n" + truncateContent(p.content, width, height-1)
	return style.Width(width).Height(height).Render(body)
}

// truncateContent ensures content fits within the given dimensions.
func truncateContent(content string, width, height int) string {
	lines := strings.Split(content, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for i, line := range lines {
		if lipgloss.Width(line) > width {
			lines[i] = ansi.Truncate(line, width, "")
		}
	}
	return strings.Join(lines, "\n")
}
