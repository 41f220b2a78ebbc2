package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/mailbot-io/mailbot/internal/execlog"
)

// Detail shows one log entry: its log text and a collapsible tree of its
// fields.
type Detail struct {
	row      *execlog.Row
	nodes    []*treeNode
	cursor   int
	viewport viewport.Model
	width    int
	height   int

	// treeStart is the viewport line where the tree begins.
	treeStart int
}

// NewDetail creates an empty detail panel.
func NewDetail() *Detail {
	return &Detail{viewport: viewport.New(80, 24)}
}

// SetSize updates dimensions.
func (d *Detail) SetSize(width, height int) {
	d.width = width
	d.height = height
	d.refresh()
}

// SetRow shows row. Showing the same entry again keeps the tree state.
func (d *Detail) SetRow(row *execlog.Row) {
	if row == nil {
		d.row = nil
		d.nodes = nil
		d.cursor = 0
		d.refresh()
		return
	}
	if d.row != nil && d.row.Key.Raw == row.Key.Raw {
		return
	}
	r := *row
	d.row = &r
	d.nodes = buildTree(r.Fields)
	d.cursor = 0
	d.refresh()
	d.viewport.GotoTop()
}

// Row returns the row on display, or nil.
func (d *Detail) Row() *execlog.Row {
	return d.row
}

// MoveUp moves the tree cursor up.
func (d *Detail) MoveUp() {
	if d.cursor > 0 {
		d.cursor--
		d.refresh()
		d.ensureVisible()
	}
}

// MoveDown moves the tree cursor down.
func (d *Detail) MoveDown() {
	if d.cursor < len(visibleLines(d.nodes))-1 {
		d.cursor++
		d.refresh()
		d.ensureVisible()
	}
}

// Toggle expands or collapses the node under the cursor.
func (d *Detail) Toggle() {
	lines := visibleLines(d.nodes)
	if d.cursor >= len(lines) {
		return
	}
	n := lines[d.cursor].node
	if n.container() {
		n.expanded = !n.expanded
		d.refresh()
	}
}

// ExpandAll expands every node.
func (d *Detail) ExpandAll() {
	setExpanded(d.nodes, true)
	d.refresh()
}

// CollapseAll collapses every node and moves the cursor to the top.
func (d *Detail) CollapseAll() {
	setExpanded(d.nodes, false)
	d.cursor = 0
	d.refresh()
	d.ensureVisible()
}

// PageUp scrolls the viewport up.
func (d *Detail) PageUp() {
	d.viewport.HalfViewUp()
}

// PageDown scrolls the viewport down.
func (d *Detail) PageDown() {
	d.viewport.HalfViewDown()
}

func (d *Detail) infoLines() int {
	return 4
}

func (d *Detail) refresh() {
	vpHeight := d.height - d.infoLines()
	if vpHeight < 1 {
		vpHeight = 1
	}
	d.viewport.Width = d.width
	d.viewport.Height = vpHeight

	if d.row == nil {
		d.viewport.SetContent("")
		return
	}

	var b strings.Builder
	logText := d.row.Log
	if logText != "" {
		wrapped := lipgloss.NewStyle().Width(d.width).Render(logText)
		b.WriteString(wrapped)
		b.WriteString("\n\n")
	}
	d.treeStart = strings.Count(b.String(), "\n")

	for i, l := range visibleLines(d.nodes) {
		line := renderTreeLine(l)
		if i == d.cursor {
			line = selectedItemStyle.Width(d.width).Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	d.viewport.SetContent(strings.TrimSuffix(b.String(), "\n"))
}

func (d *Detail) ensureVisible() {
	line := d.treeStart + d.cursor
	if line < d.viewport.YOffset {
		d.viewport.SetYOffset(line)
	} else if line >= d.viewport.YOffset+d.viewport.Height {
		d.viewport.SetYOffset(line - d.viewport.Height + 1)
	}
}

// View renders the panel.
func (d *Detail) View() string {
	if d.row == nil {
		return lipgloss.NewStyle().Foreground(colorDim).Width(d.width).Align(lipgloss.Center).
			Render("\nSelect an entry to see its details.")
	}

	title := timestampStyle.Bold(true).Render(d.row.TimestampDisplay)
	if d.row.IsError {
		title += "  " + badgeErrorStyle.Render("✗ error")
	}

	sub := triggerStyle.Render(orDash(d.row.Trigger))
	if d.row.ContactPreview != "" {
		sub += "  " + contactStyle.Render(d.row.ContactPreview)
	}

	info := title + "\n" + sub + "\n" +
		hintStyle.Render("Enter expand · +/- all · Esc back") + "\n" +
		lipgloss.NewStyle().Foreground(colorDim).Render(strings.Repeat("─", d.width)) + "\n"

	return info + d.viewport.View()
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
