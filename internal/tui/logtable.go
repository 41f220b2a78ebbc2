package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/mailbot-io/mailbot/internal/execlog"
	"github.com/mailbot-io/mailbot/internal/poller"
)

// Column widths of the log table. The entry preview takes the rest.
const (
	colTimestamp = 24
	colTrigger   = 18
	colContact   = 28
)

// LogTable lists execution-log rows newest first.
type LogTable struct {
	rows          []execlog.Row
	selectedIndex int
	scrollOffset  int
	width         int
	height        int
	hasMore       bool
	loaded        bool // whether a first batch has arrived
}

// NewLogTable creates an empty table.
func NewLogTable() *LogTable {
	return &LogTable{}
}

// SetSize updates dimensions.
func (t *LogTable) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.ensureVisible()
}

// Append adds a batch and re-sorts the table. The selection stays on the
// same entry.
func (t *LogTable) Append(b poller.Batch) {
	var selectedKey string
	if sel := t.Selected(); sel != nil {
		selectedKey = sel.Key.Raw
	}

	t.rows = append(t.rows, b.Rows...)
	execlog.SortRows(t.rows)
	t.hasMore = b.HasMore
	t.loaded = true

	if selectedKey != "" {
		for i, r := range t.rows {
			if r.Key.Raw == selectedKey {
				t.selectedIndex = i
				break
			}
		}
	}
	t.ensureVisible()
}

// Rows returns the rows in display order.
func (t *LogTable) Rows() []execlog.Row {
	return t.rows
}

// Len returns the number of rows.
func (t *LogTable) Len() int {
	return len(t.rows)
}

// HasMore reports whether older entries can still be loaded.
func (t *LogTable) HasMore() bool {
	return t.hasMore
}

// Loaded reports whether the first batch has arrived.
func (t *LogTable) Loaded() bool {
	return t.loaded
}

// Selected returns the selected row, or nil.
func (t *LogTable) Selected() *execlog.Row {
	if t.selectedIndex < 0 || t.selectedIndex >= len(t.rows) {
		return nil
	}
	return &t.rows[t.selectedIndex]
}

// MoveUp moves the cursor towards newer entries.
func (t *LogTable) MoveUp() {
	if t.selectedIndex > 0 {
		t.selectedIndex--
		t.ensureVisible()
	}
}

// MoveDown moves the cursor towards older entries.
func (t *LogTable) MoveDown() {
	if t.selectedIndex < len(t.rows)-1 {
		t.selectedIndex++
		t.ensureVisible()
	}
}

// GoTop selects the newest entry.
func (t *LogTable) GoTop() {
	t.selectedIndex = 0
	t.ensureVisible()
}

// GoBottom selects the oldest entry.
func (t *LogTable) GoBottom() {
	if len(t.rows) > 0 {
		t.selectedIndex = len(t.rows) - 1
	}
	t.ensureVisible()
}

// listHeight is the number of row lines that fit below the column header
// and above the load-more hint.
func (t *LogTable) listHeight() int {
	h := t.height - 1
	if t.hasMore {
		h--
	}
	if h < 1 {
		h = 1
	}
	return h
}

func (t *LogTable) ensureVisible() {
	h := t.listHeight()
	if t.selectedIndex < t.scrollOffset {
		t.scrollOffset = t.selectedIndex
	}
	if t.selectedIndex >= t.scrollOffset+h {
		t.scrollOffset = t.selectedIndex - h + 1
	}
	if t.scrollOffset < 0 {
		t.scrollOffset = 0
	}
}

// View renders the table.
func (t *LogTable) View() string {
	if !t.loaded {
		return lipgloss.NewStyle().Foreground(colorDim).Width(t.width).Align(lipgloss.Center).
			Render("\nWaiting for the execution log...")
	}
	if len(t.rows) == 0 && !t.hasMore {
		return lipgloss.NewStyle().Foreground(colorDim).Width(t.width).Align(lipgloss.Center).
			Render("\nNo log entries yet.")
	}

	lines := []string{t.columnHeader()}

	end := t.scrollOffset + t.listHeight()
	if end > len(t.rows) {
		end = len(t.rows)
	}
	for i := t.scrollOffset; i < end; i++ {
		line := t.formatRow(t.rows[i])
		if i == t.selectedIndex {
			line = selectedItemStyle.Width(t.width).Render(line)
		}
		lines = append(lines, line)
	}

	if t.hasMore {
		lines = append(lines, loadMoreStyle.Render("  ▼ older entries hidden · m to load more"))
	}
	return strings.Join(lines, "\n")
}

func (t *LogTable) columnHeader() string {
	return columnHeaderStyle.Render(
		"  " + pad("Time", colTimestamp) + pad("Trigger", colTrigger) + pad("From", colContact) + "Entry",
	)
}

func (t *LogTable) formatRow(r execlog.Row) string {
	marker := "  "
	if r.IsError {
		marker = errorRowStyle.Render("✗ ")
	}

	trigger := triggerStyle
	if r.IsError {
		trigger = errorRowStyle.Bold(true)
	}

	line := marker +
		timestampStyle.Render(pad(r.TimestampDisplay, colTimestamp)) +
		trigger.Render(pad(r.Trigger, colTrigger)) +
		contactStyle.Render(pad(r.ContactPreview, colContact)) +
		previewStyle.Render(r.PreviewLine())

	if t.width > 0 && lipgloss.Width(line) > t.width {
		line = ansi.Truncate(line, t.width, "…")
	}
	return line
}

// pad truncates or pads s to exactly w cells, leaving a one-cell gap.
func pad(s string, w int) string {
	if w <= 1 {
		return ""
	}
	s = ansi.Truncate(s, w-1, "…")
	return s + strings.Repeat(" ", w-lipgloss.Width(s))
}
