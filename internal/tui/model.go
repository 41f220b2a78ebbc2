package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const errorDisplayTime = 5 * time.Second

// modelConfig carries the non-UI collaborators of the Model.
type modelConfig struct {
	stopper   mailbotStopper
	email     string
	serverURL string
	view      string
}

// Model is the root Bubbletea model for the TUI.
type Model struct {
	// Log source
	source        logSource
	pollCtx       context.Context
	pollCancel    context.CancelFunc
	pollerStopped bool

	// Server collaborators
	stopper   mailbotStopper
	email     string
	serverURL string
	view      string

	// Run status
	running   bool
	statusMsg string

	// UI state
	focusedPanel  int // 0=table, 1=detail
	activeOverlay int // overlayNone, overlayHelp
	splitRatio    float64
	width         int
	height        int
	confirmMode   int

	// Status display
	err   error
	flash string

	// Child components
	table  *LogTable
	detail *Detail

	// Program reference for goroutine Send()
	program *programRef
}

// NewModel creates the initial TUI model. The poll loop starts in Init and
// stops when the user quits or ctx is cancelled.
func NewModel(ctx context.Context, source logSource, program *programRef, cfg modelConfig) Model {
	pollCtx, cancel := context.WithCancel(ctx)
	return Model{
		source:     source,
		pollCtx:    pollCtx,
		pollCancel: cancel,
		stopper:    cfg.stopper,
		email:      cfg.email,
		serverURL:  cfg.serverURL,
		view:       cfg.view,
		splitRatio: 0.6,
		table:      NewLogTable(),
		detail:     NewDetail(),
		program:    program,
	}
}

// Init starts polling.
func (m Model) Init() tea.Cmd {
	return startPollerCmd(m.pollCtx, m.source, m.program)
}

// Update processes messages and returns an updated model and commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	// ── Window resize ──────────────────────────────────────────────
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateDimensions()
		return m, nil

	// ── Key events ─────────────────────────────────────────────────
	case tea.KeyMsg:
		return m, m.handleKey(msg)

	// ── Log data ───────────────────────────────────────────────────
	case RowsMsg:
		m.table.Append(msg.Batch)
		m.syncDetail()
		return m, nil

	case StatusMsg:
		m.running = msg.Running
		m.statusMsg = msg.Message
		return m, nil

	case PollerStoppedMsg:
		m.pollerStopped = true
		if msg.Err != nil {
			m.err = fmt.Errorf("polling stopped: %w", msg.Err)
		}
		return m, nil

	case MailbotStoppedMsg:
		m.flash = "Stop requested"
		return m, clearFlashAfter(3 * time.Second)

	// ── Error handling ─────────────────────────────────────────────
	case ErrorMsg:
		m.err = msg.Err
		return m, clearErrorAfter(errorDisplayTime)

	case ClearErrorMsg:
		// A stopped poller keeps its error on screen.
		if !m.pollerStopped {
			m.err = nil
		}
		return m, nil

	case ClearFlashMsg:
		m.flash = ""
		return m, nil
	}

	return m, nil
}

// handleKey processes key events.
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	// Confirm mode captures everything
	if m.confirmMode != confirmNone {
		return m.handleConfirmKey(msg)
	}

	if m.activeOverlay != overlayNone {
		if key.Matches(msg, globalKeys.Help) || key.Matches(msg, detailKeys.Back) {
			m.activeOverlay = overlayNone
		}
		return nil
	}

	switch {
	case key.Matches(msg, globalKeys.Quit):
		return m.doQuit()

	case key.Matches(msg, globalKeys.Help):
		m.activeOverlay = overlayHelp
		return nil

	case key.Matches(msg, globalKeys.Tab):
		m.focusedPanel = 1 - m.focusedPanel
		return nil
	}

	if m.focusedPanel == 0 {
		return m.handleTableKey(msg)
	}
	return m.handleDetailKey(msg)
}

func (m *Model) handleTableKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, tableKeys.Up):
		m.table.MoveUp()
		m.syncDetail()
	case key.Matches(msg, tableKeys.Down):
		m.table.MoveDown()
		m.syncDetail()
	case key.Matches(msg, tableKeys.Top):
		m.table.GoTop()
		m.syncDetail()
	case key.Matches(msg, tableKeys.Bottom):
		m.table.GoBottom()
		m.syncDetail()
	case key.Matches(msg, tableKeys.Open):
		if m.table.Selected() != nil {
			m.focusedPanel = 1
		}
	case key.Matches(msg, tableKeys.LoadMore):
		if m.table.HasMore() {
			m.source.LoadMore()
		}
	case key.Matches(msg, tableKeys.Stop):
		if m.running && m.stopper != nil {
			m.confirmMode = confirmStop
		}
	}
	return nil
}

func (m *Model) handleDetailKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, detailKeys.Back):
		m.focusedPanel = 0
	case key.Matches(msg, detailKeys.Up):
		m.detail.MoveUp()
	case key.Matches(msg, detailKeys.Down):
		m.detail.MoveDown()
	case key.Matches(msg, detailKeys.Toggle):
		m.detail.Toggle()
	case key.Matches(msg, detailKeys.ExpandAll):
		m.detail.ExpandAll()
	case key.Matches(msg, detailKeys.CollapseAll):
		m.detail.CollapseAll()
	case key.Matches(msg, detailKeys.PageUp):
		m.detail.PageUp()
	case key.Matches(msg, detailKeys.PageDown):
		m.detail.PageDown()
	}
	return nil
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, confirmKeys.Yes):
		m.confirmMode = confirmNone
		return stopMailbotCmd(m.stopper, m.email)
	case key.Matches(msg, confirmKeys.No), key.Matches(msg, confirmKeys.Cancel):
		m.confirmMode = confirmNone
	}
	return nil
}

// syncDetail shows the selected row in the detail panel.
func (m *Model) syncDetail() {
	m.detail.SetRow(m.table.Selected())
}

// doQuit performs clean shutdown: stop polling, clear program ref, quit.
func (m *Model) doQuit() tea.Cmd {
	m.pollCancel()
	m.program.Clear()
	return tea.Quit
}

// ── Dimension helpers ────────────────────────────────────────────

func (m *Model) updateDimensions() {
	layout := computeLayout(m.width, m.height, m.splitRatio)
	// Borders take two lines, panel titles one.
	innerHeight := layout.contentHeight - 3
	leftInner := layout.leftWidth - 2
	rightInner := layout.rightWidth - 2

	if innerHeight < 1 {
		innerHeight = 1
	}
	if leftInner < 1 {
		leftInner = 1
	}
	if rightInner < 1 {
		rightInner = 1
	}

	m.table.SetSize(leftInner, innerHeight)
	m.detail.SetSize(rightInner, innerHeight)
}

// ── View ─────────────────────────────────────────────────────────

// View renders the TUI.
func (m Model) View() string {
	// Minimum size check
	if m.width < 80 || m.height < 20 {
		sizeStr := fmt.Sprintf("%dx%d", m.width, m.height)
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(colorYellow).
			Render(lipgloss.JoinVertical(lipgloss.Center,
				"Terminal too small",
				lipgloss.NewStyle().Foreground(colorDim).Render(
					"Need 80x20, have "+lipgloss.NewStyle().Bold(true).Render(sizeStr),
				),
			))
	}

	layout := computeLayout(m.width, m.height, m.splitRatio)

	header := renderHeader(&m, m.width)
	panels := renderPanels(
		panel{title: "Execution log", content: m.table.View()},
		panel{title: "Details", content: m.detail.View()},
		layout, m.focusedPanel,
	)
	statusBar := renderStatusBar(&m, m.width)

	view := lipgloss.JoinVertical(lipgloss.Left, header, panels, statusBar)

	if m.activeOverlay == overlayHelp {
		view = renderOverlay(view, renderHelp(m.width), m.width, m.height)
	}
	return view
}
