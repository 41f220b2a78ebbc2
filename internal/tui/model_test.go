package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mailbot-io/mailbot/internal/client"
	"github.com/mailbot-io/mailbot/internal/execlog"
	"github.com/mailbot-io/mailbot/internal/mailbottest"
	"github.com/mailbot-io/mailbot/internal/poller"
)

type fakeSource struct {
	mu        sync.Mutex
	loadMores int
}

func (f *fakeSource) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (f *fakeSource) LoadMore() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadMores++
}

type fakeStopper struct {
	emails []string
}

func (f *fakeStopper) StopMailbot(_ context.Context, email string) (*client.RunResponse, error) {
	f.emails = append(f.emails, email)
	return &client.RunResponse{Envelope: client.Envelope{Status: true}}, nil
}

func newTestModel(t *testing.T) (Model, *fakeSource, *fakeStopper) {
	t.Helper()
	src := &fakeSource{}
	stop := &fakeStopper{}
	m := NewModel(context.Background(), src, &programRef{}, modelConfig{
		stopper:   stop,
		email:     "ada@example.com",
		serverURL: "http://localhost:8000",
		view:      "history",
	})
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, src, stop
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func rowsFor(t *testing.T, raw string) []execlog.Row {
	t.Helper()
	snap, err := execlog.DecodeSnapshot(raw)
	if err != nil {
		t.Fatal(err)
	}
	return execlog.Renderer{}.Render(snap.Entries(snap.Keys()))
}

const (
	tsA = "7/15/2019, 9:35:01 AM"
	tsB = "7/15/2019, 10:12:44 AM"
	tsC = "7/15/2019, 1:02:09 PM"
)

func TestModelAppendsBatchesNewestFirst(t *testing.T) {
	m, _, _ := newTestModel(t)

	first := rowsFor(t, mailbottest.Log(mailbottest.Entry(tsA), mailbottest.Entry(tsB)))
	m = update(t, m, RowsMsg{Batch: poller.Batch{Kind: poller.BatchInitial, Rows: first}})

	// Select the older entry, then let a newer one arrive.
	m = update(t, m, keyMsg("j"))
	if sel := m.table.Selected(); sel == nil || sel.Key.Raw != tsA {
		t.Fatalf("selected = %+v, want %s", sel, tsA)
	}

	second := rowsFor(t, mailbottest.Log(mailbottest.Entry(tsC)))
	m = update(t, m, RowsMsg{Batch: poller.Batch{Kind: poller.BatchIncremental, Rows: second}})

	var keys []string
	for _, r := range m.table.Rows() {
		keys = append(keys, r.Key.Raw)
	}
	if strings.Join(keys, "|") != strings.Join([]string{tsC, tsB, tsA}, "|") {
		t.Errorf("table order = %v", keys)
	}
	if sel := m.table.Selected(); sel == nil || sel.Key.Raw != tsA {
		t.Errorf("selection moved to %+v after append", sel)
	}
	if d := m.detail.Row(); d == nil || d.Key.Raw != tsA {
		t.Errorf("detail shows %+v, want %s", d, tsA)
	}
}

func TestModelLoadMoreKey(t *testing.T) {
	m, src, _ := newTestModel(t)

	// No affordance yet: the key does nothing.
	m = update(t, m, keyMsg("m"))
	if src.loadMores != 0 {
		t.Fatalf("LoadMore called without affordance")
	}

	rows := rowsFor(t, mailbottest.Log(mailbottest.Entry(tsA)))
	m = update(t, m, RowsMsg{Batch: poller.Batch{Kind: poller.BatchInitial, Rows: rows, HasMore: true}})
	if !strings.Contains(m.table.View(), "load more") {
		t.Error("load-more hint not shown")
	}
	m = update(t, m, keyMsg("m"))
	if src.loadMores != 1 {
		t.Errorf("LoadMore calls = %d, want 1", src.loadMores)
	}

	m = update(t, m, RowsMsg{Batch: poller.Batch{Kind: poller.BatchLoadMore, Rows: rowsFor(t, mailbottest.Log(mailbottest.Entry(tsB)))}})
	if m.table.HasMore() {
		t.Error("affordance still shown after load more")
	}
	m = update(t, m, keyMsg("m"))
	if src.loadMores != 1 {
		t.Errorf("LoadMore called again after expansion")
	}
}

func TestModelStatusAndStop(t *testing.T) {
	m, _, stop := newTestModel(t)

	// Stop needs a running bot.
	m = update(t, m, keyMsg("S"))
	if m.confirmMode != confirmNone {
		t.Fatal("stop prompt shown while idle")
	}

	m = update(t, m, StatusMsg{Message: "running", Running: true})
	if !strings.Contains(renderHeader(&m, m.width), "Running") {
		t.Error("header does not show running badge")
	}

	m = update(t, m, keyMsg("S"))
	if m.confirmMode != confirmStop {
		t.Fatal("stop prompt not shown")
	}
	next, cmd := m.Update(keyMsg("y"))
	m = next.(Model)
	if cmd == nil {
		t.Fatal("confirming stop returned no command")
	}
	if _, ok := cmd().(MailbotStoppedMsg); !ok {
		t.Error("stop command did not report success")
	}
	if len(stop.emails) != 1 || stop.emails[0] != "ada@example.com" {
		t.Errorf("stop called with %v", stop.emails)
	}

	m = update(t, m, StatusMsg{Message: "", Running: false})
	if !strings.Contains(renderHeader(&m, m.width), "Idle") {
		t.Error("header does not show idle badge")
	}
}

func TestModelErrorsClear(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = update(t, m, ErrorMsg{Err: errors.New("boom")})
	if !strings.Contains(renderStatusBar(&m, m.width), "boom") {
		t.Fatal("error not shown")
	}
	m = update(t, m, ClearErrorMsg{})
	if m.err != nil {
		t.Error("error not cleared")
	}

	m = update(t, m, PollerStoppedMsg{Err: errors.New("server gone")})
	m = update(t, m, ClearErrorMsg{})
	if m.err == nil {
		t.Error("poller failure cleared from status bar")
	}
}

func TestModelQuitCancelsPolling(t *testing.T) {
	m, _, _ := newTestModel(t)
	_, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("quit returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit command is not tea.Quit")
	}
	if m.pollCtx.Err() == nil {
		t.Error("poll context not cancelled on quit")
	}
}

func TestModelHelpOverlay(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = update(t, m, keyMsg("?"))
	if m.activeOverlay != overlayHelp {
		t.Fatal("help overlay not opened")
	}
	if !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Error("help overlay not rendered")
	}
	m = update(t, m, keyMsg("esc"))
	if m.activeOverlay != overlayNone {
		t.Error("help overlay not closed")
	}
}

func TestDetailTree(t *testing.T) {
	raw := mailbottest.Log(mailbottest.Entry(tsA,
		mailbottest.KV{Key: "trigger", Value: "rule"},
		mailbottest.KV{Key: "from_", Value: mailbottest.Contact("Ada", "ada@example.com", "", "")},
		mailbottest.KV{Key: "subject", Value: "hi"},
	))
	rows := rowsFor(t, raw)

	d := NewDetail()
	d.SetSize(60, 20)
	d.SetRow(&rows[0])

	lines := visibleLines(d.nodes)
	// from_ is expanded at the top level: from_ + 4 contact keys + subject.
	if len(lines) != 6 {
		t.Fatalf("visible lines = %d, want 6", len(lines))
	}
	if lines[0].node.key != "from_" || lines[1].node.key != "name" {
		t.Errorf("tree order = %q, %q", lines[0].node.key, lines[1].node.key)
	}

	d.Toggle() // collapse from_
	if got := len(visibleLines(d.nodes)); got != 2 {
		t.Errorf("visible lines after collapse = %d, want 2", got)
	}
	d.ExpandAll()
	if got := len(visibleLines(d.nodes)); got != 6 {
		t.Errorf("visible lines after expand all = %d, want 6", got)
	}

	// Re-selecting the same entry keeps the tree state.
	d.CollapseAll()
	d.SetRow(&rows[0])
	if got := len(visibleLines(d.nodes)); got != 2 {
		t.Errorf("tree state reset on same row: %d lines", got)
	}
}
