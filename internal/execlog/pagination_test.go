package execlog

import (
	"fmt"
	"strings"
	"testing"
)

// daySnapshot builds a snapshot with one entry per day of January 2024.
func daySnapshot(t *testing.T, days int) Snapshot {
	t.Helper()
	parts := make([]string, 0, days)
	for d := 1; d <= days; d++ {
		parts = append(parts, fmt.Sprintf(`"1/%d/2024, 9:00:00 AM": {"log": "day %d"}`, d, d))
	}
	return mustDecode(t, "{"+strings.Join(parts, ",")+"}")
}

func keysOf(entries []LogEntry) KeySet {
	ks := KeySet{}
	for _, e := range entries {
		ks[e.Key.Raw] = struct{}{}
	}
	return ks
}

func TestGateFirstLoadCapsAndLoadMoreOnce(t *testing.T) {
	snap := daySnapshot(t, 25)
	g := NewGate(DefaultPageSize)

	if g.State() != NotLoaded || g.Loaded() {
		t.Fatalf("fresh gate state = %v", g.State())
	}

	first := g.FirstLoad(snap)
	if len(first) != 10 {
		t.Fatalf("FirstLoad() = %d entries, want 10", len(first))
	}
	for d := 16; d <= 25; d++ {
		k := fmt.Sprintf("1/%d/2024, 9:00:00 AM", d)
		if !keysOf(first).Has(k) {
			t.Errorf("FirstLoad() missing newest key %q", k)
		}
	}
	if g.State() != FirstLoadCapped || !g.HasMore() {
		t.Fatalf("after FirstLoad state = %v, HasMore = %v", g.State(), g.HasMore())
	}
	if g.Pending().Len() != 15 {
		t.Errorf("Pending() = %d keys, want 15", g.Pending().Len())
	}

	more := g.LoadMore()
	if len(more) != 15 {
		t.Fatalf("LoadMore() = %d entries, want 15", len(more))
	}
	all := keysOf(first)
	for k := range keysOf(more) {
		if all.Has(k) {
			t.Errorf("LoadMore() duplicated %q", k)
		}
		all[k] = struct{}{}
	}
	if all.Len() != 25 {
		t.Errorf("first+more cover %d keys, want 25", all.Len())
	}

	if g.State() != Expanded || g.HasMore() || g.Pending().Len() != 0 {
		t.Errorf("after LoadMore state = %v, HasMore = %v, pending = %d", g.State(), g.HasMore(), g.Pending().Len())
	}
	if again := g.LoadMore(); again != nil {
		t.Errorf("second LoadMore() = %d entries, want nil", len(again))
	}
}

func TestGateRemainderCapturedOnce(t *testing.T) {
	g := NewGate(DefaultPageSize)
	g.FirstLoad(daySnapshot(t, 12))

	// A second first-load attempt with a bigger snapshot must not change
	// the remainder.
	if got := g.FirstLoad(daySnapshot(t, 30)); got != nil {
		t.Errorf("second FirstLoad() = %d entries, want nil", len(got))
	}
	if more := g.LoadMore(); len(more) != 2 {
		t.Errorf("LoadMore() = %d entries, want 2", len(more))
	}
}

func TestGateSmallSnapshot(t *testing.T) {
	g := NewGate(DefaultPageSize)
	first := g.FirstLoad(daySnapshot(t, 4))
	if len(first) != 4 {
		t.Errorf("FirstLoad() = %d entries, want 4", len(first))
	}
	if g.HasMore() {
		t.Error("HasMore() = true for uncapped first load")
	}
	if more := g.LoadMore(); len(more) != 0 {
		t.Errorf("LoadMore() = %d entries, want 0", len(more))
	}
}

func TestGateUncapped(t *testing.T) {
	g := NewGate(0)
	if first := g.FirstLoad(daySnapshot(t, 25)); len(first) != 25 {
		t.Errorf("FirstLoad() = %d entries, want 25", len(first))
	}
	if g.HasMore() {
		t.Error("HasMore() = true with cap disabled")
	}
}

func TestStatusTracker(t *testing.T) {
	var s StatusTracker
	steps := []struct {
		msg         string
		wantChanged bool
		wantRunning bool
	}{
		{"", false, false},
		{"running", true, true},
		{"running", false, true},
		{"", true, false},
		{"", false, false},
	}
	for i, step := range steps {
		if got := s.Observe(step.msg); got != step.wantChanged {
			t.Errorf("step %d: Observe(%q) = %v, want %v", i, step.msg, got, step.wantChanged)
		}
		if s.Running() != step.wantRunning {
			t.Errorf("step %d: Running() = %v, want %v", i, s.Running(), step.wantRunning)
		}
	}
}
