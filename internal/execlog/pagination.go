package execlog

// DefaultPageSize is how many entries the first load shows.
const DefaultPageSize = 10

// GateState is the pagination state of one viewing session.
type GateState int

const (
	// NotLoaded means no snapshot has been processed yet.
	NotLoaded GateState = iota
	// FirstLoadCapped means the first snapshot was shown capped; the
	// remainder may still be pending.
	FirstLoadCapped
	// Expanded means the remainder was shown.
	Expanded
)

func (s GateState) String() string {
	switch s {
	case NotLoaded:
		return "not-loaded"
	case FirstLoadCapped:
		return "first-load-capped"
	case Expanded:
		return "expanded"
	}
	return "unknown"
}

// Gate caps the first load to the newest entries and hands out the rest
// once, on demand.
type Gate struct {
	pageSize  int
	state     GateState
	remainder []LogEntry
	pending   KeySet
}

// NewGate returns a gate showing pageSize entries on first load. A
// pageSize of zero or less disables the cap.
func NewGate(pageSize int) *Gate {
	return &Gate{pageSize: pageSize, pending: KeySet{}}
}

// State returns the current state.
func (g *Gate) State() GateState {
	return g.state
}

// Loaded reports whether the first snapshot has been processed. After
// that no cap applies to new entries.
func (g *Gate) Loaded() bool {
	return g.state != NotLoaded
}

// FirstLoad takes the first snapshot of the session and returns the
// entries to show now, oldest first. The remainder is captured here and
// never recomputed. Calling FirstLoad again is a no-op returning nil.
func (g *Gate) FirstLoad(snap Snapshot) []LogEntry {
	if g.state != NotLoaded {
		return nil
	}
	g.state = FirstLoadCapped

	entries := snap.Entries(snap.Keys())
	if g.pageSize <= 0 || len(entries) <= g.pageSize {
		return entries
	}

	cut := len(entries) - g.pageSize
	g.remainder = entries[:cut]
	for _, e := range g.remainder {
		g.pending[e.Key.Raw] = struct{}{}
	}
	return entries[cut:]
}

// HasMore reports whether a remainder is waiting to be shown.
func (g *Gate) HasMore() bool {
	return g.state == FirstLoadCapped && len(g.remainder) > 0
}

// Pending returns a copy of the keys held back by the cap.
func (g *Gate) Pending() KeySet {
	return g.pending.Clone()
}

// LoadMore returns the remainder captured at first load and retires the
// affordance. Every later call returns nil.
func (g *Gate) LoadMore() []LogEntry {
	if g.state != FirstLoadCapped {
		return nil
	}
	g.state = Expanded
	out := g.remainder
	g.remainder = nil
	g.pending = KeySet{}
	return out
}
