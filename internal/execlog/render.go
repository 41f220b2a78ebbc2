package execlog

import (
	"sort"
	"strings"
)

// legacyPlaceholder is what the web UI printed for a missing value.
const legacyPlaceholder = "undefined"

// Pair is one "key: value" item of an entry preview.
type Pair struct {
	Key   string
	Value string
}

// Row describes one line of the log table. It carries no presentation.
type Row struct {
	Key              Timestamp
	TimestampDisplay string
	Trigger          string
	ContactPreview   string
	EntryPreview     []Pair
	IsError          bool
	Log              string
	// Fields is the entry with internal fields stripped, for detail views.
	Fields []Field
}

// PreviewLine joins the entry preview into a single line.
func (r Row) PreviewLine() string {
	parts := make([]string, 0, len(r.EntryPreview))
	for _, p := range r.EntryPreview {
		parts = append(parts, p.Key+": "+p.Value)
	}
	return strings.Join(parts, "  ")
}

// Renderer turns entries into rows.
type Renderer struct {
	// LegacyPlaceholders prints "undefined" for missing contact parts and
	// for a missing subject or folder, as the web UI did.
	LegacyPlaceholders bool
}

// Render converts entries into rows, newest first.
func (r Renderer) Render(entries []LogEntry) []Row {
	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, r.row(e))
	}
	SortRows(rows)
	return rows
}

// SortRows orders rows newest first. Callers re-sort their accumulated
// table after appending a batch.
func SortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[j].Key.Before(rows[i].Key)
	})
}

func (r Renderer) row(e LogEntry) Row {
	return Row{
		Key:              e.Key,
		TimestampDisplay: e.Key.Raw,
		Trigger:          e.Trigger,
		ContactPreview:   r.contactPreview(e.From),
		EntryPreview:     r.entryPreview(e),
		IsError:          e.Error,
		Log:              e.Log,
		Fields:           e.PublicFields(),
	}
}

func (r Renderer) contactPreview(c *Contact) string {
	if c == nil {
		return ""
	}
	var parts []string
	for _, v := range []*string{c.Name, c.Email, c.Organization, c.Geolocation} {
		switch {
		case v != nil && *v != "":
			parts = append(parts, *v)
		case r.LegacyPlaceholders:
			parts = append(parts, legacyPlaceholder)
		}
	}
	return strings.Join(parts, " · ")
}

func (r Renderer) entryPreview(e LogEntry) []Pair {
	var pairs []Pair
	for _, lead := range []string{FieldSubject, FieldFolder} {
		if f, ok := e.Field(lead); ok {
			pairs = append(pairs, Pair{Key: lead, Value: f.Text})
		} else if r.LegacyPlaceholders {
			pairs = append(pairs, Pair{Key: lead, Value: legacyPlaceholder})
		}
	}
	for _, f := range e.PublicFields() {
		if f.Key == FieldSubject || f.Key == FieldFolder {
			continue
		}
		pairs = append(pairs, Pair{Key: f.Key, Value: f.Text})
	}
	return pairs
}
