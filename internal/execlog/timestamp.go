package execlog

import (
	"strings"
	"time"
)

// Layouts accepted for log keys. The first is what the web app writes
// (Date.toLocaleString in en-US), the second is the engine's own format.
var timestampLayouts = []string{
	"1/2/2006, 3:04:05 PM",
	"1/2/2006, 15:04:05",
	"01/02 15:04:05,000000",
	"01/02 15:04:05",
}

// Timestamp is a log key together with its parsed instant.
//
// Timestamps form a total order: parsed keys compare by instant, keys that
// could not be parsed sort before every parsed key, and ties are broken by
// the raw string so that distinct keys never compare equal.
type Timestamp struct {
	Raw    string
	at     time.Time
	parsed bool
}

// ParseTimestamp parses a log key. It never fails; an unrecognised key is
// kept as an unparsed Timestamp.
func ParseTimestamp(raw string) Timestamp {
	ts := Timestamp{Raw: raw}
	// Newer browsers put a narrow no-break space before AM/PM.
	norm := strings.TrimSpace(strings.NewReplacer("\u202f", " ", "\u00a0", " ").Replace(raw))
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, norm, time.Local); err == nil {
			ts.at = t
			ts.parsed = true
			break
		}
	}
	return ts
}

// Time returns the parsed instant and whether parsing succeeded.
func (t Timestamp) Time() (time.Time, bool) {
	return t.at, t.parsed
}

// Compare returns -1, 0 or +1 depending on whether t is older than, the same
// key as, or newer than o.
func (t Timestamp) Compare(o Timestamp) int {
	switch {
	case t.parsed && !o.parsed:
		return 1
	case !t.parsed && o.parsed:
		return -1
	case t.parsed && o.parsed:
		if c := t.at.Compare(o.at); c != 0 {
			return c
		}
	}
	return strings.Compare(t.Raw, o.Raw)
}

// Before reports whether t is strictly older than o.
func (t Timestamp) Before(o Timestamp) bool {
	return t.Compare(o) < 0
}

func (t Timestamp) String() string {
	return t.Raw
}
