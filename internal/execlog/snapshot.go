package execlog

import "sort"

// Snapshot is the full execution log from one poll, keyed by timestamp.
// Key order carries no meaning.
type Snapshot map[string]LogEntry

// Keys returns the set of keys in the snapshot.
func (s Snapshot) Keys() KeySet {
	ks := make(KeySet, len(s))
	for k := range s {
		ks[k] = struct{}{}
	}
	return ks
}

// Entries returns the entries whose keys are in ks, oldest first. Keys
// missing from the snapshot are skipped.
func (s Snapshot) Entries(ks KeySet) []LogEntry {
	out := make([]LogEntry, 0, len(ks))
	for _, k := range ks.Sorted() {
		if e, ok := s[k]; ok {
			out = append(out, e)
		}
	}
	return out
}

// KeySet is a set of log keys.
type KeySet map[string]struct{}

// NewKeySet builds a set from keys.
func NewKeySet(keys ...string) KeySet {
	ks := make(KeySet, len(keys))
	for _, k := range keys {
		ks[k] = struct{}{}
	}
	return ks
}

// Has reports whether k is in the set.
func (ks KeySet) Has(k string) bool {
	_, ok := ks[k]
	return ok
}

// Len returns the number of keys.
func (ks KeySet) Len() int {
	return len(ks)
}

// Clone returns an independent copy.
func (ks KeySet) Clone() KeySet {
	out := make(KeySet, len(ks))
	for k := range ks {
		out[k] = struct{}{}
	}
	return out
}

// Sorted returns the keys in ascending chronological order.
func (ks KeySet) Sorted() []string {
	keys := make([]string, 0, len(ks))
	for k := range ks {
		keys = append(keys, k)
	}
	sortKeys(keys)
	return keys
}

func sortKeys(keys []string) {
	parsed := make(map[string]Timestamp, len(keys))
	for _, k := range keys {
		parsed[k] = ParseTimestamp(k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return parsed[keys[i]].Before(parsed[keys[j]])
	})
}
