package execlog

// Store remembers the last raw payload accepted and every key already
// rendered. It lives for one viewing session; nothing is persisted.
//
// A Store is not safe for concurrent use. The poller owns it.
type Store struct {
	last     string
	rendered KeySet
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{rendered: KeySet{}}
}

// HasChanged reports whether raw differs, byte for byte, from the last
// accepted payload.
func (s *Store) HasChanged(raw string) bool {
	return raw != s.last
}

// Accept records raw as the new baseline.
func (s *Store) Accept(raw string) {
	s.last = raw
}

// MarkRendered adds keys to the rendered set. The set never shrinks.
func (s *Store) MarkRendered(keys ...string) {
	for _, k := range keys {
		s.rendered[k] = struct{}{}
	}
}

// IsRendered reports whether key has been rendered.
func (s *Store) IsRendered(key string) bool {
	return s.rendered.Has(key)
}

// Rendered returns a copy of the rendered key set.
func (s *Store) Rendered() KeySet {
	return s.rendered.Clone()
}
