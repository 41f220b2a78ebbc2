package execlog

// Delta returns the keys of snap that are in none of the known sets.
// Neither input is modified.
func Delta(snap Snapshot, known ...KeySet) KeySet {
	out := KeySet{}
	for k := range snap {
		if !anyHas(known, k) {
			out[k] = struct{}{}
		}
	}
	return out
}

func anyHas(sets []KeySet, k string) bool {
	for _, s := range sets {
		if s.Has(k) {
			return true
		}
	}
	return false
}
