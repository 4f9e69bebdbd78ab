package refdata

import "sort"

// Interner maps natural keys (location codes, item uuids, zone names) to
// dense integer ids assigned in sorted key order.
type Interner struct {
	ids  map[string]int
	keys []string
}

func newInterner(keys []string) *Interner {
	uniq := make(map[string]bool, len(keys))
	var sorted []string
	for _, k := range keys {
		if !uniq[k] {
			uniq[k] = true
			sorted = append(sorted, k)
		}
	}
	sort.Strings(sorted)
	in := &Interner{ids: make(map[string]int, len(sorted)), keys: sorted}
	for i, k := range sorted {
		in.ids[k] = i
	}
	return in
}

// ID returns the id of key.
func (in *Interner) ID(key string) (int, bool) {
	id, ok := in.ids[key]
	return id, ok
}

// Key returns the natural key of id, or "" when out of range.
func (in *Interner) Key(id int) string {
	if id < 0 || id >= len(in.keys) {
		return ""
	}
	return in.keys[id]
}

// Len returns the number of interned keys.
func (in *Interner) Len() int { return len(in.keys) }
