package rbtree

// Get returns the value stored under key.
func (t *Tree) Get(key uint64) (uint64, bool) {
	n := t.find(key)
	if n == 0 {
		return 0, false
	}
	return t.nodes[n].value, true
}

// GetOrDefault returns the value stored under key, or def when key is absent.
func (t *Tree) GetOrDefault(key, def uint64) uint64 {
	if v, ok := t.Get(key); ok {
		return v
	}
	return def
}

// Contains reports whether key is present.
func (t *Tree) Contains(key uint64) bool {
	return t.find(key) != 0
}

// FloorEntry returns the entry with the largest key <= key.
func (t *Tree) FloorEntry(key uint64) (Entry, bool) {
	return t.boundEntry(key, right, true)
}

// CeilingEntry returns the entry with the smallest key >= key.
func (t *Tree) CeilingEntry(key uint64) (Entry, bool) {
	return t.boundEntry(key, left, true)
}

// LowerEntry returns the entry with the largest key strictly below key.
func (t *Tree) LowerEntry(key uint64) (Entry, bool) {
	return t.boundEntry(key, right, false)
}

// HigherEntry returns the entry with the smallest key strictly above key.
func (t *Tree) HigherEntry(key uint64) (Entry, bool) {
	return t.boundEntry(key, left, false)
}

// boundEntry is the shared descent behind the four navigation queries. side
// names the half the candidate lies on: right means "best key below target"
// (floor/lower), left means "best key above target" (ceiling/higher). An
// exact match short-circuits only for the inclusive variants.
func (t *Tree) boundEntry(key uint64, side int, inclusive bool) (Entry, bool) {
	n := t.root
	var best uint32
	for n != 0 {
		nk := t.nodes[n].key
		if nk == key {
			if inclusive {
				return t.entryOf(n), true
			}
			// Strict variant: keep searching on the candidate side.
			n = t.nodes[n].link[1-side]
			continue
		}
		if (side == right) == (nk < key) {
			best = n
			n = t.nodes[n].link[side]
		} else {
			n = t.nodes[n].link[1-side]
		}
	}
	if best == 0 {
		return Entry{}, false
	}
	return t.entryOf(best), true
}

// FirstEntry returns the entry with the smallest key.
func (t *Tree) FirstEntry() (Entry, bool) {
	return t.edgeEntry(left)
}

// LastEntry returns the entry with the largest key.
func (t *Tree) LastEntry() (Entry, bool) {
	return t.edgeEntry(right)
}

func (t *Tree) edgeEntry(side int) (Entry, bool) {
	if t.root == 0 {
		return Entry{}, false
	}
	n := t.root
	for t.nodes[n].link[side] != 0 {
		n = t.nodes[n].link[side]
	}
	return t.entryOf(n), true
}

// Select returns the entry with zero-based rank i in key order. It reports
// false when i is outside [0, Len()).
func (t *Tree) Select(i int) (Entry, bool) {
	if i < 0 || i >= t.Len() {
		return Entry{}, false
	}
	n := t.root
	rank := uint32(i)
	for n != 0 {
		ls := t.sizeOf(t.nodes[n].link[left])
		switch {
		case rank == ls:
			return t.entryOf(n), true
		case rank < ls:
			n = t.nodes[n].link[left]
		default:
			rank -= ls + 1
			n = t.nodes[n].link[right]
		}
	}
	return Entry{}, false
}

// Rank returns the zero-based rank of key in key order. When key is absent
// it reports false; the returned index is then the rank key would occupy if
// inserted.
func (t *Tree) Rank(key uint64) (int, bool) {
	n := t.root
	rank := uint32(0)
	for n != 0 {
		switch {
		case t.nodes[n].key == key:
			return int(rank + t.sizeOf(t.nodes[n].link[left])), true
		case t.nodes[n].key < key:
			rank += t.sizeOf(t.nodes[n].link[left]) + 1
			n = t.nodes[n].link[right]
		default:
			n = t.nodes[n].link[left]
		}
	}
	return int(rank), false
}
