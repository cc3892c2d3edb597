package rbtree

// Probe locates the node holding key, inserting a fresh red node at the
// bottom of the tree if key is absent, and returns its index. An existing
// node's value is left untouched.
//
// The descent keeps four trailing references (great-grandparent,
// grandparent, parent, current) anchored at the sentinel so the real root is
// handled like any other node. Nodes with two red children are color-flipped
// on the way down, which guarantees a red-red violation can always be fixed
// locally with one single or double rotation.
func (t *Tree) Probe(key, value uint64) (uint32, error) {
	if t.root == 0 {
		n, err := t.allocate(key, value)
		if err != nil {
			return 0, err
		}
		t.root = n
		t.nodes[n].red = false
		return n, nil
	}

	// The descent rebalances as it goes, so allocation failure has to be
	// ruled out before the first structural change.
	if t.full() {
		if n := t.find(key); n != 0 {
			return n, nil
		}
		return 0, ErrFull
	}

	t.nodes[0].link[right] = t.root

	var (
		ggp, g, p uint32 // trailing references; 0 is the sentinel
		q         = t.root
		dir, last = right, right
		created   uint32
	)

	for {
		if q == 0 {
			n, err := t.allocate(key, value) // cannot fail: capacity checked above
			if err != nil {
				t.resetSentinel()
				return 0, err
			}
			q = n
			created = n
			t.nodes[p].link[dir] = q
		} else if t.isRed(t.nodes[q].link[left]) && t.isRed(t.nodes[q].link[right]) {
			// Color flip. Keeps black heights intact and ensures at most
			// one red child survives below q.
			t.nodes[q].red = true
			t.nodes[t.nodes[q].link[left]].red = false
			t.nodes[t.nodes[q].link[right]].red = false
		}

		if t.isRed(q) && t.isRed(p) {
			dir2 := left
			if t.nodes[ggp].link[right] == g {
				dir2 = right
			}
			if q == t.nodes[p].link[last] {
				t.nodes[ggp].link[dir2] = t.rotateSingle(g, 1-last)
			} else {
				t.nodes[ggp].link[dir2] = t.rotateDouble(g, 1-last)
			}
		}

		if t.nodes[q].key == key {
			break
		}

		last = dir
		dir = left
		if t.nodes[q].key < key {
			dir = right
		}

		if g != 0 {
			ggp = g
		}
		g, p = p, q
		q = t.nodes[q].link[dir]
	}

	t.root = t.nodes[0].link[right]
	t.resetSentinel()
	t.nodes[t.root].red = false

	if created != 0 {
		t.growSizes(key)
	}
	return q, nil
}

// growSizes is the second top-down pass after an insertion: every node on
// the search path whose key differs from the inserted key gains one. The
// probe pass may rotate entries around, so sizes are settled only once the
// final shape is known. The inserted node itself is recomputed from its
// children because the closing rotation can promote it above existing nodes.
func (t *Tree) growSizes(key uint64) {
	n := t.root
	for n != 0 && t.nodes[n].key != key {
		t.nodes[n].size++
		if t.nodes[n].key < key {
			n = t.nodes[n].link[right]
		} else {
			n = t.nodes[n].link[left]
		}
	}
	if n != 0 {
		t.nodes[n].size = 1 + t.sizeOf(t.nodes[n].link[left]) + t.sizeOf(t.nodes[n].link[right])
	}
}

// Put sets the value for key, inserting it if absent. It reports whether an
// existing value was replaced and, if so, the previous value.
func (t *Tree) Put(key, value uint64) (replaced bool, old uint64, err error) {
	before := t.Len()
	n, err := t.Probe(key, value)
	if err != nil {
		return false, 0, err
	}
	if t.Len() == before {
		old = t.nodes[n].value
		t.nodes[n].value = value
		return true, old, nil
	}
	return false, 0, nil
}

// PutIfAbsent inserts key only when missing and returns the value now
// associated with key, which is the existing one if key was present.
func (t *Tree) PutIfAbsent(key, value uint64) (uint64, error) {
	n, err := t.Probe(key, value)
	if err != nil {
		return 0, err
	}
	return t.nodes[n].value, nil
}
