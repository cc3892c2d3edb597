package rbtree

// Remove deletes key from the tree, reporting whether it was present and
// the value it held. A missing key is a negative result, not an error, and
// leaves the tree untouched.
//
// The descent pushes a red node ahead of itself so that by the time the
// bottom is reached, the node to splice out is red and can be removed
// without any second pass. On equal keys the descent keeps moving toward
// larger keys, so the loop terminates at the in-order successor of the
// matched node (or at the matched node itself when it has no right subtree).
func (t *Tree) Remove(key uint64) (bool, uint64) {
	if t.root == 0 {
		return false, 0
	}
	// Bail out read-only on missing keys: the push-down pass recolors as it
	// searches, and a negative Remove must not change anything observable.
	if t.find(key) == 0 {
		return false, 0
	}

	t.nodes[0].link[right] = t.root

	var (
		g, p, q uint32 // q starts at the sentinel
		dir     = right
		found   uint32
	)

	for t.nodes[q].link[dir] != 0 {
		last := dir
		g, p = p, q
		q = t.nodes[q].link[dir]

		dir = left
		if t.nodes[q].key <= key {
			dir = right
		}
		if t.nodes[q].key == key {
			found = q
		}

		// Ensure the node we are about to leave is red.
		if t.isRed(q) || t.isRed(t.nodes[q].link[dir]) {
			continue
		}
		if t.isRed(t.nodes[q].link[1-dir]) {
			// q's other child is red: one rotation drops q a level and
			// turns it red.
			nw := t.rotateSingle(q, dir)
			t.nodes[p].link[last] = nw
			p = nw
			continue
		}

		s := t.nodes[p].link[1-last] // q's sibling
		if s == 0 {
			continue
		}
		if !t.isRed(t.nodes[s].link[1-last]) && !t.isRed(t.nodes[s].link[last]) {
			// All four of the sibling's and q's children are black: a color
			// flip moves the parent's red down both sides without touching
			// black heights.
			t.nodes[p].red = false
			t.nodes[s].red = true
			t.nodes[q].red = true
			continue
		}

		// The sibling has a red child; restructure around the parent. The
		// rotation shape depends on which side of the sibling is red.
		dir2 := left
		if t.nodes[g].link[right] == p {
			dir2 = right
		}
		if t.isRed(t.nodes[s].link[last]) {
			t.nodes[g].link[dir2] = t.rotateDouble(p, last)
		} else {
			t.nodes[g].link[dir2] = t.rotateSingle(p, last)
		}

		nw := t.nodes[g].link[dir2]
		t.nodes[q].red = true
		t.nodes[nw].red = true
		t.nodes[t.nodes[nw].link[left]].red = false
		t.nodes[t.nodes[nw].link[right]].red = false
	}

	// q is now the terminal node with at most one child; found still holds
	// the original key until the replacement copy below.
	old := t.nodes[found].value
	origKey := t.nodes[found].key

	qdir := left
	if t.nodes[p].link[right] == q {
		qdir = right
	}
	cdir := right
	if t.nodes[q].link[left] != 0 {
		cdir = left
	}
	child := t.nodes[q].link[cdir]
	t.nodes[p].link[qdir] = child

	t.shrinkSizes(origKey, child)

	if found != q {
		t.nodes[found].key = t.nodes[q].key
		t.nodes[found].value = t.nodes[q].value
	}
	t.free(q)

	t.root = t.nodes[0].link[right]
	t.resetSentinel()
	if t.root != 0 {
		t.nodes[t.root].red = false
	}
	return true, old
}

// shrinkSizes replays the deletion search path top-down, decrementing every
// subtree size until it reaches the subtree that was reattached in the
// spliced node's place (stop may be 0 for a childless splice). It must run
// while the matched node still holds the original key: the replay compares
// with the same equal-or-less rule the descent used, so it walks exactly
// the spliced node's ancestors.
func (t *Tree) shrinkSizes(key uint64, stop uint32) {
	n := t.nodes[0].link[right]
	for n != 0 && n != stop {
		t.nodes[n].size--
		if t.nodes[n].key <= key {
			n = t.nodes[n].link[right]
		} else {
			n = t.nodes[n].link[left]
		}
	}
}
