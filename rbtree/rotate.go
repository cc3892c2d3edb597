package rbtree

// rotateSingle rotates the subtree rooted at n toward dir and returns the
// new subtree root. The child opposite dir is promoted; n becomes that
// child's link on dir, and the promoted child's stranded subtree is
// reattached in n's vacated link.
//
// Color policy: the demoted node turns red, the promoted node black. Callers
// are responsible for any follow-up correction this requires.
//
// Size policy: the promoted node covers exactly the node set the demoted one
// did, so it inherits the old size; the demoted node is recomputed from its
// updated children.
func (t *Tree) rotateSingle(n uint32, dir int) uint32 {
	save := t.nodes[n].link[1-dir]

	t.nodes[n].link[1-dir] = t.nodes[save].link[dir]
	t.nodes[save].link[dir] = n

	oldSize := t.nodes[n].size
	t.nodes[n].size = 1 + t.sizeOf(t.nodes[n].link[left]) + t.sizeOf(t.nodes[n].link[right])
	t.nodes[save].size = oldSize

	t.nodes[n].red = true
	t.nodes[save].red = false

	return save
}

// rotateDouble resolves a zig-zag: it first rotates n's child opposite dir
// away from dir, then rotates n itself toward dir.
func (t *Tree) rotateDouble(n uint32, dir int) uint32 {
	t.nodes[n].link[1-dir] = t.rotateSingle(t.nodes[n].link[1-dir], 1-dir)
	return t.rotateSingle(n, dir)
}
