package rbtree

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// Invariant names reported by Check.
const (
	InvariantOrder       = "bst-order"
	InvariantRedRed      = "red-red"
	InvariantBlackHeight = "black-height"
	InvariantSize        = "subtree-size"
	InvariantAliasing    = "index-aliasing"
	InvariantRootColor   = "root-color"
)

// StructureError reports the first structural violation Check finds.
type StructureError struct {
	Invariant string
	Node      uint32
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("rbtree: %s violated at node %d", e.Invariant, e.Node)
}

// Check recursively verifies the full invariant set: BST order, no red-red
// edges, uniform black height, size consistency, a black root, and that no
// arena slot is reachable twice. It returns the tree's black height
// (counting the absent-child level) or the first violation found.
//
// Check exists for test suites and debugging; no production path calls it.
func (t *Tree) Check() (int, error) {
	if t.isRed(t.root) {
		return 0, &StructureError{Invariant: InvariantRootColor, Node: t.root}
	}
	seen := roaring.New()
	return t.check(t.root, seen)
}

func (t *Tree) check(n uint32, seen *roaring.Bitmap) (int, error) {
	if n == 0 {
		return 1, nil
	}
	if seen.Contains(n) {
		return 0, &StructureError{Invariant: InvariantAliasing, Node: n}
	}
	seen.Add(n)

	ln := t.nodes[n].link[left]
	rn := t.nodes[n].link[right]

	if t.isRed(n) && (t.isRed(ln) || t.isRed(rn)) {
		return 0, &StructureError{Invariant: InvariantRedRed, Node: n}
	}
	if ln != 0 && t.nodes[ln].key >= t.nodes[n].key {
		return 0, &StructureError{Invariant: InvariantOrder, Node: n}
	}
	if rn != 0 && t.nodes[rn].key <= t.nodes[n].key {
		return 0, &StructureError{Invariant: InvariantOrder, Node: n}
	}

	lh, err := t.check(ln, seen)
	if err != nil {
		return 0, err
	}
	rh, err := t.check(rn, seen)
	if err != nil {
		return 0, err
	}
	if lh != rh {
		return 0, &StructureError{Invariant: InvariantBlackHeight, Node: n}
	}

	if t.nodes[n].size != 1+t.sizeOf(ln)+t.sizeOf(rn) {
		return 0, &StructureError{Invariant: InvariantSize, Node: n}
	}

	if t.isRed(n) {
		return lh, nil
	}
	return lh + 1, nil
}

// BlackHeight counts the black nodes on the leftmost root-to-nil path,
// including the absent-child level. On a valid tree every path agrees, so
// this is a cheap diagnostic counterpart to Check.
func (t *Tree) BlackHeight() int {
	h := 1
	for n := t.root; n != 0; n = t.nodes[n].link[left] {
		if !t.nodes[n].red {
			h++
		}
	}
	return h
}

// NodeInfo is a raw view of one arena slot, exposed for diagnostics.
type NodeInfo struct {
	Index uint32
	Key   uint64
	Value uint64
	Left  uint32
	Right uint32
	Red   bool
	Size  uint32
}

// Dump returns the raw fields of every live node in key order. Like Check,
// it exists for external verification only.
func (t *Tree) Dump() []NodeInfo {
	out := make([]NodeInfo, 0, t.Len())
	t.dump(t.root, &out)
	return out
}

func (t *Tree) dump(n uint32, out *[]NodeInfo) {
	if n == 0 {
		return
	}
	t.dump(t.nodes[n].link[left], out)
	*out = append(*out, NodeInfo{
		Index: n,
		Key:   t.nodes[n].key,
		Value: t.nodes[n].value,
		Left:  t.nodes[n].link[left],
		Right: t.nodes[n].link[right],
		Red:   t.nodes[n].red,
		Size:  t.nodes[n].size,
	})
	t.dump(t.nodes[n].link[right], out)
}
