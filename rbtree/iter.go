package rbtree

import "math/bits"

// ceilLog2 returns the ceiling of log2(x), with ceilLog2(0) == 0. It sizes
// iterator stacks: a red-black tree of n nodes is at most 2*ceilLog2(n+1)
// levels deep.
func ceilLog2(x uint64) int {
	if x <= 1 {
		return 0
	}
	return bits.Len64(x - 1)
}

// An Iterator walks the tree in key order without recursion, keeping the
// pending path on an explicit stack. It is invalidated by any mutation of
// the tree it was created from.
type Iterator struct {
	t     *Tree
	stack []uint32
	side  int // descent side: left for ascending, right for descending
}

// Ascending returns an iterator positioned before the smallest key.
func (t *Tree) Ascending() *Iterator {
	return t.newIterator(left)
}

// Descending returns an iterator positioned after the largest key.
func (t *Tree) Descending() *Iterator {
	return t.newIterator(right)
}

// AscendingFrom returns an iterator positioned before the smallest key
// >= start.
func (t *Tree) AscendingFrom(start uint64) *Iterator {
	it := t.emptyIterator(left)
	n := t.root
	for n != 0 {
		if t.nodes[n].key >= start {
			it.stack = append(it.stack, n)
			n = t.nodes[n].link[left]
		} else {
			n = t.nodes[n].link[right]
		}
	}
	return it
}

// DescendingFrom returns an iterator positioned after the largest key
// <= start.
func (t *Tree) DescendingFrom(start uint64) *Iterator {
	it := t.emptyIterator(right)
	n := t.root
	for n != 0 {
		if t.nodes[n].key <= start {
			it.stack = append(it.stack, n)
			n = t.nodes[n].link[right]
		} else {
			n = t.nodes[n].link[left]
		}
	}
	return it
}

func (t *Tree) newIterator(side int) *Iterator {
	it := t.emptyIterator(side)
	it.push(t.root)
	return it
}

func (t *Tree) emptyIterator(side int) *Iterator {
	return &Iterator{
		t:     t,
		stack: make([]uint32, 0, 2*ceilLog2(uint64(t.Len())+1)+1),
		side:  side,
	}
}

// push descends from n along the iterator's side, stacking the path.
func (it *Iterator) push(n uint32) {
	for n != 0 {
		it.stack = append(it.stack, n)
		n = it.t.nodes[n].link[it.side]
	}
}

// Next returns the next entry in iteration order.
func (it *Iterator) Next() (Entry, bool) {
	if len(it.stack) == 0 {
		return Entry{}, false
	}
	n := it.stack[len(it.stack)-1]
	it.stack = it.stack[:len(it.stack)-1]
	it.push(it.t.nodes[n].link[1-it.side])
	return it.t.entryOf(n), true
}

// Ascend calls fn for each entry in ascending key order until fn returns
// false or the tree is exhausted. The tree must not be mutated by fn.
func (t *Tree) Ascend(fn func(key, value uint64) bool) {
	it := t.Ascending()
	for e, ok := it.Next(); ok; e, ok = it.Next() {
		if !fn(e.Key, e.Value) {
			return
		}
	}
}

// Descend calls fn for each entry in descending key order until fn returns
// false or the tree is exhausted.
func (t *Tree) Descend(fn func(key, value uint64) bool) {
	it := t.Descending()
	for e, ok := it.Next(); ok; e, ok = it.Next() {
		if !fn(e.Key, e.Value) {
			return
		}
	}
}
