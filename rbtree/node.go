package rbtree

import (
	"errors"
	"math"
)

// Link directions. The algorithms are symmetric, so both mutating passes
// work on link indexes rather than named left/right fields.
const (
	left  = 0
	right = 1
)

// MaxNodes is the largest number of slots a tree can ever allocate: the
// arena is addressed by uint32 and slot 0 is reserved for the sentinel.
const MaxNodes = math.MaxUint32 - 1

// ErrFull is returned when the node index space is exhausted. The failed
// operation leaves the tree untouched.
var ErrFull = errors.New("rbtree: node arena exhausted")

// node is the unit of storage. Index 0 in the arena never holds data; it is
// the shared null reference and the false root used during top-down passes.
type node struct {
	key   uint64
	value uint64
	link  [2]uint32
	size  uint32
	red   bool
}

// Entry is a key/value pair reported by queries and iterators.
type Entry struct {
	Key   uint64
	Value uint64
}

// Tree is an order-statistic red-black tree. The zero value is not usable;
// call New.
type Tree struct {
	nodes []node
	root  uint32
	max   uint32
}

// Option configures a Tree.
type Option func(*Tree)

// WithMaxNodes caps the number of slots the arena may allocate over its
// lifetime. Allocation past the cap fails with ErrFull. The default is
// MaxNodes. Values above MaxNodes are clamped.
func WithMaxNodes(n uint32) Option {
	return func(t *Tree) {
		if n > MaxNodes {
			n = MaxNodes
		}
		t.max = n
	}
}

// WithCapacity pre-sizes the arena for n nodes to avoid growth reallocation
// during bulk loading.
func WithCapacity(n int) Option {
	return func(t *Tree) {
		if n > 0 {
			nodes := make([]node, 1, n+1)
			copy(nodes, t.nodes)
			t.nodes = nodes
		}
	}
}

// New creates an empty tree.
func New(opts ...Option) *Tree {
	t := &Tree{
		nodes: make([]node, 1), // slot 0 is the sentinel
		max:   MaxNodes,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Len returns the number of keys in the tree.
func (t *Tree) Len() int {
	return int(t.sizeOf(t.root))
}

// allocate reserves a fresh slot holding a red, childless node of size 1.
// Slot indexes start at 1 and are never recycled.
func (t *Tree) allocate(key, value uint64) (uint32, error) {
	if t.full() {
		return 0, ErrFull
	}
	t.nodes = append(t.nodes, node{key: key, value: value, size: 1, red: true})
	return uint32(len(t.nodes) - 1), nil
}

// free zeroes a slot. The index stays burned: the arena only grows.
func (t *Tree) free(n uint32) {
	t.nodes[n] = node{}
}

// full reports whether the next allocation would exceed the index cap.
func (t *Tree) full() bool {
	return uint64(len(t.nodes)) > uint64(t.max)
}

// Full reports whether the arena has no slot left for a new key. Inserts
// of new keys fail with ErrFull while Full is true; replacing existing
// values still works.
func (t *Tree) Full() bool {
	return t.full()
}

func (t *Tree) isRed(n uint32) bool {
	return n != 0 && t.nodes[n].red
}

func (t *Tree) sizeOf(n uint32) uint32 {
	if n == 0 {
		return 0
	}
	return t.nodes[n].size
}

// find is a plain BST search returning the index holding key, or 0.
func (t *Tree) find(key uint64) uint32 {
	n := t.root
	for n != 0 && t.nodes[n].key != key {
		if t.nodes[n].key < key {
			n = t.nodes[n].link[right]
		} else {
			n = t.nodes[n].link[left]
		}
	}
	return n
}

func (t *Tree) entryOf(n uint32) Entry {
	return Entry{Key: t.nodes[n].key, Value: t.nodes[n].value}
}

// resetSentinel clears the scaffolding the top-down passes leave in slot 0.
// The sentinel must read as a black node with no children between passes.
func (t *Tree) resetSentinel() {
	t.nodes[0] = node{}
}
