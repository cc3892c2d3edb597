package rbtree

import (
	"errors"
	"fmt"
)

// NodeRecord is the external form of one arena slot. Freed slots appear as
// zero records; slot 0 (the sentinel) is not exported.
type NodeRecord struct {
	Key   uint64
	Value uint64
	Left  uint32
	Right uint32
	Size  uint32
	Red   bool
}

// Arena is a raw dump of a tree, suitable for persistence. The record at
// position i corresponds to arena slot i+1.
type Arena struct {
	Records  []NodeRecord
	Root     uint32
	MaxNodes uint32
}

// Export dumps the tree's arena.
func (t *Tree) Export() Arena {
	records := make([]NodeRecord, len(t.nodes)-1)

	for i := range records {
		n := &t.nodes[i+1]
		records[i] = NodeRecord{
			Key:   n.key,
			Value: n.value,
			Left:  n.link[left],
			Right: n.link[right],
			Size:  n.size,
			Red:   n.red,
		}
	}

	return Arena{
		Records:  records,
		Root:     t.root,
		MaxNodes: t.max,
	}
}

// Restore rebuilds a tree from a dumped arena. Link targets are validated
// against the slot count; the structural invariants themselves are not
// re-verified here (see Check).
func Restore(a Arena) (*Tree, error) {
	slots := uint64(len(a.Records)) + 1

	if uint64(a.Root) >= slots {
		return nil, fmt.Errorf("rbtree: restore: root %d out of range", a.Root)
	}

	if uint64(len(a.Records)) > uint64(a.MaxNodes) {
		return nil, errors.New("rbtree: restore: record count exceeds node cap")
	}

	t := &Tree{
		nodes: make([]node, slots),
		root:  a.Root,
		max:   a.MaxNodes,
	}

	if t.max == 0 || t.max > MaxNodes {
		t.max = MaxNodes
	}

	for i, rec := range a.Records {
		if uint64(rec.Left) >= slots || uint64(rec.Right) >= slots {
			return nil, fmt.Errorf("rbtree: restore: slot %d links out of range", i+1)
		}

		t.nodes[i+1] = node{
			key:   rec.Key,
			value: rec.Value,
			link:  [2]uint32{rec.Left, rec.Right},
			size:  rec.Size,
			red:   rec.Red,
		}
	}

	return t, nil
}
