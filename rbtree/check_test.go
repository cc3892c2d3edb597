package rbtree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheck_ValidTree(t *testing.T) {
	tr := New()
	for k := uint64(1); k <= 100; k++ {
		_, _, err := tr.Put(k, k)
		require.NoError(t, err)
	}
	bh, err := tr.Check()
	require.NoError(t, err)
	require.Equal(t, tr.BlackHeight(), bh)
}

func TestCheck_EmptyTree(t *testing.T) {
	bh, err := New().Check()
	require.NoError(t, err)
	require.Equal(t, 1, bh)
}

func TestCheck_DetectsCorruption(t *testing.T) {
	build := func(t *testing.T) *Tree {
		t.Helper()
		tr := New()
		for _, k := range []uint64{50, 25, 75, 10, 30, 60, 90} {
			_, _, err := tr.Put(k, k)
			require.NoError(t, err)
		}
		return tr
	}

	t.Run("bst order", func(t *testing.T) {
		tr := build(t)
		n := tr.find(10)
		tr.nodes[n].key = 99 // now larger than its ancestors
		_, err := tr.Check()
		var serr *StructureError
		require.ErrorAs(t, err, &serr)
		require.Equal(t, InvariantOrder, serr.Invariant)
	})

	t.Run("red-red edge", func(t *testing.T) {
		tr := build(t)
		// Force a red parent/child pair somewhere below the root.
		n := tr.find(25)
		tr.nodes[n].red = true
		tr.nodes[tr.nodes[n].link[left]].red = true
		_, err := tr.Check()
		var serr *StructureError
		require.ErrorAs(t, err, &serr)
		require.Equal(t, InvariantRedRed, serr.Invariant)
	})

	t.Run("black height", func(t *testing.T) {
		tr := build(t)
		n := tr.find(10)
		tr.nodes[n].red = !tr.nodes[n].red
		_, err := tr.Check()
		var serr *StructureError
		require.ErrorAs(t, err, &serr)
		require.Equal(t, InvariantBlackHeight, serr.Invariant)
	})

	t.Run("subtree size", func(t *testing.T) {
		tr := build(t)
		tr.nodes[tr.root].size++
		_, err := tr.Check()
		var serr *StructureError
		require.ErrorAs(t, err, &serr)
		require.Equal(t, InvariantSize, serr.Invariant)
	})

	t.Run("red root", func(t *testing.T) {
		tr := build(t)
		tr.nodes[tr.root].red = true
		_, err := tr.Check()
		var serr *StructureError
		require.ErrorAs(t, err, &serr)
		require.Equal(t, InvariantRootColor, serr.Invariant)
	})

	t.Run("index aliasing", func(t *testing.T) {
		tr := build(t)
		// Graft 30 under 10 as well, keeping order, colors and sizes
		// locally consistent so the shared index is the first violation.
		n10 := tr.find(10)
		n30 := tr.find(30)
		tr.nodes[n10].red = false
		tr.nodes[n10].size = 2
		tr.nodes[n10].link[right] = n30
		_, err := tr.Check()
		var serr *StructureError
		require.ErrorAs(t, err, &serr)
		require.Equal(t, InvariantAliasing, serr.Invariant)
	})
}

func TestDump(t *testing.T) {
	tr := oddTree(t)

	dump := tr.Dump()
	require.Len(t, dump, 8)

	var total uint32
	for i, info := range dump {
		require.Equal(t, uint64(2*i+1), info.Key)
		require.Equal(t, info.Key*2, info.Value)
		require.NotZero(t, info.Index)
		if info.Left == 0 && info.Right == 0 {
			require.Equal(t, uint32(1), info.Size)
		}
		total = max(total, info.Size)
	}
	require.Equal(t, uint32(8), total)
}
