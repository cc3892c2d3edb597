package rbtree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExportRestore(t *testing.T) {
	t.Run("round trip preserves contents and structure", func(t *testing.T) {
		tr := New()
		for k := uint64(1); k <= 100; k++ {
			_, _, err := tr.Put(k*7%101, k)
			require.NoError(t, err)
		}

		// Burn a few slots so the dump contains holes.
		for _, k := range []uint64{7, 14, 21} {
			removed, _ := tr.Remove(k)
			require.True(t, removed)
		}

		restored, err := Restore(tr.Export())
		require.NoError(t, err)

		_, err = restored.Check()
		require.NoError(t, err)
		require.Equal(t, tr.Len(), restored.Len())
		require.Equal(t, tr.Dump(), restored.Dump())
	})

	t.Run("empty tree", func(t *testing.T) {
		restored, err := Restore(New().Export())
		require.NoError(t, err)
		require.Equal(t, 0, restored.Len())

		_, _, err = restored.Put(1, 2)
		require.NoError(t, err)
	})

	t.Run("max nodes survives restore", func(t *testing.T) {
		tr := New(WithMaxNodes(3))
		for k := uint64(1); k <= 3; k++ {
			_, _, err := tr.Put(k, k)
			require.NoError(t, err)
		}

		restored, err := Restore(tr.Export())
		require.NoError(t, err)

		_, _, err = restored.Put(4, 4)
		require.ErrorIs(t, err, ErrFull)
	})

	t.Run("rejects out of range root", func(t *testing.T) {
		a := Arena{Root: 5, MaxNodes: MaxNodes}
		_, err := Restore(a)
		require.Error(t, err)
	})

	t.Run("rejects out of range links", func(t *testing.T) {
		a := Arena{
			Records:  []NodeRecord{{Key: 1, Size: 1, Left: 9}},
			Root:     1,
			MaxNodes: MaxNodes,
		}
		_, err := Restore(a)
		require.Error(t, err)
	})
}
