package rbtree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCeilLog2(t *testing.T) {
	tests := []struct {
		in   uint64
		want int
	}{
		{0, 0}, {1, 0}, {2, 1}, {3, 2}, {4, 2}, {5, 3}, {8, 3}, {9, 4}, {1024, 10}, {1025, 11},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, ceilLog2(tt.in), "ceilLog2(%d)", tt.in)
	}
}

func TestIterator_Ascending(t *testing.T) {
	tr := oddTree(t)

	var keys []uint64
	it := tr.Ascending()
	for e, ok := it.Next(); ok; e, ok = it.Next() {
		keys = append(keys, e.Key)
		require.Equal(t, e.Key*2, e.Value)
	}
	require.Equal(t, []uint64{1, 3, 5, 7, 9, 11, 13, 15}, keys)
}

func TestIterator_Descending(t *testing.T) {
	tr := oddTree(t)

	var keys []uint64
	it := tr.Descending()
	for e, ok := it.Next(); ok; e, ok = it.Next() {
		keys = append(keys, e.Key)
	}
	require.Equal(t, []uint64{15, 13, 11, 9, 7, 5, 3, 1}, keys)
}

func TestIterator_AscendingFrom(t *testing.T) {
	tr := oddTree(t)

	collect := func(it *Iterator) []uint64 {
		var keys []uint64
		for e, ok := it.Next(); ok; e, ok = it.Next() {
			keys = append(keys, e.Key)
		}
		return keys
	}

	require.Equal(t, []uint64{7, 9, 11, 13, 15}, collect(tr.AscendingFrom(6)))
	require.Equal(t, []uint64{7, 9, 11, 13, 15}, collect(tr.AscendingFrom(7)))
	require.Equal(t, []uint64{1, 3, 5, 7, 9, 11, 13, 15}, collect(tr.AscendingFrom(0)))
	require.Empty(t, collect(tr.AscendingFrom(16)))
}

func TestIterator_DescendingFrom(t *testing.T) {
	tr := oddTree(t)

	collect := func(it *Iterator) []uint64 {
		var keys []uint64
		for e, ok := it.Next(); ok; e, ok = it.Next() {
			keys = append(keys, e.Key)
		}
		return keys
	}

	require.Equal(t, []uint64{5, 3, 1}, collect(tr.DescendingFrom(6)))
	require.Equal(t, []uint64{7, 5, 3, 1}, collect(tr.DescendingFrom(7)))
	require.Equal(t, []uint64{15, 13, 11, 9, 7, 5, 3, 1}, collect(tr.DescendingFrom(15)))
	require.Empty(t, collect(tr.DescendingFrom(0)))
}

func TestIterator_Empty(t *testing.T) {
	it := New().Ascending()
	_, ok := it.Next()
	require.False(t, ok)
}

func TestAscend_EarlyStop(t *testing.T) {
	tr := oddTree(t)

	var seen []uint64
	tr.Ascend(func(k, _ uint64) bool {
		seen = append(seen, k)
		return k < 7
	})
	require.Equal(t, []uint64{1, 3, 5, 7}, seen)
}

func TestDescend(t *testing.T) {
	tr := oddTree(t)

	var seen []uint64
	tr.Descend(func(k, v uint64) bool {
		require.Equal(t, k*2, v)
		seen = append(seen, k)
		return true
	})
	require.Equal(t, []uint64{15, 13, 11, 9, 7, 5, 3, 1}, seen)
}
