package rbtree

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRemove_Present(t *testing.T) {
	tr := New()
	_, _, err := tr.Put(10, 100)
	require.NoError(t, err)
	_, _, err = tr.Put(20, 200)
	require.NoError(t, err)

	removed, old := tr.Remove(10)
	require.True(t, removed)
	require.Equal(t, uint64(100), old)
	require.Equal(t, 1, tr.Len())

	_, ok := tr.Get(10)
	require.False(t, ok)
	requireValid(t, tr)
}

func TestRemove_AbsentIsIdempotent(t *testing.T) {
	tr := New()
	_, _, err := tr.Put(1, 1)
	require.NoError(t, err)

	before := tr.Dump()
	removed, old := tr.Remove(99)
	require.False(t, removed)
	require.Zero(t, old)
	require.Equal(t, 1, tr.Len())
	// Not even colors may change on a negative Remove.
	require.Equal(t, before, tr.Dump())

	removed, old = New().Remove(5)
	require.False(t, removed)
	require.Zero(t, old)
}

func TestRemove_DrainToEmpty(t *testing.T) {
	orders := map[string]func(n int) []uint64{
		"insertion order": func(n int) []uint64 {
			out := make([]uint64, n)
			for i := range out {
				out[i] = uint64(i)
			}
			return out
		},
		"reverse order": func(n int) []uint64 {
			out := make([]uint64, n)
			for i := range out {
				out[i] = uint64(n - 1 - i)
			}
			return out
		},
		"shuffled": func(n int) []uint64 {
			rng := rand.New(rand.NewSource(3))
			out := make([]uint64, n)
			for i := range out {
				out[i] = uint64(i)
			}
			rng.Shuffle(n, func(i, j int) { out[i], out[j] = out[j], out[i] })
			return out
		},
	}

	const n = 200
	for name, order := range orders {
		t.Run(name, func(t *testing.T) {
			tr := New()
			for i := 0; i < n; i++ {
				_, _, err := tr.Put(uint64(i), uint64(i)*2)
				require.NoError(t, err)
			}
			for _, k := range order(n) {
				removed, old := tr.Remove(k)
				require.True(t, removed, "key %d", k)
				require.Equal(t, k*2, old)
				requireValid(t, tr)
			}
			require.Equal(t, 0, tr.Len())
			_, ok := tr.FirstEntry()
			require.False(t, ok)
			_, ok = tr.LastEntry()
			require.False(t, ok)
		})
	}
}

func TestRemove_RootWithTwoChildren(t *testing.T) {
	tr := New()
	for _, k := range []uint64{50, 25, 75, 10, 30, 60, 90} {
		_, _, err := tr.Put(k, k)
		require.NoError(t, err)
	}

	removed, old := tr.Remove(50)
	require.True(t, removed)
	require.Equal(t, uint64(50), old)
	require.Equal(t, 6, tr.Len())
	requireValid(t, tr)

	for _, k := range []uint64{25, 75, 10, 30, 60, 90} {
		_, ok := tr.Get(k)
		require.True(t, ok, "key %d", k)
	}
}

func TestRemove_InvariantsUnderMixedOps(t *testing.T) {
	tr := New()
	rng := rand.New(rand.NewSource(13))
	live := make(map[uint64]uint64)

	for i := 0; i < 5000; i++ {
		k := rng.Uint64() % 1000
		if rng.Intn(3) == 0 {
			removed, old := tr.Remove(k)
			want, ok := live[k]
			require.Equal(t, ok, removed, "key %d", k)
			if ok {
				require.Equal(t, want, old)
				delete(live, k)
			}
		} else {
			v := rng.Uint64()
			_, _, err := tr.Put(k, v)
			require.NoError(t, err)
			live[k] = v
		}

		if i%500 == 0 {
			requireValid(t, tr)
		}
	}

	requireValid(t, tr)
	require.Equal(t, len(live), tr.Len())
	for k, v := range live {
		got, ok := tr.Get(k)
		require.True(t, ok)
		require.Equal(t, v, got)
	}
}
