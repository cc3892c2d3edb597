package rbtree

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func requireValid(t *testing.T, tr *Tree) {
	t.Helper()
	_, err := tr.Check()
	require.NoError(t, err)
}

func TestProbe_InsertAndFind(t *testing.T) {
	tr := New()

	n1, err := tr.Probe(42, 100)
	require.NoError(t, err)
	require.NotZero(t, n1)
	require.Equal(t, 1, tr.Len())

	// Probing the same key again returns the same node and does not
	// overwrite the value.
	n2, err := tr.Probe(42, 999)
	require.NoError(t, err)
	require.Equal(t, n1, n2)
	require.Equal(t, 1, tr.Len())

	v, ok := tr.Get(42)
	require.True(t, ok)
	require.Equal(t, uint64(100), v)

	requireValid(t, tr)
}

func TestPut_ReplacementSemantics(t *testing.T) {
	tr := New()

	replaced, old, err := tr.Put(7, 1)
	require.NoError(t, err)
	require.False(t, replaced)
	require.Zero(t, old)

	replaced, old, err = tr.Put(7, 2)
	require.NoError(t, err)
	require.True(t, replaced)
	require.Equal(t, uint64(1), old)

	v, ok := tr.Get(7)
	require.True(t, ok)
	require.Equal(t, uint64(2), v)
	require.Equal(t, 1, tr.Len())
}

func TestPutIfAbsent_NonClobbering(t *testing.T) {
	tr := New()

	_, _, err := tr.Put(5, 100)
	require.NoError(t, err)

	v, err := tr.PutIfAbsent(5, 200)
	require.NoError(t, err)
	require.Equal(t, uint64(100), v)

	got, ok := tr.Get(5)
	require.True(t, ok)
	require.Equal(t, uint64(100), got)

	v, err = tr.PutIfAbsent(6, 200)
	require.NoError(t, err)
	require.Equal(t, uint64(200), v)
	require.Equal(t, 2, tr.Len())
}

func TestPut_RoundTrip(t *testing.T) {
	tr := New()
	rng := rand.New(rand.NewSource(1))

	keys := make(map[uint64]uint64)
	for i := 0; i < 1000; i++ {
		k := rng.Uint64() % 5000
		v := rng.Uint64()
		_, _, err := tr.Put(k, v)
		require.NoError(t, err)
		keys[k] = v
	}

	require.Equal(t, len(keys), tr.Len())
	for k, v := range keys {
		got, ok := tr.Get(k)
		require.True(t, ok, "key %d", k)
		require.Equal(t, v, got, "key %d", k)
	}
	requireValid(t, tr)
}

func TestProbe_InsertionOrderIndependence(t *testing.T) {
	sorted := []uint64{0, 1, 2, 3, 4, 5, 6, 7}
	reversed := []uint64{7, 6, 5, 4, 3, 2, 1, 0}
	shuffled := []uint64{3, 7, 0, 5, 2, 6, 1, 4}
	outsideIn := []uint64{0, 7, 1, 6, 2, 5, 3, 4}

	orders := map[string][]uint64{
		"sorted":     sorted,
		"reversed":   reversed,
		"shuffled":   shuffled,
		"outside-in": outsideIn,
	}

	for name, order := range orders {
		t.Run(name, func(t *testing.T) {
			tr := New()
			for _, k := range order {
				_, _, err := tr.Put(k, k*10)
				require.NoError(t, err)
				requireValid(t, tr)
			}
			require.Equal(t, 8, tr.Len())
			for k := uint64(0); k < 8; k++ {
				v, ok := tr.Get(k)
				require.True(t, ok)
				require.Equal(t, k*10, v)
			}
		})
	}
}

func TestProbe_InvariantsUnderRandomInserts(t *testing.T) {
	tr := New()
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 2000; i++ {
		_, _, err := tr.Put(rng.Uint64()%10000, uint64(i))
		require.NoError(t, err)
	}
	bh, err := tr.Check()
	require.NoError(t, err)
	require.Greater(t, bh, 1)
}

func TestProbe_ArenaOverflow(t *testing.T) {
	tr := New(WithMaxNodes(4))

	for k := uint64(1); k <= 4; k++ {
		_, _, err := tr.Put(k, k)
		require.NoError(t, err)
	}

	// The arena is exhausted: a fifth key must fail without touching the
	// tree, while existing keys stay writable.
	_, _, err := tr.Put(5, 5)
	require.ErrorIs(t, err, ErrFull)
	require.Equal(t, 4, tr.Len())
	requireValid(t, tr)

	replaced, old, err := tr.Put(2, 22)
	require.NoError(t, err)
	require.True(t, replaced)
	require.Equal(t, uint64(2), old)
}

func TestProbe_FreedSlotsAreNotRecycled(t *testing.T) {
	tr := New(WithMaxNodes(3))

	_, _, err := tr.Put(1, 1)
	require.NoError(t, err)
	removed, _ := tr.Remove(1)
	require.True(t, removed)

	// Slots burn even after removal; the cap counts lifetime allocations.
	_, _, err = tr.Put(2, 2)
	require.NoError(t, err)
	_, _, err = tr.Put(3, 3)
	require.NoError(t, err)
	_, _, err = tr.Put(4, 4)
	require.ErrorIs(t, err, ErrFull)
}
