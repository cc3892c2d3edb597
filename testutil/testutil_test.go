package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRNG(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		a := NewRNG(42)
		b := NewRNG(42)

		assert.Equal(t, a.Keys(100), b.Keys(100))
	})

	t.Run("reset", func(t *testing.T) {
		r := NewRNG(7)
		first := r.Keys(50)

		r.Reset()
		assert.Equal(t, first, r.Keys(50))
	})

	t.Run("distinct keys", func(t *testing.T) {
		keys := NewRNG(1).Keys(1000)
		seen := make(map[uint64]struct{}, len(keys))

		for _, k := range keys {
			_, dup := seen[k]
			require.False(t, dup)
			seen[k] = struct{}{}
		}
	})
}

func TestModel(t *testing.T) {
	m := NewModel()

	assert.False(t, m.Put(30, 300))
	assert.False(t, m.Put(10, 100))
	assert.False(t, m.Put(20, 200))
	assert.True(t, m.Put(20, 201))

	assert.Equal(t, []uint64{10, 20, 30}, m.Keys())
	assert.Equal(t, 3, m.Len())

	v, ok := m.Get(20)
	require.True(t, ok)
	assert.Equal(t, uint64(201), v)

	k, ok := m.Select(1)
	require.True(t, ok)
	assert.Equal(t, uint64(20), k)

	rank, found := m.Rank(30)
	assert.True(t, found)
	assert.Equal(t, 2, rank)

	rank, found = m.Rank(25)
	assert.False(t, found)
	assert.Equal(t, 2, rank)

	assert.True(t, m.Remove(20))
	assert.False(t, m.Remove(20))
	assert.Equal(t, []uint64{10, 30}, m.Keys())
}
