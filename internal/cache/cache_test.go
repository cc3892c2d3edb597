package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLRU(t *testing.T) {
	t.Run("get and set", func(t *testing.T) {
		c := NewLRU(1024)

		key := Key{Name: "blob", Block: 0}
		c.Set(key, []byte("hello"))

		got, ok := c.Get(key)
		require.True(t, ok)
		require.Equal(t, []byte("hello"), got)

		_, ok = c.Get(Key{Name: "blob", Block: 1})
		require.False(t, ok)

		hits, misses := c.Stats()
		require.Equal(t, int64(1), hits)
		require.Equal(t, int64(1), misses)
	})

	t.Run("evicts least recently used", func(t *testing.T) {
		c := NewLRU(10)

		c.Set(Key{Name: "a"}, []byte("12345"))
		c.Set(Key{Name: "b"}, []byte("12345"))

		// Touch "a" so "b" becomes the eviction candidate.
		_, ok := c.Get(Key{Name: "a"})
		require.True(t, ok)

		c.Set(Key{Name: "c"}, []byte("12345"))

		_, ok = c.Get(Key{Name: "b"})
		require.False(t, ok)

		_, ok = c.Get(Key{Name: "a"})
		require.True(t, ok)
	})

	t.Run("oversized blocks are not cached", func(t *testing.T) {
		c := NewLRU(4)

		c.Set(Key{Name: "big"}, []byte("12345"))

		_, ok := c.Get(Key{Name: "big"})
		require.False(t, ok)
		require.Equal(t, int64(0), c.Size())
	})

	t.Run("invalidate by predicate", func(t *testing.T) {
		c := NewLRU(1024)

		c.Set(Key{Name: "keep", Block: 0}, []byte("x"))
		c.Set(Key{Name: "drop", Block: 0}, []byte("y"))
		c.Set(Key{Name: "drop", Block: 1}, []byte("z"))

		c.Invalidate(func(key Key) bool { return key.Name == "drop" })

		_, ok := c.Get(Key{Name: "keep", Block: 0})
		require.True(t, ok)

		_, ok = c.Get(Key{Name: "drop", Block: 0})
		require.False(t, ok)
		require.Equal(t, int64(1), c.Size())
	})

	t.Run("update existing key adjusts size", func(t *testing.T) {
		c := NewLRU(1024)

		key := Key{Name: "k"}
		c.Set(key, []byte("ab"))
		c.Set(key, []byte("abcd"))

		require.Equal(t, int64(4), c.Size())

		got, ok := c.Get(key)
		require.True(t, ok)
		require.Equal(t, []byte("abcd"), got)
	})
}
