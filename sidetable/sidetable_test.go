package sidetable

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

func TestTable(t *testing.T) {
	t.Run("add get delete", func(t *testing.T) {
		tbl := New[payload]()

		h1 := tbl.Add(payload{Name: "a", Score: 1.5})
		h2 := tbl.Add(payload{Name: "b", Score: 2.5})

		require.NotZero(t, h1)
		require.NotEqual(t, h1, h2)
		require.Equal(t, 2, tbl.Len())

		got, ok := tbl.Get(h1)
		require.True(t, ok)
		require.Equal(t, "a", got.Name)

		tbl.Delete(h1)
		_, ok = tbl.Get(h1)
		require.False(t, ok)

		// Deleted handles are not reissued.
		h3 := tbl.Add(payload{Name: "c"})
		require.NotEqual(t, h1, h3)
	})

	t.Run("set keeps allocator ahead", func(t *testing.T) {
		tbl := New[string]()

		tbl.Set(100, "pinned")

		h := tbl.Add("fresh")
		require.Greater(t, h, uint64(100))
	})

	t.Run("save and load", func(t *testing.T) {
		tbl := New[payload]()

		h1 := tbl.Add(payload{Name: "x", Score: 0.25})
		h2 := tbl.Add(payload{Name: "y", Score: 0.75})

		var buf bytes.Buffer
		require.NoError(t, tbl.Save(&buf))

		loaded := New[payload]()
		require.NoError(t, loaded.Load(&buf))
		require.Equal(t, 2, loaded.Len())

		got, ok := loaded.Get(h2)
		require.True(t, ok)
		require.Equal(t, payload{Name: "y", Score: 0.75}, got)

		// Handle allocation continues where the saved table left off.
		h3 := loaded.Add(payload{Name: "z"})
		require.Greater(t, h3, h1)
		require.Greater(t, h3, h2)
	})

	t.Run("load rejects lying count", func(t *testing.T) {
		// Header declaring billions of entries followed by nothing: the
		// load must fail on the missing entries, not allocate for the
		// declared count.
		next, count := uint64(1), uint64(1<<33)

		var buf bytes.Buffer
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, next))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, count))

		loaded := New[string]()
		require.Error(t, loaded.Load(&buf))
		require.Equal(t, 0, loaded.Len())
	})

	t.Run("load empty table", func(t *testing.T) {
		tbl := New[string]()

		var buf bytes.Buffer
		require.NoError(t, tbl.Save(&buf))

		loaded := New[string]()
		require.NoError(t, loaded.Load(&buf))
		require.Equal(t, 0, loaded.Len())

		require.NotZero(t, loaded.Add("first"))
	})
}
