package snapshot

import (
	"bytes"
	"context"
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ordmap/blobstore"
	"github.com/hupe1980/ordmap/rbtree"
)

func buildTree(t *testing.T, n int) *rbtree.Tree {
	t.Helper()

	tr := rbtree.New()
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < n; i++ {
		_, _, err := tr.Put(rng.Uint64()%100000, uint64(i))
		require.NoError(t, err)
	}

	return tr
}

func TestWriteRead(t *testing.T) {
	modes := map[string]Compression{
		"none": CompressionNone,
		"zstd": CompressionZstd,
		"lz4":  CompressionLZ4,
	}

	for name, mode := range modes {
		t.Run(name, func(t *testing.T) {
			tr := buildTree(t, 500)

			var buf bytes.Buffer
			require.NoError(t, Write(&buf, tr, func(o *Options) { o.Compression = mode }))

			restored, err := Read(&buf)
			require.NoError(t, err)

			_, err = restored.Check()
			require.NoError(t, err)
			require.Equal(t, tr.Len(), restored.Len())
			require.Equal(t, tr.Dump(), restored.Dump())
		})
	}
}

func TestWriteReadEmptyTree(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, rbtree.New()))

	restored, err := Read(&buf)
	require.NoError(t, err)
	require.Equal(t, 0, restored.Len())
}

func TestReadRejectsCorruption(t *testing.T) {
	tr := buildTree(t, 100)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, tr))

	t.Run("flipped payload byte", func(t *testing.T) {
		data := bytes.Clone(buf.Bytes())
		data[headerSize+3] ^= 0xFF

		_, err := Read(bytes.NewReader(data))
		require.Error(t, err)
	})

	t.Run("bad magic", func(t *testing.T) {
		data := bytes.Clone(buf.Bytes())
		data[0] = 'X'

		_, err := Read(bytes.NewReader(data))
		require.ErrorIs(t, err, ErrInvalidMagic)
	})

	t.Run("oversized payload size", func(t *testing.T) {
		data := bytes.Clone(buf.Bytes())
		// PayloadSize lives at header offset 16; a hostile value must be
		// rejected before any allocation sized from it.
		binary.LittleEndian.PutUint64(data[16:], 1<<40)

		_, err := Read(bytes.NewReader(data))
		require.ErrorIs(t, err, ErrInvalidPayloadSize)
	})

	t.Run("truncated", func(t *testing.T) {
		data := buf.Bytes()

		_, err := Read(bytes.NewReader(data[:len(data)-5]))
		require.Error(t, err)
	})
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	tr := buildTree(t, 300)

	require.NoError(t, Save(ctx, store, "snap/001.orm", tr))

	restored, err := Load(ctx, store, "snap/001.orm")
	require.NoError(t, err)

	_, err = restored.Check()
	require.NoError(t, err)
	require.Equal(t, tr.Dump(), restored.Dump())

	_, err = Load(ctx, store, "snap/missing.orm")
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}
