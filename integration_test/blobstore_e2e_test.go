package integration_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ordmap"
	"github.com/hupe1980/ordmap/blobstore"
	"github.com/hupe1980/ordmap/snapshot"
	"github.com/hupe1980/ordmap/testutil"
)

// TestSnapshotThroughLocalStore saves a snapshot through the mmap-backed
// local store and loads it back through a caching layer.
func TestSnapshotThroughLocalStore(t *testing.T) {
	ctx := context.Background()

	local, err := blobstore.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	store := blobstore.NewCachingStore(local, 1<<20)

	entries := testutil.NewRNG(271).Entries(5000)

	m, err := ordmap.New(ordmap.WithCapacity(len(entries)))
	require.NoError(t, err)

	for _, e := range entries {
		_, _, err := m.Put(e.Key, e.Value)
		require.NoError(t, err)
	}

	require.NoError(t, m.SaveSnapshot(ctx, store, "e2e.snap"))

	restored, err := ordmap.LoadSnapshot(ctx, store, "e2e.snap")
	require.NoError(t, err)

	require.NoError(t, restored.Check())
	require.Equal(t, len(entries), restored.Len())

	for _, e := range entries {
		v, ok := restored.Get(e.Key)
		require.True(t, ok)
		assert.Equal(t, e.Value, v)
	}
}

func TestSnapshotCompressionModes(t *testing.T) {
	ctx := context.Background()

	modes := map[string]snapshot.Compression{
		"none": snapshot.CompressionNone,
		"zstd": snapshot.CompressionZstd,
		"lz4":  snapshot.CompressionLZ4,
	}

	entries := testutil.NewRNG(7).Entries(2000)

	for name, mode := range modes {
		t.Run(name, func(t *testing.T) {
			store := blobstore.NewMemoryStore()

			m, err := ordmap.New(ordmap.WithSnapshotOptions(func(o *snapshot.Options) {
				o.Compression = mode
			}))
			require.NoError(t, err)

			for _, e := range entries {
				_, _, err := m.Put(e.Key, e.Value)
				require.NoError(t, err)
			}

			require.NoError(t, m.SaveSnapshot(ctx, store, "c.snap"))

			restored, err := ordmap.LoadSnapshot(ctx, store, "c.snap")
			require.NoError(t, err)
			assert.Equal(t, len(entries), restored.Len())
		})
	}
}
