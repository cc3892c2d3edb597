package blobstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocalStore(t *testing.T) {
	ctx := context.Background()

	newStore := func(t *testing.T) *LocalStore {
		t.Helper()

		s, err := NewLocalStore(t.TempDir())
		require.NoError(t, err)

		return s
	}

	t.Run("put and open", func(t *testing.T) {
		s := newStore(t)

		require.NoError(t, s.Put(ctx, "seg/a.bin", []byte("payload")))

		b, err := s.Open(ctx, "seg/a.bin")
		require.NoError(t, err)
		defer func() { require.NoError(t, b.Close()) }()

		require.Equal(t, int64(7), b.Size())

		buf := make([]byte, 7)
		n, err := b.ReadAt(ctx, buf, 0)
		require.NoError(t, err)
		require.Equal(t, 7, n)
		require.Equal(t, []byte("payload"), buf)
	})

	t.Run("open missing returns ErrNotFound", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Open(ctx, "nope.bin")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("create is invisible until close", func(t *testing.T) {
		s := newStore(t)

		w, err := s.Create(ctx, "b.bin")
		require.NoError(t, err)

		_, err = w.Write([]byte("half"))
		require.NoError(t, err)

		_, err = s.Open(ctx, "b.bin")
		require.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, w.Close())

		b, err := s.Open(ctx, "b.bin")
		require.NoError(t, err)
		require.NoError(t, b.Close())
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)

		require.NoError(t, s.Put(ctx, "c.bin", []byte("x")))
		require.NoError(t, s.Delete(ctx, "c.bin"))
		require.NoError(t, s.Delete(ctx, "c.bin")) // idempotent

		_, err := s.Open(ctx, "c.bin")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list with prefix", func(t *testing.T) {
		s := newStore(t)

		require.NoError(t, s.Put(ctx, "snap/001.bin", []byte("a")))
		require.NoError(t, s.Put(ctx, "snap/002.bin", []byte("b")))
		require.NoError(t, s.Put(ctx, "wal/000.log", []byte("c")))

		names, err := s.List(ctx, "snap/")
		require.NoError(t, err)
		require.Equal(t, []string{"snap/001.bin", "snap/002.bin"}, names)

		all, err := s.List(ctx, "")
		require.NoError(t, err)
		require.Len(t, all, 3)
	})

	t.Run("rate limited writes complete", func(t *testing.T) {
		s, err := NewLocalStore(t.TempDir(), func(o *LocalStoreOptions) {
			o.WriteBytesPerSecond = 1 << 20
		})
		require.NoError(t, err)

		cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		require.NoError(t, s.Put(cctx, "limited.bin", make([]byte, 4096)))

		b, err := s.Open(ctx, "limited.bin")
		require.NoError(t, err)
		require.Equal(t, int64(4096), b.Size())
		require.NoError(t, b.Close())
	})
}
