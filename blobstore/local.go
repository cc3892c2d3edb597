package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/time/rate"

	"github.com/hupe1980/ordmap/internal/mmap"
)

// LocalStoreOptions configures a LocalStore.
type LocalStoreOptions struct {
	// WriteBytesPerSecond throttles blob writes to this rate. Zero means
	// unlimited.
	WriteBytesPerSecond int
}

// LocalStore implements Store on the local file system. Reads are served
// from memory-mapped files and writes go through a temp file followed by an
// atomic rename.
type LocalStore struct {
	root    string
	limiter *rate.Limiter
}

// NewLocalStore creates a LocalStore rooted at the given directory,
// creating it if needed.
func NewLocalStore(root string, optFns ...func(o *LocalStoreOptions)) (*LocalStore, error) {
	opts := LocalStoreOptions{}

	for _, fn := range optFns {
		fn(&opts)
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create store root: %w", err)
	}

	s := &LocalStore{root: root}
	if opts.WriteBytesPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.WriteBytesPerSecond), opts.WriteBytesPerSecond)
	}

	return s, nil
}

func (s *LocalStore) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// Open opens a blob for reading via mmap.
func (s *LocalStore) Open(_ context.Context, name string) (Blob, error) {
	m, err := mmap.Open(s.path(name))
	if err != nil {
		// errors.Is, not os.IsNotExist: mmap.Open wraps the PathError.
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	return &localBlob{m: m}, nil
}

// Create creates a new blob. Data is written to a temp file in the same
// directory and renamed into place on Close.
func (s *LocalStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	path := s.path(name)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return nil, err
	}

	return &localWritableBlob{
		ctx:     ctx,
		f:       f,
		path:    path,
		limiter: s.limiter,
	}, nil
}

// Put writes a blob atomically.
func (s *LocalStore) Put(ctx context.Context, name string, data []byte) error {
	w, err := s.Create(ctx, name)
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return err
	}

	return w.Close()
}

// Delete removes a blob.
func (s *LocalStore) Delete(_ context.Context, name string) error {
	if err := os.Remove(s.path(name)); err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}

// List returns all blob names under the root with the given prefix.
func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	var names []string

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}

		name := filepath.ToSlash(rel)
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(names)

	return names, nil
}

type localBlob struct {
	m *mmap.File
}

func (b *localBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	if off < 0 || off >= b.m.Size() {
		return 0, io.EOF
	}

	return b.m.ReadAt(p, off)
}

func (b *localBlob) Size() int64 {
	return b.m.Size()
}

func (b *localBlob) Bytes() []byte {
	return b.m.Data
}

func (b *localBlob) Close() error {
	return b.m.Close()
}

type localWritableBlob struct {
	ctx     context.Context
	f       *os.File
	path    string
	limiter *rate.Limiter
	closed  bool
}

func (w *localWritableBlob) Write(p []byte) (int, error) {
	if w.limiter != nil {
		// Wait in burst-sized chunks so writes larger than the burst
		// still make progress.
		for waited, burst := 0, w.limiter.Burst(); waited < len(p); waited += burst {
			n := min(len(p)-waited, burst)
			if err := w.limiter.WaitN(w.ctx, n); err != nil {
				return 0, err
			}
		}
	}

	return w.f.Write(p)
}

func (w *localWritableBlob) Sync() error {
	return w.f.Sync()
}

func (w *localWritableBlob) Close() error {
	if w.closed {
		return nil
	}

	w.closed = true

	if err := w.f.Sync(); err != nil {
		_ = w.f.Close()
		_ = os.Remove(w.f.Name())

		return err
	}

	if err := w.f.Close(); err != nil {
		_ = os.Remove(w.f.Name())
		return err
	}

	return os.Rename(w.f.Name(), w.path)
}
