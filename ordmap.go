package ordmap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hupe1980/ordmap/blobstore"
	"github.com/hupe1980/ordmap/rbtree"
	"github.com/hupe1980/ordmap/snapshot"
	"github.com/hupe1980/ordmap/wal"
)

// Entry is a key/value pair reported by queries and iterators.
type Entry = rbtree.Entry

// Map is an ordered uint64 map with order-statistic queries. It is safe for
// concurrent use: reads run under a shared lock, mutations under an
// exclusive one.
type Map struct {
	mu      sync.RWMutex
	tree    *rbtree.Tree
	wal     *wal.WAL
	logger  *Logger
	metrics MetricsCollector

	snapshotPath    string
	snapshotOptions []func(*snapshot.Options)

	closed bool
}

// New creates a Map. If a snapshot path is configured and the file exists,
// the map starts from that snapshot; if a WAL is configured, the log is
// replayed on top.
func New(optFns ...Option) (*Map, error) {
	opts := applyOptions(optFns)

	tree, err := openTree(opts)
	if err != nil {
		return nil, err
	}

	m := &Map{
		tree:            tree,
		logger:          opts.logger,
		metrics:         opts.metricsCollector,
		snapshotPath:    opts.snapshotPath,
		snapshotOptions: opts.snapshotOptions,
	}

	if opts.walPath != "" {
		walOpts := append([]func(*wal.Options){func(o *wal.Options) {
			o.Path = opts.walPath
		}}, opts.walOptions...)

		w, err := wal.New(walOpts...)
		if err != nil {
			return nil, translateError(err)
		}

		replayed := 0

		err = w.Replay(func(entry wal.Entry) error {
			replayed++

			switch entry.Type {
			case wal.OpPut:
				_, _, err := m.tree.Put(entry.Key, entry.Value)
				return err
			case wal.OpRemove:
				m.tree.Remove(entry.Key)
				return nil
			default:
				return nil
			}
		})

		m.logger.LogRecovery(context.Background(), replayed, err)

		if err != nil {
			_ = w.Close()
			return nil, translateError(err)
		}

		m.wal = w
	}

	return m, nil
}

func openTree(opts options) (*rbtree.Tree, error) {
	if opts.snapshotPath != "" {
		f, err := os.Open(opts.snapshotPath)

		switch {
		case err == nil:
			defer f.Close()
			return snapshot.Read(f)

		case os.IsNotExist(err):
			// Fresh map; fall through.

		default:
			return nil, fmt.Errorf("open snapshot: %w", err)
		}
	}

	return rbtree.New(
		rbtree.WithMaxNodes(opts.maxNodes),
		rbtree.WithCapacity(opts.capacity),
	), nil
}

// Put associates value with key, replacing any previous value. It reports
// the previous value and whether a replacement occurred.
func (m *Map) Put(key, value uint64) (old uint64, replaced bool, err error) {
	start := time.Now()

	defer func() {
		m.metrics.RecordPut(time.Since(start), err)
		m.logger.LogPut(context.Background(), key, replaced, err)
	}()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, false, ErrClosed
	}

	if m.wal != nil {
		// Reject before logging: an entry the tree cannot apply would make
		// every future replay fail at the same point.
		if m.tree.Full() && !m.tree.Contains(key) {
			return 0, false, ErrFull
		}

		if err := m.wal.LogPut(key, value); err != nil {
			return 0, false, translateError(err)
		}
	}

	replaced, old, err = m.tree.Put(key, value)
	if err != nil {
		return 0, false, translateError(err)
	}

	m.maybeCheckpointLocked()

	return old, replaced, nil
}

// PutIfAbsent associates value with key only if the key is absent. It
// returns the value now associated with the key.
func (m *Map) PutIfAbsent(key, value uint64) (current uint64, err error) {
	start := time.Now()

	defer func() {
		m.metrics.RecordPut(time.Since(start), err)
	}()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrClosed
	}

	if m.wal != nil && !m.tree.Contains(key) {
		if m.tree.Full() {
			return 0, ErrFull
		}

		if err := m.wal.LogPut(key, value); err != nil {
			return 0, translateError(err)
		}
	}

	current, err = m.tree.PutIfAbsent(key, value)
	if err != nil {
		return 0, translateError(err)
	}

	m.maybeCheckpointLocked()

	return current, nil
}

// Remove deletes key from the map. It reports the removed value and
// whether the key was present; removing an absent key is not an error.
func (m *Map) Remove(key uint64) (old uint64, removed bool, err error) {
	start := time.Now()

	defer func() {
		m.metrics.RecordRemove(time.Since(start), err)
		m.logger.LogRemove(context.Background(), key, removed, err)
	}()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, false, ErrClosed
	}

	if !m.tree.Contains(key) {
		return 0, false, nil
	}

	if m.wal != nil {
		if err := m.wal.LogRemove(key); err != nil {
			return 0, false, translateError(err)
		}
	}

	removed, old = m.tree.Remove(key)

	m.maybeCheckpointLocked()

	return old, removed, nil
}

// Get returns the value associated with key.
func (m *Map) Get(key uint64) (uint64, bool) {
	start := time.Now()

	m.mu.RLock()
	v, ok := m.tree.Get(key)
	m.mu.RUnlock()

	m.metrics.RecordLookup(time.Since(start), ok)

	return v, ok
}

// GetOrDefault returns the value associated with key, or def if absent.
func (m *Map) GetOrDefault(key, def uint64) uint64 {
	v, ok := m.Get(key)
	if !ok {
		return def
	}

	return v
}

// Contains reports whether key is present.
func (m *Map) Contains(key uint64) bool {
	_, ok := m.Get(key)
	return ok
}

// Len returns the number of keys in the map.
func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.tree.Len()
}

// First returns the entry with the smallest key.
func (m *Map) First() (Entry, bool) {
	return m.query(func(t *rbtree.Tree) (Entry, bool) { return t.FirstEntry() })
}

// Last returns the entry with the largest key.
func (m *Map) Last() (Entry, bool) {
	return m.query(func(t *rbtree.Tree) (Entry, bool) { return t.LastEntry() })
}

// Floor returns the entry with the greatest key <= key.
func (m *Map) Floor(key uint64) (Entry, bool) {
	return m.query(func(t *rbtree.Tree) (Entry, bool) { return t.FloorEntry(key) })
}

// Ceiling returns the entry with the smallest key >= key.
func (m *Map) Ceiling(key uint64) (Entry, bool) {
	return m.query(func(t *rbtree.Tree) (Entry, bool) { return t.CeilingEntry(key) })
}

// Lower returns the entry with the greatest key < key.
func (m *Map) Lower(key uint64) (Entry, bool) {
	return m.query(func(t *rbtree.Tree) (Entry, bool) { return t.LowerEntry(key) })
}

// Higher returns the entry with the smallest key > key.
func (m *Map) Higher(key uint64) (Entry, bool) {
	return m.query(func(t *rbtree.Tree) (Entry, bool) { return t.HigherEntry(key) })
}

// Select returns the entry with the i-th smallest key (0-based).
func (m *Map) Select(i int) (Entry, bool) {
	return m.query(func(t *rbtree.Tree) (Entry, bool) { return t.Select(i) })
}

// Rank returns the number of keys strictly less than key, and whether the
// key itself is present. For an absent key the rank is its insertion point.
func (m *Map) Rank(key uint64) (int, bool) {
	start := time.Now()

	m.mu.RLock()
	rank, ok := m.tree.Rank(key)
	m.mu.RUnlock()

	m.metrics.RecordQuery(time.Since(start))

	return rank, ok
}

func (m *Map) query(fn func(t *rbtree.Tree) (Entry, bool)) (Entry, bool) {
	start := time.Now()

	m.mu.RLock()
	e, ok := fn(m.tree)
	m.mu.RUnlock()

	m.metrics.RecordQuery(time.Since(start))

	return e, ok
}

// Ascend calls fn for each entry in ascending key order until fn returns
// false. The map is locked for reading for the duration.
func (m *Map) Ascend(fn func(key, value uint64) bool) {
	start := time.Now()

	m.mu.RLock()
	m.tree.Ascend(fn)
	m.mu.RUnlock()

	m.metrics.RecordQuery(time.Since(start))
}

// Descend calls fn for each entry in descending key order until fn returns
// false. The map is locked for reading for the duration.
func (m *Map) Descend(fn func(key, value uint64) bool) {
	start := time.Now()

	m.mu.RLock()
	m.tree.Descend(fn)
	m.mu.RUnlock()

	m.metrics.RecordQuery(time.Since(start))
}

// SaveSnapshot writes a snapshot of the map to the named blob.
func (m *Map) SaveSnapshot(ctx context.Context, store blobstore.Store, name string) (err error) {
	start := time.Now()

	defer func() {
		m.metrics.RecordSnapshot(time.Since(start), err)
		m.logger.LogSnapshot(ctx, name, err)
	}()

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return ErrClosed
	}

	return translateError(snapshot.Save(ctx, store, name, m.tree, m.snapshotOptions...))
}

// LoadSnapshot creates a Map from a snapshot blob. The usual options
// apply, except that capacity settings come from the snapshot itself.
func LoadSnapshot(ctx context.Context, store blobstore.Store, name string, optFns ...Option) (*Map, error) {
	opts := applyOptions(optFns)

	tree, err := snapshot.Load(ctx, store, name)
	if err != nil {
		return nil, translateError(err)
	}

	return &Map{
		tree:            tree,
		logger:          opts.logger,
		metrics:         opts.metricsCollector,
		snapshotPath:    opts.snapshotPath,
		snapshotOptions: opts.snapshotOptions,
	}, nil
}

// Checkpoint writes a snapshot to the configured snapshot path and
// truncates the WAL. It is also invoked automatically when WAL
// auto-checkpoint thresholds are crossed.
func (m *Map) Checkpoint() (err error) {
	start := time.Now()

	defer func() {
		m.metrics.RecordSnapshot(time.Since(start), err)
		m.logger.LogSnapshot(context.Background(), m.snapshotPath, err)
	}()

	if m.snapshotPath == "" {
		return fmt.Errorf("ordmap: no snapshot path configured")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	return m.checkpointLocked()
}

// maybeCheckpointLocked runs an auto-checkpoint if the WAL reports a
// threshold crossed. It is called after a mutation has been applied to the
// tree, so the snapshot always contains the entry that tripped the
// threshold. Caller must hold m.mu. A failed checkpoint is logged rather
// than returned: the operation itself is applied and WAL-durable, and the
// sticky due-signal retries on the next mutation.
func (m *Map) maybeCheckpointLocked() {
	if m.wal == nil || m.snapshotPath == "" || !m.wal.CheckpointDue() {
		return
	}

	if err := m.checkpointLocked(); err != nil {
		m.logger.LogSnapshot(context.Background(), m.snapshotPath, err)
	}
}

// checkpointLocked snapshots the tree and truncates the WAL. Caller must
// hold m.mu.
func (m *Map) checkpointLocked() error {
	if err := m.writeSnapshotFileLocked(); err != nil {
		return err
	}

	if m.wal != nil {
		return translateError(m.wal.Checkpoint())
	}

	return nil
}

// writeSnapshotFileLocked writes the snapshot to a temp file and renames
// it into place. Caller must hold m.mu.
func (m *Map) writeSnapshotFileLocked() error {
	dir := filepath.Dir(m.snapshotPath)

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(m.snapshotPath)+".tmp*")
	if err != nil {
		return err
	}

	if err := snapshot.Write(f, m.tree, m.snapshotOptions...); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())

		return err
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())

		return err
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return err
	}

	return os.Rename(f.Name(), m.snapshotPath)
}

// Check verifies the engine's structural invariants. It exists for tests
// and debugging.
func (m *Map) Check() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, err := m.tree.Check()

	return err
}

// Dump returns a per-node description of the underlying tree for
// debugging.
func (m *Map) Dump() []rbtree.NodeInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.tree.Dump()
}

// Close flushes and releases the WAL. The map is unusable afterwards.
// Close is idempotent.
func (m *Map) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}

	m.closed = true

	if m.wal != nil {
		return translateError(m.wal.Close())
	}

	return nil
}
