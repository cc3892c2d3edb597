package ordmap

import (
	"log/slog"

	"github.com/hupe1980/ordmap/rbtree"
	"github.com/hupe1980/ordmap/snapshot"
	"github.com/hupe1980/ordmap/wal"
)

type options struct {
	maxNodes         uint32
	capacity         int
	metricsCollector MetricsCollector
	logger           *Logger
	walPath          string
	walOptions       []func(*wal.Options)
	snapshotPath     string
	snapshotOptions  []func(*snapshot.Options)
}

// Option configures Map constructor behavior.
type Option func(*options)

// WithMaxNodes caps the number of key slots the map may allocate over its
// lifetime. Removed keys burn their slot; see rbtree.WithMaxNodes.
func WithMaxNodes(n uint32) Option {
	return func(o *options) {
		o.maxNodes = n
	}
}

// WithCapacity pre-sizes internal storage for n keys to avoid growth
// reallocation during bulk loading.
func WithCapacity(n int) Option {
	return func(o *options) {
		o.capacity = n
	}
}

// WithWAL enables write-ahead logging in the given directory. Every Put and
// Remove is appended to the log before it is applied; on startup the log is
// replayed so the map recovers from crashes.
//
// Example:
//
//	m, _ := ordmap.New(
//	    ordmap.WithWAL("./wal", func(o *wal.Options) {
//	        o.DurabilityMode = wal.DurabilitySync
//	    }),
//	)
func WithWAL(path string, optFns ...func(*wal.Options)) Option {
	return func(o *options) {
		o.walPath = path
		o.walOptions = optFns
	}
}

// WithSnapshotPath configures the file used for snapshots. If the file
// exists, New loads it before replaying the WAL. When set together with WAL
// auto-checkpoint thresholds (AutoCheckpointOps, AutoCheckpointMB), the map
// snapshots itself and truncates the log when a threshold is crossed.
func WithSnapshotPath(path string) Option {
	return func(o *options) {
		o.snapshotPath = path
	}
}

// WithSnapshotOptions configures how snapshots are written (e.g. the
// compression mode).
func WithSnapshotOptions(optFns ...func(*snapshot.Options)) Option {
	return func(o *options) {
		o.snapshotOptions = optFns
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
//
// Example:
//
//	metrics := &ordmap.BasicMetricsCollector{}
//	m, _ := ordmap.New(ordmap.WithMetricsCollector(metrics))
//	// ... use m ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations. Pass nil to
// disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		maxNodes:         rbtree.MaxNodes,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}

	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}

	return o
}
