package wal

import "time"

// DurabilityMode defines the fsync behavior for WAL writes.
type DurabilityMode int

const (
	// DurabilityAsync performs no fsync. Fastest writes, but entries since
	// the last flush are lost on crash.
	DurabilityAsync DurabilityMode = iota

	// DurabilityGroupCommit batches fsyncs at regular intervals, amortizing
	// their cost across operations. Recommended for most workloads.
	DurabilityGroupCommit

	// DurabilitySync fsyncs after every operation. Slowest but strongest
	// guarantee.
	DurabilitySync
)

// OperationType represents the type of operation in the WAL.
type OperationType uint8

const (
	// OpPut records a key/value insertion or replacement.
	OpPut OperationType = iota
	// OpRemove records a key removal.
	OpRemove
	// OpCheckpoint marks the point up to which a snapshot has been taken.
	OpCheckpoint
)

// Entry represents a single entry in the WAL.
type Entry struct {
	Type   OperationType
	Key    uint64
	Value  uint64 // unused for OpRemove and OpCheckpoint
	SeqNum uint64 // sequence number for ordering
}

// Options contains configuration for the WAL.
type Options struct {
	// Path is the directory where the WAL file is stored.
	Path string

	// Compress enables zstd stream compression.
	Compress bool

	// CompressionLevel sets the zstd compression level (1-22). The default
	// (3) balances ratio against write latency.
	CompressionLevel int

	// AutoCheckpointOps triggers the checkpoint callback after N logged
	// operations. Zero disables operation-based checkpoints.
	AutoCheckpointOps int

	// AutoCheckpointMB triggers the checkpoint callback when the WAL file
	// exceeds N megabytes. Zero disables size-based checkpoints.
	AutoCheckpointMB int

	// DurabilityMode controls fsync behavior.
	DurabilityMode DurabilityMode

	// GroupCommitInterval is the maximum time to wait before fsync in
	// GroupCommit mode.
	GroupCommitInterval time.Duration

	// GroupCommitMaxOps is the maximum number of operations to batch before
	// fsync in GroupCommit mode.
	GroupCommitMaxOps int
}

// DefaultOptions returns default WAL options.
var DefaultOptions = Options{
	Path:                ".",
	Compress:            false,
	CompressionLevel:    3,
	AutoCheckpointOps:   10000,
	AutoCheckpointMB:    100,
	DurabilityMode:      DurabilityGroupCommit,
	GroupCommitInterval: 10 * time.Millisecond,
	GroupCommitMaxOps:   100,
}
