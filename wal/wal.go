// Package wal provides write-ahead logging for durability and crash
// recovery.
//
// Every mutation is appended to the log before it is applied, so a crash
// can be recovered by replaying the log over the last snapshot. Checkpoints
// truncate the log once a snapshot has made its contents redundant.
package wal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// FileName is the name of the WAL file inside Options.Path.
const FileName = "ordmap.wal"

// WAL provides write-ahead logging for durability.
type WAL struct {
	mu               sync.Mutex
	file             *os.File
	writer           io.Writer
	bufWriter        *bufio.Writer
	compressor       *zstd.Encoder
	decompressor     *zstd.Decoder
	seqNum           uint64
	filePath         string
	compressed       bool
	compressionLevel int
	dataOffset       int64 // start of the entry stream, after the header

	// Auto-checkpoint tracking.
	autoCheckpointOps int
	autoCheckpointMB  int
	loggedOps         int
	checkpointDue     bool

	// Group commit worker lifecycle.
	durabilityMode      DurabilityMode
	groupCommitInterval time.Duration
	groupCommitMaxOps   int
	groupCommitTicker   *time.Ticker
	groupCommitStopCh   chan struct{}
	groupCommitPending  int
	groupCommitWg       sync.WaitGroup

	syncCond        *sync.Cond
	persistedSeqNum uint64
}

// New opens or creates a WAL.
func New(optFns ...func(o *Options)) (*WAL, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	// Without a ticker worker, group-commit waiters below the op threshold
	// would block until the threshold is reached.
	if opts.DurabilityMode == DurabilityGroupCommit && opts.GroupCommitInterval <= 0 {
		opts.GroupCommitInterval = DefaultOptions.GroupCommitInterval
	}

	if err := os.MkdirAll(opts.Path, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create WAL directory: %w", err)
	}

	filePath := filepath.Join(opts.Path, FileName)

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAL file: %w", err)
	}

	st, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat WAL file: %w", err)
	}

	w := &WAL{
		file:                file,
		filePath:            filePath,
		compressionLevel:    opts.CompressionLevel,
		autoCheckpointOps:   opts.AutoCheckpointOps,
		autoCheckpointMB:    opts.AutoCheckpointMB,
		durabilityMode:      opts.DurabilityMode,
		groupCommitInterval: opts.GroupCommitInterval,
		groupCommitMaxOps:   opts.GroupCommitMaxOps,
	}
	w.syncCond = sync.NewCond(&w.mu)

	if err := w.initializeFile(st, opts); err != nil {
		_ = file.Close()
		return nil, err
	}

	if _, err := w.file.Seek(w.dataOffset, io.SeekStart); err != nil {
		_ = w.file.Close()
		return nil, fmt.Errorf("failed to seek WAL data offset: %w", err)
	}

	if err := w.setupCodecs(); err != nil {
		_ = file.Close()
		return nil, err
	}

	if err := w.scanForSeqNum(); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to scan WAL: %w", err)
	}

	if w.durabilityMode == DurabilityGroupCommit && w.groupCommitInterval > 0 {
		w.groupCommitStopCh = make(chan struct{})
		w.groupCommitTicker = time.NewTicker(w.groupCommitInterval)
		w.groupCommitWg.Add(1)

		go w.groupCommitWorker()
	}

	return w, nil
}

// FilePath returns the path to the WAL file.
func (w *WAL) FilePath() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.filePath
}

func (w *WAL) initializeFile(info os.FileInfo, opts Options) error {
	if info.Size() == 0 {
		hdrLen, err := writeWALHeader(w.file, walHeaderInfo{
			Compressed:       opts.Compress,
			CompressionLevel: opts.CompressionLevel,
		})
		if err != nil {
			return err
		}

		w.dataOffset = hdrLen
		w.compressed = opts.Compress

		return nil
	}

	hdrInfo, valid, err := readWALHeader(w.file)
	if err != nil {
		return err
	}

	if !valid {
		return errors.New("invalid WAL header")
	}

	w.dataOffset = walHeaderLen
	w.compressed = hdrInfo.Compressed
	w.compressionLevel = hdrInfo.CompressionLevel

	return nil
}

// setupCodecs wires the write path (and the decompressor used for replay).
// The file must be positioned at the end of the entry stream.
func (w *WAL) setupCodecs() error {
	if w.compressed {
		level := zstd.EncoderLevelFromZstd(w.compressionLevel)

		compressor, err := zstd.NewWriter(w.file, zstd.WithEncoderLevel(level))
		if err != nil {
			return fmt.Errorf("failed to create compressor: %w", err)
		}

		w.compressor = compressor
		w.bufWriter = bufio.NewWriter(compressor)
		w.writer = w.bufWriter

		decompressor, err := zstd.NewReader(nil)
		if err != nil {
			_ = compressor.Close()
			return fmt.Errorf("failed to create decompressor: %w", err)
		}

		w.decompressor = decompressor
	} else {
		w.bufWriter = bufio.NewWriter(w.file)
		w.writer = w.bufWriter
	}

	return nil
}

// entryReader positions the file at the entry stream and returns a reader
// over it. Caller must hold w.mu and seek back to the end afterwards.
func (w *WAL) entryReader() (io.Reader, error) {
	if _, err := w.file.Seek(w.dataOffset, io.SeekStart); err != nil {
		return nil, err
	}

	if w.compressed {
		if err := w.decompressor.Reset(w.file); err != nil {
			return nil, fmt.Errorf("failed to reset decompressor: %w", err)
		}

		return w.decompressor, nil
	}

	return bufio.NewReader(w.file), nil
}

// scanForSeqNum scans the WAL to find the highest sequence number.
func (w *WAL) scanForSeqNum() error {
	reader, err := w.entryReader()
	if err != nil {
		return err
	}

	var maxSeqNum uint64

	for {
		var entry Entry
		if err := decodeEntry(reader, &entry); err != nil {
			// EOF or a torn tail; either way the scan is done.
			break
		}

		if entry.SeqNum > maxSeqNum {
			maxSeqNum = entry.SeqNum
		}
	}

	w.seqNum = maxSeqNum

	_, err = w.file.Seek(0, io.SeekEnd)

	return err
}

// LogPut logs an insertion or replacement of key.
func (w *WAL) LogPut(key, value uint64) error {
	return w.logOperation(Entry{Type: OpPut, Key: key, Value: value})
}

// LogRemove logs a removal of key.
func (w *WAL) LogRemove(key uint64) error {
	return w.logOperation(Entry{Type: OpRemove, Key: key})
}

func (w *WAL) logOperation(entry Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.seqNum++
	entry.SeqNum = w.seqNum

	if err := encodeEntry(w.writer, &entry); err != nil {
		return fmt.Errorf("failed to encode WAL entry: %w", err)
	}

	if err := w.flushLocked(); err != nil {
		return err
	}

	w.loggedOps++

	if err := w.syncIfNeeded(); err != nil {
		return err
	}

	if w.thresholdCrossedLocked() {
		w.checkpointDue = true
	}

	return nil
}

func (w *WAL) flushLocked() error {
	if err := w.bufWriter.Flush(); err != nil {
		return fmt.Errorf("failed to flush buffer: %w", err)
	}

	if w.compressed {
		if err := w.compressor.Flush(); err != nil {
			return fmt.Errorf("failed to flush compressor: %w", err)
		}
	}

	return nil
}

// syncIfNeeded performs fsync based on the configured durability mode.
// Caller must hold w.mu.
func (w *WAL) syncIfNeeded() error {
	switch w.durabilityMode {
	case DurabilityAsync:
		return nil

	case DurabilitySync:
		return w.file.Sync()

	case DurabilityGroupCommit:
		w.groupCommitPending++
		targetSeq := w.seqNum

		if w.groupCommitPending >= w.groupCommitMaxOps {
			return w.doGroupCommit()
		}

		// Wait() releases w.mu so the background worker can sync.
		for w.persistedSeqNum < targetSeq {
			w.syncCond.Wait()
		}

		return nil

	default:
		return nil
	}
}

// doGroupCommit performs the batched fsync. Caller must hold w.mu.
func (w *WAL) doGroupCommit() error {
	if w.groupCommitPending == 0 {
		return nil
	}

	if err := w.file.Sync(); err != nil {
		return err
	}

	w.groupCommitPending = 0
	w.persistedSeqNum = w.seqNum
	w.syncCond.Broadcast()

	return nil
}

func (w *WAL) groupCommitWorker() {
	defer w.groupCommitWg.Done()

	for {
		select {
		case <-w.groupCommitStopCh:
			w.mu.Lock()
			_ = w.doGroupCommit()
			w.mu.Unlock()

			return

		case <-w.groupCommitTicker.C:
			w.mu.Lock()
			_ = w.doGroupCommit()
			w.mu.Unlock()
		}
	}
}

// Checkpoint writes a checkpoint marker and truncates the WAL. Call after
// a successful snapshot.
func (w *WAL) Checkpoint() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.seqNum++

	entry := Entry{Type: OpCheckpoint, SeqNum: w.seqNum}
	if err := encodeEntry(w.writer, &entry); err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := w.flushLocked(); err != nil {
		return err
	}

	// Checkpoint is an explicit durability boundary.
	if err := w.file.Sync(); err != nil {
		return err
	}

	return w.truncate()
}

// truncate replaces the WAL file with a fresh header-only one.
func (w *WAL) truncate() error {
	if err := w.bufWriter.Flush(); err != nil {
		return fmt.Errorf("failed to flush buffer: %w", err)
	}

	if w.compressed && w.compressor != nil {
		if err := w.compressor.Close(); err != nil {
			return fmt.Errorf("failed to close compressor: %w", err)
		}
	}

	if err := w.file.Close(); err != nil {
		return err
	}

	file, err := os.OpenFile(w.filePath, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to truncate WAL file: %w", err)
	}

	w.file = file

	hdrLen, err := writeWALHeader(w.file, walHeaderInfo{
		Compressed:       w.compressed,
		CompressionLevel: w.compressionLevel,
	})
	if err != nil {
		_ = w.file.Close()
		return err
	}

	w.dataOffset = hdrLen

	if w.compressed {
		level := zstd.EncoderLevelFromZstd(w.compressionLevel)

		compressor, err := zstd.NewWriter(file, zstd.WithEncoderLevel(level))
		if err != nil {
			_ = file.Close()
			return fmt.Errorf("failed to recreate compressor: %w", err)
		}

		w.compressor = compressor
		w.bufWriter = bufio.NewWriter(compressor)
		w.writer = w.bufWriter
	} else {
		w.bufWriter = bufio.NewWriter(file)
		w.writer = w.bufWriter
	}

	w.seqNum = 0
	w.persistedSeqNum = 0
	w.loggedOps = 0
	w.checkpointDue = false

	return nil
}

// Len returns the number of entries in the WAL.
func (w *WAL) Len() (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	reader, err := w.entryReader()
	if err != nil {
		return 0, err
	}

	count := 0

	for {
		var entry Entry
		if err := decodeEntry(reader, &entry); err != nil {
			break
		}

		count++
	}

	if _, err := w.file.Seek(0, io.SeekEnd); err != nil {
		return count, err
	}

	return count, nil
}

// CheckpointDue reports whether an auto-checkpoint threshold has been
// crossed since the last checkpoint. The caller is expected to snapshot
// its state and call Checkpoint after the triggering operation has been
// fully applied; checkpointing mid-operation would snapshot state that
// does not include the entry just logged, then truncate it away.
func (w *WAL) CheckpointDue() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.checkpointDue
}

// thresholdCrossedLocked checks the auto-checkpoint thresholds. Caller must
// hold w.mu.
func (w *WAL) thresholdCrossedLocked() bool {
	if w.autoCheckpointOps > 0 && w.loggedOps >= w.autoCheckpointOps {
		return true
	}

	if w.autoCheckpointMB > 0 {
		if stat, err := w.file.Stat(); err == nil {
			return stat.Size()/(1024*1024) >= int64(w.autoCheckpointMB)
		}
	}

	return false
}

// Close shuts down the group commit worker, flushes pending entries and
// closes the file. The WAL is unusable afterwards. Close is idempotent.
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}

	if w.groupCommitTicker != nil {
		close(w.groupCommitStopCh)
		w.mu.Unlock()
		w.groupCommitWg.Wait()
		w.mu.Lock()
		w.groupCommitTicker.Stop()
		w.groupCommitTicker = nil
	}

	if err := w.bufWriter.Flush(); err != nil {
		return fmt.Errorf("failed to flush buffer: %w", err)
	}

	if w.compressed && w.compressor != nil {
		if err := w.compressor.Close(); err != nil {
			return fmt.Errorf("failed to close compressor: %w", err)
		}
	}

	if w.decompressor != nil {
		w.decompressor.Close()
	}

	err := w.file.Close()
	w.file = nil

	return err
}
