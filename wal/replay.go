package wal

import (
	"errors"
	"fmt"
	"io"
)

// Replay applies every logged operation to the callback in log order.
//
// Checkpoint markers are skipped: entries before a marker are already
// covered by the matching snapshot, and re-applying a Put or Remove on top
// of that snapshot is idempotent. A torn tail (a crash mid-append) ends
// the replay cleanly; corruption elsewhere is reported.
func (w *WAL) Replay(callback func(entry Entry) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	reader, err := w.entryReader()
	if err != nil {
		return err
	}

	for {
		var entry Entry

		if err := decodeEntry(reader, &entry); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, ErrCorruptEntry) {
				break
			}

			return fmt.Errorf("WAL corrupted at entry: %w", err)
		}

		if entry.Type == OpCheckpoint {
			continue
		}

		if err := callback(entry); err != nil {
			return fmt.Errorf("failed to replay entry %d: %w", entry.SeqNum, err)
		}
	}

	_, err = w.file.Seek(0, io.SeekEnd)

	return err
}
