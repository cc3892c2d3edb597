package wal

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

// Entry frame: [Type:1][SeqNum:8][Key:8][Value:8][CRC32:4], little-endian.
// The CRC covers the first 25 bytes and catches torn or corrupted tails.
const entryFrameLen = 29

// ErrCorruptEntry is returned when an entry fails its CRC check.
var ErrCorruptEntry = errors.New("wal: corrupt entry")

func encodeEntry(w io.Writer, entry *Entry) error {
	if entry.Type > OpCheckpoint {
		return fmt.Errorf("wal: unknown entry type: %d", entry.Type)
	}

	var buf [entryFrameLen]byte

	buf[0] = byte(entry.Type)
	binary.LittleEndian.PutUint64(buf[1:], entry.SeqNum)
	binary.LittleEndian.PutUint64(buf[9:], entry.Key)
	binary.LittleEndian.PutUint64(buf[17:], entry.Value)
	binary.LittleEndian.PutUint32(buf[25:], crc32.ChecksumIEEE(buf[:25]))

	_, err := w.Write(buf[:])

	return err
}

func decodeEntry(r io.Reader, entry *Entry) error {
	var buf [entryFrameLen]byte

	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}

	if crc32.ChecksumIEEE(buf[:25]) != binary.LittleEndian.Uint32(buf[25:]) {
		return ErrCorruptEntry
	}

	entry.Type = OperationType(buf[0])
	entry.SeqNum = binary.LittleEndian.Uint64(buf[1:])
	entry.Key = binary.LittleEndian.Uint64(buf[9:])
	entry.Value = binary.LittleEndian.Uint64(buf[17:])

	if entry.Type > OpCheckpoint {
		return fmt.Errorf("%w: unknown entry type %d", ErrCorruptEntry, entry.Type)
	}

	return nil
}
