package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// MagicNumber identifies snapshot files (ASCII: "ORM0").
	MagicNumber = 0x4F524D30
	// Version is the current file format version (v1.0.0).
	Version = 0x00010000

	headerSize = 32
	recordSize = 32
)

// Compression selects how node records are stored.
type Compression uint8

const (
	// CompressionNone stores node records uncompressed.
	CompressionNone Compression = 0
	// CompressionZstd stores node records as a zstd block (better ratio).
	CompressionZstd Compression = 1
	// CompressionLZ4 stores node records as an LZ4 block (faster).
	CompressionLZ4 Compression = 2
)

var (
	ErrInvalidMagic       = errors.New("snapshot: invalid magic number")
	ErrInvalidVersion     = errors.New("snapshot: unsupported version")
	ErrInvalidCompression = errors.New("snapshot: unknown compression mode")
	ErrInvalidPayloadSize = errors.New("snapshot: payload size exceeds slot count")
	ErrTruncated          = errors.New("snapshot: truncated file")
)

// fileHeader is the fixed-size header at the start of every snapshot.
// All integers are little-endian.
type fileHeader struct {
	Magic       uint32
	Version     uint32
	Compression Compression
	SlotCount   uint32 // node records following the header
	PayloadSize uint64 // stored (possibly compressed) record bytes
	Root        uint32
	MaxNodes    uint32
}

func (h *fileHeader) marshal() []byte {
	buf := make([]byte, headerSize)

	binary.LittleEndian.PutUint32(buf[0:], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:], h.Version)
	buf[8] = byte(h.Compression)
	binary.LittleEndian.PutUint32(buf[12:], h.SlotCount)
	binary.LittleEndian.PutUint64(buf[16:], h.PayloadSize)
	binary.LittleEndian.PutUint32(buf[24:], h.Root)
	binary.LittleEndian.PutUint32(buf[28:], h.MaxNodes)

	return buf
}

func (h *fileHeader) unmarshal(buf []byte) error {
	if len(buf) < headerSize {
		return ErrTruncated
	}

	h.Magic = binary.LittleEndian.Uint32(buf[0:])
	h.Version = binary.LittleEndian.Uint32(buf[4:])
	h.Compression = Compression(buf[8])
	h.SlotCount = binary.LittleEndian.Uint32(buf[12:])
	h.PayloadSize = binary.LittleEndian.Uint64(buf[16:])
	h.Root = binary.LittleEndian.Uint32(buf[24:])
	h.MaxNodes = binary.LittleEndian.Uint32(buf[28:])

	if h.Magic != MagicNumber {
		return fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, h.Magic)
	}

	if h.Version != Version {
		return fmt.Errorf("%w: got 0x%08x", ErrInvalidVersion, h.Version)
	}

	if h.Compression > CompressionLZ4 {
		return fmt.Errorf("%w: got %d", ErrInvalidCompression, h.Compression)
	}

	// The compressor falls back to storing raw records when compression
	// does not shrink them, so a stored payload can never exceed the raw
	// record bytes. Checked before the payload is allocated: the checksum
	// only runs after the full read, too late to stop a hostile size.
	if h.PayloadSize > uint64(h.SlotCount)*recordSize {
		return fmt.Errorf("%w: %d bytes for %d slots", ErrInvalidPayloadSize, h.PayloadSize, h.SlotCount)
	}

	return nil
}
