package wal

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

var (
	walMagic         = [4]byte{'O', 'M', 'W', '0'}
	walHeaderVersion = uint16(1)
)

const walHeaderLen = 16

type walHeaderInfo struct {
	Compressed       bool
	CompressionLevel int
}

func writeWALHeader(w io.Writer, info walHeaderInfo) (int64, error) {
	var flags uint16
	if info.Compressed {
		flags |= 1
	}

	var level uint8
	if info.Compressed {
		level = uint8(info.CompressionLevel)
	}

	buf := make([]byte, walHeaderLen)
	copy(buf, walMagic[:])
	binary.LittleEndian.PutUint16(buf[4:6], walHeaderVersion)
	binary.LittleEndian.PutUint16(buf[6:8], flags)
	buf[8] = level
	// buf[9:16] reserved

	if _, err := w.Write(buf); err != nil {
		return 0, fmt.Errorf("failed to write WAL header: %w", err)
	}

	return walHeaderLen, nil
}

// readWALHeader reads the file header. The boolean result reports whether
// the file contained any header bytes at all (false for an empty file).
func readWALHeader(f *os.File) (walHeaderInfo, bool, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return walHeaderInfo{}, false, fmt.Errorf("failed to seek WAL: %w", err)
	}

	buf := make([]byte, walHeaderLen)
	if _, err := io.ReadFull(f, buf); err != nil {
		if err == io.EOF {
			return walHeaderInfo{}, false, nil
		}

		return walHeaderInfo{}, true, fmt.Errorf("failed to read WAL header: %w", err)
	}

	if [4]byte(buf[:4]) != walMagic {
		return walHeaderInfo{}, true, fmt.Errorf("unsupported WAL format: invalid header magic")
	}

	if version := binary.LittleEndian.Uint16(buf[4:6]); version != walHeaderVersion {
		return walHeaderInfo{}, true, fmt.Errorf("unsupported WAL header version: %d", version)
	}

	flags := binary.LittleEndian.Uint16(buf[6:8])

	return walHeaderInfo{
		Compressed:       (flags & 1) != 0,
		CompressionLevel: int(buf[8]),
	}, true, nil
}
