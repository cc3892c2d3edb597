package snapshot

import (
	"errors"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

var (
	zstdEncoderOnce sync.Once
	zstdEncoder     *zstd.Encoder
	zstdDecoderOnce sync.Once
	zstdDecoder     *zstd.Decoder
)

func getZstdEncoder() *zstd.Encoder {
	zstdEncoderOnce.Do(func() {
		// Level balances ratio against snapshot write latency.
		zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	})

	return zstdEncoder
}

func getZstdDecoder() *zstd.Decoder {
	zstdDecoderOnce.Do(func() {
		zstdDecoder, _ = zstd.NewReader(nil)
	})

	return zstdDecoder
}

// compress encodes data per the requested mode and returns the stored bytes
// together with the mode actually used. Incompressible data falls back to
// CompressionNone so the reader never sees a grown payload.
func compress(data []byte, mode Compression) ([]byte, Compression, error) {
	if mode == CompressionNone || len(data) == 0 {
		return data, CompressionNone, nil
	}

	var compressed []byte

	switch mode {
	case CompressionZstd:
		compressed = getZstdEncoder().EncodeAll(data, nil)
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))

		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, 0, err
		}

		compressed = buf[:n] // n == 0 means incompressible
	default:
		return nil, 0, ErrInvalidCompression
	}

	if len(compressed) == 0 || len(compressed) >= len(data) {
		return data, CompressionNone, nil
	}

	return compressed, mode, nil
}

// decompress decodes stored bytes back to rawSize bytes of record data.
func decompress(data []byte, mode Compression, rawSize int) ([]byte, error) {
	switch mode {
	case CompressionNone:
		if len(data) != rawSize {
			return nil, ErrTruncated
		}

		return data, nil

	case CompressionZstd:
		decoded, err := getZstdDecoder().DecodeAll(data, make([]byte, 0, rawSize))
		if err != nil {
			return nil, err
		}

		if len(decoded) != rawSize {
			return nil, errors.New("snapshot: decompressed size mismatch")
		}

		return decoded, nil

	case CompressionLZ4:
		decoded := make([]byte, rawSize)

		n, err := lz4.UncompressBlock(data, decoded)
		if err != nil {
			return nil, err
		}

		if n != rawSize {
			return nil, errors.New("snapshot: decompressed size mismatch")
		}

		return decoded, nil

	default:
		return nil, ErrInvalidCompression
	}
}
