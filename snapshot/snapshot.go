// Package snapshot serializes trees to a compact binary format: a fixed
// header, little-endian node records (optionally compressed), and a
// trailing CRC32 over everything before it.
package snapshot

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hupe1980/ordmap/blobstore"
	"github.com/hupe1980/ordmap/internal/conv"
	"github.com/hupe1980/ordmap/rbtree"
)

// Options configures snapshot writing.
type Options struct {
	// Compression selects how node records are stored.
	Compression Compression
}

// DefaultOptions are the defaults used by Write and Save.
var DefaultOptions = Options{
	Compression: CompressionZstd,
}

// Write serializes the tree to w.
func Write(w io.Writer, t *rbtree.Tree, optFns ...func(o *Options)) error {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	arena := t.Export()
	raw := encodeRecords(arena.Records)

	slotCount, err := conv.IntToUint32(len(arena.Records))
	if err != nil {
		return fmt.Errorf("slot count: %w", err)
	}

	payload, mode, err := compress(raw, opts.Compression)
	if err != nil {
		return err
	}

	header := fileHeader{
		Magic:       MagicNumber,
		Version:     Version,
		Compression: mode,
		SlotCount:   slotCount,
		PayloadSize: uint64(len(payload)),
		Root:        arena.Root,
		MaxNodes:    arena.MaxNodes,
	}

	cw := NewChecksumWriter(w)

	if _, err := cw.Write(header.marshal()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	if _, err := cw.Write(payload); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}

	var trailer [4]byte
	binary.LittleEndian.PutUint32(trailer[:], cw.Sum())

	if _, err := w.Write(trailer[:]); err != nil {
		return fmt.Errorf("write checksum: %w", err)
	}

	return nil
}

// Read deserializes a tree from r, verifying the checksum.
func Read(r io.Reader) (*rbtree.Tree, error) {
	cr := NewChecksumReader(r)

	headerBuf := make([]byte, headerSize)
	if _, err := io.ReadFull(cr, headerBuf); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var header fileHeader
	if err := header.unmarshal(headerBuf); err != nil {
		return nil, err
	}

	payload := make([]byte, header.PayloadSize)
	if _, err := io.ReadFull(cr, payload); err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}

	var trailer [4]byte
	if _, err := io.ReadFull(r, trailer[:]); err != nil {
		return nil, fmt.Errorf("read checksum: %w", err)
	}

	if err := cr.Verify(binary.LittleEndian.Uint32(trailer[:])); err != nil {
		return nil, err
	}

	raw, err := decompress(payload, header.Compression, int(header.SlotCount)*recordSize)
	if err != nil {
		return nil, err
	}

	return rbtree.Restore(rbtree.Arena{
		Records:  decodeRecords(raw, int(header.SlotCount)),
		Root:     header.Root,
		MaxNodes: header.MaxNodes,
	})
}

// Save writes a snapshot of the tree to the named blob.
func Save(ctx context.Context, store blobstore.Store, name string, t *rbtree.Tree, optFns ...func(o *Options)) error {
	var buf bytes.Buffer

	if err := Write(&buf, t, optFns...); err != nil {
		return err
	}

	return store.Put(ctx, name, buf.Bytes())
}

// Load reads a snapshot from the named blob.
func Load(ctx context.Context, store blobstore.Store, name string) (*rbtree.Tree, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	var data []byte

	if m, ok := blob.(blobstore.Mappable); ok {
		data = m.Bytes()
	} else {
		data = make([]byte, blob.Size())
		if _, err := blob.ReadAt(ctx, data, 0); err != nil && err != io.EOF {
			return nil, err
		}
	}

	return Read(bytes.NewReader(data))
}

// encodeRecords packs node records into little-endian fixed-size rows.
func encodeRecords(records []rbtree.NodeRecord) []byte {
	buf := make([]byte, len(records)*recordSize)

	for i, rec := range records {
		row := buf[i*recordSize:]

		binary.LittleEndian.PutUint64(row[0:], rec.Key)
		binary.LittleEndian.PutUint64(row[8:], rec.Value)
		binary.LittleEndian.PutUint32(row[16:], rec.Left)
		binary.LittleEndian.PutUint32(row[20:], rec.Right)
		binary.LittleEndian.PutUint32(row[24:], rec.Size)

		if rec.Red {
			row[28] = 1
		}
	}

	return buf
}

func decodeRecords(buf []byte, count int) []rbtree.NodeRecord {
	records := make([]rbtree.NodeRecord, count)

	for i := range records {
		row := buf[i*recordSize:]

		records[i] = rbtree.NodeRecord{
			Key:   binary.LittleEndian.Uint64(row[0:]),
			Value: binary.LittleEndian.Uint64(row[8:]),
			Left:  binary.LittleEndian.Uint32(row[16:]),
			Right: binary.LittleEndian.Uint32(row[20:]),
			Size:  binary.LittleEndian.Uint32(row[24:]),
			Red:   row[28] == 1,
		}
	}

	return records
}
