// Package sidetable stores rich payloads outside the tree. The tree itself
// holds uint64 values only; callers that need structured values keep them
// in a Table and store the handle in the tree.
package sidetable

import (
	"bufio"
	"encoding/binary"
	"io"
	"sync"

	"github.com/hupe1980/ordmap/codec"
	"github.com/hupe1980/ordmap/internal/conv"
)

// maxLoadHint caps the map pre-size during Load. A corrupt count field
// still fails entry-by-entry instead of forcing one huge allocation.
const maxLoadHint = 1 << 20

// Options contains configuration for a Table.
type Options struct {
	// Codec encodes payloads for Save and Load.
	Codec codec.Codec
}

// Table maps uint64 handles to payloads of type T. It is safe for
// concurrent use and supports persistence via Save/Load.
type Table[T any] struct {
	mu    sync.RWMutex
	m     map[uint64]T
	next  uint64
	codec codec.Codec
}

// New creates an empty table. Handle 0 is never issued, so it can serve as
// a "no payload" marker in the tree.
func New[T any](optFns ...func(o *Options)) *Table[T] {
	opts := Options{
		Codec: codec.Default,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Table[T]{
		m:     make(map[uint64]T),
		next:  1,
		codec: opts.Codec,
	}
}

// Add stores v under a fresh handle and returns the handle.
func (t *Table[T]) Add(v T) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	handle := t.next
	t.next++
	t.m[handle] = v

	return handle
}

// Set stores v under an existing handle.
func (t *Table[T]) Set(handle uint64, v T) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.m[handle] = v

	if handle >= t.next {
		t.next = handle + 1
	}
}

// Get returns the payload for the given handle.
func (t *Table[T]) Get(handle uint64) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	v, ok := t.m[handle]

	return v, ok
}

// Delete removes the payload for the given handle. The handle is not
// reissued.
func (t *Table[T]) Delete(handle uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.m, handle)
}

// Len returns the number of stored payloads.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.m)
}

// Save persists the table to w.
// Format: [Next: 8 bytes] [Count: 8 bytes] [Entry...]
// Entry: [Handle: 8 bytes] [Len: 4 bytes] [Payload]
func (t *Table[T]) Save(w io.Writer) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	bw := bufio.NewWriter(w)

	if err := binary.Write(bw, binary.LittleEndian, t.next); err != nil {
		return err
	}

	if err := binary.Write(bw, binary.LittleEndian, uint64(len(t.m))); err != nil {
		return err
	}

	for handle, v := range t.m {
		data, err := t.codec.Marshal(v)
		if err != nil {
			return err
		}

		if err := binary.Write(bw, binary.LittleEndian, handle); err != nil {
			return err
		}

		payloadLen, err := conv.IntToUint32(len(data))
		if err != nil {
			return err
		}

		if err := binary.Write(bw, binary.LittleEndian, payloadLen); err != nil {
			return err
		}

		if _, err := bw.Write(data); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// Load populates the table from r, replacing its contents.
func (t *Table[T]) Load(r io.Reader) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	br := bufio.NewReader(r)

	var next uint64
	if err := binary.Read(br, binary.LittleEndian, &next); err != nil {
		return err
	}

	var count uint64
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return err
	}

	// count comes from the file and is not yet proven by successful entry
	// reads, so it only bounds the size hint, never the allocation.
	hint := count
	if hint > maxLoadHint {
		hint = maxLoadHint
	}

	m := make(map[uint64]T, hint)

	for i := uint64(0); i < count; i++ {
		var handle uint64
		if err := binary.Read(br, binary.LittleEndian, &handle); err != nil {
			return err
		}

		var payloadLen uint32
		if err := binary.Read(br, binary.LittleEndian, &payloadLen); err != nil {
			return err
		}

		data := make([]byte, payloadLen)
		if _, err := io.ReadFull(br, data); err != nil {
			return err
		}

		var v T
		if err := t.codec.Unmarshal(data, &v); err != nil {
			return err
		}

		m[handle] = v
	}

	t.m = m
	t.next = next

	if t.next == 0 {
		t.next = 1
	}

	return nil
}
