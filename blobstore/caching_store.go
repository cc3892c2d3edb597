package blobstore

import (
	"context"
	"errors"
	"io"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/hupe1980/ordmap/internal/cache"
)

// CachingStoreOptions configures a CachingStore.
type CachingStoreOptions struct {
	// BlockSize is the cache granularity in bytes.
	BlockSize int64
	// MaxConcurrentFetches bounds in-flight backend reads across all blobs
	// opened through the store.
	MaxConcurrentFetches int64
}

// DefaultCachingStoreOptions are the defaults used by NewCachingStore.
var DefaultCachingStoreOptions = CachingStoreOptions{
	BlockSize:            4096,
	MaxConcurrentFetches: 16,
}

// CachingStore wraps a Store and adds block-level read caching. Writes and
// deletes invalidate any cached blocks for the affected blob.
type CachingStore struct {
	inner     Store
	cache     *cache.LRU
	blockSize int64
	fetchSem  *semaphore.Weighted
}

// NewCachingStore creates a CachingStore with the given cache capacity in
// bytes.
func NewCachingStore(inner Store, capacity int64, optFns ...func(o *CachingStoreOptions)) *CachingStore {
	opts := DefaultCachingStoreOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	return &CachingStore{
		inner:     inner,
		cache:     cache.NewLRU(capacity),
		blockSize: opts.BlockSize,
		fetchSem:  semaphore.NewWeighted(opts.MaxConcurrentFetches),
	}
}

// Open opens a blob whose reads go through the block cache.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}

	return &cachingBlob{
		inner:     b,
		store:     s,
		name:      name,
		blockSize: s.blockSize,
	}, nil
}

// Create passes through to the inner store. Blobs are immutable once
// written, so there is nothing to invalidate for a new name.
func (s *CachingStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	return s.inner.Create(ctx, name)
}

// Put writes through and drops any cached blocks for the blob.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.invalidate(name)
	return s.inner.Put(ctx, name, data)
}

// Delete removes the blob and its cached blocks.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.invalidate(name)
	return s.inner.Delete(ctx, name)
}

// List passes through to the inner store.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// CacheStats returns the hit and miss counters of the block cache.
func (s *CachingStore) CacheStats() (hits, misses int64) {
	return s.cache.Stats()
}

func (s *CachingStore) invalidate(name string) {
	s.cache.Invalidate(func(key cache.Key) bool {
		return key.Name == name
	})
}

type cachingBlob struct {
	inner     Blob
	store     *CachingStore
	name      string
	blockSize int64
}

func (b *cachingBlob) Size() int64 {
	return b.inner.Size()
}

func (b *cachingBlob) Close() error {
	return b.inner.Close()
}

func (b *cachingBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	size := b.Size()
	if off < 0 || off >= size {
		return 0, io.EOF
	}

	startBlock := off / b.blockSize
	endBlock := (off + int64(len(p)) - 1) / b.blockSize

	if err := b.fillCache(ctx, startBlock, endBlock); err != nil {
		return 0, err
	}

	totalRead := 0

	for blk := startBlock; blk <= endBlock; blk++ {
		blkStart := blk * b.blockSize

		intersectStart := max(blkStart, off)
		intersectEnd := min(blkStart+b.blockSize, off+int64(len(p)))

		if intersectEnd <= intersectStart {
			continue
		}

		blockData, err := b.fetchBlock(ctx, blk)
		if err != nil {
			return totalRead, err
		}

		srcOffset := intersectStart - blkStart
		if srcOffset >= int64(len(blockData)) {
			break
		}

		copySize := intersectEnd - intersectStart
		if srcOffset+copySize > int64(len(blockData)) {
			// Short final block.
			copySize = int64(len(blockData)) - srcOffset
		}

		dstOffset := intersectStart - off
		totalRead += copy(p[dstOffset:dstOffset+copySize], blockData[srcOffset:])
	}

	if int64(totalRead) < int64(len(p)) {
		return totalRead, io.EOF
	}

	return totalRead, nil
}

// fillCache loads the missing blocks in [startBlock, endBlock] into the
// cache, coalescing contiguous misses into single backend reads.
func (b *cachingBlob) fillCache(ctx context.Context, startBlock, endBlock int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	type run struct {
		start, count int64
	}

	var missing []run

	runStart, runCount := int64(-1), int64(0)

	for blk := startBlock; blk <= endBlock; blk++ {
		if _, ok := b.store.cache.Get(b.key(blk)); ok {
			if runStart != -1 {
				missing = append(missing, run{runStart, runCount})
				runStart = -1
			}

			continue
		}

		if runStart == -1 {
			runStart, runCount = blk, 1
		} else {
			runCount++
		}
	}

	if runStart != -1 {
		missing = append(missing, run{runStart, runCount})
	}

	g, gctx := errgroup.WithContext(ctx)

	for _, r := range missing {
		r := r
		g.Go(func() error {
			if err := b.store.fetchSem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer b.store.fetchSem.Release(1)

			byteStart := r.start * b.blockSize
			byteSize := r.count * b.blockSize

			fileSize := b.Size()
			if byteStart >= fileSize {
				return nil
			}

			if byteStart+byteSize > fileSize {
				byteSize = fileSize - byteStart
			}

			buf := make([]byte, byteSize)

			n, err := b.inner.ReadAt(gctx, buf, byteStart)
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}

			for i := int64(0); i < r.count; i++ {
				offsetInRun := i * b.blockSize
				if offsetInRun >= int64(n) {
					break
				}

				endInRun := min(offsetInRun+b.blockSize, int64(n))

				// Copy so the cache entry does not pin the run buffer.
				block := make([]byte, endInRun-offsetInRun)
				copy(block, buf[offsetInRun:endInRun])

				b.store.cache.Set(b.key(r.start+i), block)
			}

			return nil
		})
	}

	return g.Wait()
}

func (b *cachingBlob) fetchBlock(ctx context.Context, blk int64) ([]byte, error) {
	key := b.key(blk)

	if data, ok := b.store.cache.Get(key); ok {
		return data, nil
	}

	// Raced with an eviction; read the single block again.
	buf := make([]byte, b.blockSize)

	n, err := b.inner.ReadAt(ctx, buf, blk*b.blockSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	data := buf[:n]
	if n > 0 {
		b.store.cache.Set(key, data)
	}

	return data, nil
}

func (b *cachingBlob) key(blk int64) cache.Key {
	return cache.Key{Name: b.name, Block: uint64(blk)}
}
