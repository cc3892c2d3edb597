// Package blobstore abstracts where snapshot and log data lives.
//
// A Store holds named immutable blobs. LocalStore serves reads from
// memory-mapped files and writes atomically via rename; MemoryStore keeps
// blobs in memory for tests; CachingStore layers a block-level LRU cache
// over any other store. Remote backends live in the minio and s3
// subpackages.
package blobstore
