package ordmap

import (
	"errors"
	"fmt"

	"github.com/hupe1980/ordmap/blobstore"
	"github.com/hupe1980/ordmap/rbtree"
)

var (
	// ErrClosed is returned by operations on a closed Map.
	ErrClosed = errors.New("ordmap: map is closed")

	// ErrFull is returned when the key capacity is exhausted.
	ErrFull = errors.New("ordmap: map is full")

	// ErrSnapshotNotFound is returned when loading a snapshot that does not
	// exist.
	ErrSnapshotNotFound = errors.New("ordmap: snapshot not found")
)

// translateError unifies errors from the engine and the persistence layers
// into the package-level sentinels. Expected negative results (missing key,
// out-of-range rank) are reported via found-flags, never errors.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, rbtree.ErrFull) {
		return fmt.Errorf("%w: %w", ErrFull, err)
	}

	if errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrSnapshotNotFound, err)
	}

	return err
}
