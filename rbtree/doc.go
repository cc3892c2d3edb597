// Package rbtree implements an order-statistic red-black tree over uint64
// keys and values, stored in an index-addressed node arena.
//
// # Design
//
//   - Nodes live in a flat arena addressed by uint32 indexes; index 0 is
//     reserved and doubles as the transient false root used by the top-down
//     passes, so the real root never needs special-casing.
//   - Insertion and deletion rebalance on the way down in a single pass.
//     There are no parent pointers and no recursion in any mutating path.
//   - Every node carries its subtree size, enabling Select (key by rank) and
//     Rank (rank by key) in O(log n).
//   - Freed slots are zeroed but never reused; the arena grows monotonically
//     until the uint32 index space (or a configured cap) is exhausted.
//
// # Concurrency Model
//
// A Tree is not safe for concurrent use. Each operation is a single
// synchronous pass and assumes it runs alone; callers requiring sharing must
// serialize access themselves (the ordmap root package does exactly that).
//
// # Failure Semantics
//
// Missing keys and out-of-range ranks are reported with a found flag, never
// an error. The only operation error is ErrFull when the index space is
// exhausted, and it is raised before the first structural change so a failed
// mutation leaves the tree exactly as it was.
package rbtree
