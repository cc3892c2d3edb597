// Package ordmap provides an ordered map from uint64 keys to uint64 values
// with order-statistic queries.
//
// The engine is an index-addressed red-black tree (package rbtree) that
// supports logarithmic insert, delete, lookup, nearest-key navigation
// (floor, ceiling, higher, lower), and rank/select over the key order.
// Map wraps the engine with a mutex, structured logging, metrics, optional
// write-ahead logging for crash recovery, and snapshot persistence to a
// pluggable blob store.
//
// Basic usage:
//
//	m, err := ordmap.New()
//	if err != nil { ... }
//	defer m.Close()
//
//	m.Put(42, 1)
//	v, ok := m.Get(42)
//	e, ok := m.Floor(100) // greatest key <= 100
//	e, ok = m.Select(0)   // smallest key
package ordmap
