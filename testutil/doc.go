// Package testutil provides testing utilities for ordmap.
//
// This package is intended for use in tests and benchmarks only. It
// provides a deterministic, thread-safe random source and helpers for
// generating key/value workloads.
//
// # Workload Generation
//
//	rng := testutil.NewRNG(seed)
//	keys := rng.Keys(10000)            // distinct keys, shuffled
//	entries := rng.Entries(10000)      // distinct keys with random values
//
// # Reference Model
//
//	model := testutil.NewModel()
//	model.Put(k, v)                    // sorted-slice oracle for tree tests
package testutil
