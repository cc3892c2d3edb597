package testutil

import (
	"math/rand"
	"sort"
	"sync"
)

// Entry is a key/value pair produced by workload generators.
type Entry struct {
	Key   uint64
	Value uint64
}

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), // nolint gosec
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.rand.Uint64()
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.rand.Intn(n)
}

// Keys returns n distinct pseudo-random keys in shuffled order.
func (r *RNG) Keys(n int) []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[uint64]struct{}, n)
	keys := make([]uint64, 0, n)

	for len(keys) < n {
		k := r.rand.Uint64()
		if _, ok := seen[k]; ok {
			continue
		}

		seen[k] = struct{}{}
		keys = append(keys, k)
	}

	return keys
}

// SequentialKeys returns the keys 0..n-1 in ascending order. Sequential
// inserts are the adversarial case for naive binary trees.
func SequentialKeys(n int) []uint64 {
	keys := make([]uint64, n)
	for i := range keys {
		keys[i] = uint64(i)
	}

	return keys
}

// Entries returns n entries with distinct pseudo-random keys.
func (r *RNG) Entries(n int) []Entry {
	keys := r.Keys(n)
	entries := make([]Entry, n)

	for i, k := range keys {
		entries[i] = Entry{Key: k, Value: r.Uint64()}
	}

	return entries
}

// Shuffle permutes the keys in place.
func (r *RNG) Shuffle(keys []uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rand.Shuffle(len(keys), func(i, j int) {
		keys[i], keys[j] = keys[j], keys[i]
	})
}

// Model is a sorted-slice reference implementation of an ordered map. It
// is the oracle that tree behavior is checked against. Operations are
// O(n); use small sizes.
type Model struct {
	keys   []uint64
	values map[uint64]uint64
}

// NewModel creates an empty reference model.
func NewModel() *Model {
	return &Model{values: make(map[uint64]uint64)}
}

// Put inserts or replaces a key and reports whether it replaced.
func (m *Model) Put(key, value uint64) bool {
	_, exists := m.values[key]
	m.values[key] = value

	if !exists {
		i := sort.Search(len(m.keys), func(i int) bool { return m.keys[i] >= key })
		m.keys = append(m.keys, 0)
		copy(m.keys[i+1:], m.keys[i:])
		m.keys[i] = key
	}

	return exists
}

// Remove deletes a key and reports whether it was present.
func (m *Model) Remove(key uint64) bool {
	if _, exists := m.values[key]; !exists {
		return false
	}

	delete(m.values, key)

	i := sort.Search(len(m.keys), func(i int) bool { return m.keys[i] >= key })
	m.keys = append(m.keys[:i], m.keys[i+1:]...)

	return true
}

// Get returns the value for a key.
func (m *Model) Get(key uint64) (uint64, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Len returns the number of keys.
func (m *Model) Len() int {
	return len(m.keys)
}

// Select returns the i-th smallest key (0-based).
func (m *Model) Select(i int) (uint64, bool) {
	if i < 0 || i >= len(m.keys) {
		return 0, false
	}

	return m.keys[i], true
}

// Rank returns the number of keys strictly less than key and whether the
// key is present.
func (m *Model) Rank(key uint64) (int, bool) {
	i := sort.Search(len(m.keys), func(i int) bool { return m.keys[i] >= key })

	return i, i < len(m.keys) && m.keys[i] == key
}

// Keys returns the keys in ascending order.
func (m *Model) Keys() []uint64 {
	out := make([]uint64, len(m.keys))
	copy(out, m.keys)

	return out
}
