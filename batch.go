package ordmap

// PutAll inserts or replaces all given entries. It stops at the first
// failing insert and returns its error; entries applied before the failure
// remain in the map.
func (m *Map) PutAll(entries []Entry) error {
	for _, e := range entries {
		if _, _, err := m.Put(e.Key, e.Value); err != nil {
			return err
		}
	}

	return nil
}

// GetAll looks up all given keys. The result has one element per key;
// absent keys yield found = false.
func (m *Map) GetAll(keys []uint64) []LookupResult {
	results := make([]LookupResult, len(keys))

	for i, key := range keys {
		v, ok := m.Get(key)
		results[i] = LookupResult{Key: key, Value: v, Found: ok}
	}

	return results
}

// RemoveAll removes all given keys and returns the number of keys that
// were present.
func (m *Map) RemoveAll(keys []uint64) (int, error) {
	removed := 0

	for _, key := range keys {
		_, ok, err := m.Remove(key)
		if err != nil {
			return removed, err
		}

		if ok {
			removed++
		}
	}

	return removed, nil
}

// LookupResult is the outcome of a single lookup in GetAll.
type LookupResult struct {
	Key   uint64
	Value uint64
	Found bool
}
