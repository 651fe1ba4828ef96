// Package pmap provides a small generic persistent map: a structurally
// shared, copy-on-write wrapper around an ordinary Go map, in the spirit of
// gopls's internal/util/immutable.Map but extended with a With method that
// returns a new map by adding a single-entry overlay frame rather than
// copying the whole backing map.
//
// Lookup walks the overlay chain from newest to oldest, so it costs O(depth
// since the last compaction) rather than O(1); With and Without each do one
// such lookup. Compact flattens a chain back into a single backing map, so
// a caller can use it after a burst of With calls to keep lookup cheap
// again.
package pmap

// Map is an immutable map from K to V. The zero value is an empty map.
type Map[K comparable, V any] struct {
	overlay map[K]V
	tomb    map[K]struct{}
	parent  *Map[K, V]
	size    int
}

// Of builds a Map from the given entries. The caller must not mutate m
// afterwards.
func Of[K comparable, V any](m map[K]V) Map[K, V] {
	return Map[K, V]{overlay: m, size: len(m)}
}

// Get returns the value for k and whether it was present.
func (m Map[K, V]) Get(k K) (V, bool) {
	for cur := &m; cur != nil; cur = cur.parent {
		if v, ok := cur.overlay[k]; ok {
			return v, true
		}
		if _, tombstoned := cur.tomb[k]; tombstoned {
			var zero V
			return zero, false
		}
	}
	var zero V
	return zero, false
}

// With returns a new Map with k bound to v, leaving m unchanged. It does
// not copy m's backing storage: the new Map shares m's data and adds a
// single-entry overlay frame.
func (m Map[K, V]) With(k K, v V) Map[K, V] {
	_, existed := m.Get(k)
	size := m.size
	if !existed {
		size++
	}
	parent := m
	return Map[K, V]{
		overlay: map[K]V{k: v},
		parent:  &parent,
		size:    size,
	}
}

// WithAll binds every entry of kvs, as repeated calls to With would, but in
// a single overlay frame.
func (m Map[K, V]) WithAll(kvs map[K]V) Map[K, V] {
	if len(kvs) == 0 {
		return m
	}
	added := 0
	for k := range kvs {
		if _, existed := m.Get(k); !existed {
			added++
		}
	}
	parent := m
	return Map[K, V]{overlay: kvs, parent: &parent, size: m.size + added}
}

// Without returns a new Map with k removed, leaving m unchanged. It is
// implemented as a tombstone overlay frame rather than a backing-map copy,
// so it shares the same cost profile as With (one lookup, no copy).
func (m Map[K, V]) Without(k K) Map[K, V] {
	if _, existed := m.Get(k); !existed {
		return m
	}
	parent := m
	return Map[K, V]{
		overlay: map[K]V{},
		tomb:    map[K]struct{}{k: {}},
		parent:  &parent,
		size:    m.size - 1,
	}
}

// Len reports the number of distinct keys across the whole chain.
func (m Map[K, V]) Len() int {
	return m.size
}

// Compact flattens m's overlay chain into a single backing map, bounding
// future Get calls to O(1) again. The returned Map is observationally
// identical to m.
func (m Map[K, V]) Compact() Map[K, V] {
	if m.parent == nil {
		return m
	}
	flat := make(map[K]V, m.size)
	// Walk oldest-to-newest so newer overlays correctly shadow older ones.
	var chain []*Map[K, V]
	for cur := &m; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		for k := range chain[i].tomb {
			delete(flat, k)
		}
		for k, v := range chain[i].overlay {
			flat[k] = v
		}
	}
	return Map[K, V]{overlay: flat, size: len(flat)}
}

// All returns an iterator over every (key, value) pair in m, newest
// overlay winning on key collisions.
func (m Map[K, V]) All(yield func(K, V) bool) {
	seen := make(map[K]struct{}, m.size)
	for cur := &m; cur != nil; cur = cur.parent {
		for k := range cur.tomb {
			seen[k] = struct{}{}
		}
		for k, v := range cur.overlay {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			if !yield(k, v) {
				return
			}
		}
	}
}
