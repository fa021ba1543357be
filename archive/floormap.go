package archive

import "sort"

// floorMap is an int64-keyed ordered map supporting "largest key <= query"
// lookup, used to locate which child region a byte offset falls into.
// Implemented as a sorted key slice plus a map, per spec's design notes:
// floor is O(log n) via binary search; insert finds its slot by binary
// search but then shifts the tail of the key slice.
type floorMap[V any] struct {
	keys   []int64
	values map[int64]V
}

func newFloorMap[V any]() *floorMap[V] {
	return &floorMap[V]{values: make(map[int64]V)}
}

// Len returns the number of entries.
func (m *floorMap[V]) Len() int { return len(m.keys) }

// Set inserts or replaces the value at key.
func (m *floorMap[V]) Set(key int64, value V) {
	if _, exists := m.values[key]; !exists {
		i := sort.Search(len(m.keys), func(i int) bool { return m.keys[i] >= key })
		m.keys = append(m.keys, 0)
		copy(m.keys[i+1:], m.keys[i:])
		m.keys[i] = key
	}
	m.values[key] = value
}

// Delete removes the exact key, if present.
func (m *floorMap[V]) Delete(key int64) {
	if _, exists := m.values[key]; !exists {
		return
	}
	delete(m.values, key)
	i := sort.Search(len(m.keys), func(i int) bool { return m.keys[i] >= key })
	m.keys = append(m.keys[:i], m.keys[i+1:]...)
}

// Floor returns the entry (k, v) with the largest k <= query. ok is false
// if query is smaller than every stored key, or the map is empty.
func (m *floorMap[V]) Floor(query int64) (key int64, value V, ok bool) {
	i := sort.Search(len(m.keys), func(i int) bool { return m.keys[i] > query }) - 1
	if i < 0 {
		var zero V
		return 0, zero, false
	}
	key = m.keys[i]
	return key, m.values[key], true
}

// LastKey returns the largest stored key. ok is false if the map is empty.
func (m *floorMap[V]) LastKey() (key int64, ok bool) {
	if len(m.keys) == 0 {
		return 0, false
	}
	return m.keys[len(m.keys)-1], true
}

// LastValue returns the value for LastKey.
func (m *floorMap[V]) LastValue() (value V, ok bool) {
	k, ok := m.LastKey()
	if !ok {
		var zero V
		return zero, false
	}
	return m.values[k], true
}

// LastKeyValue returns both the largest stored key and its value.
func (m *floorMap[V]) LastKeyValue() (key int64, value V, ok bool) {
	k, ok := m.LastKey()
	if !ok {
		var zero V
		return 0, zero, false
	}
	return k, m.values[k], true
}

// Keys returns the stored keys in ascending order. The caller must not
// mutate the returned slice.
func (m *floorMap[V]) Keys() []int64 { return m.keys }

// Values returns the stored values in ascending key order.
func (m *floorMap[V]) Values() []V {
	out := make([]V, len(m.keys))
	for i, k := range m.keys {
		out[i] = m.values[k]
	}
	return out
}

// DropFrom removes every entry whose key is >= from, walking from the tail
// (spec's "Reverse iteration of the floor map" design note).
func (m *floorMap[V]) DropFrom(from int64) {
	i := len(m.keys)
	for i > 0 && m.keys[i-1] >= from {
		i--
	}
	for _, k := range m.keys[i:] {
		delete(m.values, k)
	}
	m.keys = m.keys[:i]
}
