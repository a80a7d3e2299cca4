// Package accumulator provides a lock-striped map used by the parallel
// scoring path. Keys are spread over a fixed number of buckets by
// key mod bucketCount; every bucket has its own mutex, so updates to keys in
// different buckets never contend.
package accumulator

import "sync"

type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

type Number interface {
	Integer | ~float32 | ~float64
}

type bucket[K Integer, V Number] struct {
	mu     sync.Mutex
	values map[K]V
}

// Map is safe for concurrent Access, Add, Erase and Load. BuildOrdinaryMap
// must only run once all writers have finished.
type Map[K Integer, V Number] struct {
	buckets []bucket[K, V]
}

// New creates a Map with bucketCount buckets. Values below 1 are treated
// as 1.
func New[K Integer, V Number](bucketCount int) *Map[K, V] {
	if bucketCount < 1 {
		bucketCount = 1
	}
	m := &Map[K, V]{buckets: make([]bucket[K, V], bucketCount)}
	for i := range m.buckets {
		m.buckets[i].values = make(map[K]V)
	}
	return m
}

func (m *Map[K, V]) bucketFor(key K) *bucket[K, V] {
	n := K(len(m.buckets))
	idx := key % n
	if idx < 0 {
		idx += n
	}
	return &m.buckets[idx]
}

// Access locks the bucket owning key, inserts the zero value if key is
// absent, and calls fn with a pointer to the stored value. The pointer is
// only valid inside fn.
func (m *Map[K, V]) Access(key K, fn func(value *V)) {
	b := m.bucketFor(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	v := b.values[key]
	fn(&v)
	b.values[key] = v
}

// Add performs value[key] += delta under the bucket lock.
func (m *Map[K, V]) Add(key K, delta V) {
	m.Access(key, func(v *V) { *v += delta })
}

func (m *Map[K, V]) Erase(key K) {
	b := m.bucketFor(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.values, key)
}

func (m *Map[K, V]) Load(key K) (V, bool) {
	b := m.bucketFor(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.values[key]
	return v, ok
}

func (m *Map[K, V]) BucketCount() int {
	return len(m.buckets)
}

// Len counts entries bucket by bucket; concurrent writers may make the
// result stale by the time it returns.
func (m *Map[K, V]) Len() int {
	total := 0
	for i := range m.buckets {
		b := &m.buckets[i]
		b.mu.Lock()
		total += len(b.values)
		b.mu.Unlock()
	}
	return total
}

// BuildOrdinaryMap merges every bucket into one plain map.
func (m *Map[K, V]) BuildOrdinaryMap() map[K]V {
	out := make(map[K]V)
	for i := range m.buckets {
		b := &m.buckets[i]
		b.mu.Lock()
		for k, v := range b.values {
			out[k] = v
		}
		b.mu.Unlock()
	}
	return out
}
