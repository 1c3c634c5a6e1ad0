// Package cache provides the two process-wide memoisations the GLiNER2
// runtime keeps outside any single NER handle: the tokenizer-directory to
// loaded-tokenizer map, and the span-head metadata cache. Both grow
// monotonically and are never evicted within a process, matching the
// teacher's *index.Index owning long-lived immutable dependencies — the
// difference here is that these caches are shared *across* NER handles
// built from the same manifest, not owned by one.
package cache

import "sync"

// Of is a generic, mutex-guarded, monotonic key→value memoisation. It is
// safe for concurrent use. Entries are never removed.
type Of[K comparable, V any] struct {
	mu sync.Mutex
	m  map[K]V
}

// New returns an empty cache.
func New[K comparable, V any]() *Of[K, V] {
	return &Of[K, V]{m: make(map[K]V)}
}

// GetOrLoad returns the cached value for key, calling load and storing its
// result on a miss. If two goroutines race on the same missing key, load
// may run more than once; the first result to land under the lock wins and
// is what every caller observes afterward — this matches "pure
// optimization" semantics (recomputing once more on a race is harmless).
func (c *Of[K, V]) GetOrLoad(key K, load func() (V, error)) (V, error) {
	c.mu.Lock()
	if v, ok := c.m[key]; ok {
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	v, err := load()
	if err != nil {
		var zero V
		return zero, err
	}

	c.mu.Lock()
	if existing, ok := c.m[key]; ok {
		c.mu.Unlock()
		return existing, nil
	}
	c.m[key] = v
	c.mu.Unlock()
	return v, nil
}

// Len reports the number of cached entries. Used by tests.
func (c *Of[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}
