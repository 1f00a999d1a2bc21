package cache

import "sync"

// Cache is a thread-safe LRU cache bounded by the total cost of its values.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[K, V]
	order   *lruList[K]
	budget  int64
	cost    func(V) int64
	total   int64

	hits      uint64
	misses    uint64
	evictions uint64
}

type entry[K comparable, V any] struct {
	value V
	cost  int64
	node  *lruNode[K]
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Len       int
	Cost      int64
	Budget    int64
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// New creates a cache holding values up to a total cost of budget.
// A nil cost function counts every value as 1.
func New[K comparable, V any](budget int64, cost func(V) int64) *Cache[K, V] {
	if cost == nil {
		cost = func(V) int64 { return 1 }
	}
	return &Cache[K, V]{
		entries: make(map[K]*entry[K, V]),
		order:   newLRUList[K](),
		budget:  budget,
		cost:    cost,
	}
}

// Get returns the value for key and marks it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.order.MoveToFront(e.node)
	return e.value, true
}

// Put stores value under key, replacing any previous value, and evicts
// old entries until the budget is met. It reports whether the value was
// stored; values costing more than the whole budget are not.
func (c *Cache[K, V]) Put(key K, value V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.removeLocked(key)
	cost := c.cost(value)
	if cost > c.budget {
		return false
	}
	c.entries[key] = &entry[K, V]{
		value: value,
		cost:  cost,
		node:  c.order.PushFront(key),
	}
	c.total += cost
	for c.total > c.budget {
		oldest, ok := c.order.Oldest()
		if !ok {
			break
		}
		c.removeLocked(oldest)
		c.evictions++
	}
	return true
}

// Remove deletes key and reports whether it was present.
func (c *Cache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeLocked(key)
}

// RemoveFunc deletes every entry whose key matches and returns how many
// were removed.
func (c *Cache[K, V]) RemoveFunc(match func(K) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var keys []K
	for k := range c.entries {
		if match(k) {
			keys = append(keys, k)
		}
	}
	for _, k := range keys {
		c.removeLocked(k)
	}
	return len(keys)
}

// Clear removes all entries. Counters are kept.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*entry[K, V])
	c.order.Clear()
	c.total = 0
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Len:       len(c.entries),
		Cost:      c.total,
		Budget:    c.budget,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

// Caller must hold c.mu.
func (c *Cache[K, V]) removeLocked(key K) bool {
	e, ok := c.entries[key]
	if !ok {
		return false
	}
	c.order.Remove(e.node)
	c.total -= e.cost
	delete(c.entries, key)
	return true
}
