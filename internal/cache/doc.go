// Package cache provides a cost-bounded LRU cache.
//
// Each entry has a cost computed when it is stored. When the total cost
// exceeds the budget, least recently used entries are evicted until it
// fits again. An entry whose cost alone exceeds the budget is not stored.
//
//	c := cache.New[string, []byte](1<<20, func(b []byte) int64 { return int64(len(b)) })
//	c.Put("key", data)
//	data, ok := c.Get("key")
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
