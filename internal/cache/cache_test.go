package cache

import (
	"strconv"
	"sync"
	"testing"
)

func byteCost(b []byte) int64 { return int64(len(b)) }

func TestGetPut(t *testing.T) {
	c := New[string, int](10, nil)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("Get(missing) = ok, want miss")
	}
	if !c.Put("a", 1) {
		t.Fatal("Put(a) = false")
	}
	v, ok := c.Get("a")
	if !ok || v != 1 {
		t.Fatalf("Get(a) = %d, %v; want 1, true", v, ok)
	}

	c.Put("a", 2)
	if v, _ := c.Get("a"); v != 2 {
		t.Errorf("Get(a) after replace = %d, want 2", v)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}

	s := c.Stats()
	if s.Hits != 2 || s.Misses != 1 {
		t.Errorf("Stats hits/misses = %d/%d, want 2/1", s.Hits, s.Misses)
	}
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := New[string, []byte](10, byteCost)

	c.Put("a", make([]byte, 4))
	c.Put("b", make([]byte, 4))
	c.Get("a")
	c.Put("c", make([]byte, 4))

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("%s should still be cached", k)
		}
	}
	s := c.Stats()
	if s.Cost != 8 || s.Evictions != 1 {
		t.Errorf("Stats = %+v, want cost 8 and 1 eviction", s)
	}
}

func TestOversizedValueNotStored(t *testing.T) {
	c := New[string, []byte](4, byteCost)
	c.Put("small", make([]byte, 2))

	if c.Put("big", make([]byte, 5)) {
		t.Fatal("Put(big) = true, want false")
	}
	if _, ok := c.Get("small"); !ok {
		t.Error("oversized Put evicted an existing entry")
	}

	// Replacing with an oversized value drops the old one.
	c.Put("small", make([]byte, 9))
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
}

func TestRemove(t *testing.T) {
	c := New[string, int](100, nil)
	for i := range 6 {
		c.Put("k"+strconv.Itoa(i), i)
	}

	if !c.Remove("k0") {
		t.Error("Remove(k0) = false")
	}
	if c.Remove("k0") {
		t.Error("second Remove(k0) = true")
	}

	n := c.RemoveFunc(func(k string) bool { return k == "k1" || k == "k2" })
	if n != 2 {
		t.Errorf("RemoveFunc = %d, want 2", n)
	}
	if c.Len() != 3 {
		t.Errorf("Len = %d, want 3", c.Len())
	}

	c.Clear()
	if s := c.Stats(); s.Len != 0 || s.Cost != 0 {
		t.Errorf("after Clear Stats = %+v", s)
	}
	c.Put("again", 1)
	if _, ok := c.Get("again"); !ok {
		t.Error("cache unusable after Clear")
	}
}

func TestLRUList(t *testing.T) {
	l := newLRUList[int]()
	n1 := l.PushFront(1)
	l.PushFront(2)
	n3 := l.PushFront(3)

	if k, _ := l.Oldest(); k != 1 {
		t.Errorf("Oldest = %d, want 1", k)
	}
	l.MoveToFront(n1)
	if k, _ := l.Oldest(); k != 2 {
		t.Errorf("Oldest after MoveToFront = %d, want 2", k)
	}
	l.Remove(n3)
	l.Remove(nil)
	if l.Len() != 2 {
		t.Errorf("Len = %d, want 2", l.Len())
	}
	l.Clear()
	if _, ok := l.Oldest(); ok {
		t.Error("Oldest on empty list = ok")
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New[int, int](50, nil)
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				k := (g*200 + i) % 80
				if _, ok := c.Get(k); !ok {
					c.Put(k, i)
				}
			}
		}()
	}
	wg.Wait()

	if c.Len() > 50 {
		t.Errorf("Len = %d, exceeds budget 50", c.Len())
	}
}
