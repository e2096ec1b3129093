package cache

import (
	"strconv"
	"sync"
	"testing"
)

func TestGetSet(t *testing.T) {
	c := New[string, int]()

	c.Set("key1", 42)

	val, ok := c.Get("key1")
	if !ok {
		t.Error("expected key1 to exist")
	}
	if val != 42 {
		t.Errorf("expected 42, got %d", val)
	}

	_, ok = c.Get("nonexistent")
	if ok {
		t.Error("expected nonexistent key to not exist")
	}
}

func TestSetReplaces(t *testing.T) {
	c := New[string, int]()
	c.Set("k", 1)
	c.Set("k", 2)
	if v, _ := c.Get("k"); v != 2 {
		t.Errorf("expected replacement value 2, got %d", v)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", c.Len())
	}
}

func TestDelete(t *testing.T) {
	c := New[string, int]()
	c.Set("k", 1)
	if !c.Delete("k") {
		t.Error("expected Delete to report removal")
	}
	if c.Delete("k") {
		t.Error("expected second Delete to report absence")
	}
	if _, ok := c.Get("k"); ok {
		t.Error("expected entry removed")
	}
}

func TestClear(t *testing.T) {
	c := New[int, string]()
	for i := 0; i < 10; i++ {
		c.Set(i, strconv.Itoa(i))
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("expected empty cache after Clear, got %d entries", c.Len())
	}
}

func TestNoEviction(t *testing.T) {
	// The artifact cache never evicts on its own; entries accumulate
	// until the owner clears wholesale.
	c := New[int, int]()
	const n = 10000
	for i := 0; i < n; i++ {
		c.Set(i, i)
	}
	if c.Len() != n {
		t.Errorf("expected %d entries, got %d", n, c.Len())
	}
}

func TestStats(t *testing.T) {
	c := New[string, int]()
	c.Set("hit", 1)

	c.Get("hit")
	c.Get("hit")
	c.Get("miss")

	s := c.Stats()
	if s.Hits != 2 {
		t.Errorf("expected 2 hits, got %d", s.Hits)
	}
	if s.Misses != 1 {
		t.Errorf("expected 1 miss, got %d", s.Misses)
	}
	if s.Len != 1 {
		t.Errorf("expected len 1, got %d", s.Len)
	}
	want := 2.0 / 3.0
	if s.HitRate < want-1e-9 || s.HitRate > want+1e-9 {
		t.Errorf("expected hit rate %g, got %g", want, s.HitRate)
	}

	c.ResetStats()
	s = c.Stats()
	if s.Hits != 0 || s.Misses != 0 {
		t.Errorf("expected zeroed stats, got %+v", s)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New[int, int]()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				c.Set(i%100, g)
				c.Get(i % 100)
			}
		}(g)
	}
	wg.Wait()
	if c.Len() != 100 {
		t.Errorf("expected 100 entries, got %d", c.Len())
	}
}
