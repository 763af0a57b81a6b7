package cache

import (
	"sync"
	"testing"
)

type blob struct {
	id   int
	size uint64
}

func (b *blob) Bytes() uint64 { return b.size }

func TestLRU_PutGetIdentity(t *testing.T) {
	c := New[*blob](1000)

	b := &blob{id: 1, size: 10}
	key := c.Put(b)
	if key == 0 {
		t.Fatal("keys must be non-zero")
	}

	got, ok := c.Get(key)
	if !ok || got != b {
		t.Errorf("Get(%d): expected the same handle back, got %v ok=%v", key, got, ok)
	}
}

func TestLRU_MissReturnsFalse(t *testing.T) {
	c := New[*blob](1000)

	if _, ok := c.Get(0); ok {
		t.Error("key 0 must always miss")
	}
	if _, ok := c.Get(42); ok {
		t.Error("unknown key must miss")
	}
}

func TestLRU_EvictsOldest(t *testing.T) {
	c := New[*blob](100)

	keys := make([]uint32, 11)
	for i := range keys {
		keys[i] = c.Put(&blob{id: i, size: 10})
	}

	if _, ok := c.Get(keys[0]); ok {
		t.Error("oldest entry should have been evicted")
	}
	if _, ok := c.Get(keys[10]); !ok {
		t.Error("newest entry should be resident")
	}
	if c.UsedBytes() >= 100 {
		t.Errorf("byte count %d should be under the budget", c.UsedBytes())
	}
}

func TestLRU_GetPromotes(t *testing.T) {
	c := New[*blob](30)

	a := c.Put(&blob{id: 1, size: 10})
	b := c.Put(&blob{id: 2, size: 10})
	c.Put(&blob{id: 3, size: 10}) // budget hit: a evicted

	if _, ok := c.Get(a); ok {
		t.Fatal("entry a should already be evicted")
	}

	// Touch b so the next eviction takes the third entry instead.
	if _, ok := c.Get(b); !ok {
		t.Fatal("entry b should be resident")
	}
	c.Put(&blob{id: 4, size: 10})

	if _, ok := c.Get(b); !ok {
		t.Error("recently used entry should have survived eviction")
	}
}

func TestLRU_OversizedEntryBecomesSoleResident(t *testing.T) {
	c := New[*blob](100)

	c.Put(&blob{id: 1, size: 40})
	big := c.Put(&blob{id: 2, size: 500})

	if _, ok := c.Get(big); !ok {
		t.Error("oversized entry should be resident")
	}
	if c.Len() != 1 {
		t.Errorf("expected sole resident, got %d entries", c.Len())
	}
}

func TestLRU_HandleOutlivesEviction(t *testing.T) {
	c := New[*blob](30)

	key := c.Put(&blob{id: 7, size: 10})
	held, ok := c.Get(key)
	if !ok {
		t.Fatal("expected the entry to be resident")
	}

	// Push the held entry out of the cache.
	for i := 0; i < 10; i++ {
		c.Put(&blob{id: 100 + i, size: 10})
	}
	if _, ok := c.Get(key); ok {
		t.Fatal("entry should have been evicted")
	}

	if held.id != 7 || held.Bytes() != 10 {
		t.Error("held handle should stay valid after eviction")
	}
}

func TestLRU_SetMaxSize(t *testing.T) {
	c := New[*blob](10)
	c.SetMaxSize(1000)

	for i := 0; i < 5; i++ {
		c.Put(&blob{id: i, size: 10})
	}
	if c.Len() != 5 {
		t.Errorf("after raising the budget, expected 5 residents, got %d", c.Len())
	}
}

func TestLRU_KeysAreUnique(t *testing.T) {
	c := New[*blob](1 << 20)

	seen := make(map[uint32]bool)
	for i := 0; i < 1000; i++ {
		key := c.Put(&blob{id: i, size: 1})
		if key == 0 || seen[key] {
			t.Fatalf("key %d reused or zero at iteration %d", key, i)
		}
		seen[key] = true
	}
}

func TestLRU_ConcurrentAccess(t *testing.T) {
	c := New[*blob](1 << 10)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			keys := make([]uint32, 0, 50)
			for i := 0; i < 50; i++ {
				keys = append(keys, c.Put(&blob{id: w*100 + i, size: 8}))
				for _, k := range keys {
					c.Get(k)
				}
			}
		}(w)
	}
	wg.Wait()

	if c.UsedBytes() >= 1<<10 {
		t.Errorf("byte count %d exceeds budget after concurrent churn", c.UsedBytes())
	}
}
