// Package cache provides a thread-safe, byte-budgeted LRU cache used to
// share diced microsurfaces between rays.
package cache

import (
	"sync"

	"github.com/micropath/micropath/pkg/log"
)

var logger = log.New("cache")

// Sized values report their own memory footprint so the cache can keep a
// byte budget rather than an entry count.
type Sized interface {
	Bytes() uint64
}

type entry[T Sized] struct {
	key  uint32
	data T

	prev *entry[T]
	next *entry[T]
}

// LRU is a least-recently-used cache keyed by opaque non-zero handles.
// Entries are evicted from the cold end whenever the byte budget is
// exceeded; a caller holding an evicted entry keeps it alive on its own.
// Lookups never block on absent keys.
type LRU[T Sized] struct {
	mu sync.Mutex

	maxBytes  uint64
	byteCount uint64
	nextKey   uint32

	entries map[uint32]*entry[T]
	head    *entry[T]
	tail    *entry[T]

	warnedOversize bool
}

// New creates a cache bounded to maxBytes.
func New[T Sized](maxBytes uint64) *LRU[T] {
	return &LRU[T]{
		maxBytes: maxBytes,
		nextKey:  1, // 0 means "absent"
		entries:  make(map[uint32]*entry[T]),
	}
}

// SetMaxSize changes the byte budget. Call it once, right after
// construction; it does not evict retroactively.
func (c *LRU[T]) SetMaxSize(maxBytes uint64) {
	c.mu.Lock()
	c.maxBytes = maxBytes
	c.mu.Unlock()
}

// Put inserts data as the most recently used entry, evicting cold entries
// until the budget holds, and returns the new key. An entry bigger than
// the whole budget is allowed; it ends up as the sole resident.
func (c *LRU[T]) Put(data T) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var key uint32
	for {
		key = c.nextKey
		c.nextKey++
		if key != 0 {
			if _, taken := c.entries[key]; !taken {
				break
			}
		}
	}

	bytes := data.Bytes()
	if bytes >= c.maxBytes && !c.warnedOversize {
		logger.Warningf("entry of %d bytes exceeds the cache budget of %d bytes", bytes, c.maxBytes)
		c.warnedOversize = true
	}

	c.byteCount += bytes
	for c.byteCount >= c.maxBytes {
		if !c.evictTail() {
			break
		}
	}

	e := &entry[T]{key: key, data: data}
	c.pushFront(e)
	c.entries[key] = e
	return key
}

// Get returns the entry for key, promoting it to most recently used.
// A zero or evicted key returns the zero value and false.
func (c *LRU[T]) Get(key uint32) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero T
		return zero, false
	}

	c.unlink(e)
	c.pushFront(e)
	return e.data, true
}

// Len returns the number of resident entries.
func (c *LRU[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// UsedBytes returns the byte total of resident entries.
func (c *LRU[T]) UsedBytes() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.byteCount
}

func (c *LRU[T]) pushFront(e *entry[T]) {
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *LRU[T]) unlink(e *entry[T]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev = nil
	e.next = nil
}

func (c *LRU[T]) evictTail() bool {
	e := c.tail
	if e == nil {
		return false
	}
	c.unlink(e)
	delete(c.entries, e.key)
	c.byteCount -= e.data.Bytes()
	return true
}
