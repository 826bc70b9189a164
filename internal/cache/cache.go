// Package cache memoizes load results keyed by their input descriptor.
//
// Entries never expire on their own. A cached value is served until the key
// is invalidated or the process restarts.
package cache

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"
)

// Key identifies one load: the xxhash digest of its input descriptor.
type Key uint64

// String returns the key as 16 hex digits.
func (k Key) String() string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(k))
	return hex.EncodeToString(b[:])
}

const (
	unitSep   = 0x1f
	recordSep = 0x1e
)

// KeyOf digests a load descriptor: the ordered input paths, the field
// delimiter and the explicit column list. Order matters; the same paths in
// a different order give a different key.
func KeyOf(paths []string, delimiter rune, columns []string) Key {
	d := xxhash.New()
	for _, p := range paths {
		d.WriteString(p)
		d.Write([]byte{unitSep})
	}
	d.Write([]byte{recordSep})
	d.WriteString(string(delimiter))
	d.Write([]byte{recordSep})
	for _, c := range columns {
		d.WriteString(c)
		d.Write([]byte{unitSep})
	}
	return Key(d.Sum64())
}

// Stats is a point-in-time view of cache activity.
type Stats struct {
	Entries int    `json:"entries"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Cache is a mutex-guarded map from Key to V. It is safe for concurrent use.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[Key]entry[V]
	hits    uint64
	misses  uint64

	group singleflight.Group
	now   func() time.Time
}

// New creates an empty cache.
func New[V any]() *Cache[V] {
	return &Cache[V]{
		entries: make(map[Key]entry[V]),
		now:     time.Now,
	}
}

// Get returns the cached value for k.
func (c *Cache[V]) Get(k Key) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[k]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	return e.value, true
}

// StoredAt returns when the value for k was stored. For a value filled by
// GetOrLoad that is when its load finished.
func (c *Cache[V]) StoredAt(k Key) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[k]
	return e.storedAt, ok
}

// Put stores v under k, replacing any previous value.
func (c *Cache[V]) Put(k Key, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[k] = entry[V]{value: v, storedAt: c.now()}
}

// Invalidate removes k and reports whether it was present.
func (c *Cache[V]) Invalidate(k Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.entries[k]
	delete(c.entries, k)
	return ok
}

// Stats returns entry count and hit/miss counters.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Entries: len(c.entries), Hits: c.hits, Misses: c.misses}
}

// GetOrLoad returns the cached value for k, calling load on a miss and
// caching its result. Concurrent misses on the same key share one load.
// A failed load is not cached. hit reports whether the value came from the
// cache.
func (c *Cache[V]) GetOrLoad(k Key, load func() (V, error)) (v V, hit bool, err error) {
	if v, ok := c.Get(k); ok {
		return v, true, nil
	}

	res, err, _ := c.group.Do(k.String(), func() (any, error) {
		if v, ok := c.peek(k); ok {
			return v, nil
		}
		v, err := load()
		if err != nil {
			return nil, err
		}
		c.Put(k, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, false, fmt.Errorf("load %s: %w", k, err)
	}
	return res.(V), false, nil
}

// peek reads an entry without touching the counters.
func (c *Cache[V]) peek(k Key) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[k]
	return e.value, ok
}
