// Package inmemcache keeps generated documents in process memory.
package inmemcache

import (
	"context"
	"sync"
	"time"

	"github.com/medicos-drona/drona-frontend-sub001/core/paper"
)

type entry struct {
	data    []byte
	expires time.Time // zero: never
}

type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

var _ paper.DocumentCache = (*Cache)(nil) // interface compliance check

// New returns a cache whose entries live for `ttl`. A non-positive ttl keeps them forever.
func New(ttl time.Duration) *Cache {
	return &Cache{entries: make(map[string]entry), ttl: ttl, now: time.Now}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.expired(e) {
		return nil, false, nil
	}
	return append([]byte(nil), e.data...), true, nil
}

func (c *Cache) Set(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e := entry{data: append([]byte(nil), data...)}
	if c.ttl > 0 {
		e.expires = c.now().Add(c.ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for k, old := range c.entries {
		if c.expired(old) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = e
	return nil
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, e := range c.entries {
		if !c.expired(e) {
			n++
		}
	}
	return n
}

func (c *Cache) expired(e entry) bool {
	return !e.expires.IsZero() && !c.now().Before(e.expires)
}
