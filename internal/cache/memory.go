package cache

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/julianstephens/routinely/internal/models"
)

type memoryEntry struct {
	value    models.RoutineContext
	storedAt time.Time
}

// MemoryCache is an in-process Cache for a single instance.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

var _ Cache = (*MemoryCache)(nil)

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

// WithClock replaces the time source; used by tests.
func (c *MemoryCache) WithClock(now func() time.Time) *MemoryCache {
	c.now = now
	return c
}

func (c *MemoryCache) expired(e memoryEntry, now time.Time) bool {
	return !now.Before(e.storedAt.Add(c.ttl))
}

func (c *MemoryCache) Get(_ context.Context, key string) (models.RoutineContext, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return models.RoutineContext{}, false, nil
	}
	if c.expired(e, c.now()) {
		c.mu.Lock()
		if cur, still := c.entries[key]; still && cur.storedAt.Equal(e.storedAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return models.RoutineContext{}, false, nil
	}
	return e.value, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value models.RoutineContext) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{value: value, storedAt: c.now()}
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *MemoryCache) DeletePrefix(_ context.Context, prefix string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			n++
		}
	}
	return n, nil
}

func (c *MemoryCache) Stats(_ context.Context) (Stats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	stats := Stats{Backend: MemoryBackend, TTL: c.ttl, Entries: []Entry{}}
	for key, e := range c.entries {
		if c.expired(e, now) {
			delete(c.entries, key)
			continue
		}
		stats.Entries = append(stats.Entries, Entry{
			Key:       key,
			Age:       now.Sub(e.storedAt),
			ExpiresIn: e.storedAt.Add(c.ttl).Sub(now),
		})
	}
	sort.Slice(stats.Entries, func(i, j int) bool { return stats.Entries[i].Key < stats.Entries[j].Key })
	return stats, nil
}

func (c *MemoryCache) Close() error {
	return nil
}
