package cache

import (
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Stats counts lookups since the cache was built
type Stats struct {
	Hits   int64
	Misses int64
}

// Memory is the process-local tier. Expired entries are swept at half the
// TTL, never more often than once a minute.
type Memory struct {
	items  *gocache.Cache
	hits   atomic.Int64
	misses atomic.Int64
}

// NewMemory keeps entries for ttl unless Set says otherwise
func NewMemory(ttl time.Duration) *Memory {
	sweep := ttl / 2
	if sweep < time.Minute {
		sweep = time.Minute
	}
	return &Memory{items: gocache.New(ttl, sweep)}
}

func (m *Memory) Get(key string) ([]byte, bool) {
	if v, ok := m.items.Get(key); ok {
		if body, isBytes := v.([]byte); isBytes {
			m.hits.Add(1)
			return body, true
		}
	}
	m.misses.Add(1)
	return nil, false
}

func (m *Memory) Set(key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	m.items.Set(key, value, ttl)
	return nil
}

func (m *Memory) Delete(key string) error {
	m.items.Delete(key)
	return nil
}

func (m *Memory) Clear() error {
	m.items.Flush()
	return nil
}

// Len counts stored entries, including expired ones not yet swept
func (m *Memory) Len() int {
	return m.items.ItemCount()
}

func (m *Memory) Stats() Stats {
	return Stats{Hits: m.hits.Load(), Misses: m.misses.Load()}
}
