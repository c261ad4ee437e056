package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/ppiankov/seoforge/internal/model"
)

// Cache stores raw response bodies. Implementations are safe for concurrent
// use; one instance is shared by every generation call in the process.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key builds a namespaced cache key from request parts
func Key(namespace string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return "seoforge:v1:" + namespace + ":" + hex.EncodeToString(hash[:16])
}

// New builds the search cache described by cfg: memory only, memory over
// disk when CacheDir is set, or a no-op cache when caching is disabled
func New(cfg model.SearchConfig) Cache {
	if !cfg.CacheEnabled {
		return Nop{}
	}
	memory := NewMemory(cfg.CacheTTL)
	if cfg.CacheDir == "" {
		return memory
	}
	return NewTiered(memory, NewDisk(cfg.CacheDir, cfg.CacheTTL))
}

// Nop never stores anything
type Nop struct{}

func (Nop) Get(string) ([]byte, bool) { return nil, false }
func (Nop) Set(string, []byte, time.Duration) error { return nil }
func (Nop) Delete(string) error { return nil }
func (Nop) Clear() error { return nil }
