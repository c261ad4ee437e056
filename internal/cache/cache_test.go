package cache

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/seoforge/internal/model"
)

func TestKey(t *testing.T) {
	a := Key("search", "/search", "widgets", "us")
	b := Key("search", "/search", "widgets", "us")
	c := Key("search", "/videos", "widgets", "us")

	if a != b {
		t.Error("same parts must give the same key")
	}
	if a == c {
		t.Error("different parts must give different keys")
	}
	if !strings.HasPrefix(a, "seoforge:v1:search:") {
		t.Errorf("unexpected key prefix: %s", a)
	}
	// Joined parts must not collide with shifted boundaries
	if Key("n", "ab", "c") == Key("n", "a", "bc") {
		t.Error("part boundaries must be significant")
	}
}

func TestMemory(t *testing.T) {
	c := NewMemory(time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss")
	}
	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok := c.Get("k")
	if !ok || string(got) != "v" {
		t.Fatalf("expected hit with v, got %q %v", got, ok)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", c.Len())
	}

	_ = c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after delete")
	}
	if s := c.Stats(); s.Hits != 1 || s.Misses != 2 {
		t.Errorf("expected 1 hit and 2 misses, got %+v", s)
	}
}

func TestMemory_Concurrent(t *testing.T) {
	c := NewMemory(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := Key("t", string(rune('a'+i)))
			_ = c.Set(key, []byte{byte(i)}, 0)
			_, _ = c.Get(key)
		}()
	}
	wg.Wait()

	if c.Len() != 20 {
		t.Errorf("expected 20 entries, got %d", c.Len())
	}
}

func TestDisk_RoundTripAndExpiry(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c := NewDisk(dir, time.Hour)
	key := Key("search", "/search", "widgets")

	if err := c.Set(key, []byte(`{"organic":[]}`), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok := c.Get(key)
	if !ok || string(got) != `{"organic":[]}` {
		t.Fatalf("expected hit, got %q %v", got, ok)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 || strings.Contains(entries[0].Name(), ":") {
		t.Errorf("expected a single entry file with a portable name, got %v", entries)
	}

	c.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, ok := c.Get(key); ok {
		t.Error("expected expired entry to miss")
	}
	if _, err := os.Stat(c.file(key)); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}

	if err := c.Delete("never-set"); err != nil {
		t.Errorf("deleting a missing key should not fail: %v", err)
	}
}

func TestDisk_ShortTTLOverridesDefault(t *testing.T) {
	c := NewDisk(t.TempDir(), time.Hour)
	if err := c.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	c.now = func() time.Time { return time.Now().Add(5 * time.Minute) }
	if _, ok := c.Get("k"); ok {
		t.Error("per-entry ttl should win over the default")
	}
}

func TestTiered_BackfillsFasterTiers(t *testing.T) {
	memory := NewMemory(time.Minute)
	disk := NewDisk(t.TempDir(), time.Hour)
	tiered := NewTiered(memory, disk)

	if err := disk.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok := memory.Get("k"); ok {
		t.Fatal("memory should start empty")
	}

	got, ok := tiered.Get("k")
	if !ok || string(got) != "v" {
		t.Fatalf("expected disk hit, got %q %v", got, ok)
	}
	if _, ok := memory.Get("k"); !ok {
		t.Error("disk hit should be copied into memory")
	}

	if err := tiered.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok := tiered.Get("k"); ok {
		t.Error("expected miss after clear")
	}
}

func TestNew(t *testing.T) {
	cfg := model.DefaultConfig().Search

	if _, ok := New(cfg).(*Memory); !ok {
		t.Error("default config should give a memory cache")
	}

	cfg.CacheDir = t.TempDir()
	if _, ok := New(cfg).(*Tiered); !ok {
		t.Error("cache dir should give a tiered cache")
	}

	cfg.CacheEnabled = false
	c := New(cfg)
	_ = c.Set("k", []byte("v"), 0)
	if _, ok := c.Get("k"); ok {
		t.Error("disabled cache must never hit")
	}
}
