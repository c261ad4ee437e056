package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Disk keeps one file per key so search responses survive across CLI runs.
// The file holds the raw body; its modification time is the expiry.
type Disk struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

func NewDisk(dir string, ttl time.Duration) *Disk {
	return &Disk{dir: dir, ttl: ttl, now: time.Now}
}

func (d *Disk) Get(key string) ([]byte, bool) {
	file := d.file(key)
	info, err := os.Stat(file)
	if err != nil {
		return nil, false
	}
	if !d.now().Before(info.ModTime()) {
		_ = os.Remove(file)
		return nil, false
	}
	body, err := os.ReadFile(file)
	if err != nil {
		return nil, false
	}
	return body, true
}

func (d *Disk) Set(key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = d.ttl
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	// readers only ever see a complete file under the final name
	staged, err := os.CreateTemp(d.dir, ".staged-*")
	if err != nil {
		return fmt.Errorf("stage cache entry: %w", err)
	}
	defer func() { _ = os.Remove(staged.Name()) }()

	_, err = staged.Write(value)
	if closeErr := staged.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}

	expiry := d.now().Add(ttl)
	if err := os.Chtimes(staged.Name(), expiry, expiry); err != nil {
		return fmt.Errorf("stamp cache entry: %w", err)
	}
	if err := os.Rename(staged.Name(), d.file(key)); err != nil {
		return fmt.Errorf("publish cache entry: %w", err)
	}
	return nil
}

func (d *Disk) Delete(key string) error {
	if err := os.Remove(d.file(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (d *Disk) Clear() error {
	return os.RemoveAll(d.dir)
}

// file maps a key to its path. Keys from Key contain ':' which some
// filesystems reject, so those become '_'.
func (d *Disk) file(key string) string {
	name := []byte(filepath.Base(key))
	for i, c := range name {
		if c == ':' {
			name[i] = '_'
		}
	}
	return filepath.Join(d.dir, string(name)+".body")
}
