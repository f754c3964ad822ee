package cache

import (
	"bytes"
	"context"
	"encoding/binary"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// entryMagic prefixes every file written by FileCache. The next 8 bytes are
// the big-endian expiry in unix nanoseconds, zero meaning never.
var entryMagic = []byte("TVC1")

const (
	headerSize = 4 + 8
	entryExt   = ".entry"
)

// FileCache stores entries as files under a directory, sharded by the first
// byte of the key hash. Used by the CLI when no Redis is configured.
type FileCache struct {
	dir string
	now func() time.Time
}

// NewFileCache creates dir if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir, now: time.Now}, nil
}

func (c *FileCache) Dir() string { return c.dir }

func (c *FileCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	data, expires, ok := decodeEntry(raw)
	if !ok || c.expired(expires) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return data, true, nil
}

func (c *FileCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	var expires time.Time
	if ttl > 0 {
		expires = c.now().Add(ttl)
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, encodeEntry(data, expires), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (c *FileCache) Delete(_ context.Context, key string) error {
	if err := os.Remove(c.path(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (c *FileCache) Close() error { return nil }

// Stats describes what is on disk.
type Stats struct {
	Entries int
	Expired int
	Bytes   int64
}

// Stats walks the cache directory. Unreadable files are skipped.
func (c *FileCache) Stats() (Stats, error) {
	var st Stats
	err := c.walk(func(path string, info fs.FileInfo) {
		st.Entries++
		st.Bytes += info.Size()
		if raw, err := os.ReadFile(path); err == nil {
			if _, exp, ok := decodeEntry(raw); !ok || c.expired(exp) {
				st.Expired++
			}
		}
	})
	return st, err
}

// Prune removes expired and corrupt entries and reports how many went.
func (c *FileCache) Prune() (int, error) {
	n := 0
	err := c.walk(func(path string, _ fs.FileInfo) {
		raw, err := os.ReadFile(path)
		if err != nil {
			return
		}
		if _, exp, ok := decodeEntry(raw); (!ok || c.expired(exp)) && os.Remove(path) == nil {
			n++
		}
	})
	return n, err
}

// Clear removes every entry and the shard directories.
func (c *FileCache) Clear() (int, error) {
	n := 0
	err := c.walk(func(path string, _ fs.FileInfo) {
		if os.Remove(path) == nil {
			n++
		}
	})
	if err != nil {
		return n, err
	}
	shards, err := os.ReadDir(c.dir)
	if err != nil {
		return n, err
	}
	for _, s := range shards {
		if s.IsDir() {
			_ = os.Remove(filepath.Join(c.dir, s.Name()))
		}
	}
	return n, nil
}

// walk calls fn for every entry file. Walk errors below the root are ignored.
func (c *FileCache) walk(fn func(path string, info fs.FileInfo)) error {
	return filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == c.dir {
				return err
			}
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(path, entryExt) {
			return nil
		}
		if info, err := d.Info(); err == nil {
			fn(path, info)
		}
		return nil
	})
}

func (c *FileCache) expired(t time.Time) bool {
	return !t.IsZero() && c.now().After(t)
}

func (c *FileCache) path(key string) string {
	h := Hash([]byte(key))
	return filepath.Join(c.dir, h[:2], h[2:]+entryExt)
}

func encodeEntry(data []byte, expires time.Time) []byte {
	buf := make([]byte, headerSize, headerSize+len(data))
	copy(buf, entryMagic)
	if !expires.IsZero() {
		binary.BigEndian.PutUint64(buf[4:], uint64(expires.UnixNano()))
	}
	return append(buf, data...)
}

func decodeEntry(raw []byte) (data []byte, expires time.Time, ok bool) {
	if len(raw) < headerSize || !bytes.Equal(raw[:4], entryMagic) {
		return nil, time.Time{}, false
	}
	if ns := binary.BigEndian.Uint64(raw[4:headerSize]); ns != 0 {
		expires = time.Unix(0, int64(ns))
	}
	return raw[headerSize:], expires, true
}

var _ Cache = (*FileCache)(nil)
