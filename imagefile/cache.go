package imagefile

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gogpu/uvfilter/internal/cache"
)

// DefaultCacheBudget is the decoded size a [Cache] keeps by default: 64 MiB,
// enough for two 4096x2048 images.
const DefaultCacheBudget = 64 << 20

// CacheStats is a snapshot of [Cache] counters.
type CacheStats struct {
	Files     int
	Bytes     int64
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

type fileKey struct {
	path    string
	size    int64
	modTime time.Time
}

// Cache keeps decoded files keyed by path, size and modification time, so
// loading an unchanged file skips decoding. A file that changed on disk
// misses and is decoded again.
//
// Cached files are shared between callers and must not be modified.
type Cache struct {
	files *cache.Cache[fileKey, *File]
}

// NewCache returns a cache holding up to budget bytes of decoded pixels.
// A budget of zero or less uses [DefaultCacheBudget].
func NewCache(budget int64) *Cache {
	if budget <= 0 {
		budget = DefaultCacheBudget
	}
	return &Cache{
		files: cache.New[fileKey, *File](budget, func(f *File) int64 {
			return int64(len(f.Image.Pix))
		}),
	}
}

// Load returns the decoded file at path, decoding it only if no entry
// matches the file's current size and modification time.
func (c *Cache) Load(path string) (*File, error) {
	fi, err := os.Stat(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("imagefile: stat: %w", err)
	}
	key := fileKey{path: path, size: fi.Size(), modTime: fi.ModTime()}
	if f, ok := c.files.Get(key); ok {
		return f, nil
	}

	f, err := Load(path)
	if err != nil {
		return nil, err
	}
	// Older versions of the same file can never hit again.
	c.files.RemoveFunc(func(k fileKey) bool { return k.path == path })
	c.files.Put(key, f)
	return f, nil
}

// Forget drops every cached version of path.
func (c *Cache) Forget(path string) {
	c.files.RemoveFunc(func(k fileKey) bool { return k.path == path })
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() CacheStats {
	s := c.files.Stats()
	return CacheStats{
		Files:     s.Len,
		Bytes:     s.Cost,
		Hits:      s.Hits,
		Misses:    s.Misses,
		Evictions: s.Evictions,
	}
}
