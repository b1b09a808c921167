package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/peterbourgon/diskv/v3"
)

const (
	bucketProbe = "probe"
	bucketThumb = "thumb"

	cacheMemoryMax = 8 * 1024 * 1024
)

// Cache stores probe results and thumbnails on disk, keyed by the source
// file's path, size and modification time so edits invalidate entries.
type Cache struct {
	d *diskv.Diskv
}

func NewCache(dir string) *Cache {
	return &Cache{d: diskv.New(diskv.Options{
		BasePath:          dir,
		AdvancedTransform: keyToPath,
		InverseTransform:  pathToKey,
		CacheSizeMax:      cacheMemoryMax,
	})}
}

func (c *Cache) Read(key string) ([]byte, error) {
	if !validKey(key) {
		return nil, fmt.Errorf("%w: %q", ErrBadHandle, key)
	}
	return c.d.Read(key)
}

func (c *Cache) Has(key string) bool {
	return validKey(key) && c.d.Has(key)
}

func (c *Cache) Write(key string, data []byte) error {
	if !validKey(key) {
		return fmt.Errorf("%w: %q", ErrBadHandle, key)
	}
	return c.d.Write(key, data)
}

func (c *Cache) Erase(key string) error {
	return c.d.Erase(key)
}

// sourceKey fingerprints a file for the given bucket.
func sourceKey(bucket, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano())))
	return bucket + "-" + hex.EncodeToString(sum[:16]), nil
}

func validKey(key string) bool {
	bucket, hash, ok := strings.Cut(key, "-")
	if !ok || (bucket != bucketProbe && bucket != bucketThumb) || len(hash) < 2 {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}

// Keys are laid out as <bucket>/<first two hex chars>/<hash>.
func keyToPath(key string) *diskv.PathKey {
	bucket, hash, _ := strings.Cut(key, "-")
	prefix := hash
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	return &diskv.PathKey{
		Path:     []string{bucket, prefix},
		FileName: hash,
	}
}

func pathToKey(pk *diskv.PathKey) string {
	if len(pk.Path) == 0 {
		return pk.FileName
	}
	return pk.Path[0] + "-" + pk.FileName
}
