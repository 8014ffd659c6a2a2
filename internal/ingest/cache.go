package ingest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// Cache stores raw documentation JSON blobs on disk, zstd-compressed, so a
// restarted daemon can re-ingest without re-fetching from docs.rs. This is
// purely an on-disk convenience for the ingestion collaborator — spec §6.5
// is explicit that persistence of the index itself is outside the core;
// the cache only ever holds the pre-parsed JSON that Index.Ingest consumes.
type Cache struct {
	dir string
}

// NewCache returns a Cache rooted at dir, creating it if necessary.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating json cache dir: %w", err)
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) path(name, version string) string {
	return filepath.Join(c.dir, name+"_"+version+".json.zst")
}

// Save compresses and writes a documentation JSON blob to disk.
func (c *Cache) Save(name, version string, data []byte) error {
	f, err := os.Create(c.path(name, version))
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	defer f.Close()

	w, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("writing compressed data: %w", err)
	}
	return w.Close()
}

// Load reads and decompresses a cached documentation JSON blob.
func (c *Cache) Load(name, version string) ([]byte, error) {
	f, err := os.Open(c.path(name, version))
	if err != nil {
		return nil, fmt.Errorf("opening cache file: %w", err)
	}
	defer f.Close()

	r, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("creating zstd reader: %w", err)
	}
	defer r.Close()

	return io.ReadAll(r)
}

// Has reports whether a cached blob exists for (name, version).
func (c *Cache) Has(name, version string) bool {
	_, err := os.Stat(c.path(name, version))
	return err == nil
}
