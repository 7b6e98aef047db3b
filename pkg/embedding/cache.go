package embedding

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Cache persists catalog embedding vectors on disk so they are computed
// once per catalog content, not per process start. A cached file is valid
// only if its fingerprint matches the current catalog contents; legacy
// files holding a bare JSON array are accepted when their length matches.
type Cache struct {
	path string
}

func NewCache(path string) *Cache {
	return &Cache{path: path}
}

type cacheFile struct {
	Fingerprint string      `json:"fingerprint"`
	Embeddings  [][]float32 `json:"embeddings"`
}

// Fingerprint hashes the searchable texts the vectors were computed from.
// A reordered or edited catalog of the same size produces a different
// fingerprint and forces recomputation.
func Fingerprint(texts []string) string {
	h := sha256.New()
	for _, t := range texts {
		h.Write([]byte(t))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Load returns the cached vectors when they are valid for the given
// fingerprint and catalog size.
func (c *Cache) Load(fingerprint string, count int) ([][]float32, bool) {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		return nil, false
	}

	var file cacheFile
	if err := json.Unmarshal(raw, &file); err == nil && file.Fingerprint != "" {
		if file.Fingerprint == fingerprint && len(file.Embeddings) == count {
			return file.Embeddings, true
		}
		return nil, false
	}

	// Legacy format: a bare array of vectors, validated by length only.
	var legacy [][]float32
	if err := json.Unmarshal(raw, &legacy); err == nil && len(legacy) == count && count > 0 {
		return legacy, true
	}
	return nil, false
}

// Save overwrites the cache file with the given vectors and fingerprint.
func (c *Cache) Save(fingerprint string, vectors [][]float32) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	raw, err := json.Marshal(cacheFile{Fingerprint: fingerprint, Embeddings: vectors})
	if err != nil {
		return err
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	return os.Rename(tmp, c.path)
}
