// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cachestore persists expensive fetch responses as content-addressed
// files with a TTL. Entries older than the TTL read as absent and are
// overwritten by the next write; nothing is evicted otherwise, so callers are
// responsible for periodic Clear calls.
package cachestore

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/paper-triage/pkg/types"
)

const defaultTTL = 24 * time.Hour

// Store is a file-backed cache. One file per key under a namespace-prefixed
// name; the file's mtime is the TTL clock.
type Store struct {
	dir string
	ttl time.Duration
}

// New returns a Store rooted at cfg.Dir. The directory is created lazily on
// the first write.
func New(cfg types.CacheConfig) *Store {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Store{dir: cfg.Dir, ttl: ttl}
}

// Key returns the stable cache key for params: the hex SHA-256 of the
// canonical JSON encoding. Map parameters hash identically regardless of
// insertion order because encoding/json sorts map keys.
func Key(params any) string {
	data, err := json.Marshal(params)
	if err != nil {
		// Unmarshalable params still need a deterministic key.
		data = []byte(fmt.Sprintf("%+v", params))
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum)[:32]
}

func (s *Store) path(namespace string, params any) string {
	name := Key(params) + ".json"
	if namespace != "" {
		name = namespace + "_" + name
	}
	return filepath.Join(s.dir, name)
}

// Get returns the cached payload for (namespace, params) and whether a valid
// entry exists. Expired or unreadable entries report absent.
func (s *Store) Get(namespace string, params any) ([]byte, bool) {
	path := s.path(namespace, params)

	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if time.Since(info.ModTime()) >= s.ttl {
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set stores the payload for (namespace, params). It writes to a temporary
// file and renames, so readers never observe a partial entry. Errors are
// returned for logging but must not abort the caller's fetch.
func (s *Store) Set(namespace string, params any, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	path := s.path(namespace, params)
	tmp, err := os.CreateTemp(s.dir, ".cache-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing cache entry: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming cache entry: %w", err)
	}
	return nil
}

// Clear removes cache entries. An empty namespace removes all entries.
// Returns the number of files deleted.
func (s *Store) Clear(namespace string) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading cache directory: %w", err)
	}

	deleted := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		if namespace != "" && !strings.HasPrefix(name, namespace+"_") {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
			return deleted, fmt.Errorf("removing %s: %w", name, err)
		}
		deleted++
	}
	return deleted, nil
}

// Info summarizes the cache contents.
type Info struct {
	TotalFiles   int
	ValidFiles   int
	ExpiredFiles int
	TotalBytes   int64
	Dir          string
	TTL          time.Duration
}

// Stat scans the cache directory and reports entry counts and sizes.
func (s *Store) Stat() (Info, error) {
	info := Info{Dir: s.dir, TTL: s.ttl}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return info, nil
		}
		return info, fmt.Errorf("reading cache directory: %w", err)
	}

	now := time.Now()
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		info.TotalFiles++
		info.TotalBytes += fi.Size()
		if now.Sub(fi.ModTime()) < s.ttl {
			info.ValidFiles++
		} else {
			info.ExpiredFiles++
		}
	}
	return info, nil
}
