// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdiddy/paper-triage/pkg/types"
)

// Checkpointer persists partial fetch progress so an interrupted run resumes
// instead of starting over.
type Checkpointer interface {
	// Save writes a checkpoint of the records fetched so far.
	Save(papers []types.PaperRecord) error

	// LoadLatest returns the records from the most advanced checkpoint, or
	// nil when none exists.
	LoadLatest() ([]types.PaperRecord, error)

	// Clear removes all checkpoints.
	Clear() error
}

const checkpointPrefix = "all_papers_temp_"

// FileCheckpointer stores checkpoints as all_papers_temp_<count>.json files
// in the artifact directory.
type FileCheckpointer struct {
	dir string
}

// NewFileCheckpointer returns a checkpointer rooted at dir.
func NewFileCheckpointer(dir string) *FileCheckpointer {
	return &FileCheckpointer{dir: dir}
}

func (c *FileCheckpointer) Save(papers []types.PaperRecord) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("creating checkpoint directory: %w", err)
	}

	data, err := json.MarshalIndent(papers, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding checkpoint: %w", err)
	}

	path := filepath.Join(c.dir, fmt.Sprintf("%s%d.json", checkpointPrefix, len(papers)))
	tmp, err := os.CreateTemp(c.dir, ".ckpt-*.tmp")
	if err != nil {
		return fmt.Errorf("creating checkpoint temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing checkpoint: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming checkpoint: %w", err)
	}
	return nil
}

// checkpointFiles returns checkpoint paths sorted ascending by record count.
func (c *FileCheckpointer) checkpointFiles() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading checkpoint directory: %w", err)
	}

	type ckpt struct {
		path  string
		count int
	}
	var found []ckpt
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, checkpointPrefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		countStr := strings.TrimSuffix(strings.TrimPrefix(name, checkpointPrefix), ".json")
		count, err := strconv.Atoi(countStr)
		if err != nil {
			continue
		}
		found = append(found, ckpt{path: filepath.Join(c.dir, name), count: count})
	}

	paths := make([]string, len(found))
	for i := range found {
		paths[i] = found[i].path
	}
	// Insertion sort keyed on count; checkpoint counts are few.
	for i := 1; i < len(found); i++ {
		for j := i; j > 0 && found[j-1].count > found[j].count; j-- {
			found[j-1], found[j] = found[j], found[j-1]
			paths[j-1], paths[j] = paths[j], paths[j-1]
		}
	}
	return paths, nil
}

func (c *FileCheckpointer) LoadLatest() ([]types.PaperRecord, error) {
	paths, err := c.checkpointFiles()
	if err != nil || len(paths) == 0 {
		return nil, err
	}

	latest := paths[len(paths)-1]
	data, err := os.ReadFile(latest)
	if err != nil {
		return nil, fmt.Errorf("reading checkpoint %s: %w", filepath.Base(latest), err)
	}
	var papers []types.PaperRecord
	if err := json.Unmarshal(data, &papers); err != nil {
		return nil, fmt.Errorf("decoding checkpoint %s: %w", filepath.Base(latest), err)
	}
	return papers, nil
}

func (c *FileCheckpointer) Clear() error {
	paths, err := c.checkpointFiles()
	if err != nil {
		return err
	}
	for _, path := range paths {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("removing checkpoint %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}
