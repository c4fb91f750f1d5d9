// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/paper-triage/pkg/types"
)

const (
	artifactName = "all_papers.json"
	metadataName = "metadata.json"
)

// Metadata is the sidecar written next to a corpus artifact, summarizing the
// fetch for quick inspection without loading the full artifact.
type Metadata struct {
	Venue                string   `json:"venue"`
	Year                 int      `json:"year"`
	TotalPapers          int      `json:"total_papers"`
	PapersWithReviews    int      `json:"papers_with_reviews"`
	AverageRating        float64  `json:"average_rating"`
	FetchDate            string   `json:"fetch_date"`
	FileSizeMB           float64  `json:"file_size_mb"`
	IncludesReviewData   bool     `json:"includes_review_data"`
	DetectedReviewFields []string `json:"detected_review_fields"`
	NumDetectedFields    int      `json:"num_detected_fields"`
}

// ArtifactDir returns the artifact directory for one venue and year, e.g.
// storage/papers_data/NeurIPS_2025.
func ArtifactDir(dataDir, venue string, year int) string {
	return filepath.Join(dataDir, fmt.Sprintf("%s_%d", venue, year))
}

// HasArtifact reports whether a complete corpus artifact exists in dir.
func HasArtifact(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, artifactName))
	return err == nil && !info.IsDir()
}

// LoadArtifact reads the corpus artifact from dir.
func LoadArtifact(dir string) ([]types.PaperRecord, error) {
	data, err := os.ReadFile(filepath.Join(dir, artifactName))
	if err != nil {
		return nil, fmt.Errorf("reading corpus artifact: %w", err)
	}
	var papers []types.PaperRecord
	if err := json.Unmarshal(data, &papers); err != nil {
		return nil, fmt.Errorf("decoding corpus artifact: %w", err)
	}
	return papers, nil
}

// LoadMetadata reads the metadata sidecar from dir.
func LoadMetadata(dir string) (Metadata, error) {
	var md Metadata
	data, err := os.ReadFile(filepath.Join(dir, metadataName))
	if err != nil {
		return md, fmt.Errorf("reading artifact metadata: %w", err)
	}
	if err := json.Unmarshal(data, &md); err != nil {
		return md, fmt.Errorf("decoding artifact metadata: %w", err)
	}
	return md, nil
}

// WriteArtifact atomically writes the corpus artifact and its metadata
// sidecar to dir.
func WriteArtifact(dir, venue string, year int, papers []types.PaperRecord, fields []string) (Metadata, error) {
	var md Metadata
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return md, fmt.Errorf("creating artifact directory: %w", err)
	}

	data, err := json.MarshalIndent(papers, "", "  ")
	if err != nil {
		return md, fmt.Errorf("encoding corpus artifact: %w", err)
	}
	path := filepath.Join(dir, artifactName)
	if err := writeFileAtomic(dir, path, data); err != nil {
		return md, err
	}

	withReviews := 0
	ratingSum := 0.0
	for _, p := range papers {
		if p.HasRating() {
			withReviews++
			ratingSum += *p.RatingAvg
		}
	}
	avgRating := 0.0
	if withReviews > 0 {
		avgRating = math.Round(ratingSum/float64(withReviews)*100) / 100
	}

	md = Metadata{
		Venue:                venue,
		Year:                 year,
		TotalPapers:          len(papers),
		PapersWithReviews:    withReviews,
		AverageRating:        avgRating,
		FetchDate:            time.Now().Format(time.RFC3339),
		FileSizeMB:           float64(len(data)) / 1024 / 1024,
		IncludesReviewData:   true,
		DetectedReviewFields: fields,
		NumDetectedFields:    len(fields),
	}
	mdData, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return md, fmt.Errorf("encoding artifact metadata: %w", err)
	}
	if err := writeFileAtomic(dir, filepath.Join(dir, metadataName), mdData); err != nil {
		return md, err
	}
	return md, nil
}

func writeFileAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".artifact-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming %s: %w", filepath.Base(path), err)
	}
	return nil
}

// FilterOptions selects a corpus subset after a local artifact load.
type FilterOptions struct {
	// AcceptedOnly keeps only records whose decision contains "accept".
	AcceptedOnly bool

	// Keywords keeps records whose title or abstract contains any keyword
	// (case-insensitive substring match). Empty keeps all.
	Keywords []string

	// Max truncates the result; 0 keeps all.
	Max int
}

// Filter applies the selection options in order: accepted-only, keyword
// match, truncation.
func Filter(papers []types.PaperRecord, opts FilterOptions) []types.PaperRecord {
	out := make([]types.PaperRecord, 0, len(papers))
	for _, p := range papers {
		if opts.AcceptedOnly && !strings.Contains(strings.ToLower(p.Decision), "accept") {
			continue
		}
		if len(opts.Keywords) > 0 && !matchesAnyKeyword(p, opts.Keywords) {
			continue
		}
		out = append(out, p)
	}
	if opts.Max > 0 && len(out) > opts.Max {
		out = out[:opts.Max]
	}
	return out
}

func matchesAnyKeyword(p types.PaperRecord, keywords []string) bool {
	title := strings.ToLower(p.Title)
	abstract := strings.ToLower(p.Abstract)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(title, kw) || strings.Contains(abstract, kw) {
			return true
		}
	}
	return false
}
