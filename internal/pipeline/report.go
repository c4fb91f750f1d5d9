// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-triage/pkg/types"
)

// FormatTable writes the final selection as a human-readable ranked table.
func FormatTable(papers []types.EvaluatedPaper, w io.Writer) {
	if len(papers) == 0 {
		fmt.Fprintln(w, "No papers selected.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-20s  %-6s  %-6s  %s\n",
		"Rank", "Title", "Authors", "Score", "Rating", "Decision")
	fmt.Fprintln(w, strings.Repeat("-", 112))

	for _, p := range papers {
		title := p.Title
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		rating := "-"
		if p.HasRating() {
			rating = fmt.Sprintf("%.1f", *p.RatingAvg)
		}
		fmt.Fprintf(w, "%-4d  %-60s  %-20s  %-6.3f  %-6s  %s\n",
			p.Rank, title, formatAuthors(p.Authors), p.OverallScore, rating, p.Decision)
	}

	fmt.Fprintf(w, "\n%d papers\n", len(papers))
}

// FormatJSON writes the selection as indented JSON.
func FormatJSON(papers []types.EvaluatedPaper, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(papers)
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// ReportFile is the on-disk record of one completed shortlist run. The
// researcher can save a run to a file and revisit the selection without
// re-scoring.
type ReportFile struct {
	Venue     string                   `yaml:"venue"`
	Year      int                      `yaml:"year"`
	Criteria  types.EvaluationCriteria `yaml:"criteria"`
	Papers    []types.EvaluatedPaper   `yaml:"papers"`
	Errors    []string                 `yaml:"errors,omitempty"`
	Timestamp time.Time                `yaml:"timestamp"`
}

// WriteReportFile saves the final state of a run to a YAML file.
func WriteReportFile(path, venue string, year int, state *State) error {
	rf := ReportFile{
		Venue:     venue,
		Year:      year,
		Criteria:  state.Criteria,
		Papers:    state.Selection,
		Errors:    state.Errors,
		Timestamp: time.Now(),
	}
	data, err := yaml.Marshal(&rf)
	if err != nil {
		return fmt.Errorf("marshaling report file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadReportFile loads a previously saved report from disk.
func ReadReportFile(path string) (*ReportFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report file: %w", err)
	}
	var rf ReportFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing report file: %w", err)
	}
	return &rf, nil
}

// ReadCriteriaFile loads evaluation criteria from a YAML file. Fields absent
// from the file keep the documented defaults.
func ReadCriteriaFile(path string) (types.EvaluationCriteria, error) {
	criteria := types.DefaultCriteria()
	data, err := os.ReadFile(path)
	if err != nil {
		return criteria, fmt.Errorf("reading criteria file: %w", err)
	}
	if err := yaml.Unmarshal(data, &criteria); err != nil {
		return criteria, fmt.Errorf("parsing criteria file: %w", err)
	}
	return criteria, nil
}
