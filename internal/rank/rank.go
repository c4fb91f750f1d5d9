// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank orders evaluated papers: admission filtering, stable sorting
// by aggregate score, an optional preliminary LLM relevance pass, top-K
// selection, and final re-ranking with 1-based ranks.
package rank

import (
	"sort"

	"github.com/pdiddy/paper-triage/pkg/types"
)

// DefaultDisplayCount bounds the final ranked selection.
const DefaultDisplayCount = 20

// Filter applies the admission thresholds. A paper is dropped when its
// relevance score is below the minimum, or when a minimum rating is
// configured and the paper's known average rating falls below it. Unknown
// ratings never cause rejection.
func Filter(papers []types.EvaluatedPaper, criteria types.EvaluationCriteria) []types.EvaluatedPaper {
	out := make([]types.EvaluatedPaper, 0, len(papers))
	for _, p := range papers {
		if p.RelevanceScore < criteria.MinRelevanceScore {
			continue
		}
		if criteria.MinRating != nil && p.HasRating() && *p.RatingAvg < *criteria.MinRating {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Sort orders papers descending by aggregate score. The sort is stable: ties
// keep their input order, and sorting an already-sorted list is a no-op.
func Sort(papers []types.EvaluatedPaper) []types.EvaluatedPaper {
	out := make([]types.EvaluatedPaper, len(papers))
	copy(out, papers)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OverallScore > out[j].OverallScore
	})
	return out
}

// SelectTopK truncates a ranked list to the criteria's top-K cutoff. A nil
// cutoff keeps all papers.
func SelectTopK(papers []types.EvaluatedPaper, criteria types.EvaluationCriteria) []types.EvaluatedPaper {
	if criteria.TopKPapers == nil || len(papers) <= *criteria.TopKPapers {
		return papers
	}
	return papers[:*criteria.TopKPapers]
}

// ReRank sorts papers descending by aggregate score and assigns 1-based
// ranks.
func ReRank(papers []types.EvaluatedPaper) []types.EvaluatedPaper {
	out := Sort(papers)
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// Select returns the top displayCount papers of a re-ranked list. A
// non-positive displayCount uses the default.
func Select(papers []types.EvaluatedPaper, displayCount int) []types.EvaluatedPaper {
	if displayCount <= 0 {
		displayCount = DefaultDisplayCount
	}
	if len(papers) <= displayCount {
		return papers
	}
	return papers[:displayCount]
}
