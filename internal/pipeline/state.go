// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"github.com/pdiddy/paper-triage/internal/score"
	"github.com/pdiddy/paper-triage/pkg/types"
)

// State is the aggregate carried between pipeline stages. Stages never
// mutate it directly; they return an Update that the runner merges.
type State struct {
	// Criteria is the resolved evaluation criteria.
	Criteria types.EvaluationCriteria

	// Papers is the raw corpus for this run.
	Papers []types.PaperRecord

	// Evaluated accumulates heuristic evaluations across stages.
	Evaluated []types.EvaluatedPaper

	// Ranked is the filtered, sorted, truncated candidate list.
	Ranked []types.EvaluatedPaper

	// LLMEvaluated carries the unified LLM scores for the candidates.
	LLMEvaluated []types.EvaluatedPaper

	// ReRanked is the final ordering with 1-based ranks.
	ReRanked []types.EvaluatedPaper

	// Selection is the display-bounded head of ReRanked.
	Selection []types.EvaluatedPaper

	// Synonyms is the synonym index generated for the criteria keywords.
	Synonyms score.SynonymIndex

	// Errors accumulates every degraded incident of the run.
	Errors []string
}

// Update is a partial state produced by one stage. List fields follow two
// merge disciplines: Evaluated and Errors append to the state; all other
// non-nil fields replace their state counterpart.
type Update struct {
	Criteria     *types.EvaluationCriteria
	Papers       []types.PaperRecord
	Evaluated    []types.EvaluatedPaper
	Ranked       []types.EvaluatedPaper
	LLMEvaluated []types.EvaluatedPaper
	ReRanked     []types.EvaluatedPaper
	Selection    []types.EvaluatedPaper
	Synonyms     score.SynonymIndex
	Errors       []string
}

func (s *State) merge(u Update) {
	if u.Criteria != nil {
		s.Criteria = *u.Criteria
	}
	if u.Papers != nil {
		s.Papers = u.Papers
	}
	s.Evaluated = append(s.Evaluated, u.Evaluated...)
	if u.Ranked != nil {
		s.Ranked = u.Ranked
	}
	if u.LLMEvaluated != nil {
		s.LLMEvaluated = u.LLMEvaluated
	}
	if u.ReRanked != nil {
		s.ReRanked = u.ReRanked
	}
	if u.Selection != nil {
		s.Selection = u.Selection
	}
	if u.Synonyms != nil {
		s.Synonyms = u.Synonyms
	}
	s.Errors = append(s.Errors, u.Errors...)
}
