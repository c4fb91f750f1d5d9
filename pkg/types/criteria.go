// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// EvaluationCriteria describes what the user is looking for. Either
// ResearchDescription or ResearchInterests must be resolvable into keywords
// before scoring starts.
type EvaluationCriteria struct {
	// ResearchDescription is a free-text description of the user's
	// research interests. When ResearchInterests is empty, keywords are
	// extracted from it.
	ResearchDescription string `json:"research_description,omitempty" yaml:"research_description,omitempty"`

	// ResearchInterests lists explicit interest keywords (lowercase).
	ResearchInterests []string `json:"research_interests,omitempty" yaml:"research_interests,omitempty"`

	// MinRelevanceScore is the admission threshold on relevance (default 0.5).
	MinRelevanceScore float64 `json:"min_relevance_score" yaml:"min_relevance_score"`

	// MinRating drops papers whose average review rating is known and
	// below this value. Nil disables the check.
	MinRating *float64 `json:"min_rating,omitempty" yaml:"min_rating,omitempty"`

	// MinCitations drops papers with fewer known citations. Nil disables
	// the check.
	MinCitations *int `json:"min_citations,omitempty" yaml:"min_citations,omitempty"`

	// FocusOnNovelty and FocusOnImpact are emphasis hints surfaced to the
	// LLM evaluation prompt.
	FocusOnNovelty bool `json:"focus_on_novelty" yaml:"focus_on_novelty"`
	FocusOnImpact  bool `json:"focus_on_impact" yaml:"focus_on_impact"`

	// TopKPapers truncates the ranked list before LLM scoring. Nil keeps
	// all papers that pass the admission filter.
	TopKPapers *int `json:"top_k_papers,omitempty" yaml:"top_k_papers,omitempty"`

	// EnablePreliminaryLLMFilter re-scores top candidates with a cheap
	// single-number LLM relevance query before top-K selection.
	EnablePreliminaryLLMFilter bool `json:"enable_preliminary_llm_filter" yaml:"enable_preliminary_llm_filter"`

	// PreliminaryLLMFilterCount bounds the candidate pool for the
	// preliminary pass (default 500).
	PreliminaryLLMFilterCount int `json:"preliminary_llm_filter_count" yaml:"preliminary_llm_filter_count"`
}

// DefaultCriteria returns criteria with the documented defaults.
func DefaultCriteria() EvaluationCriteria {
	return EvaluationCriteria{
		MinRelevanceScore:         0.5,
		FocusOnNovelty:            true,
		FocusOnImpact:             true,
		PreliminaryLLMFilterCount: 500,
	}
}

// HasInterests reports whether keywords are already resolved.
func (c EvaluationCriteria) HasInterests() bool {
	return len(c.ResearchInterests) > 0
}

// ConfigError reports an invalid configuration value. It aborts a run before
// any network activity.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return "config: " + e.Msg
}

// weightTolerance is the allowed deviation from 1.0 for weight sums.
const weightTolerance = 0.01

// ScoringWeights configures heuristic score aggregation. Immutable after
// construction; share by reference across a run.
type ScoringWeights struct {
	// OpenReviewWeight and LLMWeight document the blend between the
	// review-derived and LLM-derived evaluation surfaces. Must sum to 1.0.
	OpenReviewWeight float64 `json:"openreview_weight" yaml:"openreview_weight"`
	LLMWeight        float64 `json:"llm_weight" yaml:"llm_weight"`

	// RelevanceWeight, NoveltyWeight, and ImpactWeight combine the three
	// heuristic axis scores into the heuristic aggregate. Must sum to 1.0.
	RelevanceWeight float64 `json:"relevance_weight" yaml:"relevance_weight"`
	NoveltyWeight   float64 `json:"novelty_weight" yaml:"novelty_weight"`
	ImpactWeight    float64 `json:"impact_weight" yaml:"impact_weight"`
}

// NewScoringWeights validates and returns the weights. Both weight groups
// must sum to 1.0 within a 0.01 tolerance; a violation is a ConfigError.
func NewScoringWeights(openReview, llm, relevance, novelty, impact float64) (ScoringWeights, error) {
	w := ScoringWeights{
		OpenReviewWeight: openReview,
		LLMWeight:        llm,
		RelevanceWeight:  relevance,
		NoveltyWeight:    novelty,
		ImpactWeight:     impact,
	}
	if err := w.Validate(); err != nil {
		return ScoringWeights{}, err
	}
	return w, nil
}

// Validate checks both weight-sum invariants.
func (w ScoringWeights) Validate() error {
	if d := w.OpenReviewWeight + w.LLMWeight - 1.0; d > weightTolerance || d < -weightTolerance {
		return &ConfigError{Msg: fmt.Sprintf(
			"openreview_weight + llm_weight must equal 1.0 (got %.3f)",
			w.OpenReviewWeight+w.LLMWeight)}
	}
	if d := w.RelevanceWeight + w.NoveltyWeight + w.ImpactWeight - 1.0; d > weightTolerance || d < -weightTolerance {
		return &ConfigError{Msg: fmt.Sprintf(
			"relevance_weight + novelty_weight + impact_weight must equal 1.0 (got %.3f)",
			w.RelevanceWeight+w.NoveltyWeight+w.ImpactWeight)}
	}
	return nil
}

// DefaultScoringWeights returns the documented default weighting.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		OpenReviewWeight: 0.4,
		LLMWeight:        0.6,
		RelevanceWeight:  0.4,
		NoveltyWeight:    0.3,
		ImpactWeight:     0.3,
	}
}
