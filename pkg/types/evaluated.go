// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// EvaluatedPaper is a PaperRecord enriched with evaluation output. One is
// created per paper per pipeline run and progressively filled by the
// heuristic, LLM, and re-ranking stages; later stages never regress fields
// set by earlier ones.
type EvaluatedPaper struct {
	PaperRecord

	// RelevanceScore measures fit to the user's research interests, in [0,1].
	RelevanceScore float64 `json:"relevance_score"`

	// NoveltyScore measures originality, in [0,1].
	NoveltyScore float64 `json:"novelty_score"`

	// ImpactScore measures expected academic or practical influence, in [0,1].
	ImpactScore float64 `json:"impact_score"`

	// PracticalityScore measures applicability, in [0,1]. Only the unified
	// LLM stage assigns it; the heuristic stage leaves it at zero.
	PracticalityScore float64 `json:"practicality_score"`

	// OverallScore is the weighted aggregate, in [0,1].
	OverallScore float64 `json:"overall_score"`

	// ReviewSummary is the LLM synthesis of all reviews.
	ReviewSummary string `json:"review_summary,omitempty"`

	// FieldInsights explains which review fields the LLM weighted most.
	FieldInsights string `json:"field_insights,omitempty"`

	// Rationale explains the scores in prose.
	Rationale string `json:"rationale,omitempty"`

	// Rank is the 1-based position after final re-ranking; zero until the
	// selection stage assigns it.
	Rank int `json:"rank,omitempty"`
}
