// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-triage/internal/llm"
	"github.com/pdiddy/paper-triage/pkg/types"
)

// fakeLLM returns canned responses and records prompts.
type fakeLLM struct {
	responses []string
	err       error
	prompts   []string
}

func (f *fakeLLM) Complete(_ context.Context, req llm.Request) (string, error) {
	f.prompts = append(f.prompts, req.Prompt)
	if f.err != nil {
		return "", f.err
	}
	i := len(f.prompts) - 1
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	return f.responses[i], nil
}

func testPaper() types.EvaluatedPaper {
	return types.EvaluatedPaper{
		PaperRecord: types.PaperRecord{
			ID:       "p1",
			Title:    "Graph Generation at Scale",
			Authors:  []string{"A", "B"},
			Keywords: []string{"graphs"},
			Abstract: "We generate graphs.",
			ReviewBundle: types.ReviewBundle{
				Reviews:  []types.Review{{"rating": "7: accept", "summary": "good", "zeta_field": "z", "alpha_field": "a"}},
				Decision: "Accept (poster)",
			},
		},
	}
}

func TestUnifiedAggregate(t *testing.T) {
	got := UnifiedAggregate(0.9, 0.6, 0.7, 0.4)
	assert.InDelta(t, 0.725, got, 1e-9)
}

func TestScore_ParsesResponse(t *testing.T) {
	client := &fakeLLM{responses: []string{`{
		"relevance": 0.9, "novelty": 0.6, "impact": 0.7, "practicality": 0.4,
		"review_summary": "reviewers liked it",
		"field_insights": "used rating and summary",
		"rationale": "close match"
	}`}}

	s := NewUnifiedScorer(client, types.LLMConfig{MaxTokens: 1000})
	got, err := s.Score(context.Background(), testPaper(), types.EvaluationCriteria{ResearchInterests: []string{"graphs"}})
	require.NoError(t, err)

	assert.InDelta(t, 0.9, got.RelevanceScore, 1e-9)
	assert.InDelta(t, 0.6, got.NoveltyScore, 1e-9)
	assert.InDelta(t, 0.7, got.ImpactScore, 1e-9)
	assert.InDelta(t, 0.4, got.PracticalityScore, 1e-9)
	assert.InDelta(t, 0.725, got.OverallScore, 1e-9)
	assert.Equal(t, "reviewers liked it", got.ReviewSummary)
	assert.Equal(t, "used rating and summary", got.FieldInsights)
	assert.Equal(t, "close match", got.Rationale)
}

func TestScore_AcceptsFencedJSON(t *testing.T) {
	client := &fakeLLM{responses: []string{
		"Here is the evaluation:\n```json\n{\"relevance\": 1.0, \"novelty\": 0.5, \"impact\": 0.5, \"practicality\": 0.5, \"rationale\": \"ok\"}\n```",
	}}

	s := NewUnifiedScorer(client, types.LLMConfig{})
	got, err := s.Score(context.Background(), testPaper(), types.EvaluationCriteria{})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got.RelevanceScore, 1e-9)
	// Missing text fields fall back to placeholders.
	assert.Equal(t, "no review summary", got.ReviewSummary)
}

func TestScore_MalformedResponseYieldsNeutralDefaults(t *testing.T) {
	client := &fakeLLM{responses: []string{"I cannot evaluate this paper."}}

	s := NewUnifiedScorer(client, types.LLMConfig{})
	got, err := s.Score(context.Background(), testPaper(), types.EvaluationCriteria{})
	require.Error(t, err)

	assert.InDelta(t, 0.5, got.RelevanceScore, 1e-9)
	assert.InDelta(t, 0.5, got.NoveltyScore, 1e-9)
	assert.InDelta(t, 0.5, got.ImpactScore, 1e-9)
	assert.InDelta(t, 0.5, got.PracticalityScore, 1e-9)
	assert.InDelta(t, 0.5, got.OverallScore, 1e-9)
	assert.NotEmpty(t, got.Rationale)
}

func TestScore_LLMErrorYieldsNeutralDefaults(t *testing.T) {
	client := &fakeLLM{err: errors.New("timeout")}

	s := NewUnifiedScorer(client, types.LLMConfig{})
	got, err := s.Score(context.Background(), testPaper(), types.EvaluationCriteria{})
	require.Error(t, err)
	assert.InDelta(t, 0.5, got.OverallScore, 1e-9)
	assert.Contains(t, got.Rationale, "timeout")
}

func TestScore_ClampsOutOfRangeScores(t *testing.T) {
	client := &fakeLLM{responses: []string{`{"relevance": 7.5, "novelty": -2, "impact": 0.5, "practicality": 0.5}`}}

	s := NewUnifiedScorer(client, types.LLMConfig{})
	got, err := s.Score(context.Background(), testPaper(), types.EvaluationCriteria{})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got.RelevanceScore, 1e-9)
	assert.InDelta(t, 0.0, got.NoveltyScore, 1e-9)
}

func TestFormatReviews_PriorityFieldsFirst(t *testing.T) {
	out := formatReviews([]types.Review{{
		"zeta_field": "last",
		"rating":     "7: accept",
		"summary":    "short summary",
		"confidence": "4",
	}})

	ratingIdx := indexOf(t, out, "rating")
	zetaIdx := indexOf(t, out, "zeta field")
	assert.Less(t, ratingIdx, zetaIdx)
	assert.Contains(t, out, "Other fields")
}

func TestFormatReviews_Empty(t *testing.T) {
	out := formatReviews(nil)
	assert.Contains(t, out, "No review data")
}

func indexOf(t *testing.T, haystack, needle string) int {
	t.Helper()
	idx := -1
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			idx = i
			break
		}
	}
	require.GreaterOrEqual(t, idx, 0, "expected %q in output", needle)
	return idx
}
