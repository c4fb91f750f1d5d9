// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-triage/internal/llm"
	"github.com/pdiddy/paper-triage/pkg/types"
)

func fptr(f float64) *float64 { return &f }
func iptr(i int) *int         { return &i }

func paper(id string, relevance, overall float64) types.EvaluatedPaper {
	return types.EvaluatedPaper{
		PaperRecord:    types.PaperRecord{ID: id},
		RelevanceScore: relevance,
		OverallScore:   overall,
	}
}

func TestFilter_MinRelevance(t *testing.T) {
	papers := []types.EvaluatedPaper{
		paper("low", 0.3, 0.5),
		paper("high", 0.8, 0.5),
	}
	criteria := types.EvaluationCriteria{MinRelevanceScore: 0.5}

	got := Filter(papers, criteria)
	require.Len(t, got, 1)
	assert.Equal(t, "high", got[0].ID)
}

func TestFilter_MinRatingSkipsUnknown(t *testing.T) {
	withRating := paper("rated", 0.9, 0.5)
	withRating.RatingAvg = fptr(4.0)
	noRating := paper("unrated", 0.9, 0.5)

	criteria := types.EvaluationCriteria{MinRating: fptr(6.0)}
	got := Filter([]types.EvaluatedPaper{withRating, noRating}, criteria)

	// The known low rating is rejected; the unknown rating never is.
	require.Len(t, got, 1)
	assert.Equal(t, "unrated", got[0].ID)
}

func TestFilter_Monotonic(t *testing.T) {
	papers := []types.EvaluatedPaper{
		paper("a", 0.2, 0), paper("b", 0.4, 0), paper("c", 0.6, 0), paper("d", 0.8, 0),
	}

	prev := len(papers) + 1
	for _, min := range []float64{0.0, 0.3, 0.5, 0.7, 0.9} {
		got := Filter(papers, types.EvaluationCriteria{MinRelevanceScore: min})
		assert.LessOrEqual(t, len(got), prev, "raising the threshold must not grow the set")
		prev = len(got)
	}
}

func TestSort_DescendingAndStable(t *testing.T) {
	papers := []types.EvaluatedPaper{
		paper("first-tie", 0, 0.7),
		paper("top", 0, 0.9),
		paper("second-tie", 0, 0.7),
	}

	got := Sort(papers)
	require.Len(t, got, 3)
	assert.Equal(t, "top", got[0].ID)
	assert.Equal(t, "first-tie", got[1].ID)
	assert.Equal(t, "second-tie", got[2].ID)

	// Idempotent: re-sorting a sorted list changes nothing.
	again := Sort(got)
	assert.Equal(t, got, again)
}

func TestSelectTopK(t *testing.T) {
	papers := []types.EvaluatedPaper{paper("a", 0, 0.9), paper("b", 0, 0.8), paper("c", 0, 0.7)}

	got := SelectTopK(papers, types.EvaluationCriteria{TopKPapers: iptr(2)})
	assert.Len(t, got, 2)

	all := SelectTopK(papers, types.EvaluationCriteria{})
	assert.Len(t, all, 3)
}

func TestReRank_AssignsRanks(t *testing.T) {
	papers := []types.EvaluatedPaper{
		paper("mid", 0, 0.5),
		paper("top", 0, 0.9),
		paper("bottom", 0, 0.1),
	}

	got := ReRank(papers)
	require.Len(t, got, 3)
	assert.Equal(t, "top", got[0].ID)
	assert.Equal(t, 1, got[0].Rank)
	assert.Equal(t, 2, got[1].Rank)
	assert.Equal(t, 3, got[2].Rank)
}

func TestSelect_TruncatesToDisplayCount(t *testing.T) {
	papers := make([]types.EvaluatedPaper, 25)
	for i := range papers {
		papers[i] = paper("p", 0, 0.5)
	}
	assert.Len(t, Select(papers, 0), DefaultDisplayCount)
	assert.Len(t, Select(papers, 5), 5)
	assert.Len(t, Select(papers[:3], 5), 3)
}

// scriptedLLM returns responses keyed by call order.
type scriptedLLM struct {
	responses []string
	errs      []error
	calls     int
}

func (s *scriptedLLM) Complete(_ context.Context, _ llm.Request) (string, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return "", errors.New("no scripted response")
}

func refinerWeights(t *testing.T) types.ScoringWeights {
	t.Helper()
	w, err := types.NewScoringWeights(0.4, 0.6, 0.4, 0.3, 0.3)
	require.NoError(t, err)
	return w
}

func TestRefine_AdjustsAggregateAndResorts(t *testing.T) {
	papers := []types.EvaluatedPaper{
		paper("a", 0.9, 0.80),
		paper("b", 0.5, 0.70),
	}
	// a drops to 0.1: overall = 0.80 + (0.1-0.9)*0.4 = 0.48.
	// b rises to 1.0: overall = 0.70 + (1.0-0.5)*0.4 = 0.90.
	client := &scriptedLLM{responses: []string{"0.1", "1.0"}}
	r := NewPreliminaryRefiner(client, refinerWeights(t), nil)

	got, degraded := r.Refine(context.Background(), papers, types.EvaluationCriteria{PreliminaryLLMFilterCount: 2})
	require.Empty(t, degraded)
	require.Len(t, got, 2)

	assert.Equal(t, "b", got[0].ID)
	assert.InDelta(t, 0.90, got[0].OverallScore, 1e-9)
	assert.Equal(t, "a", got[1].ID)
	assert.InDelta(t, 0.48, got[1].OverallScore, 1e-9)
}

func TestRefine_ParsesProseResponse(t *testing.T) {
	papers := []types.EvaluatedPaper{paper("a", 0.5, 0.5)}
	client := &scriptedLLM{responses: []string{"The relevance is 0.85 overall."}}
	r := NewPreliminaryRefiner(client, refinerWeights(t), nil)

	got, degraded := r.Refine(context.Background(), papers, types.EvaluationCriteria{PreliminaryLLMFilterCount: 1})
	require.Empty(t, degraded)
	assert.InDelta(t, 0.85, got[0].RelevanceScore, 1e-9)
}

func TestRefine_FailureKeepsPriorScores(t *testing.T) {
	papers := []types.EvaluatedPaper{paper("a", 0.6, 0.7)}
	client := &scriptedLLM{errs: []error{errors.New("llm down")}}
	r := NewPreliminaryRefiner(client, refinerWeights(t), nil)

	got, degraded := r.Refine(context.Background(), papers, types.EvaluationCriteria{PreliminaryLLMFilterCount: 1})
	require.Len(t, degraded, 1)
	assert.Contains(t, degraded[0], "a")
	assert.InDelta(t, 0.6, got[0].RelevanceScore, 1e-9)
	assert.InDelta(t, 0.7, got[0].OverallScore, 1e-9)
}

func TestRefine_ReclampsAdjustedAggregate(t *testing.T) {
	papers := []types.EvaluatedPaper{paper("a", 0.0, 0.95)}
	// Delta pushes the aggregate past 1.0; it must come back clamped.
	client := &scriptedLLM{responses: []string{"1.0"}}
	r := NewPreliminaryRefiner(client, refinerWeights(t), nil)

	got, _ := r.Refine(context.Background(), papers, types.EvaluationCriteria{PreliminaryLLMFilterCount: 1})
	assert.InDelta(t, 1.0, got[0].OverallScore, 1e-9)
}

func TestRefine_OnlyTopCandidatesQueried(t *testing.T) {
	papers := []types.EvaluatedPaper{
		paper("a", 0.5, 0.9),
		paper("b", 0.5, 0.8),
		paper("c", 0.5, 0.7),
	}
	client := &scriptedLLM{responses: []string{"0.9", "0.9"}}
	r := NewPreliminaryRefiner(client, refinerWeights(t), nil)

	_, degraded := r.Refine(context.Background(), papers, types.EvaluationCriteria{PreliminaryLLMFilterCount: 2})
	require.Empty(t, degraded)
	assert.Equal(t, 2, client.calls)
}
