// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/paper-triage/internal/llm"
	"github.com/pdiddy/paper-triage/pkg/types"
)

const (
	preliminaryMaxTokens = 50
	abstractShortLength  = 300
	maxKeywordsShown     = 8
	progressEvery        = 50
)

// floatTokenRe matches the first floating-point token in a model response,
// tolerating prose like "The relevance is 0.85".
var floatTokenRe = regexp.MustCompile(`\d+\.?\d*`)

// PreliminaryRefiner re-scores the relevance of top candidates with a cheap
// single-number LLM query each, then re-sorts the full set.
type PreliminaryRefiner struct {
	client  llm.Client
	weights types.ScoringWeights
	out     io.Writer
}

// NewPreliminaryRefiner returns a refiner. Progress lines are written to out;
// nil discards them.
func NewPreliminaryRefiner(client llm.Client, weights types.ScoringWeights, out io.Writer) *PreliminaryRefiner {
	if out == nil {
		out = io.Discard
	}
	return &PreliminaryRefiner{client: client, weights: weights, out: out}
}

// Refine re-evaluates the relevance of the top candidates (bounded by the
// criteria's pool size), folds the relevance delta into each aggregate score
// weighted by the relevance weight, re-clamps, and re-sorts the full set. A
// per-paper failure keeps the prior scores and is reported in the returned
// incident list.
func (r *PreliminaryRefiner) Refine(ctx context.Context, papers []types.EvaluatedPaper, criteria types.EvaluationCriteria) ([]types.EvaluatedPaper, []string) {
	count := criteria.PreliminaryLLMFilterCount
	if count <= 0 || count > len(papers) {
		count = len(papers)
	}

	fmt.Fprintf(r.out, "preliminary relevance pass over top %d papers\n", count)

	out := make([]types.EvaluatedPaper, len(papers))
	copy(out, papers)

	var degraded []string
	for i := 0; i < count; i++ {
		newRelevance, err := r.relevanceOf(ctx, out[i], criteria)
		if err != nil {
			degraded = append(degraded, fmt.Sprintf("preliminary relevance for %s: %v", out[i].ID, err))
			continue
		}

		delta := newRelevance - out[i].RelevanceScore
		out[i].RelevanceScore = newRelevance
		out[i].OverallScore = clamp01(out[i].OverallScore + delta*r.weights.RelevanceWeight)

		if (i+1)%progressEvery == 0 {
			fmt.Fprintf(r.out, "preliminary pass: %d/%d papers re-scored\n", i+1, count)
		}
	}

	return Sort(out), degraded
}

func (r *PreliminaryRefiner) relevanceOf(ctx context.Context, paper types.EvaluatedPaper, criteria types.EvaluationCriteria) (float64, error) {
	abstract := paper.Abstract
	if len(abstract) > abstractShortLength {
		abstract = abstract[:abstractShortLength] + "..."
	}
	keywords := paper.Keywords
	if len(keywords) > maxKeywordsShown {
		keywords = keywords[:maxKeywordsShown]
	}

	interests := criteria.ResearchDescription
	if interests == "" {
		interests = "Keywords: " + strings.Join(criteria.ResearchInterests, ", ")
	}

	prompt := fmt.Sprintf(`Rate the relevance of this paper to the user's research interests.

User's Research Interests:
%s

Paper:
Title: %s
Keywords: %s
Abstract: %s

Rate the relevance on a scale of 0.0 to 1.0:
- 1.0: Highly relevant, directly addresses the research interests
- 0.7-0.9: Very relevant, closely related
- 0.4-0.6: Moderately relevant, some overlap
- 0.1-0.3: Slightly relevant, tangential connection
- 0.0: Not relevant

Return ONLY a single number between 0.0 and 1.0 (e.g., "0.85"). No other text.
`, interests, paper.Title, strings.Join(keywords, ", "), abstract)

	resp, err := r.client.Complete(ctx, llm.Request{Prompt: prompt, MaxTokens: preliminaryMaxTokens})
	if err != nil {
		return 0, err
	}

	token := floatTokenRe.FindString(resp)
	if token == "" {
		return 0, fmt.Errorf("no numeric token in response %q", truncateForError(resp))
	}
	score, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %q: %w", token, err)
	}
	return clamp01(score), nil
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func truncateForError(s string) string {
	if len(s) > 50 {
		return s[:50] + "..."
	}
	return s
}
