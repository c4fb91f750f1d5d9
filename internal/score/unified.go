// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"text/template"

	"github.com/pdiddy/paper-triage/internal/llm"
	"github.com/pdiddy/paper-triage/pkg/types"
)

// Unified-stage aggregate weights. Fixed by design, independent of the
// heuristic stage's configurable ScoringWeights.
const (
	unifiedRelevanceWeight    = 0.40
	unifiedNoveltyWeight      = 0.25
	unifiedImpactWeight       = 0.25
	unifiedPracticalityWeight = 0.10
)

const (
	maxAuthorsShown    = 5
	maxKeywordsShown   = 8
	maxAbstractShown   = 1500
	maxCommentShown    = 500
	maxOtherFields     = 10
	maxSummaryLength   = 500
	maxInsightsLength  = 300
	maxRationaleLength = 500
)

// priorityFields are shown first when rendering reviews for the model, in
// this order.
var priorityFields = []string{"rating", "overall_recommendation", "confidence", "summary"}

var unifiedPromptTmpl = template.Must(template.New("unified").Parse(`You are an expert reviewer of machine learning papers. Evaluate the following paper comprehensively.

# Paper

**Title**: {{.Title}}

**Authors**: {{.Authors}}

**Keywords**: {{.Keywords}}

**Abstract**:
{{.Abstract}}

**Decision**: {{.Decision}}

**Decision comment** (program chairs):
{{.DecisionComment}}

# Review data

{{.Reviews}}

# User research interests

{{.Interests}}

# Task

Score the paper on four axes, each in the range 0.0-1.0:

1. relevance — how closely the paper matches the user's research interests, judged from its keywords, title, and abstract; use any "relevance" or "significance" review fields as supporting evidence.
2. novelty — originality of the work; prefer "originality" or "novelty" review fields when present, then "strengths_and_weaknesses", "claims_and_evidence", or "contribution"; otherwise infer from the abstract.
3. impact — academic and practical influence; prefer "significance" or "contribution" fields, weigh "rating" or "overall_recommendation", and factor in the acceptance decision.
4. practicality — applicability in practice: ease of implementation, reproducibility, industrial potential; "methods_and_evaluation_criteria" and "questions_for_authors" fields may help.

Also produce:

5. review_summary — 2-3 sentences synthesizing all reviews: main strengths and weaknesses, the overall tendency, and the chairs' reasoning if available.
6. field_insights — 1-2 sentences naming which review fields you relied on most.
7. rationale — a short justification of the scores with respect to the user's interests.

# Output format

Respond with ONLY this JSON object, no surrounding text:

{"relevance": 0.85, "novelty": 0.72, "impact": 0.68, "practicality": 0.80, "review_summary": "...", "field_insights": "...", "rationale": "..."}
`))

// UnifiedScorer scores papers with one LLM call each.
type UnifiedScorer struct {
	client llm.Client
	cfg    types.LLMConfig
}

// NewUnifiedScorer returns a scorer backed by client.
func NewUnifiedScorer(client llm.Client, cfg types.LLMConfig) *UnifiedScorer {
	return &UnifiedScorer{client: client, cfg: cfg}
}

// UnifiedAggregate computes the fixed-weight aggregate over the four axis
// scores.
func UnifiedAggregate(relevance, novelty, impact, practicality float64) float64 {
	return clamp01(relevance*unifiedRelevanceWeight +
		novelty*unifiedNoveltyWeight +
		impact*unifiedImpactWeight +
		practicality*unifiedPracticalityWeight)
}

// Score evaluates one paper. Model and parse failures never abort: the
// returned paper carries neutral 0.5 scores and an explanatory rationale, and
// the error describes the incident for the run's error list.
func (s *UnifiedScorer) Score(ctx context.Context, paper types.EvaluatedPaper, criteria types.EvaluationCriteria) (types.EvaluatedPaper, error) {
	prompt, err := renderUnifiedPrompt(paper, criteria)
	if err != nil {
		return neutralScores(paper, fmt.Sprintf("prompt error: %v", err)), fmt.Errorf("rendering evaluation prompt for %s: %w", paper.ID, err)
	}

	resp, err := s.client.Complete(ctx, llm.Request{Prompt: prompt, MaxTokens: s.cfg.MaxTokens})
	if err != nil {
		return neutralScores(paper, fmt.Sprintf("LLM evaluation error: %v", err)), fmt.Errorf("evaluating %s: %w", paper.ID, err)
	}

	eval, err := parseUnifiedResponse(resp)
	if err != nil {
		return neutralScores(paper, fmt.Sprintf("response parse error: %v", err)), fmt.Errorf("parsing evaluation for %s: %w", paper.ID, err)
	}

	paper.RelevanceScore = eval.relevance
	paper.NoveltyScore = eval.novelty
	paper.ImpactScore = eval.impact
	paper.PracticalityScore = eval.practicality
	paper.OverallScore = UnifiedAggregate(eval.relevance, eval.novelty, eval.impact, eval.practicality)
	paper.ReviewSummary = eval.reviewSummary
	paper.FieldInsights = eval.fieldInsights
	paper.Rationale = eval.rationale
	return paper, nil
}

func neutralScores(paper types.EvaluatedPaper, rationale string) types.EvaluatedPaper {
	paper.RelevanceScore = 0.5
	paper.NoveltyScore = 0.5
	paper.ImpactScore = 0.5
	paper.PracticalityScore = 0.5
	paper.OverallScore = 0.5
	paper.ReviewSummary = "evaluation unavailable"
	paper.FieldInsights = "N/A"
	paper.Rationale = truncate(rationale, maxRationaleLength)
	return paper
}

func renderUnifiedPrompt(paper types.EvaluatedPaper, criteria types.EvaluationCriteria) (string, error) {
	authors := paper.Authors
	suffix := ""
	if len(authors) > maxAuthorsShown {
		authors = authors[:maxAuthorsShown]
		suffix = "..."
	}
	keywords := paper.Keywords
	if len(keywords) > maxKeywordsShown {
		keywords = keywords[:maxKeywordsShown]
	}

	interests := criteria.ResearchDescription
	if interests == "" {
		interests = "Keywords: " + strings.Join(criteria.ResearchInterests, ", ")
	}

	decisionComment := paper.DecisionComment
	if decisionComment == "" {
		decisionComment = "N/A"
	}
	decision := paper.Decision
	if decision == "" {
		decision = "N/A"
	}

	data := struct {
		Title, Authors, Keywords, Abstract, Decision, DecisionComment, Reviews, Interests string
	}{
		Title:           paper.Title,
		Authors:         strings.Join(authors, ", ") + suffix,
		Keywords:        strings.Join(keywords, ", "),
		Abstract:        truncate(paper.Abstract, maxAbstractShown),
		Decision:        decision,
		DecisionComment: truncate(decisionComment, maxCommentShown),
		Reviews:         formatReviews(paper.Reviews),
		Interests:       interests,
	}

	var buf bytes.Buffer
	if err := unifiedPromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// formatReviews renders review field maps for the model: priority fields
// first, then up to 10 remaining fields in alphabetical order.
func formatReviews(reviews []types.Review) string {
	if len(reviews) == 0 {
		return "**No review data** (reviews unpublished or retrieval failed)."
	}

	var sb strings.Builder
	for i, review := range reviews {
		fmt.Fprintf(&sb, "## Review %d\n\n", i+1)

		shown := make(map[string]bool)
		for _, field := range priorityFields {
			if value, ok := review[field]; ok {
				fmt.Fprintf(&sb, "**%s**: %s\n", fieldLabel(field), truncate(value, 300))
				shown[field] = true
			}
		}

		var others []string
		for field := range review {
			if !shown[field] {
				others = append(others, field)
			}
		}
		sort.Strings(others)

		if len(others) > 0 {
			sb.WriteString("\n**Other fields**:\n")
			for j, field := range others {
				if j >= maxOtherFields {
					fmt.Fprintf(&sb, "  ...and %d more\n", len(others)-maxOtherFields)
					break
				}
				fmt.Fprintf(&sb, "  - **%s**: %s\n", fieldLabel(field), truncate(review[field], 150))
			}
		}
		sb.WriteString("\n---\n\n")
	}
	return sb.String()
}

func fieldLabel(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

var jsonBlockRe = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")
var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

type unifiedEvaluation struct {
	relevance, novelty, impact, practicality float64
	reviewSummary, fieldInsights, rationale  string
}

func parseUnifiedResponse(resp string) (unifiedEvaluation, error) {
	jsonStr := strings.TrimSpace(resp)
	if m := jsonBlockRe.FindStringSubmatch(resp); m != nil {
		jsonStr = m[1]
	} else if m := jsonObjectRe.FindString(resp); m != "" {
		jsonStr = m
	}

	var raw struct {
		Relevance     *float64 `json:"relevance"`
		Novelty       *float64 `json:"novelty"`
		Impact        *float64 `json:"impact"`
		Practicality  *float64 `json:"practicality"`
		ReviewSummary string   `json:"review_summary"`
		FieldInsights string   `json:"field_insights"`
		Rationale     string   `json:"rationale"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return unifiedEvaluation{}, fmt.Errorf("invalid evaluation JSON: %w", err)
	}

	axis := func(p *float64) float64 {
		if p == nil {
			return 0.5
		}
		return clamp01(*p)
	}
	text := func(s, fallback string, max int) string {
		if s == "" {
			s = fallback
		}
		return truncate(s, max)
	}

	return unifiedEvaluation{
		relevance:     axis(raw.Relevance),
		novelty:       axis(raw.Novelty),
		impact:        axis(raw.Impact),
		practicality:  axis(raw.Practicality),
		reviewSummary: text(raw.ReviewSummary, "no review summary", maxSummaryLength),
		fieldInsights: text(raw.FieldInsights, "no field information", maxInsightsLength),
		rationale:     text(raw.Rationale, "no rationale", maxRationaleLength),
	}, nil
}
