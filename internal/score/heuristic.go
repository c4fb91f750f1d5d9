// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score computes paper scores: deterministic heuristics derived from
// keyword matching and review statistics, and a unified LLM evaluation that
// produces all four axis scores in one model call.
package score

import (
	"fmt"
	"strings"

	"github.com/pdiddy/paper-triage/pkg/types"
)

// ratingScale normalizes review ratings to [0,1]. NeurIPS and ICLR rate on a
// 10-point scale.
const ratingScale = 10.0

// Relevance group-match weights. A group is one research interest plus its
// synonyms; keyword-list matches outweigh title/abstract text matches, with a
// coverage bonus for matching many groups.
const (
	relevanceKeywordWeight  = 0.70
	relevanceTextWeight     = 0.20
	relevanceCoverageWeight = 0.10
)

// positiveNoveltyTerms signal originality in review text.
var positiveNoveltyTerms = []string{
	"novel", "new approach", "innovative", "original", "first",
	"groundbreaking", "pioneering", "unique", "creative", "fresh",
}

// negativeNoveltyTerms signal incremental work.
var negativeNoveltyTerms = []string{
	"not novel", "incremental", "limited novelty", "similar to",
	"existing work", "well-known", "standard approach",
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

// Relevance scores how well a paper matches the research interests. Each
// interest and its synonyms form one group; a group counts once no matter how
// many of its terms match. Returns 0.5 when no interests are supplied.
func Relevance(p types.PaperRecord, criteria types.EvaluationCriteria, synonyms SynonymIndex) float64 {
	interests := criteria.ResearchInterests
	if len(interests) == 0 {
		return 0.5
	}

	paperKeywords := make(map[string]bool, len(p.Keywords))
	for _, kw := range p.Keywords {
		paperKeywords[strings.ToLower(strings.TrimSpace(kw))] = true
	}
	paperText := strings.ToLower(p.Title + " " + p.Abstract)

	matchedGroups := 0
	keywordMatches := 0
	textOnlyMatches := 0

	for _, interest := range interests {
		group := synonyms.Group(interest)

		hasKeywordMatch := false
		hasTextMatch := false
		for _, term := range group {
			if paperKeywords[term] {
				hasKeywordMatch = true
			}
			if strings.Contains(paperText, term) {
				hasTextMatch = true
			}
		}

		if hasKeywordMatch || hasTextMatch {
			matchedGroups++
			if hasKeywordMatch {
				keywordMatches++
			} else {
				textOnlyMatches++
			}
		}
	}

	n := float64(len(interests))
	total := float64(keywordMatches)*(relevanceKeywordWeight/n) +
		float64(textOnlyMatches)*(relevanceTextWeight/n) +
		(float64(matchedGroups)/n)*relevanceCoverageWeight

	return clamp01(total)
}

// Novelty estimates originality from review text. Mentions of novelty terms
// in the strengths field count double positive; mentions of incremental-work
// terms in the weaknesses field count double negative. Without any term hits
// (or without reviews) novelty falls back to the normalized rating.
func Novelty(b types.ReviewBundle) float64 {
	normalizedRating := 0.5
	if b.HasRating() {
		normalizedRating = *b.RatingAvg / ratingScale
	}
	if len(b.Reviews) == 0 {
		return clamp01(normalizedRating)
	}

	positive := 0
	negative := 0
	for _, review := range b.Reviews {
		strengths := strings.ToLower(review["strengths"])
		weaknesses := strings.ToLower(review["weaknesses"])
		summary := strings.ToLower(review["summary"])
		text := strengths + " " + weaknesses + " " + summary

		for _, term := range positiveNoveltyTerms {
			if strings.Contains(text, term) {
				if strings.Contains(strengths, term) {
					positive += 2
				} else {
					positive++
				}
			}
		}
		for _, term := range negativeNoveltyTerms {
			if strings.Contains(text, term) {
				if strings.Contains(weaknesses, term) {
					negative += 2
				} else {
					negative++
				}
			}
		}
	}

	if positive == 0 && negative == 0 {
		return clamp01(normalizedRating)
	}
	keywordScore := float64(positive) / float64(positive+negative+1)
	return clamp01(0.5*keywordScore + 0.5*normalizedRating)
}

// Impact blends the acceptance decision, the normalized rating, and reviewer
// confidence.
func Impact(b types.ReviewBundle) float64 {
	decision := strings.ToLower(b.Decision)
	decisionScore := 0.5
	switch {
	case strings.Contains(decision, "oral") || strings.Contains(decision, "spotlight"):
		decisionScore = 1.0
	case strings.Contains(decision, "accept"):
		decisionScore = 0.7
	case strings.Contains(decision, "reject"):
		decisionScore = 0.2
	}

	normalizedRating := 0.0
	if b.HasRating() {
		normalizedRating = *b.RatingAvg / ratingScale
	}

	confidenceScore := 0.5
	if b.ConfidenceAvg != nil {
		confidenceScore = *b.ConfidenceAvg / 5.0
	}

	return clamp01(0.5*decisionScore + 0.3*normalizedRating + 0.2*confidenceScore)
}

// Evaluate computes the heuristic scores for one paper. With rating data the
// aggregate is the configured weighted blend; without it the aggregate leans
// on relevance alone (relevance*0.7 + 0.3) and novelty/impact stay neutral.
func Evaluate(p types.PaperRecord, criteria types.EvaluationCriteria, synonyms SynonymIndex, weights types.ScoringWeights) types.EvaluatedPaper {
	relevance := Relevance(p, criteria, synonyms)

	ep := types.EvaluatedPaper{PaperRecord: p}

	if !p.HasRating() {
		ep.RelevanceScore = relevance
		ep.NoveltyScore = 0.5
		ep.ImpactScore = 0.5
		ep.OverallScore = clamp01(relevance*0.7 + 0.3)
		ep.Rationale = rationale(p.ReviewBundle, ep)
		return ep
	}

	novelty := Novelty(p.ReviewBundle)
	impact := Impact(p.ReviewBundle)
	overall := relevance*weights.RelevanceWeight +
		novelty*weights.NoveltyWeight +
		impact*weights.ImpactWeight

	ep.RelevanceScore = clamp01(relevance)
	ep.NoveltyScore = clamp01(novelty)
	ep.ImpactScore = clamp01(impact)
	ep.OverallScore = clamp01(overall)
	ep.Rationale = rationale(p.ReviewBundle, ep)
	return ep
}

// rationale renders a short human-readable justification of the heuristic
// scores.
func rationale(b types.ReviewBundle, ep types.EvaluatedPaper) string {
	var sb strings.Builder

	switch {
	case len(b.Reviews) > 0 && b.HasRating():
		fmt.Fprintf(&sb, "Received %d reviews averaging %.2f/10.", len(b.Reviews), *b.RatingAvg)
	case len(b.Reviews) > 0:
		fmt.Fprintf(&sb, "Received %d reviews; no numeric rating published.", len(b.Reviews))
	default:
		sb.WriteString("No reviews available.")
	}

	decision := strings.ToLower(b.Decision)
	switch {
	case strings.Contains(decision, "oral") || strings.Contains(decision, "spotlight"):
		fmt.Fprintf(&sb, " Decision %q indicates a highlighted acceptance.", b.Decision)
	case strings.Contains(decision, "accept"):
		fmt.Fprintf(&sb, " Decision: %s.", b.Decision)
	case strings.Contains(decision, "reject"):
		fmt.Fprintf(&sb, " Rejected (%s).", b.Decision)
	}

	fmt.Fprintf(&sb, " Overall %.3f (relevance %.3f, novelty %.3f, impact %.3f).",
		ep.OverallScore, ep.RelevanceScore, ep.NoveltyScore, ep.ImpactScore)

	if b.ConfidenceAvg != nil {
		fmt.Fprintf(&sb, " Reviewer confidence %.2f/5.", *b.ConfidenceAvg)
	}
	return sb.String()
}
