// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"sort"

	"github.com/pdiddy/paper-triage/internal/openreview"
	"github.com/pdiddy/paper-triage/pkg/types"
)

// fallbackFields is the minimal review schema assumed when discovery finds
// nothing. Every known venue carries at least these.
var fallbackFields = []string{"confidence", "rating", "summary"}

// scoreFields are the per-venue names of the score-bearing review field, in
// lookup order. NeurIPS and ICLR use "rating"; ICML uses
// "overall_recommendation".
var scoreFields = []string{"rating", "overall_recommendation", "score", "recommendation"}

// DiscoverFields inspects sample submissions and returns the union of review
// field names found, sorted. Discovery never fails: any error, or an empty
// union, falls back to the minimal schema.
func DiscoverFields(ctx context.Context, src Source, venue string, year, samples int) []string {
	if samples <= 0 {
		samples = 3
	}

	// Oversample: some submissions have no reviews yet.
	notes, err := src.SampleSubmissions(ctx, venue, year, samples*3)
	if err != nil {
		return fallbackFields
	}

	fields := make(map[string]bool)
	checked := 0
	for _, sub := range notes {
		if checked >= samples {
			break
		}
		forum, err := src.GetForumNotes(ctx, sub.ID)
		if err != nil {
			continue
		}
		found := false
		for _, note := range forum {
			if !note.HasInvitation("Official_Review") || len(note.Content) == 0 {
				continue
			}
			for name := range note.Content {
				fields[name] = true
			}
			found = true
		}
		if found {
			checked++
		}
	}

	if len(fields) == 0 {
		return fallbackFields
	}
	sorted := make([]string, 0, len(fields))
	for name := range fields {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)
	return sorted
}

// isOfficialReview reports whether a forum note is a full official review
// rather than a comment, rebuttal, or meta-review. A review either carries a
// score-bearing field or is comprehensive: a summary plus at least five
// fields.
func isOfficialReview(note openreview.Note) bool {
	if !note.HasInvitation("Official_Review") || len(note.Content) == 0 {
		return false
	}
	if len(note.Content) == 1 {
		if _, ok := note.Content["comment"]; ok {
			return false
		}
		if _, ok := note.Content["rebuttal"]; ok {
			return false
		}
	}
	for _, field := range scoreFields {
		if _, ok := note.Content[field]; ok {
			return true
		}
	}
	if _, ok := note.Content["summary"]; ok && len(note.Content) >= 5 {
		return true
	}
	return false
}

// firstField returns the first non-empty value among the named content
// fields.
func firstField(note openreview.Note, names ...string) string {
	for _, name := range names {
		if v := note.FieldString(name); v != "" {
			return v
		}
	}
	return ""
}

// ExtractBundle builds the review bundle for one submission from its forum
// notes, keeping only the discovered fields on each review and averaging the
// parseable ratings and confidences.
func ExtractBundle(forum []openreview.Note, fields []string) types.ReviewBundle {
	bundle := types.ReviewBundle{Decision: "N/A"}

	var ratings, confidences []float64
	for _, note := range forum {
		if !isOfficialReview(note) {
			continue
		}

		review := types.Review{}
		for _, field := range fields {
			v, ok := note.Content[field]
			if !ok || v.IsZero() {
				continue
			}
			if s := v.String(); s != "" {
				review[field] = s
			}
		}
		bundle.Reviews = append(bundle.Reviews, review)

		for _, field := range scoreFields {
			if r, ok := note.Content[field].Float(); ok {
				ratings = append(ratings, r)
				break
			}
		}
		if c, ok := note.Content["confidence"].Float(); ok {
			confidences = append(confidences, c)
		}
	}

	if len(ratings) > 0 {
		bundle.RatingAvg = ptr(mean(ratings))
	}
	if len(confidences) > 0 {
		bundle.ConfidenceAvg = ptr(mean(confidences))
	}

	for _, note := range forum {
		if note.HasInvitation("Decision") {
			if d := note.FieldString("decision"); d != "" {
				bundle.Decision = d
			}
			bundle.DecisionComment = firstField(note, "comment", "justification", "metareview")
			break
		}
	}
	for _, note := range forum {
		if note.HasInvitation("Meta_Review") {
			bundle.MetaReview = firstField(note, "metareview", "recommendation", "summary")
			break
		}
	}
	for _, note := range forum {
		if note.HasInvitation("Author_Final_Remarks") || note.HasInvitation("Camera_Ready_Revision") {
			bundle.AuthorRemarks = firstField(note, "author_remarks", "comment", "summary_of_changes")
			break
		}
	}

	return bundle
}

func mean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func ptr(f float64) *float64 { return &f }
