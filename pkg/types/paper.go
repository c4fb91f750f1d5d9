// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Review holds the fields of a single official review as a field-name to
// string-value map. Field names vary per venue (e.g. "rating" vs.
// "overall_recommendation"), so only the discovered field set is populated.
type Review map[string]string

// ReviewBundle aggregates the review activity attached to one submission.
type ReviewBundle struct {
	// Reviews lists the official reviews, one field map per reviewer.
	Reviews []Review `json:"reviews"`

	// RatingAvg is the mean numeric rating across reviews, or nil when no
	// review carried a parseable rating.
	RatingAvg *float64 `json:"rating_avg"`

	// ConfidenceAvg is the mean reviewer confidence, or nil when absent.
	ConfidenceAvg *float64 `json:"confidence_avg"`

	// Decision is the acceptance decision string (e.g. "Accept (oral)"),
	// or "N/A" when no decision note exists.
	Decision string `json:"decision"`

	// DecisionComment is the program chairs' justification text.
	DecisionComment string `json:"decision_comment"`

	// MetaReview is the area chair summary text.
	MetaReview string `json:"meta_review"`

	// AuthorRemarks holds the authors' final remarks.
	AuthorRemarks string `json:"author_remarks"`
}

// HasRating reports whether an average rating is available.
func (b ReviewBundle) HasRating() bool {
	return b.RatingAvg != nil
}

// PaperRecord holds one submission with its review data. Records are created
// by the corpus fetcher (or loaded from a corpus artifact) and are read-only
// downstream.
type PaperRecord struct {
	// ID is the opaque submission identifier assigned by the source.
	ID string `json:"id"`

	// Title is the paper title.
	Title string `json:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors"`

	// Abstract is the paper abstract.
	Abstract string `json:"abstract"`

	// Keywords lists the author-supplied keywords.
	Keywords []string `json:"keywords"`

	// Venue is the conference name (e.g. "NeurIPS").
	Venue string `json:"venue"`

	// Year is the conference year.
	Year int `json:"year"`

	// PDFURL locates the paper PDF.
	PDFURL string `json:"pdf_url"`

	// ForumURL locates the discussion forum for the submission.
	ForumURL string `json:"forum_url"`

	// ReviewBundle carries the review data fetched for this record. A
	// record whose detail fetch failed carries an empty bundle.
	ReviewBundle
}
