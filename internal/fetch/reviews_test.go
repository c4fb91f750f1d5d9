// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-triage/internal/openreview"
)

func noteFromJSON(t *testing.T, raw string) openreview.Note {
	t.Helper()
	var n openreview.Note
	require.NoError(t, json.Unmarshal([]byte(raw), &n))
	return n
}

func TestExtractBundle_AveragesRatingsAndConfidence(t *testing.T) {
	forum := []openreview.Note{
		noteFromJSON(t, `{
			"id": "r1",
			"invitations": ["V/Submission1/-/Official_Review"],
			"content": {
				"rating": {"value": "8: accept"},
				"confidence": {"value": "4: confident"},
				"summary": {"value": "solid work"}
			}
		}`),
		noteFromJSON(t, `{
			"id": "r2",
			"invitations": ["V/Submission1/-/Official_Review"],
			"content": {
				"rating": {"value": 6},
				"confidence": {"value": 2},
				"summary": {"value": "okay"}
			}
		}`),
	}

	bundle := ExtractBundle(forum, []string{"confidence", "rating", "summary"})

	require.Len(t, bundle.Reviews, 2)
	assert.Equal(t, "8: accept", bundle.Reviews[0]["rating"])
	require.NotNil(t, bundle.RatingAvg)
	assert.InDelta(t, 7.0, *bundle.RatingAvg, 1e-9)
	require.NotNil(t, bundle.ConfidenceAvg)
	assert.InDelta(t, 3.0, *bundle.ConfidenceAvg, 1e-9)
}

func TestExtractBundle_SkipsCommentsAndRebuttals(t *testing.T) {
	forum := []openreview.Note{
		noteFromJSON(t, `{
			"id": "c1",
			"invitations": ["V/Submission1/-/Official_Review"],
			"content": {"comment": {"value": "thanks for the rebuttal"}}
		}`),
		noteFromJSON(t, `{
			"id": "c2",
			"invitations": ["V/Submission1/-/Official_Comment"],
			"content": {"rating": {"value": 9}}
		}`),
	}

	bundle := ExtractBundle(forum, fallbackFields)
	assert.Empty(t, bundle.Reviews)
	assert.Nil(t, bundle.RatingAvg)
	assert.Equal(t, "N/A", bundle.Decision)
}

func TestExtractBundle_ComprehensiveReviewWithoutScore(t *testing.T) {
	forum := []openreview.Note{
		noteFromJSON(t, `{
			"id": "r1",
			"invitations": ["V/Submission1/-/Official_Review"],
			"content": {
				"summary": {"value": "detailed summary"},
				"strengths": {"value": "novel"},
				"weaknesses": {"value": "limited eval"},
				"questions": {"value": "scaling?"},
				"limitations": {"value": "noted"}
			}
		}`),
	}

	bundle := ExtractBundle(forum, []string{"strengths", "summary", "weaknesses"})
	require.Len(t, bundle.Reviews, 1)
	assert.Nil(t, bundle.RatingAvg)
	assert.Equal(t, "detailed summary", bundle.Reviews[0]["summary"])
	// Undiscovered fields are not carried over.
	assert.NotContains(t, bundle.Reviews[0], "questions")
}

func TestExtractBundle_OverallRecommendationCountsAsRating(t *testing.T) {
	forum := []openreview.Note{
		noteFromJSON(t, `{
			"id": "r1",
			"invitations": ["V/Submission1/-/Official_Review"],
			"content": {"overall_recommendation": {"value": 3}}
		}`),
	}

	bundle := ExtractBundle(forum, []string{"overall_recommendation"})
	require.Len(t, bundle.Reviews, 1)
	require.NotNil(t, bundle.RatingAvg)
	assert.InDelta(t, 3.0, *bundle.RatingAvg, 1e-9)
}

func TestExtractBundle_DecisionMetaAndRemarks(t *testing.T) {
	forum := []openreview.Note{
		noteFromJSON(t, `{
			"id": "d1",
			"invitations": ["V/Submission1/-/Decision"],
			"content": {
				"decision": {"value": "Accept (oral)"},
				"comment": {"value": "strong consensus"}
			}
		}`),
		noteFromJSON(t, `{
			"id": "m1",
			"invitations": ["V/Submission1/-/Meta_Review"],
			"content": {"metareview": {"value": "reviewers agree"}}
		}`),
		noteFromJSON(t, `{
			"id": "a1",
			"invitations": ["V/Submission1/-/Author_Final_Remarks"],
			"content": {"author_remarks": {"value": "we fixed the typos"}}
		}`),
	}

	bundle := ExtractBundle(forum, fallbackFields)
	assert.Equal(t, "Accept (oral)", bundle.Decision)
	assert.Equal(t, "strong consensus", bundle.DecisionComment)
	assert.Equal(t, "reviewers agree", bundle.MetaReview)
	assert.Equal(t, "we fixed the typos", bundle.AuthorRemarks)
}

func TestExtractBundle_DecisionFallbackFields(t *testing.T) {
	forum := []openreview.Note{
		noteFromJSON(t, `{
			"id": "d1",
			"invitations": ["V/Submission1/-/Decision"],
			"content": {
				"decision": {"value": "Reject"},
				"justification": {"value": "insufficient novelty"}
			}
		}`),
	}

	bundle := ExtractBundle(forum, fallbackFields)
	assert.Equal(t, "Reject", bundle.Decision)
	assert.Equal(t, "insufficient novelty", bundle.DecisionComment)
}

type fakeSource struct {
	submissions []openreview.Note
	forums      map[string][]openreview.Note
	listErr     error
	forumErr    map[string]error
	listCalls   int
}

func (s *fakeSource) ListSubmissions(_ context.Context, _ string, _ int) ([]openreview.Note, error) {
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.submissions, nil
}

func (s *fakeSource) SampleSubmissions(_ context.Context, _ string, _ int, limit int) ([]openreview.Note, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	if limit < len(s.submissions) {
		return s.submissions[:limit], nil
	}
	return s.submissions, nil
}

func (s *fakeSource) GetForumNotes(_ context.Context, forumID string) ([]openreview.Note, error) {
	if err := s.forumErr[forumID]; err != nil {
		return nil, err
	}
	return s.forums[forumID], nil
}

func TestDiscoverFields_UnionAcrossSamples(t *testing.T) {
	src := &fakeSource{
		submissions: []openreview.Note{{ID: "p1"}, {ID: "p2"}},
		forums: map[string][]openreview.Note{
			"p1": {noteFromJSON(t, `{
				"invitations": ["V/-/Official_Review"],
				"content": {"rating": {"value": 5}, "summary": {"value": "x"}}
			}`)},
			"p2": {noteFromJSON(t, `{
				"invitations": ["V/-/Official_Review"],
				"content": {"strengths_and_weaknesses": {"value": "y"}}
			}`)},
		},
	}

	fields := DiscoverFields(context.Background(), src, "NeurIPS", 2025, 3)
	assert.Equal(t, []string{"rating", "strengths_and_weaknesses", "summary"}, fields)
}

func TestDiscoverFields_FallbackOnError(t *testing.T) {
	src := &fakeSource{listErr: errors.New("api down")}
	fields := DiscoverFields(context.Background(), src, "NeurIPS", 2025, 3)
	assert.Equal(t, fallbackFields, fields)
}

func TestDiscoverFields_FallbackWhenNoReviews(t *testing.T) {
	src := &fakeSource{
		submissions: []openreview.Note{{ID: "p1"}},
		forums:      map[string][]openreview.Note{"p1": nil},
	}
	fields := DiscoverFields(context.Background(), src, "NeurIPS", 2025, 3)
	assert.Equal(t, fallbackFields, fields)
}
