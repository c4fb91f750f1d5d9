// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package openreview is a thin client for the OpenReview notes API. It lists
// conference submissions and retrieves the forum notes (reviews, decisions,
// meta-reviews) attached to a submission, tolerating the API's {"value": ...}
// field wrappers and per-venue schema differences.
package openreview

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pdiddy/paper-triage/internal/httputil"
	"github.com/pdiddy/paper-triage/pkg/types"
)

const (
	// DefaultBaseURL is the v2 API endpoint.
	DefaultBaseURL = "https://api2.openreview.net"

	// pageSize is the notes-per-request page size for listing.
	pageSize = 1000
)

// Client talks to one OpenReview API endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// NewClient returns a Client for the given endpoint. An empty baseURL selects
// the public API.
func NewClient(baseURL string, cfg types.HTTPConfig) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  cfg.UserAgent,
	}
}

// VenueID builds the conference venue identifier used in invitation names,
// e.g. "NeurIPS.cc/2025/Conference".
func VenueID(venue string, year int) string {
	return fmt.Sprintf("%s.cc/%d/Conference", venue, year)
}

type notesResponse struct {
	Notes []Note `json:"notes"`
	Count int    `json:"count"`
}

func (c *Client) getNotes(ctx context.Context, params url.Values) (notesResponse, error) {
	var out notesResponse

	u := c.baseURL + "/notes?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return out, fmt.Errorf("building notes request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, 0)
	if err != nil {
		return out, fmt.Errorf("fetching notes: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return out, fmt.Errorf("notes API returned %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decoding notes response: %w", err)
	}
	return out, nil
}

// ListSubmissions returns every submission note for the venue and year,
// paging through the full listing.
func (c *Client) ListSubmissions(ctx context.Context, venue string, year int) ([]Note, error) {
	invitation := VenueID(venue, year) + "/-/Submission"

	var all []Note
	for offset := 0; ; offset += pageSize {
		params := url.Values{}
		params.Set("invitation", invitation)
		params.Set("limit", fmt.Sprint(pageSize))
		params.Set("offset", fmt.Sprint(offset))

		page, err := c.getNotes(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("listing submissions for %s %d: %w", venue, year, err)
		}
		all = append(all, page.Notes...)
		if len(page.Notes) < pageSize {
			break
		}
	}
	return all, nil
}

// SampleSubmissions returns up to limit submission notes, used for review
// schema discovery without paying for a full listing.
func (c *Client) SampleSubmissions(ctx context.Context, venue string, year int, limit int) ([]Note, error) {
	params := url.Values{}
	params.Set("invitation", VenueID(venue, year)+"/-/Submission")
	params.Set("limit", fmt.Sprint(limit))

	page, err := c.getNotes(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("sampling submissions for %s %d: %w", venue, year, err)
	}
	return page.Notes, nil
}

// GetForumNotes returns all notes attached to a submission's forum: the
// official reviews, decision, meta-review, and author remarks.
func (c *Client) GetForumNotes(ctx context.Context, forumID string) ([]Note, error) {
	params := url.Values{}
	params.Set("forum", forumID)

	page, err := c.getNotes(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("fetching forum %s: %w", forumID, err)
	}
	return page.Notes, nil
}
