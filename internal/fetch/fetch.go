// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch builds the local corpus for one venue and year: it lists the
// conference submissions, retrieves each submission's review data under the
// API rate limit, and persists the result as a JSON artifact with checkpoints
// for interruption recovery.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"golang.org/x/time/rate"

	"github.com/pdiddy/paper-triage/internal/cachestore"
	"github.com/pdiddy/paper-triage/internal/openreview"
	"github.com/pdiddy/paper-triage/pkg/types"
)

// ErrListingFailed marks a bulk-listing failure after all retries. Without a
// listing there is no corpus, so callers treat this as fatal.
var ErrListingFailed = errors.New("submission listing failed")

// ListRetryDelay is the initial backoff between listing attempts. Tests
// override this to avoid real sleeps.
var ListRetryDelay = 10 * time.Second

const (
	defaultListRetries     = 5
	defaultRequestInterval = 1200 * time.Millisecond
	defaultCheckpointEvery = 100
)

// Source lists submissions and retrieves forum notes. *openreview.Client
// satisfies it; tests substitute fakes.
type Source interface {
	ListSubmissions(ctx context.Context, venue string, year int) ([]openreview.Note, error)
	SampleSubmissions(ctx context.Context, venue string, year, limit int) ([]openreview.Note, error)
	GetForumNotes(ctx context.Context, forumID string) ([]openreview.Note, error)
}

// Fetcher drives a corpus fetch for one venue and year.
type Fetcher struct {
	src     Source
	cache   *cachestore.Store
	ckpt    Checkpointer
	cfg     types.FetchConfig
	out     io.Writer
	limiter *rate.Limiter
}

// New returns a Fetcher. The cache may be nil to disable response caching;
// progress lines are written to out.
func New(src Source, cache *cachestore.Store, cfg types.FetchConfig, out io.Writer) *Fetcher {
	if cfg.RequestInterval <= 0 {
		cfg.RequestInterval = defaultRequestInterval
	}
	if cfg.MaxListRetries <= 0 {
		cfg.MaxListRetries = defaultListRetries
	}
	if cfg.CheckpointEvery <= 0 {
		cfg.CheckpointEvery = defaultCheckpointEvery
	}
	if out == nil {
		out = io.Discard
	}
	return &Fetcher{
		src:     src,
		cache:   cache,
		cfg:     cfg,
		out:     out,
		limiter: rate.NewLimiter(rate.Every(cfg.RequestInterval), 1),
	}
}

// SetCheckpointer overrides the default file checkpointer. Mainly for tests.
func (f *Fetcher) SetCheckpointer(c Checkpointer) { f.ckpt = c }

// Result is the outcome of one corpus fetch.
type Result struct {
	// Papers is the complete corpus for the venue and year.
	Papers []types.PaperRecord

	// Fields is the discovered review schema.
	Fields []string

	// Degraded lists per-record incidents that did not abort the fetch.
	Degraded []string

	// FromArtifact reports whether an existing local artifact was reused
	// without touching the network.
	FromArtifact bool
}

// Run fetches the corpus for venue/year. An existing complete artifact is
// reused unless ForceRebuild is set. A listing failure after all retries
// returns an error wrapping ErrListingFailed; per-record detail failures
// degrade to empty review bundles recorded in Result.Degraded.
func (f *Fetcher) Run(ctx context.Context, venue string, year int) (Result, error) {
	dir := ArtifactDir(f.cfg.DataDir, venue, year)
	if f.ckpt == nil {
		f.ckpt = NewFileCheckpointer(dir)
	}

	if HasArtifact(dir) && !f.cfg.ForceRebuild {
		papers, err := LoadArtifact(dir)
		if err != nil {
			return Result{}, err
		}
		if md, err := LoadMetadata(dir); err == nil {
			fmt.Fprintf(f.out, "reusing artifact: %d papers fetched %s\n", md.TotalPapers, md.FetchDate)
			return Result{Papers: papers, Fields: md.DetectedReviewFields, FromArtifact: true}, nil
		}
		return Result{Papers: papers, FromArtifact: true}, nil
	}

	fields := DiscoverFields(ctx, f.src, venue, year, f.cfg.DiscoverySamples)
	fmt.Fprintf(f.out, "discovered %d review fields\n", len(fields))

	submissions, err := f.listWithRetry(ctx, venue, year)
	if err != nil {
		return Result{}, err
	}
	fmt.Fprintf(f.out, "listed %d submissions for %s %d\n", len(submissions), venue, year)

	papers, degraded, err := f.fetchDetails(ctx, submissions, venue, year, fields)
	if err != nil {
		return Result{}, err
	}

	if _, err := WriteArtifact(dir, venue, year, papers, fields); err != nil {
		return Result{}, err
	}
	if err := f.ckpt.Clear(); err != nil {
		degraded = append(degraded, fmt.Sprintf("checkpoint cleanup: %v", err))
	}
	fmt.Fprintf(f.out, "saved %d papers to %s\n", len(papers), dir)

	return Result{Papers: papers, Fields: fields, Degraded: degraded}, nil
}

func (f *Fetcher) listWithRetry(ctx context.Context, venue string, year int) ([]openreview.Note, error) {
	var submissions []openreview.Note
	err := retry.Do(
		func() error {
			var err error
			submissions, err = f.src.ListSubmissions(ctx, venue, year)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(uint(f.cfg.MaxListRetries)),
		retry.Delay(ListRetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			fmt.Fprintf(f.out, "listing attempt %d/%d failed: %v\n", n+1, f.cfg.MaxListRetries, err)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("%w after %d attempts: %v", ErrListingFailed, f.cfg.MaxListRetries, err)
	}
	return submissions, nil
}

func (f *Fetcher) fetchDetails(ctx context.Context, submissions []openreview.Note, venue string, year int, fields []string) ([]types.PaperRecord, []string, error) {
	var papers []types.PaperRecord
	var degraded []string
	processed := make(map[string]bool)

	if f.cfg.ForceRebuild {
		if err := f.ckpt.Clear(); err != nil {
			degraded = append(degraded, fmt.Sprintf("checkpoint cleanup: %v", err))
		}
	} else {
		resumed, err := f.ckpt.LoadLatest()
		if err != nil {
			degraded = append(degraded, fmt.Sprintf("checkpoint resume: %v", err))
		} else if len(resumed) > 0 {
			papers = resumed
			for _, p := range papers {
				processed[p.ID] = true
			}
			fmt.Fprintf(f.out, "resuming from checkpoint with %d papers\n", len(papers))
		}
	}

	start := time.Now()
	resumeFrom := len(papers)

	for _, sub := range submissions {
		if processed[sub.ID] {
			continue
		}

		if err := f.limiter.Wait(ctx); err != nil {
			return nil, nil, fmt.Errorf("rate gate: %w", err)
		}

		bundle, err := f.fetchBundle(ctx, sub.ID, fields)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			degraded = append(degraded, fmt.Sprintf("reviews for %s: %v", sub.ID, err))
			bundle = types.ReviewBundle{Decision: "N/A"}
		}

		papers = append(papers, recordFromNote(sub, venue, year, bundle))

		if len(papers)%f.cfg.CheckpointEvery == 0 {
			if err := f.ckpt.Save(papers); err != nil {
				degraded = append(degraded, fmt.Sprintf("checkpoint at %d: %v", len(papers), err))
			}
			f.logProgress(len(papers), resumeFrom, len(submissions), start)
		}
	}

	return papers, degraded, nil
}

// fetchBundle retrieves the forum notes for one submission, through the
// response cache when one is configured, and extracts the review bundle.
func (f *Fetcher) fetchBundle(ctx context.Context, id string, fields []string) (types.ReviewBundle, error) {
	params := map[string]any{"forum": id}

	if f.cache != nil {
		if data, ok := f.cache.Get("forum", params); ok {
			var forum []openreview.Note
			if err := json.Unmarshal(data, &forum); err == nil {
				return ExtractBundle(forum, fields), nil
			}
		}
	}

	forum, err := f.src.GetForumNotes(ctx, id)
	if err != nil {
		return types.ReviewBundle{}, err
	}

	if f.cache != nil {
		if data, err := json.Marshal(forum); err == nil {
			// Cache write failures degrade to a miss next time.
			_ = f.cache.Set("forum", params, data)
		}
	}
	return ExtractBundle(forum, fields), nil
}

func recordFromNote(sub openreview.Note, venue string, year int, bundle types.ReviewBundle) types.PaperRecord {
	return types.PaperRecord{
		ID:           sub.ID,
		Title:        sub.FieldString("title"),
		Authors:      sub.Content["authors"].StringList(),
		Abstract:     sub.FieldString("abstract"),
		Keywords:     sub.Content["keywords"].StringList(),
		Venue:        venue,
		Year:         year,
		PDFURL:       "https://openreview.net/pdf?id=" + sub.ID,
		ForumURL:     "https://openreview.net/forum?id=" + sub.ID,
		ReviewBundle: bundle,
	}
}

func (f *Fetcher) logProgress(done, resumeFrom, total int, start time.Time) {
	fetched := done - resumeFrom
	if fetched <= 0 {
		return
	}
	elapsed := time.Since(start)
	perMinute := float64(fetched) / elapsed.Minutes()
	remaining := total - done
	eta := 0.0
	if perMinute > 0 {
		eta = float64(remaining) / perMinute
	}
	fmt.Fprintf(f.out, "progress: %d/%d papers (%.1f%%) | rate: %.1f/min | eta: %.0f min\n",
		done, total, float64(done)/float64(total)*100, perMinute, eta)
}
