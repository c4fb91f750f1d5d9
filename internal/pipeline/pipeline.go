// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline sequences the six shortlist stages over a shared state:
// gather interests, search papers, heuristic evaluation, ranking, unified
// LLM evaluation, and re-ranking. Only configuration errors and a failed
// corpus listing abort a run; everything else degrades into the state's
// error list.
package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/paper-triage/internal/fetch"
	"github.com/pdiddy/paper-triage/internal/llm"
	"github.com/pdiddy/paper-triage/internal/rank"
	"github.com/pdiddy/paper-triage/internal/score"
	"github.com/pdiddy/paper-triage/pkg/types"
)

// CorpusFetcher provides the paper corpus for one venue and year.
// *fetch.Fetcher satisfies it.
type CorpusFetcher interface {
	Run(ctx context.Context, venue string, year int) (fetch.Result, error)
}

// Pipeline wires the stages together for one run configuration.
type Pipeline struct {
	fetcher  CorpusFetcher
	client   llm.Client
	synonyms *score.SynonymGenerator
	scorer   *score.UnifiedScorer
	refiner  *rank.PreliminaryRefiner
	cfg      types.PipelineConfig
	out      io.Writer
}

// New returns a Pipeline. Progress lines are written to out; nil discards
// them.
func New(fetcher CorpusFetcher, client llm.Client, cfg types.PipelineConfig, out io.Writer) *Pipeline {
	if out == nil {
		out = io.Discard
	}
	return &Pipeline{
		fetcher:  fetcher,
		client:   client,
		synonyms: score.NewSynonymGenerator(client),
		scorer:   score.NewUnifiedScorer(client, cfg.LLM),
		refiner:  rank.NewPreliminaryRefiner(client, cfg.Weights, out),
		cfg:      cfg,
		out:      out,
	}
}

type stage struct {
	name string
	run  func(ctx context.Context, s *State) (Update, error)
}

// Run executes the full pipeline for venue/year and returns the final state.
// The returned state is valid even on error, carrying whatever the completed
// stages produced.
func (p *Pipeline) Run(ctx context.Context, venue string, year int, criteria types.EvaluationCriteria) (*State, error) {
	if err := p.cfg.Weights.Validate(); err != nil {
		return &State{Criteria: criteria}, err
	}

	state := &State{Criteria: criteria}

	stages := []stage{
		{"gather interests", p.gatherInterests},
		{"search papers", func(ctx context.Context, s *State) (Update, error) {
			return p.searchPapers(ctx, s, venue, year)
		}},
		{"evaluate papers", p.evaluatePapers},
		{"rank papers", p.rankPapers},
		{"llm evaluate papers", p.llmEvaluatePapers},
		{"re-rank papers", p.reRankPapers},
	}

	for _, st := range stages {
		fmt.Fprintf(p.out, "stage: %s\n", st.name)
		update, err := st.run(ctx, state)
		if err != nil {
			return state, fmt.Errorf("%s: %w", st.name, err)
		}
		state.merge(update)
	}

	return state, nil
}

// gatherInterests resolves the criteria into explicit keywords. With only a
// free-text description, keywords are extracted via one LLM call; having
// neither is a configuration error.
func (p *Pipeline) gatherInterests(ctx context.Context, s *State) (Update, error) {
	if s.Criteria.HasInterests() {
		return Update{}, nil
	}
	if s.Criteria.ResearchDescription == "" {
		return Update{}, &types.ConfigError{Msg: "criteria need research interests or a research description"}
	}

	keywords, err := score.ExtractKeywords(ctx, p.client, s.Criteria.ResearchDescription)
	if err != nil {
		return Update{}, &types.ConfigError{Msg: fmt.Sprintf("could not derive keywords from description: %v", err)}
	}
	if len(keywords) == 0 {
		return Update{}, &types.ConfigError{Msg: "no keywords could be derived from the research description"}
	}

	fmt.Fprintf(p.out, "derived %d research keywords\n", len(keywords))
	criteria := s.Criteria
	criteria.ResearchInterests = keywords
	return Update{Criteria: &criteria}, nil
}

// searchPapers obtains the corpus and applies the local selection filters.
func (p *Pipeline) searchPapers(ctx context.Context, s *State, venue string, year int) (Update, error) {
	result, err := p.fetcher.Run(ctx, venue, year)
	if err != nil {
		return Update{}, err
	}

	papers := fetch.Filter(result.Papers, fetch.FilterOptions{
		AcceptedOnly: p.cfg.AcceptedOnly,
		Keywords:     s.Criteria.ResearchInterests,
		Max:          p.cfg.MaxPapers,
	})
	fmt.Fprintf(p.out, "selected %d/%d papers for evaluation\n", len(papers), len(result.Papers))

	return Update{Papers: papers, Errors: result.Degraded}, nil
}

// evaluatePapers runs the heuristic scoring over the corpus.
func (p *Pipeline) evaluatePapers(ctx context.Context, s *State) (Update, error) {
	synonyms := p.synonyms.Generate(ctx, s.Criteria.ResearchInterests)

	evaluated := make([]types.EvaluatedPaper, 0, len(s.Papers))
	for _, paper := range s.Papers {
		evaluated = append(evaluated, score.Evaluate(paper, s.Criteria, synonyms, p.cfg.Weights))
	}

	fmt.Fprintf(p.out, "evaluated %d papers\n", len(evaluated))
	return Update{Evaluated: evaluated, Synonyms: synonyms}, nil
}

// rankPapers filters, sorts, optionally refines, and truncates to top-K.
func (p *Pipeline) rankPapers(ctx context.Context, s *State) (Update, error) {
	filtered := rank.Filter(s.Evaluated, s.Criteria)
	fmt.Fprintf(p.out, "admission filter kept %d/%d papers\n", len(filtered), len(s.Evaluated))

	ranked := rank.Sort(filtered)

	var degraded []string
	if s.Criteria.EnablePreliminaryLLMFilter && len(ranked) > 0 {
		ranked, degraded = p.refiner.Refine(ctx, ranked, s.Criteria)
	}

	selected := rank.SelectTopK(ranked, s.Criteria)
	return Update{Ranked: selected, Errors: degraded}, nil
}

// llmEvaluatePapers scores every ranked candidate with one unified LLM call
// each. Failures keep neutral scores and are recorded, never fatal.
func (p *Pipeline) llmEvaluatePapers(ctx context.Context, s *State) (Update, error) {
	evaluated := make([]types.EvaluatedPaper, 0, len(s.Ranked))
	var degraded []string

	for i, paper := range s.Ranked {
		scored, err := p.scorer.Score(ctx, paper, s.Criteria)
		if err != nil {
			degraded = append(degraded, err.Error())
		}
		evaluated = append(evaluated, scored)

		if (i+1)%10 == 0 {
			fmt.Fprintf(p.out, "llm evaluation: %d/%d papers\n", i+1, len(s.Ranked))
		}
	}

	return Update{LLMEvaluated: evaluated, Errors: degraded}, nil
}

// reRankPapers produces the final ordering and the display selection.
func (p *Pipeline) reRankPapers(_ context.Context, s *State) (Update, error) {
	reRanked := rank.ReRank(s.LLMEvaluated)
	selection := rank.Select(reRanked, p.cfg.DisplayCount)

	if len(reRanked) > 0 {
		fmt.Fprintf(p.out, "top paper: %s (%.3f)\n", reRanked[0].Title, reRanked[0].OverallScore)
	}
	return Update{ReRanked: reRanked, Selection: selection}, nil
}
