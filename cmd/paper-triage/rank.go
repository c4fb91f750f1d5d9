// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-triage/internal/cachestore"
	"github.com/pdiddy/paper-triage/internal/fetch"
	"github.com/pdiddy/paper-triage/internal/llm"
	"github.com/pdiddy/paper-triage/internal/openreview"
	"github.com/pdiddy/paper-triage/internal/pipeline"
	"github.com/pdiddy/paper-triage/pkg/types"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Score and rank a venue corpus against your research interests",
	Long: `Rank runs the full shortlist pipeline: it loads (or fetches) the venue
corpus, scores every paper with review-derived heuristics, re-scores the
top candidates with an LLM, and prints the ranked selection.

Research interests come from --interests, --description, or a YAML
criteria file. LLM scoring needs an OpenAI API key in
.secrets/openai-api-key or the llm.api_key config entry.`,
	RunE: runRank,
}

func runRank(cmd *cobra.Command, args []string) error {
	venue, _ := cmd.Flags().GetString("venue")
	year, _ := cmd.Flags().GetInt("year")
	if venue == "" || year == 0 {
		return fmt.Errorf("both --venue and --year are required")
	}

	criteria, err := criteriaFromFlags(cmd)
	if err != nil {
		return err
	}

	cfg := loadPipelineConfig()
	if acceptedOnly, _ := cmd.Flags().GetBool("accepted-only"); acceptedOnly {
		cfg.AcceptedOnly = true
	}
	if maxPapers, _ := cmd.Flags().GetInt("max-papers"); cmd.Flags().Changed("max-papers") {
		cfg.MaxPapers = maxPapers
	}
	if display, _ := cmd.Flags().GetInt("display"); cmd.Flags().Changed("display") {
		cfg.DisplayCount = display
	}

	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("no LLM API key: add .secrets/openai-api-key or set llm.api_key")
	}

	src := openreview.NewClient("", cfg.Fetch.HTTPConfig)
	cache := cachestore.New(cfg.Cache)
	fetcher := fetch.New(src, cache, cfg.Fetch, os.Stderr)
	client := llm.NewOpenAIBackend(cfg.LLM)

	p := pipeline.New(fetcher, client, cfg, os.Stderr)
	state, err := p.Run(context.Background(), venue, year, criteria)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		if err := pipeline.FormatJSON(state.Selection, os.Stdout); err != nil {
			return err
		}
	} else {
		pipeline.FormatTable(state.Selection, os.Stdout)
	}

	for _, incident := range state.Errors {
		fmt.Fprintf(os.Stderr, "warning: %s\n", incident)
	}

	if outPath, _ := cmd.Flags().GetString("out"); outPath != "" {
		if err := pipeline.WriteReportFile(outPath, venue, year, state); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Report written to %s\n", outPath)
	}
	return nil
}

// criteriaFromFlags builds evaluation criteria from the criteria file (if
// given) overlaid with explicit flags.
func criteriaFromFlags(cmd *cobra.Command) (types.EvaluationCriteria, error) {
	criteria := types.DefaultCriteria()

	if path, _ := cmd.Flags().GetString("criteria"); path != "" {
		loaded, err := pipeline.ReadCriteriaFile(path)
		if err != nil {
			return criteria, err
		}
		criteria = loaded
	}

	if interests, _ := cmd.Flags().GetString("interests"); interests != "" {
		var keywords []string
		for _, kw := range strings.Split(interests, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				keywords = append(keywords, strings.ToLower(kw))
			}
		}
		criteria.ResearchInterests = keywords
	}
	if description, _ := cmd.Flags().GetString("description"); description != "" {
		criteria.ResearchDescription = description
	}
	if cmd.Flags().Changed("min-relevance") {
		criteria.MinRelevanceScore, _ = cmd.Flags().GetFloat64("min-relevance")
	}
	if cmd.Flags().Changed("min-rating") {
		minRating, _ := cmd.Flags().GetFloat64("min-rating")
		criteria.MinRating = &minRating
	}
	if cmd.Flags().Changed("top-k") {
		topK, _ := cmd.Flags().GetInt("top-k")
		criteria.TopKPapers = &topK
	}
	if prelim, _ := cmd.Flags().GetBool("prelim-filter"); prelim {
		criteria.EnablePreliminaryLLMFilter = true
	}

	return criteria, nil
}

func init() {
	rankCmd.Flags().String("venue", "", "conference venue (e.g. NeurIPS)")
	rankCmd.Flags().Int("year", 0, "conference year (e.g. 2025)")
	rankCmd.Flags().String("interests", "", "research interest keywords (comma-separated)")
	rankCmd.Flags().String("description", "", "free-text research description (keywords are derived via LLM)")
	rankCmd.Flags().String("criteria", "", "YAML criteria file")
	rankCmd.Flags().Float64("min-relevance", 0.5, "minimum relevance score for a paper to be considered")
	rankCmd.Flags().Float64("min-rating", 0, "drop papers whose known average rating is below this value")
	rankCmd.Flags().Int("top-k", 0, "truncate the candidate list before LLM scoring (0 = keep all)")
	rankCmd.Flags().Bool("prelim-filter", false, "re-score top candidates with a cheap LLM relevance pass")
	rankCmd.Flags().Bool("accepted-only", false, "consider accepted submissions only")
	rankCmd.Flags().Int("max-papers", 0, "maximum papers entering evaluation (0 = config default)")
	rankCmd.Flags().Int("display", 0, "number of papers in the final selection (0 = config default)")
	rankCmd.Flags().Bool("json", false, "output the selection as JSON")
	rankCmd.Flags().String("out", "", "write a YAML report of the run to this path")

	rootCmd.AddCommand(rankCmd)
}
