// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-triage/internal/cachestore"
	"github.com/pdiddy/paper-triage/internal/fetch"
	"github.com/pdiddy/paper-triage/internal/openreview"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download a venue corpus with its public reviews",
	Long: `Fetch downloads every submission of a conference venue together with its
official reviews, decision, and meta-review, and writes the corpus to
storage/papers_data/<venue>_<year>/all_papers.json with a metadata sidecar.

Progress is checkpointed every 100 papers; an interrupted fetch resumes
from the most recent checkpoint. A complete existing corpus is reused
unless --force is given.`,
	RunE: runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	venue, _ := cmd.Flags().GetString("venue")
	year, _ := cmd.Flags().GetInt("year")
	force, _ := cmd.Flags().GetBool("force")
	baseURL, _ := cmd.Flags().GetString("api-url")

	if venue == "" || year == 0 {
		return fmt.Errorf("both --venue and --year are required")
	}

	cfg := loadPipelineConfig()
	cfg.Fetch.ForceRebuild = force

	src := openreview.NewClient(baseURL, cfg.Fetch.HTTPConfig)
	cache := cachestore.New(cfg.Cache)
	fetcher := fetch.New(src, cache, cfg.Fetch, os.Stdout)

	result, err := fetcher.Run(context.Background(), venue, year)
	if err != nil {
		return err
	}

	if result.FromArtifact {
		fmt.Printf("Reused existing corpus: %d papers\n", len(result.Papers))
	} else {
		fmt.Printf("Fetched %d papers (%d review fields detected)\n",
			len(result.Papers), len(result.Fields))
	}
	for _, incident := range result.Degraded {
		fmt.Fprintf(os.Stderr, "warning: %s\n", incident)
	}
	return nil
}

func init() {
	fetchCmd.Flags().String("venue", "", "conference venue (e.g. NeurIPS)")
	fetchCmd.Flags().Int("year", 0, "conference year (e.g. 2025)")
	fetchCmd.Flags().Bool("force", false, "discard existing corpus and checkpoints, fetch from scratch")
	fetchCmd.Flags().String("api-url", "", "override the review API base URL")

	rootCmd.AddCommand(fetchCmd)
}
