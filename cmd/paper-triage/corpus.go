// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-triage/internal/corpus"
	"github.com/pdiddy/paper-triage/internal/fetch"
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Maintain the local full-text index over fetched corpora",
	Long: `Corpus manages a SQLite FTS5 index built from a fetched venue corpus.
Use index to build or refresh the index from the corpus artifact, and
search to query it without re-running the scoring pipeline.`,
}

var corpusIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or refresh the index from the corpus artifact",
	RunE:  runCorpusIndex,
}

func runCorpusIndex(cmd *cobra.Command, args []string) error {
	dir, err := corpusDir(cmd)
	if err != nil {
		return err
	}

	papers, err := fetch.LoadArtifact(dir)
	if err != nil {
		return fmt.Errorf("no corpus artifact in %s (run fetch first): %w", dir, err)
	}

	ix, err := corpus.Open(dir)
	if err != nil {
		return err
	}
	defer ix.Close()

	summary, err := ix.Ingest(context.Background(), papers, os.Stdout)
	if err != nil {
		return err
	}
	fmt.Printf("Indexed %d papers\n", summary.Total())
	return nil
}

var corpusSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Full-text search over an indexed corpus",
	RunE:  runCorpusSearch,
}

func runCorpusSearch(cmd *cobra.Command, args []string) error {
	dir, err := corpusDir(cmd)
	if err != nil {
		return err
	}

	ix, err := corpus.Open(dir)
	if err != nil {
		return err
	}
	defer ix.Close()

	opts := corpus.QueryOptions{}
	opts.AcceptedOnly, _ = cmd.Flags().GetBool("accepted-only")
	opts.MaxResults, _ = cmd.Flags().GetInt("limit")
	if len(args) > 0 {
		keywords := strings.Split(strings.Join(args, " "), ",")
		opts.Query = corpus.MatchExpression(keywords)
	}

	results, err := ix.Search(context.Background(), opts)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("%-4s  %-60s  %-6s  %s\n", "#", "Title", "Rating", "Decision")
	fmt.Println(strings.Repeat("-", 90))
	for i, p := range results {
		title := p.Title
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		rating := "-"
		if p.HasRating() {
			rating = fmt.Sprintf("%.1f", *p.RatingAvg)
		}
		fmt.Printf("%-4d  %-60s  %-6s  %s\n", i+1, title, rating, p.Decision)
	}
	fmt.Printf("\n%d results\n", len(results))
	return nil
}

func corpusDir(cmd *cobra.Command) (string, error) {
	venue, _ := cmd.Flags().GetString("venue")
	year, _ := cmd.Flags().GetInt("year")
	if venue == "" || year == 0 {
		return "", fmt.Errorf("both --venue and --year are required")
	}
	return fetch.ArtifactDir(loadPipelineConfig().Fetch.DataDir, venue, year), nil
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	corpusCmd.PersistentFlags().String("venue", "", "conference venue (e.g. NeurIPS)")
	corpusCmd.PersistentFlags().Int("year", 0, "conference year (e.g. 2025)")

	corpusSearchCmd.Flags().Bool("accepted-only", false, "only accepted submissions")
	corpusSearchCmd.Flags().Int("limit", 0, "maximum results (0 = default)")

	corpusCmd.AddCommand(corpusIndexCmd)
	corpusCmd.AddCommand(corpusSearchCmd)
	rootCmd.AddCommand(corpusCmd)
}
