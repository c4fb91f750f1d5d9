// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-triage/pkg/types"
)

const (
	defaultDataDir  = "storage/papers_data"
	defaultCacheDir = "storage/cache"
)

func init() {
	viper.SetDefault("fetch.data_dir", defaultDataDir)
	viper.SetDefault("cache.dir", defaultCacheDir)
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("max_papers", 50)
	viper.SetDefault("display_count", 20)
}

// loadPipelineConfig assembles the run configuration from the config file,
// environment, and defaults. Weights fall back to the documented defaults
// when the config file does not set them.
func loadPipelineConfig() types.PipelineConfig {
	cfg := types.PipelineConfig{
		Fetch: types.FetchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("fetch.timeout"),
				UserAgent: "paper-triage/" + version,
			},
			DataDir:         viper.GetString("fetch.data_dir"),
			RequestInterval: viper.GetDuration("fetch.request_interval"),
			MaxListRetries:  viper.GetInt("fetch.max_list_retries"),
			CheckpointEvery: viper.GetInt("fetch.checkpoint_every"),
		},
		Cache: types.CacheConfig{
			Dir: viper.GetString("cache.dir"),
			TTL: viper.GetDuration("cache.ttl"),
		},
		LLM: types.LLMConfig{
			Model:       viper.GetString("llm.model"),
			APIKey:      secretDefault("openai-api-key", viper.GetString("llm.api_key")),
			Temperature: viper.GetFloat64("llm.temperature"),
			MaxTokens:   viper.GetInt("llm.max_tokens"),
			Timeout:     viper.GetDuration("llm.timeout"),
		},
		Weights:      types.DefaultScoringWeights(),
		MaxPapers:    viper.GetInt("max_papers"),
		AcceptedOnly: viper.GetBool("accepted_only"),
		DisplayCount: viper.GetInt("display_count"),
	}

	if viper.IsSet("weights.relevance_weight") {
		cfg.Weights = types.ScoringWeights{
			OpenReviewWeight: viper.GetFloat64("weights.openreview_weight"),
			LLMWeight:        viper.GetFloat64("weights.llm_weight"),
			RelevanceWeight:  viper.GetFloat64("weights.relevance_weight"),
			NoveltyWeight:    viper.GetFloat64("weights.novelty_weight"),
			ImpactWeight:     viper.GetFloat64("weights.impact_weight"),
		}
	}

	return cfg
}
