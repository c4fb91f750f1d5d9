// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-triage/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// FetchConfig holds settings for the corpus fetch stage.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// DataDir is the base directory for corpus artifacts
	// (contains <venue>_<year>/ subdirectories).
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// RequestInterval is the minimum spacing between per-record detail
	// requests (default 1.2s, i.e. 60 requests/minute).
	RequestInterval time.Duration `json:"request_interval" yaml:"request_interval"`

	// MaxListRetries bounds the bulk-listing retry attempts (default 5).
	MaxListRetries int `json:"max_list_retries" yaml:"max_list_retries"`

	// CheckpointEvery is the record count between progress checkpoints
	// (default 100).
	CheckpointEvery int `json:"checkpoint_every" yaml:"checkpoint_every"`

	// DiscoverySamples is the number of review-bearing records inspected
	// during schema discovery (default 3).
	DiscoverySamples int `json:"discovery_samples" yaml:"discovery_samples"`

	// ForceRebuild discards existing artifacts and checkpoints and fetches
	// from scratch.
	ForceRebuild bool `json:"force_rebuild" yaml:"force_rebuild"`
}

// CacheConfig holds settings for the response cache.
type CacheConfig struct {
	// Dir is the cache directory (default "storage/cache").
	Dir string `json:"dir" yaml:"dir"`

	// TTL is the maximum age of a valid entry (default 24h).
	TTL time.Duration `json:"ttl" yaml:"ttl"`
}

// LLMConfig holds settings for stages that call the LLM API.
type LLMConfig struct {
	// Model is the model identifier (e.g. "gpt-4o-mini").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the LLM API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Temperature is the sampling temperature (default 0.0).
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// MaxTokens is the completion token budget (default 1000).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// Timeout is the per-call timeout (default 60s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// PipelineConfig groups the configuration for one shortlist run.
type PipelineConfig struct {
	Fetch   FetchConfig    `json:"fetch" yaml:"fetch"`
	Cache   CacheConfig    `json:"cache" yaml:"cache"`
	LLM     LLMConfig      `json:"llm" yaml:"llm"`
	Weights ScoringWeights `json:"weights" yaml:"weights"`

	// MaxPapers bounds the number of records entering evaluation
	// (default 50; 0 keeps all).
	MaxPapers int `json:"max_papers" yaml:"max_papers"`

	// AcceptedOnly restricts the corpus to accepted submissions.
	AcceptedOnly bool `json:"accepted_only" yaml:"accepted_only"`

	// DisplayCount bounds the final ranked selection (default 20).
	DisplayCount int `json:"display_count" yaml:"display_count"`
}
