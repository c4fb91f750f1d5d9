// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm abstracts the language-model API used by the scoring and
// ranking stages. The production backend calls the OpenAI chat completions
// API; tests supply mocks.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/paper-triage/pkg/types"
)

// Client issues one completion per call. Implementations must be safe for
// sequential reuse across papers.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Request is one completion request.
type Request struct {
	// Prompt is the full user prompt.
	Prompt string

	// MaxTokens overrides the configured completion budget when positive.
	MaxTokens int
}

// apiURL is the chat completions endpoint. Package-level var for test
// substitution.
var apiURL = "https://api.openai.com/v1/chat/completions"

// OpenAIBackend calls the OpenAI chat completions API.
type OpenAIBackend struct {
	cfg        types.LLMConfig
	httpClient *http.Client
}

// NewOpenAIBackend returns a backend configured from cfg.
func NewOpenAIBackend(cfg types.LLMConfig) *OpenAIBackend {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1000
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIBackend{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends the prompt and returns the first choice's content.
func (b *OpenAIBackend) Complete(ctx context.Context, req Request) (string, error) {
	maxTokens := b.cfg.MaxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	reqBody := chatRequest{
		Model:       b.cfg.Model,
		Temperature: b.cfg.Temperature,
		MaxTokens:   maxTokens,
		Messages: []chatMessage{
			{Role: "user", Content: req.Prompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+b.cfg.APIKey)

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("calling completion API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("completion API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("decoding completion response: %w", err)
	}
	if len(cResp.Choices) == 0 {
		return "", fmt.Errorf("completion API returned no choices")
	}
	return cResp.Choices[0].Message.Content, nil
}
