// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-triage/pkg/types"
)

func TestComplete_ReturnsFirstChoice(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		assert.Equal(t, 200, req.MaxTokens)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "score this paper", req.Messages[0].Content)

		resp := chatResponse{}
		resp.Choices = append(resp.Choices, struct {
			Message chatMessage `json:"message"`
		}{Message: chatMessage{Role: "assistant", Content: "0.85"}})
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer ts.Close()

	old := apiURL
	apiURL = ts.URL
	defer func() { apiURL = old }()

	b := NewOpenAIBackend(types.LLMConfig{APIKey: "sk-test"})
	out, err := b.Complete(context.Background(), Request{Prompt: "score this paper", MaxTokens: 200})
	require.NoError(t, err)
	assert.Equal(t, "0.85", out)
}

func TestComplete_APIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer ts.Close()

	old := apiURL
	apiURL = ts.URL
	defer func() { apiURL = old }()

	b := NewOpenAIBackend(types.LLMConfig{APIKey: "sk-test"})
	_, err := b.Complete(context.Background(), Request{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestComplete_NoChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer ts.Close()

	old := apiURL
	apiURL = ts.URL
	defer func() { apiURL = old }()

	b := NewOpenAIBackend(types.LLMConfig{APIKey: "sk-test"})
	_, err := b.Complete(context.Background(), Request{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}
