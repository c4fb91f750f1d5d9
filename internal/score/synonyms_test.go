// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_BuildsGroups(t *testing.T) {
	client := &fakeLLM{responses: []string{`["graph synthesis", "network generation"]`}}
	g := NewSynonymGenerator(client)

	idx := g.Generate(context.Background(), []string{"Graph Generation"})
	require.Len(t, client.prompts, 1)
	assert.Equal(t, []string{"graph synthesis", "network generation"}, idx["graph generation"])
	assert.Equal(t, []string{"graph generation", "graph synthesis", "network generation"}, idx.Group("graph generation"))
}

func TestGenerate_MemoizedAcrossOrderings(t *testing.T) {
	client := &fakeLLM{responses: []string{`["a1"]`, `["b1"]`}}
	g := NewSynonymGenerator(client)

	first := g.Generate(context.Background(), []string{"alpha", "beta"})
	callsAfterFirst := len(client.prompts)

	// Same set in reverse order: served from cache, no further LLM calls.
	second := g.Generate(context.Background(), []string{"beta", "alpha"})
	assert.Equal(t, callsAfterFirst, len(client.prompts))
	assert.Equal(t, first, second)
}

func TestGenerate_PerKeywordFailureLeavesEmptyList(t *testing.T) {
	client := &fakeLLM{err: errors.New("api down")}
	g := NewSynonymGenerator(client)

	idx := g.Generate(context.Background(), []string{"alpha"})
	assert.Empty(t, idx["alpha"])
	// Matching still works on the keyword itself.
	assert.Equal(t, []string{"alpha"}, idx.Group("alpha"))
}

func TestGenerate_StripsCodeFences(t *testing.T) {
	client := &fakeLLM{responses: []string{"```json\n[\"syn1\", \"syn2\"]\n```"}}
	g := NewSynonymGenerator(client)

	idx := g.Generate(context.Background(), []string{"topic"})
	assert.Equal(t, []string{"syn1", "syn2"}, idx["topic"])
}

func TestGenerate_NoInterests(t *testing.T) {
	client := &fakeLLM{}
	g := NewSynonymGenerator(client)
	idx := g.Generate(context.Background(), nil)
	assert.Empty(t, idx)
	assert.Empty(t, client.prompts)
}

func TestGenerate_NilClientDisablesExpansion(t *testing.T) {
	g := NewSynonymGenerator(nil)
	idx := g.Generate(context.Background(), []string{"alpha"})
	assert.Empty(t, idx)
}

func TestExtractKeywords(t *testing.T) {
	client := &fakeLLM{responses: []string{`["graph generation", "molecule design", "GNN"]`}}

	got, err := ExtractKeywords(context.Background(), client, "I work on generating molecular graphs.")
	require.NoError(t, err)
	assert.Equal(t, []string{"graph generation", "molecule design", "gnn"}, got)
}

func TestExtractKeywords_ParseError(t *testing.T) {
	client := &fakeLLM{responses: []string{"no json here"}}
	_, err := ExtractKeywords(context.Background(), client, "description")
	require.Error(t, err)
}
