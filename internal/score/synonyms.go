// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/paper-triage/internal/llm"
)

const (
	synonymsMaxTokens = 200
	synonymsCountMin  = 3
	synonymsCountMax  = 5

	keywordsMaxTokens = 200
)

// SynonymIndex maps a lower-cased research-interest keyword to its related
// terms. A keyword and its synonyms form one matching group during relevance
// scoring.
type SynonymIndex map[string][]string

// Group returns the keyword together with its synonyms, lower-cased.
func (idx SynonymIndex) Group(keyword string) []string {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	group := []string{kw}
	for _, syn := range idx[kw] {
		syn = strings.ToLower(strings.TrimSpace(syn))
		if syn != "" && syn != kw {
			group = append(group, syn)
		}
	}
	return group
}

// SynonymGenerator expands research interests into synonym groups via the
// LLM, memoizing per distinct keyword set so repeated stages within a run
// issue no duplicate calls.
type SynonymGenerator struct {
	client llm.Client
	cache  map[string]SynonymIndex
}

// NewSynonymGenerator returns a generator backed by client. A nil client
// disables expansion: Generate returns empty groups.
func NewSynonymGenerator(client llm.Client) *SynonymGenerator {
	return &SynonymGenerator{
		client: client,
		cache:  make(map[string]SynonymIndex),
	}
}

func cacheKey(interests []string) string {
	sorted := make([]string, len(interests))
	for i, kw := range interests {
		sorted[i] = strings.ToLower(strings.TrimSpace(kw))
	}
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

// Generate returns the synonym index for the given interests. Generation
// never fails: a per-keyword LLM or parse failure leaves that keyword with an
// empty synonym list, so matching falls back to the keyword itself.
func (g *SynonymGenerator) Generate(ctx context.Context, interests []string) SynonymIndex {
	if len(interests) == 0 || g.client == nil {
		return SynonymIndex{}
	}

	key := cacheKey(interests)
	if cached, ok := g.cache[key]; ok {
		return cached
	}

	idx := SynonymIndex{}
	for _, keyword := range interests {
		kw := strings.ToLower(strings.TrimSpace(keyword))
		idx[kw] = g.synonymsFor(ctx, keyword)
	}

	g.cache[key] = idx
	return idx
}

func (g *SynonymGenerator) synonymsFor(ctx context.Context, keyword string) []string {
	prompt := fmt.Sprintf(`Generate %d-%d synonyms and related terms for this research topic:

Topic: %q

Return ONLY a JSON array of synonyms (all lowercase):
["synonym1", "synonym2", "synonym3", ...]

Include:
- Common abbreviations (e.g., "llm" for "large language model")
- Related terms
- Alternative phrasings
- Keep terms concise and technical
`, synonymsCountMin, synonymsCountMax, keyword)

	resp, err := g.client.Complete(ctx, llm.Request{Prompt: prompt, MaxTokens: synonymsMaxTokens})
	if err != nil {
		return nil
	}

	list, err := parseStringArray(resp)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, s := range list {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ExtractKeywords derives 5-8 research-interest keywords from a free-text
// research description via one LLM call.
func ExtractKeywords(ctx context.Context, client llm.Client, description string) ([]string, error) {
	prompt := fmt.Sprintf(`Extract 5-8 concise research keywords from the following research description.

Research description:
%s

Return ONLY a JSON array of lowercase keywords:
["keyword1", "keyword2", ...]

Keep each keyword short (1-4 words) and technical.
`, description)

	resp, err := client.Complete(ctx, llm.Request{Prompt: prompt, MaxTokens: keywordsMaxTokens})
	if err != nil {
		return nil, fmt.Errorf("extracting keywords: %w", err)
	}

	list, err := parseStringArray(resp)
	if err != nil {
		return nil, fmt.Errorf("parsing keyword response: %w", err)
	}
	out := make([]string, 0, len(list))
	for _, s := range list {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// parseStringArray parses a JSON string array from an LLM response, stripping
// a surrounding markdown code fence if present.
func parseStringArray(resp string) ([]string, error) {
	text := stripCodeFence(resp)
	var list []string
	if err := json.Unmarshal([]byte(text), &list); err != nil {
		return nil, err
	}
	return list, nil
}

// stripCodeFence unwraps ```json ... ``` or ``` ... ``` blocks.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "```json"); idx >= 0 {
		text = text[idx+len("```json"):]
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
		return strings.TrimSpace(text)
	}
	if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[idx+3:]
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
		return strings.TrimSpace(text)
	}
	return text
}
