package digest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"newsloom/internal/core"
	"newsloom/internal/llm"
)

const (
	cacheKeyContentChars = 200
	promptContentChars   = 800
	fallbackTitleChars   = 200
	systemPrompt         = "You are a tech news analyst. Write a concise 1-2 sentence summary explaining why this item matters for AI practitioners."
)

// Summarizer produces a "why it matters" summary per item, keyed by item id.
type Summarizer interface {
	Summarize(ctx context.Context, items []*core.Item) (map[string]string, error)
}

// cacheKey is the stable, content-addressed key used to dedup repeated
// summarization work across runs: sha256(url:title:content[:200])[:16].
func cacheKey(item *core.Item) string {
	content := item.Content
	if len(content) > cacheKeyContentChars {
		content = content[:cacheKeyContentChars]
	}
	raw := item.URL + ":" + item.Title + ":" + content
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])[:16]
}

func buildPrompt(item *core.Item) string {
	preview := item.Content
	if preview == "" {
		preview = "(no content)"
	} else if len(preview) > promptContentChars {
		preview = preview[:promptContentChars]
	}
	return fmt.Sprintf(
		"Title: %s\nSource: %s\nCategory: %s\nContent: %s\n\nSummarize why this matters in 1-2 sentences.",
		item.Title, item.SourceID, item.Category, preview,
	)
}

func fallbackSummary(item *core.Item) string {
	title := item.Title
	if len(title) > fallbackTitleChars {
		title = title[:fallbackTitleChars]
	}
	return title
}

// MockSummarizer generates deterministic template summaries with no
// external calls, for tests and offline/CI digest runs.
type MockSummarizer struct{}

// NewMockSummarizer builds a MockSummarizer.
func NewMockSummarizer() *MockSummarizer { return &MockSummarizer{} }

// Summarize returns a template summary per item.
func (m *MockSummarizer) Summarize(_ context.Context, items []*core.Item) (map[string]string, error) {
	out := make(map[string]string, len(items))
	for _, item := range items {
		label := strings.Title(strings.ReplaceAll(item.SourceID, "_", " ")) //nolint:staticcheck
		out[item.ID] = fmt.Sprintf("%s — from %s (%s).", item.Title, label, item.Category)
	}
	return out, nil
}

// LLMSummarizer calls a configured LLM provider with bounded concurrency
// and an in-memory result cache keyed by content hash. client is any
// llm.TextGenerator - Gemini, OpenAI, Anthropic, or Ollama.
type LLMSummarizer struct {
	client      llm.TextGenerator
	concurrency int

	mu    sync.Mutex
	cache map[string]string
}

// NewLLMSummarizer builds a summarizer backed by client, running up to
// concurrency requests at once (default 10).
func NewLLMSummarizer(client llm.TextGenerator, concurrency int) *LLMSummarizer {
	if concurrency <= 0 {
		concurrency = 10
	}
	return &LLMSummarizer{client: client, concurrency: concurrency, cache: make(map[string]string)}
}

// Summarize generates summaries in batches of g.concurrency, falling back
// to the item's title when a single call fails so one bad response never
// drops an item from the digest.
func (g *LLMSummarizer) Summarize(ctx context.Context, items []*core.Item) (map[string]string, error) {
	results := make(map[string]string, len(items))
	var pending []*core.Item

	g.mu.Lock()
	for _, item := range items {
		key := cacheKey(item)
		if cached, ok := g.cache[key]; ok {
			results[item.ID] = cached
		} else {
			pending = append(pending, item)
		}
	}
	g.mu.Unlock()

	for start := 0; start < len(pending); start += g.concurrency {
		end := start + g.concurrency
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		type outcome struct {
			item *core.Item
			text string
		}
		outcomes := make([]outcome, len(batch))
		var wg sync.WaitGroup
		for i, item := range batch {
			wg.Add(1)
			go func(i int, item *core.Item) {
				defer wg.Done()
				text, err := g.client.GenerateText(ctx, systemPrompt+"\n\n"+buildPrompt(item), llm.TextGenerationOptions{MaxTokens: 150, Temperature: 0.7})
				if err != nil {
					text = fallbackSummary(item)
				}
				outcomes[i] = outcome{item: item, text: text}
			}(i, item)
		}
		wg.Wait()

		g.mu.Lock()
		for _, o := range outcomes {
			results[o.item.ID] = o.text
			g.cache[cacheKey(o.item)] = o.text
		}
		g.mu.Unlock()
	}

	return results, nil
}
