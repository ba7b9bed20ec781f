// Package llm wraps the LLM providers (Gemini via its SDK; OpenAI,
// Anthropic, and Ollama via plain HTTP) used to generate "why it matters"
// summaries for digest items.
package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-flash-lite-latest"

// Client wraps a configured Gemini client and default model name.
type Client struct {
	modelName string
	gClient   *genai.Client
}

// TextGenerationOptions tunes a single GenerateText call.
type TextGenerationOptions struct {
	MaxTokens   int32
	Temperature float32
	Model       string
}

// NewClient builds a Gemini-backed Client. The API key is read from
// GEMINI_API_KEY, then GOOGLE_GEMINI_API_KEY, then GOOGLE_AI_API_KEY,
// then the gemini.api_key viper key, in that order.
func NewClient(modelName string) (*Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		if apiKey = os.Getenv("GOOGLE_GEMINI_API_KEY"); apiKey == "" {
			if apiKey = os.Getenv("GOOGLE_AI_API_KEY"); apiKey == "" {
				apiKey = viper.GetString("gemini.api_key")
			}
		}
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required: set GEMINI_API_KEY or gemini.api_key in config")
	}

	if modelName == "" {
		modelName = viper.GetString("gemini.model")
		if modelName == "" {
			modelName = DefaultModel
		}
	}

	ctx := context.Background()
	gClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Client{modelName: modelName, gClient: gClient}, nil
}

// GenerateText sends a single-turn prompt and returns the model's text.
func (c *Client) GenerateText(ctx context.Context, prompt string, options TextGenerationOptions) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	modelName := c.modelName
	if options.Model != "" {
		modelName = options.Model
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  "user",
	}}

	var config *genai.GenerateContentConfig
	if options.MaxTokens > 0 || options.Temperature > 0 {
		config = &genai.GenerateContentConfig{}
		if options.MaxTokens > 0 {
			config.MaxOutputTokens = options.MaxTokens
		}
		if options.Temperature > 0 {
			temp := options.Temperature
			config.Temperature = &temp
		}
	}

	resp, err := c.gClient.Models.GenerateContent(ctx, modelName, contents, config)
	if err != nil {
		return "", fmt.Errorf("generate text: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}

// ModelName returns the client's configured model.
func (c *Client) ModelName() string { return c.modelName }

// TextGenerator is the capability digest.Summarizer depends on: a single
// prompt in, a block of generated text out. Client (Gemini) and the
// HTTP-based provider adapters all satisfy it.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, options TextGenerationOptions) (string, error)
}

// New builds the configured TextGenerator for provider ("gemini", "openai",
// "anthropic", or "ollama", which "local" also selects), using model as
// the default unless a call's TextGenerationOptions.Model overrides it.
func New(provider, model string) (TextGenerator, error) {
	switch provider {
	case "", "gemini":
		return NewClient(model)
	case "openai":
		return NewOpenAIClient(model)
	case "anthropic":
		return NewAnthropicClient(model)
	case "ollama", "local":
		return NewOllamaClient(model)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}
