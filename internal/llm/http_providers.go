package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/viper"
)

// None of OpenAI, Anthropic, or Ollama's official Go SDKs appear anywhere
// in the corpus, so these three providers are hand-rolled net/http REST
// adapters rather than SDK wrappers - the provider's own behavior is
// opaque to newsloom, only the TextGenerator capability is specified.

const httpProviderTimeout = 60 * time.Second

// OpenAIClient calls the Chat Completions API.
type OpenAIClient struct {
	httpClient *http.Client
	apiKey     string
	model      string
}

const defaultOpenAIModel = "gpt-4o-mini"

// NewOpenAIClient reads OPENAI_API_KEY, falling back to the llm.api_key
// viper key.
func NewOpenAIClient(model string) (*OpenAIClient, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		apiKey = viper.GetString("llm.api_key")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required: set OPENAI_API_KEY")
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIClient{httpClient: &http.Client{Timeout: httpProviderTimeout}, apiKey: apiKey, model: model}, nil
}

func (c *OpenAIClient) GenerateText(ctx context.Context, prompt string, options TextGenerationOptions) (string, error) {
	model := c.model
	if options.Model != "" {
		model = options.Model
	}
	body := map[string]any{
		"model":    model,
		"messages": []map[string]string{{"role": "user", "content": prompt}},
	}
	if options.MaxTokens > 0 {
		body["max_tokens"] = options.MaxTokens
	}
	if options.Temperature > 0 {
		body["temperature"] = options.Temperature
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode openai request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.openai.com/v1/chat/completions", bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("build openai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read openai response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai request failed: %s: %s", resp.Status, string(respBody))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty response from openai")
	}
	return parsed.Choices[0].Message.Content, nil
}

// AnthropicClient calls the Messages API.
type AnthropicClient struct {
	httpClient *http.Client
	apiKey     string
	model      string
}

const (
	defaultAnthropicModel = "claude-3-5-haiku-latest"
	anthropicVersion      = "2023-06-01"
)

// NewAnthropicClient reads ANTHROPIC_API_KEY, falling back to the
// llm.api_key viper key.
func NewAnthropicClient(model string) (*AnthropicClient, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		apiKey = viper.GetString("llm.api_key")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required: set ANTHROPIC_API_KEY")
	}
	if model == "" {
		model = defaultAnthropicModel
	}
	return &AnthropicClient{httpClient: &http.Client{Timeout: httpProviderTimeout}, apiKey: apiKey, model: model}, nil
}

func (c *AnthropicClient) GenerateText(ctx context.Context, prompt string, options TextGenerationOptions) (string, error) {
	model := c.model
	if options.Model != "" {
		model = options.Model
	}
	maxTokens := int32(1024)
	if options.MaxTokens > 0 {
		maxTokens = options.MaxTokens
	}
	body := map[string]any{
		"model":      model,
		"max_tokens": maxTokens,
		"messages":   []map[string]string{{"role": "user", "content": prompt}},
	}
	if options.Temperature > 0 {
		body["temperature"] = options.Temperature
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode anthropic request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.anthropic.com/v1/messages", bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("build anthropic request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("anthropic request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read anthropic response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("anthropic request failed: %s: %s", resp.Status, string(respBody))
	}

	var parsed struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode anthropic response: %w", err)
	}
	if len(parsed.Content) == 0 || parsed.Content[0].Text == "" {
		return "", fmt.Errorf("empty response from anthropic")
	}
	return parsed.Content[0].Text, nil
}

// OllamaClient calls a local Ollama server's /api/generate endpoint.
type OllamaClient struct {
	httpClient *http.Client
	baseURL    string
	model      string
}

const defaultOllamaModel = "llama3.2"

// NewOllamaClient reads OLLAMA_HOST (default http://localhost:11434).
func NewOllamaClient(model string) (*OllamaClient, error) {
	baseURL := os.Getenv("OLLAMA_HOST")
	if baseURL == "" {
		baseURL = viper.GetString("llm.ollama_host")
	}
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = defaultOllamaModel
	}
	return &OllamaClient{httpClient: &http.Client{Timeout: httpProviderTimeout}, baseURL: baseURL, model: model}, nil
}

func (c *OllamaClient) GenerateText(ctx context.Context, prompt string, options TextGenerationOptions) (string, error) {
	model := c.model
	if options.Model != "" {
		model = options.Model
	}
	body := map[string]any{
		"model":  model,
		"prompt": prompt,
		"stream": false,
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("build ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read ollama response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama request failed: %s: %s", resp.Status, string(respBody))
	}

	var parsed struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	if parsed.Response == "" {
		return "", fmt.Errorf("empty response from ollama")
	}
	return parsed.Response, nil
}
