package llm

import "testing"

func TestNewClient_RequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_AI_API_KEY", "")

	if _, err := NewClient(""); err == nil {
		t.Fatal("expected error when no gemini API key is configured")
	}
}

func TestNewClient_DefaultsModelName(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	client, err := NewClient("")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client.ModelName() != DefaultModel {
		t.Fatalf("expected default model %q, got %q", DefaultModel, client.ModelName())
	}
}

func TestGenerateText_RejectsEmptyPrompt(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	client, err := NewClient("")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.GenerateText(nil, "", TextGenerationOptions{}); err == nil { //nolint:staticcheck
		t.Fatal("expected error for empty prompt")
	}
}

func TestNew_UnknownProviderErrors(t *testing.T) {
	if _, err := New("unknown-provider", ""); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestNewOpenAIClient_RequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewOpenAIClient(""); err == nil {
		t.Fatal("expected error when OPENAI_API_KEY is unset")
	}
}

func TestNewAnthropicClient_RequiresAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	if _, err := NewAnthropicClient(""); err == nil {
		t.Fatal("expected error when ANTHROPIC_API_KEY is unset")
	}
}

func TestNewOllamaClient_DefaultsHostAndModel(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "")
	client, err := NewOllamaClient("")
	if err != nil {
		t.Fatalf("NewOllamaClient: %v", err)
	}
	if client.baseURL != "http://localhost:11434" {
		t.Fatalf("expected default ollama host, got %q", client.baseURL)
	}
	if client.model != defaultOllamaModel {
		t.Fatalf("expected default ollama model, got %q", client.model)
	}
}
