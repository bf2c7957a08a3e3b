package decompose

import (
	"context"
	"fmt"
)

// CompletionRequest is a single system+user prompt exchange.
type CompletionRequest struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// LLMProvider is the language model behind decomposition and
// classification.
type LLMProvider interface {
	// Complete returns the model's text reply for one exchange.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Provider returns the provider name.
	Provider() string
}

// ProviderConfig selects and authenticates a provider.
type ProviderConfig struct {
	Provider string // openai, groq, anthropic
	APIKey   string
	BaseURL  string // overrides the provider's default endpoint
	Model    string
}

// NewProvider creates an LLM provider from config. "groq" is the
// OpenAI-compatible provider pointed at Groq's endpoint, matching the
// service the decomposition prompt was tuned on.
func NewProvider(cfg ProviderConfig) (LLMProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required for provider %q", cfg.Provider)
	}
	switch cfg.Provider {
	case "openai", "groq", "":
		return NewOpenAIProvider(cfg), nil
	case "anthropic":
		return NewAnthropicProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}
