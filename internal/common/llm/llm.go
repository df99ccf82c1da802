// Package llm provides chat-completion clients for the extraction stage.
package llm

import (
	"context"
	"errors"
	"fmt"

	"incident-relay/internal/common/config"
	commonhttp "incident-relay/internal/common/http"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	ErrMissingAPIKey = errors.New("MISSING_API_KEY")
	ErrEmptyResponse = errors.New("EMPTY_RESPONSE")
)

// Message is one turn of a chat exchange.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer returns the first completion text for a conversation.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
	Provider() string
}

// New builds the completer selected by cfg.LLM.Provider. Completion calls
// are bounded only by the caller's context.
func New(cfg *config.Config) (Completer, error) {
	if cfg.LLMAPIKey() == "" {
		return nil, fmt.Errorf("%w for provider %s", ErrMissingAPIKey, cfg.LLM.Provider)
	}

	switch cfg.LLM.Provider {
	case config.ProviderAnthropic:
		return NewAnthropicClient(AnthropicConfig{
			APIKey:    cfg.LLM.Anthropic.APIKey,
			Model:     cfg.LLM.Model,
			MaxTokens: cfg.LLM.Anthropic.MaxTokens,
		}), nil
	case config.ProviderOpenAI:
		return NewOpenAIClient(OpenAIConfig{
			APIKey:  cfg.LLM.OpenAI.APIKey,
			Model:   cfg.LLM.Model,
			BaseURL: cfg.LLM.OpenAI.BaseURL,
		}, commonhttp.NewClient(0)), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.LLM.Provider)
	}
}
