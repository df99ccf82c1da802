package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	commonhttp "incident-relay/internal/common/http"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIClient calls the chat completions endpoint over plain HTTP.
type OpenAIClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *commonhttp.Client
}

type OpenAIConfig struct {
	APIKey  string
	Model   string // e.g., "gpt-4o-mini"
	BaseURL string
}

func NewOpenAIClient(cfg OpenAIConfig, httpClient *commonhttp.Client) *OpenAIClient {
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &OpenAIClient{
		apiKey:     cfg.APIKey,
		model:      model,
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *OpenAIClient) Provider() string { return "openai" }

func (c *OpenAIClient) Complete(ctx context.Context, messages []Message) (string, error) {
	resp, err := c.httpClient.PostJSON(ctx, c.baseURL+"/chat/completions", chatRequest{
		Model:    c.model,
		Messages: messages,
	}, map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	})
	if err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}

	body, err := commonhttp.ReadBody(resp)
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices in response: %w", ErrEmptyResponse)
	}

	return chatResp.Choices[0].Message.Content, nil
}
