package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"incident-relay/internal/common/config"
	commonhttp "incident-relay/internal/common/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIClient_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, RoleSystem, req.Messages[0].Role)
		assert.Equal(t, RoleUser, req.Messages[1].Role)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"policyId\":\"P-1\"}"}}]}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIConfig{APIKey: "sk-test", BaseURL: server.URL}, commonhttp.NewClient(5*time.Second))
	out, err := client.Complete(context.Background(), []Message{
		{Role: RoleSystem, Content: "extract"},
		{Role: RoleUser, Content: "text"},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"policyId":"P-1"}`, out)
	assert.Equal(t, "openai", client.Provider())
}

func TestOpenAIClient_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":"boom"}`},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, wantErr: ErrEmptyResponse},
		{name: "garbage body", status: http.StatusOK, body: `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewOpenAIClient(OpenAIConfig{APIKey: "k", BaseURL: server.URL}, commonhttp.NewClient(5*time.Second))
			_, err := client.Complete(context.Background(), []Message{{Role: RoleUser, Content: "x"}})
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
			}
		})
	}
}

func TestAnthropicClient_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "ak-test", r.Header.Get("X-Api-Key"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claude-3-5-haiku-latest", req["model"])
		assert.NotNil(t, req["system"])
		msgs, ok := req["messages"].([]interface{})
		require.True(t, ok)
		assert.Len(t, msgs, 1)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-haiku-latest",
			"content": [{"type": "text", "text": "{\"policyId\":null}"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	}))
	defer server.Close()

	client := NewAnthropicClient(AnthropicConfig{
		APIKey:  "ak-test",
		Model:   "claude-3-5-haiku-latest",
		BaseURL: server.URL + "/",
	})
	out, err := client.Complete(context.Background(), []Message{
		{Role: RoleSystem, Content: "extract"},
		{Role: RoleUser, Content: "text"},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"policyId":null}`, out)
}

func TestNew(t *testing.T) {
	cfg := &config.Config{}
	cfg.LLM.Provider = config.ProviderOpenAI
	_, err := New(cfg)
	assert.True(t, errors.Is(err, ErrMissingAPIKey))

	cfg.LLM.OpenAI.APIKey = "sk"
	c, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "openai", c.Provider())

	cfg.LLM.Provider = config.ProviderAnthropic
	cfg.LLM.Anthropic.APIKey = "ak"
	c, err = New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", c.Provider())
}
