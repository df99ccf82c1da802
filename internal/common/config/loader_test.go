package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	path := writeConfig(t, `
app:
  name: incident-relay
webhook:
  url: https://n8n.example.com/webhook/incident
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "sk-test", cfg.LLMAPIKey())
	assert.Equal(t, 30, cfg.Webhook.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Webhook.TimeoutDuration())
	assert.Equal(t, "2EiwWnXFnvU5JabPnv8n", cfg.Speech.VoiceID)
	assert.Equal(t, "eleven_multilingual_v2", cfg.Speech.ModelID)
	assert.Equal(t, 500, cfg.Speech.LeadInSilence)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, ":8080", cfg.Metrics.Address)
}

func TestLoadFromFile_ExpandsPlaceholders(t *testing.T) {
	t.Setenv("TEST_HOOK_HOST", "hooks.example.com")
	path := writeConfig(t, `
webhook:
  url: https://${TEST_HOOK_HOST}/webhook/incident
  timeout: 5
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://hooks.example.com/webhook/incident", cfg.Webhook.URL)
	assert.Equal(t, 5*time.Second, cfg.Webhook.TimeoutDuration())
}

func TestLoadFromFile_AnthropicProvider(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "ak-test")
	path := writeConfig(t, `
llm:
  provider: Anthropic
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, cfg.LLM.Provider)
	assert.Equal(t, "ak-test", cfg.LLMAPIKey())
	assert.Equal(t, 1024, cfg.LLM.Anthropic.MaxTokens)
}

func TestLoadFromFile_ShippedConfigFollowsProvider(t *testing.T) {
	shipped := filepath.Join("..", "..", "..", "configs", "config.yaml")

	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg, err := LoadFromFile(shipped)
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)

	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "ak-test")
	cfg, err = LoadFromFile(shipped)
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, cfg.LLM.Provider)
	assert.Equal(t, "claude-3-5-haiku-latest", cfg.LLM.Model)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "unknown provider", body: "llm:\n  provider: cohere\n"},
		{name: "relative webhook url", body: "webhook:\n  url: /webhook/incident\n"},
		{name: "negative silence", body: "speech:\n  lead_in_silence: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestGetWorkerConfig(t *testing.T) {
	cfg := &Config{
		Camunda: CamundaConfig{MaxJobsActive: 1, Timeout: 30000},
		Workers: map[string]WorkerConfig{
			"post-incident": {Enabled: false, MaxJobsActive: 2, Timeout: 5000},
		},
	}

	assert.Equal(t, 2, GetWorkerConfig(cfg, "post-incident").MaxJobsActive)
	assert.False(t, IsWorkerEnabled(cfg, "post-incident"))

	def := GetWorkerConfig(cfg, "validate-incident")
	assert.True(t, def.Enabled)
	assert.Equal(t, 1, def.MaxJobsActive)
	assert.Equal(t, 30000, def.Timeout)
	assert.True(t, IsWorkerEnabled(cfg, "validate-incident"))
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}
