// Package tts synthesizes speech through the ElevenLabs API.
package tts

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	commonhttp "incident-relay/internal/common/http"
)

const (
	defaultBaseURL = "https://api.elevenlabs.io"
	// OutputFormat is 44.1 kHz MP3, decoded by internal/common/audio.
	OutputFormat = "mp3_44100_128"
)

var ErrEmptyAudio = errors.New("EMPTY_AUDIO")

// Synthesizer turns text into encoded audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// ElevenLabsClient implements Synthesizer using ElevenLabs' API.
type ElevenLabsClient struct {
	apiKey     string
	voiceID    string
	modelID    string
	baseURL    string
	httpClient *commonhttp.Client
}

type ElevenLabsConfig struct {
	APIKey  string
	VoiceID string
	ModelID string
	BaseURL string
}

func NewElevenLabsClient(cfg ElevenLabsConfig, httpClient *commonhttp.Client) *ElevenLabsClient {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	voiceID := cfg.VoiceID
	if voiceID == "" {
		voiceID = "2EiwWnXFnvU5JabPnv8n"
	}
	modelID := cfg.ModelID
	if modelID == "" {
		modelID = "eleven_multilingual_v2"
	}
	return &ElevenLabsClient{
		apiKey:     cfg.APIKey,
		voiceID:    voiceID,
		modelID:    modelID,
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

type ttsRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// Synthesize converts text to speech and returns MP3 bytes.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s",
		c.baseURL, url.PathEscape(c.voiceID), OutputFormat)

	resp, err := c.httpClient.PostJSON(ctx, endpoint, ttsRequest{
		Text:    text,
		ModelID: c.modelID,
	}, map[string]string{
		"xi-api-key": c.apiKey,
		"Accept":     "audio/mpeg",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	audio, err := commonhttp.ReadBody(resp)
	if err != nil {
		return nil, fmt.Errorf("ElevenLabs API error: %w", err)
	}
	if len(audio) == 0 {
		return nil, ErrEmptyAudio
	}
	return audio, nil
}
