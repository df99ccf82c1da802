// Package extraction turns free-form incident descriptions into candidate
// records with a single language-model call.
package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"incident-relay/internal/common/llm"
	"incident-relay/internal/common/logger"
	"incident-relay/internal/common/metrics"
	"incident-relay/internal/common/observability"
	"incident-relay/internal/incident"
)

// Extractor asks a Completer for the incident fields in rawText.
type Extractor struct {
	completer llm.Completer
	logger    logger.Logger
	obs       *observability.Observability
}

func NewExtractor(completer llm.Completer, log logger.Logger, obs *observability.Observability) *Extractor {
	return &Extractor{completer: completer, logger: log, obs: obs}
}

// Extract returns the parsed model reply. A reply that is not a JSON object
// yields the error record with the raw reply, not a Go error. Upstream
// failures are returned as errors and never retried.
func (e *Extractor) Extract(ctx context.Context, rawText string) (incident.Candidate, error) {
	start := time.Now()
	provider := e.completer.Provider()

	e.logger.Debug("extraction request sent", map[string]interface{}{
		"provider":   provider,
		"textLength": len(rawText),
	})

	content, err := e.completer.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: schemaPrompt},
		{Role: llm.RoleUser, Content: userPromptPrefix + rawText},
	})
	if err != nil {
		metrics.ExtractionsTotal.WithLabelValues(provider, "failed").Inc()
		e.obs.RecordStage(ctx, observability.StageExtract, time.Since(start), "failed")
		e.logger.Error("extraction failed", map[string]interface{}{
			"provider":  provider,
			"errorCode": "EXTRACTION_FAILED",
			"error":     err,
		})
		return nil, fmt.Errorf("extract incident: %w", err)
	}

	content = strings.TrimSpace(content)
	candidate, ok := parseCandidate(content)
	if !ok {
		metrics.ExtractionsTotal.WithLabelValues(provider, "invalid_json").Inc()
		e.obs.RecordStage(ctx, observability.StageExtract, time.Since(start), "invalid_json")
		e.logger.Warn("extraction returned invalid JSON", map[string]interface{}{
			"provider":  provider,
			"errorCode": "EXTRACTION_INVALID_JSON",
			"rawLength": len(content),
		})
		return incident.NewErrorCandidate(content), nil
	}

	metrics.ExtractionsTotal.WithLabelValues(provider, "ok").Inc()
	e.obs.RecordStage(ctx, observability.StageExtract, time.Since(start), "ok")
	e.logger.Info("extraction succeeded", map[string]interface{}{
		"provider": provider,
		"fields":   len(candidate),
	})
	return candidate, nil
}

// parseCandidate decodes content as a JSON object, tolerating a markdown
// code fence around it.
func parseCandidate(content string) (incident.Candidate, bool) {
	body := stripCodeFence(content)

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(body), &obj); err != nil || obj == nil {
		return nil, false
	}
	return incident.Candidate(obj), true
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
