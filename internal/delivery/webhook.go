// Package delivery posts incident records to the downstream automation webhook.
package delivery

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"incident-relay/internal/common/errors"
	commonhttp "incident-relay/internal/common/http"
	"incident-relay/internal/common/logger"
	"incident-relay/internal/common/metrics"
	"incident-relay/internal/common/observability"
	"incident-relay/internal/incident"
)

const DefaultTimeout = 30 * time.Second

// Config holds the webhook endpoint and the bound on a single POST.
type Config struct {
	URL     string
	Timeout time.Duration
}

// Result is the uniform outcome of one delivery attempt. Failures are
// reported here, never as Go errors.
type Result struct {
	Success    bool        `json:"success"`
	StatusCode int         `json:"status_code,omitempty"`
	Response   interface{} `json:"response,omitempty"`
	Error      string      `json:"error,omitempty"`
}

const timeoutPrefix = "Request timed out"

// Err returns the failure as a coded error, or nil on success.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	var stdErr *errors.StandardError
	if strings.HasPrefix(r.Error, timeoutPrefix) {
		stdErr = errors.NewDeliveryTimeoutError(r.Error)
	} else {
		stdErr = errors.NewDeliveryFailedError(r.Error)
	}
	if r.StatusCode != 0 {
		stdErr.WithMetadata("statusCode", r.StatusCode)
	}
	return stdErr
}

// MarshalJSON keeps "response" on success even when the body was empty.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Success {
		return json.Marshal(struct {
			Success    bool        `json:"success"`
			StatusCode int         `json:"status_code"`
			Response   interface{} `json:"response"`
		}{r.Success, r.StatusCode, r.Response})
	}
	type plain Result
	return json.Marshal(plain(r))
}

// WebhookClient performs one synchronous POST per incident. There is no
// retry and no idempotency key.
type WebhookClient struct {
	config     *Config
	httpClient *commonhttp.Client
	logger     logger.Logger
	obs        *observability.Observability
}

func NewWebhookClient(config *Config, log logger.Logger, obs *observability.Observability) *WebhookClient {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	return &WebhookClient{
		config:     config,
		httpClient: commonhttp.NewClient(config.Timeout),
		logger:     log,
		obs:        obs,
	}
}

// PostIncident builds the payload from discrete fields and posts it.
func (c *WebhookClient) PostIncident(ctx context.Context, policyID, customerName, incidentDate, incidentType, description, location string, estimatedDamage float64) Result {
	return c.PostRecord(ctx, incident.Record{
		PolicyID:        policyID,
		CustomerName:    customerName,
		IncidentDate:    incidentDate,
		IncidentType:    incidentType,
		Description:     description,
		Location:        location,
		EstimatedDamage: estimatedDamage,
	})
}

// PostFields validates a wire-keyed map and posts it. An invalid map is
// rejected locally without a network call.
func (c *WebhookClient) PostFields(ctx context.Context, fields map[string]interface{}) Result {
	if f := incident.Check(fields); f != nil {
		metrics.ValidationFailures.WithLabelValues(f.Field).Inc()
		metrics.DeliveriesTotal.WithLabelValues("invalid").Inc()
		c.logger.Warn("incident rejected before delivery", map[string]interface{}{
			"errorCode": string(errors.ErrCodeIncidentValidationFailed),
			"field":     f.Field,
			"reason":    f.Message,
		})
		return Result{Success: false, Error: "Invalid incident data: " + f.Message}
	}

	record, err := incident.FromFields(fields)
	if err != nil {
		metrics.DeliveriesTotal.WithLabelValues("invalid").Inc()
		return Result{Success: false, Error: "Invalid incident data: " + err.Error()}
	}
	return c.PostRecord(ctx, record)
}

// ValidateIncidentData delegates to the shared incident validator.
func (c *WebhookClient) ValidateIncidentData(fields map[string]interface{}) (bool, string) {
	return incident.Validate(fields)
}

// PostRecord posts a pre-built record.
func (c *WebhookClient) PostRecord(ctx context.Context, record incident.Record) Result {
	start := time.Now()

	c.logger.Info("posting incident to webhook", map[string]interface{}{
		"policyId":     record.PolicyID,
		"customerName": record.CustomerName,
	})

	result, outcome := c.post(ctx, record)

	elapsed := time.Since(start)
	metrics.DeliveriesTotal.WithLabelValues(outcome).Inc()
	metrics.DeliveryDuration.Observe(elapsed.Seconds())
	c.obs.RecordStage(ctx, observability.StageDeliver, elapsed, outcome)

	if result.Success {
		c.logger.Info("incident delivered", map[string]interface{}{
			"policyId":   record.PolicyID,
			"statusCode": result.StatusCode,
			"durationMs": elapsed.Milliseconds(),
		})
		return result
	}

	stdErr := errors.Normalize(result.Err())
	c.logger.Error("incident delivery failed", map[string]interface{}{
		"policyId":   record.PolicyID,
		"statusCode": result.StatusCode,
		"errorCode":  string(stdErr.Code),
		"reason":     stdErr.Details,
	})
	return result
}

func (c *WebhookClient) post(ctx context.Context, record incident.Record) (Result, string) {
	resp, err := c.httpClient.PostJSON(ctx, c.config.URL, record, nil)
	if err != nil {
		return c.transportFailure(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.transportFailure(err)
	}

	if resp.StatusCode >= 400 {
		return Result{
			Success:    false,
			StatusCode: resp.StatusCode,
			Error:      "Request failed: " + httpErrorText(resp.StatusCode, c.config.URL),
		}, "http_error"
	}

	return Result{
		Success:    true,
		StatusCode: resp.StatusCode,
		Response:   decodeResponse(body),
	}, "success"
}

func (c *WebhookClient) transportFailure(err error) (Result, string) {
	if isTimeout(err) {
		return Result{
			Success: false,
			Error:   fmt.Sprintf("%s after %s seconds", timeoutPrefix, formatSeconds(c.config.Timeout)),
		}, "timeout"
	}
	return Result{Success: false, Error: "Request failed: " + err.Error()}, "network_error"
}

func isTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}

// decodeResponse returns the JSON value of body, or the text when it is not JSON.
func decodeResponse(body []byte) interface{} {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return string(body)
	}
	return v
}

func httpErrorText(status int, url string) string {
	kind := "Server"
	if status < 500 {
		kind = "Client"
	}
	return fmt.Sprintf("%d %s Error: %s for url: %s", status, kind, http.StatusText(status), url)
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
