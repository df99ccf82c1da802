// internal/workers/incident/post-incident/handler_test.go
package postincident

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"incident-relay/internal/common/errors"
	"incident-relay/internal/common/logger"
	"incident-relay/internal/delivery"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validVariables = `{"ticketRef":"ref-1","incident":{"policyId":"PL-4829","customerName":"Sarah Thompson",
	"incidentDate":"2024-03-14","incidentType":"Auto Accident","description":"Rear-ended",
	"location":"Denver","estimatedDamage":1500}}`

func decodeInput(t *testing.T, raw string) *Input {
	t.Helper()
	var input Input
	require.NoError(t, json.Unmarshal([]byte(raw), &input))
	return &input
}

func newTestHandler(t *testing.T, url string) *Handler {
	poster := delivery.NewWebhookClient(&delivery.Config{URL: url, Timeout: time.Second}, logger.NewTestLogger(t), nil)
	return NewHandler(LoadConfig(), poster, logger.NewTestLogger(t), nil)
}

func TestHandler_Execute_Delivered(t *testing.T) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"workflow":"accepted"}`))
	}))
	defer server.Close()

	out, err := newTestHandler(t, server.URL).Execute(context.Background(), decodeInput(t, validVariables))
	require.NoError(t, err)

	assert.True(t, out.Delivery.Success)
	assert.Equal(t, 200, out.Delivery.StatusCode)
	assert.Equal(t, map[string]interface{}{"workflow": "accepted"}, out.Delivery.Response)
	assert.Equal(t, "PL-4829", received["policyId"])
	assert.Equal(t, 1500.0, received["estimatedDamage"])
}

func TestHandler_Execute_WebhookErrorCompletes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	out, err := newTestHandler(t, server.URL).Execute(context.Background(), decodeInput(t, validVariables))
	require.NoError(t, err)
	assert.False(t, out.Delivery.Success)
	assert.Contains(t, out.Delivery.Error, "502 Server Error")
}

func TestHandler_Execute_InvalidIncident(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	input := decodeInput(t, validVariables)
	delete(input.Incident, "policyId")

	_, err := newTestHandler(t, server.URL).Execute(context.Background(), input)
	require.Error(t, err)

	stdErr := errors.Normalize(err)
	assert.Equal(t, errors.ErrCodeIncidentValidationFailed, stdErr.Code)
	assert.Equal(t, "Missing required field: policyId", stdErr.Details)
	assert.Equal(t, "policyId", stdErr.Metadata["field"])
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestHandler_Execute_MissingIncident(t *testing.T) {
	_, err := newTestHandler(t, "http://127.0.0.1:0").Execute(context.Background(), &Input{})
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.Normalize(err).Code)
}
