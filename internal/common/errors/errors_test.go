package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertToBPMNError_CarriesMetadata(t *testing.T) {
	stdErr := NewExtractionInvalidJSONError("not json")
	bpmnErr := ConvertToBPMNError(stdErr)

	assert.Equal(t, "EXTRACTION_INVALID_JSON", bpmnErr.Code)
	assert.Equal(t, "Invalid JSON returned", bpmnErr.Message)
	assert.Equal(t, 0, bpmnErr.Retries)

	vars := bpmnErr.ToErrorVariables()
	assert.Equal(t, "not json", vars["raw"])
	assert.Equal(t, "EXTRACTION_INVALID_JSON", vars["errorCode"])
	assert.Equal(t, "EXTRACTION_INVALID_JSON", vars["originalErrorCode"])
}

func TestGetRetryCount_NoIncidentRetries(t *testing.T) {
	for code := range BPMNErrorMapping {
		assert.Equal(t, 0, GetRetryCount(code), string(code))
	}
	assert.Equal(t, 3, GetRetryCount("EXTERNAL_SERVICE_ERROR"))
}

func TestIsIncident(t *testing.T) {
	assert.True(t, IsIncident(ErrCodeExtractionFailed))
	assert.True(t, IsIncident(ErrCodeSpeechSynthesisFailed))
	assert.True(t, IsIncident(NewOutputEncodingError(fmt.Errorf("json: unsupported value: NaN")).Code))
	assert.False(t, IsIncident(ErrCodeIncidentValidationFailed))
	assert.False(t, IsIncident(ErrCodeExtractionInvalidJSON))
}

func TestNormalize(t *testing.T) {
	cause := stderrors.New("connection refused")
	wrapped := fmt.Errorf("extract: %w", NewExtractionFailedError(cause))

	stdErr := Normalize(wrapped)
	assert.Equal(t, ErrCodeExtractionFailed, stdErr.Code)
	assert.True(t, stderrors.Is(stdErr, cause))

	plain := Normalize(stderrors.New("boom"))
	assert.Equal(t, ErrorCode("INTERNAL_ERROR"), plain.Code)
	assert.Equal(t, "boom", plain.Details)
}

func TestGetErrorCategory(t *testing.T) {
	tests := map[ErrorCode]string{
		ErrCodeExtractionFailed:         "EXTRACTION",
		ErrCodeIncidentValidationFailed: "VALIDATION",
		ErrCodeInvalidInput:             "VALIDATION",
		ErrCodeDeliveryTimeout:          "DELIVERY",
		ErrCodeAudioPlaybackFailed:      "VOICE",
		"SOMETHING_ELSE":                "OTHER",
	}
	for code, want := range tests {
		assert.Equal(t, want, GetErrorCategory(code), string(code))
	}
}
