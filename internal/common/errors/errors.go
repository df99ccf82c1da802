// Package errors provides standardized error handling for the incident
// workers and their BPMN integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	ErrCodeExtractionFailed      ErrorCode = "EXTRACTION_FAILED"
	ErrCodeExtractionInvalidJSON ErrorCode = "EXTRACTION_INVALID_JSON"

	ErrCodeIncidentValidationFailed ErrorCode = "INCIDENT_VALIDATION_FAILED"

	ErrCodeDeliveryFailed  ErrorCode = "DELIVERY_FAILED"
	ErrCodeDeliveryTimeout ErrorCode = "DELIVERY_TIMEOUT"

	ErrCodeSpeechSynthesisFailed ErrorCode = "SPEECH_SYNTHESIS_FAILED"
	ErrCodeAudioPlaybackFailed   ErrorCode = "AUDIO_PLAYBACK_FAILED"

	ErrCodeOutputEncodingFailed ErrorCode = "OUTPUT_ENCODING_FAILED"
)

// StandardError is the internal error shape shared by workers and commands.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key to the error's metadata and returns the error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// BPMNError is what gets thrown back to the process engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

func newError(code ErrorCode, message, details string, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Job variables could not be parsed", details, nil)
}

// NewExtractionFailedError wraps a language-model outage. Not retried.
func NewExtractionFailedError(err error) *StandardError {
	return newError(ErrCodeExtractionFailed, "Language-model extraction call failed", err.Error(), err)
}

// NewExtractionInvalidJSONError carries the raw model output in metadata.
func NewExtractionInvalidJSONError(raw string) *StandardError {
	return newError(ErrCodeExtractionInvalidJSON, "Invalid JSON returned", "", nil).
		WithMetadata("raw", raw)
}

func NewIncidentValidationFailedError(details string) *StandardError {
	return newError(ErrCodeIncidentValidationFailed, "Incident record failed validation", details, nil)
}

func NewDeliveryFailedError(details string) *StandardError {
	return newError(ErrCodeDeliveryFailed, "Webhook delivery failed", details, nil)
}

func NewDeliveryTimeoutError(details string) *StandardError {
	return newError(ErrCodeDeliveryTimeout, "Webhook delivery timed out", details, nil)
}

func NewSpeechSynthesisFailedError(err error) *StandardError {
	return newError(ErrCodeSpeechSynthesisFailed, "Text-to-speech call failed", err.Error(), err)
}

func NewAudioPlaybackFailedError(err error) *StandardError {
	return newError(ErrCodeAudioPlaybackFailed, "Audio playback failed", err.Error(), err)
}

// NewOutputEncodingError reports job variables that could not be encoded
// as JSON. Raised as an incident since retrying cannot change the output.
func NewOutputEncodingError(err error) *StandardError {
	return newError(ErrCodeOutputEncodingFailed, "Job output could not be encoded", err.Error(), err)
}

func NewExternalServiceError(service string, err error) *StandardError {
	e := newError("EXTERNAL_SERVICE_ERROR", fmt.Sprintf("External service '%s' error", service), err.Error(), err)
	e.Retryable = true
	return e
}

func NewTimeoutError(service string, err error) *StandardError {
	e := newError("TIMEOUT_ERROR", fmt.Sprintf("Service '%s' timeout", service), err.Error(), err)
	e.Retryable = true
	return e
}

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidInput:             "INVALID_INPUT",
	ErrCodeExtractionFailed:         "EXTRACTION_FAILED",
	ErrCodeExtractionInvalidJSON:    "EXTRACTION_INVALID_JSON",
	ErrCodeIncidentValidationFailed: "INCIDENT_VALIDATION_FAILED",
	ErrCodeDeliveryFailed:           "DELIVERY_FAILED",
	ErrCodeDeliveryTimeout:          "DELIVERY_TIMEOUT",
	ErrCodeSpeechSynthesisFailed:    "SPEECH_SYNTHESIS_FAILED",
	ErrCodeAudioPlaybackFailed:      "AUDIO_PLAYBACK_FAILED",
}

// GetRetryCount is zero for every incident code: no stage defines a retry
// policy. Only infrastructure errors (Zeebe connectivity) are retried.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case "EXTERNAL_SERVICE_ERROR", "TIMEOUT_ERROR":
		return 3
	default:
		return 0
	}
}

// IsIncident reports whether a failed job should surface as an engine
// incident (fail with zero retries) instead of a catchable BPMN error.
func IsIncident(code ErrorCode) bool {
	switch code {
	case ErrCodeExtractionFailed, ErrCodeSpeechSynthesisFailed, ErrCodeAudioPlaybackFailed, ErrCodeOutputEncodingFailed:
		return true
	}
	return false
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "EXTRACTION"):
		return "EXTRACTION"
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.HasPrefix(codeStr, "DELIVERY"):
		return "DELIVERY"
	case strings.HasPrefix(codeStr, "SPEECH") || strings.HasPrefix(codeStr, "AUDIO"):
		return "VOICE"
	default:
		return "OTHER"
	}
}
