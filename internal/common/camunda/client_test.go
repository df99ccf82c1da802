package camunda

import (
	stderrors "errors"
	"testing"
	"time"

	"incident-relay/internal/common/errors"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryableZeebeError(t *testing.T) {
	assert.True(t, isRetryableZeebeError(stderrors.New("rpc error: code = Unavailable desc = connection refused")))
	assert.True(t, isRetryableZeebeError(stderrors.New("context deadline exceeded")))
	assert.False(t, isRetryableZeebeError(stderrors.New("permission denied")))
}

func TestMapZeebeError(t *testing.T) {
	err := mapZeebeError(stderrors.New("deadline exceeded"), "zeebe topology", 2)
	stdErr := errors.Normalize(err)
	assert.Equal(t, errors.ErrorCode("TIMEOUT_ERROR"), stdErr.Code)
	assert.Contains(t, stdErr.Details, "after 3 attempts")

	err = mapZeebeError(stderrors.New("connection refused"), "zeebe topology", 0)
	assert.Equal(t, errors.ErrorCode("EXTERNAL_SERVICE_ERROR"), errors.Normalize(err).Code)
}

func TestBackoff(t *testing.T) {
	rc := &RetryConfig{MaxRetries: 5, BaseDelay: time.Second, MaxDelay: 5 * time.Second}
	assert.Equal(t, time.Second, backoff(rc, 0))
	assert.Equal(t, 4*time.Second, backoff(rc, 2))
	assert.Equal(t, 5*time.Second, backoff(rc, 3))
}
