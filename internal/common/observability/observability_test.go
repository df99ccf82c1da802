package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestZeroValueIsNoOp(t *testing.T) {
	var o *Observability
	assert.NotPanics(t, func() {
		o.RecordStage(context.Background(), StageExtract, time.Millisecond, "ok")
		o.RecordJobProcessed(context.Background(), "validate-incident", "completed")
		o.RecordJobDuration(context.Background(), "validate-incident", time.Millisecond, "completed")
		o.Shutdown()
	})

	empty := &Observability{}
	assert.NotPanics(t, func() {
		empty.RecordStage(context.Background(), StageDeliver, time.Millisecond, "ok")
		empty.Shutdown()
	})
}

func TestInitSentry_DisabledWithoutDSN(t *testing.T) {
	r, err := InitSentry("", "test", "dev")
	assert.NoError(t, err)
	assert.False(t, r.Enabled())
	assert.NotPanics(t, func() {
		r.Capture(errors.New("boom"), map[string]string{"stage": "extract"}, nil)
		r.Flush()
	})

	var nilReporter *Reporter
	assert.False(t, nilReporter.Enabled())
}
