// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"encoding/json"
	"time"

	"incident-relay/internal/common/errors"
	"incident-relay/internal/common/logger"
	"incident-relay/internal/common/metrics"
	"incident-relay/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// WorkerOptions configures one job worker subscription.
type WorkerOptions struct {
	TaskType      string
	MaxJobsActive int
	Timeout       time.Duration
}

// StartWorker opens a job worker for opts.TaskType. The returned worker must
// be closed on shutdown.
func StartWorker(client zbc.Client, opts WorkerOptions, handler worker.JobHandler, log logger.Logger) worker.JobWorker {
	if opts.MaxJobsActive <= 0 {
		opts.MaxJobsActive = 1
	}

	jobWorker := client.NewJobWorker().
		JobType(opts.TaskType).
		Handler(handler).
		MaxJobsActive(opts.MaxJobsActive).
		Timeout(opts.Timeout).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      opts.TaskType,
		"maxJobsActive": opts.MaxJobsActive,
		"timeoutMs":     opts.Timeout.Milliseconds(),
	})
	return jobWorker
}

// WithInputSchema checks job variables against schema before handing the job
// to next. Variables that fail are thrown back as INVALID_INPUT with the
// offending field.
func WithInputSchema(schema *validation.Schema, next worker.JobHandler, log logger.Logger) worker.JobHandler {
	errHandler := errors.NewErrorHandler(log)
	return func(client worker.JobClient, job entities.Job) {
		var vars map[string]interface{}
		if err := json.Unmarshal([]byte(job.Variables), &vars); err != nil {
			rejectInput(client, job, errHandler, errors.NewInvalidInputError(err.Error()))
			return
		}

		res := schema.ValidateInput(vars)
		if !res.Valid {
			first := res.FirstError()
			rejectInput(client, job, errHandler,
				errors.NewInvalidInputError(first.Field+": "+first.Message).WithMetadata("field", first.Field))
			return
		}

		next(client, job)
	}
}

func rejectInput(client worker.JobClient, job entities.Job, errHandler *errors.ErrorHandler, err *errors.StandardError) {
	metrics.WorkerJobsFailed.WithLabelValues(job.Type, string(err.Code)).Inc()
	errHandler.HandleJobError(context.Background(), client, job, err)
}
