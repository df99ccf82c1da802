// internal/workers/incident/post-incident/handler.go
package postincident

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"incident-relay/internal/common/errors"
	"incident-relay/internal/common/logger"
	"incident-relay/internal/common/metrics"
	"incident-relay/internal/common/observability"
	"incident-relay/internal/delivery"
	"incident-relay/internal/incident"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "post-incident"
)

var (
	ErrMissingIncident = stderrors.New("MISSING_INCIDENT")
)

// Poster delivers a wire-keyed incident map to the webhook.
type Poster interface {
	PostFields(ctx context.Context, fields map[string]interface{}) delivery.Result
}

type Handler struct {
	config     *Config
	poster     Poster
	logger     logger.Logger
	errHandler *errors.ErrorHandler
	obs        *observability.Observability
}

func NewHandler(config *Config, poster Poster, log logger.Logger, obs *observability.Observability) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		poster:     poster,
		logger:     log,
		errHandler: errors.NewErrorHandler(log),
		obs:        obs,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, errors.NewInvalidInputError(err.Error()), start)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, err, start)
		return
	}

	h.completeJob(client, job, output, start)
}

// execute completes with success=false when the webhook fails; only a
// record that never reaches the network becomes a BPMN error.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Incident == nil {
		return nil, errors.NewInvalidInputError(ErrMissingIncident.Error())
	}

	if f := incident.Check(input.Incident); f != nil {
		return nil, errors.NewIncidentValidationFailedError(f.Message).
			WithMetadata("field", f.Field).
			WithMetadata("ticketRef", input.TicketRef)
	}

	result := h.poster.PostFields(ctx, input.Incident)
	if !result.Success {
		stdErr := errors.Normalize(result.Err())
		h.logger.Warn("webhook rejected incident", map[string]interface{}{
			"ticketRef": input.TicketRef,
			"errorCode": string(stdErr.Code),
			"reason":    stdErr.Details,
		})
	}

	return &Output{Delivery: result}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output, start time.Time) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
		h.failJob(client, job, errors.NewOutputEncodingError(err), start)
		return
	}

	ctx := context.Background()
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "completed")
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error, start time.Time) {
	ctx := context.Background()
	code := errors.Normalize(err).Code
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(code)).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.obs.RecordJobProcessed(ctx, TaskType, "failed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "failed")

	h.errHandler.HandleJobError(ctx, client, job, err)
}

// Execute method for direct usage
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
