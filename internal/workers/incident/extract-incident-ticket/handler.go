// internal/workers/incident/extract-incident-ticket/handler.go
package extractincidentticket

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"time"

	"incident-relay/internal/common/errors"
	"incident-relay/internal/common/logger"
	"incident-relay/internal/common/metrics"
	"incident-relay/internal/common/observability"
	"incident-relay/internal/pipeline"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "extract-incident-ticket"
)

var (
	ErrEmptyText = stderrors.New("EMPTY_TEXT")
)

// TicketMaker turns raw text into an incident ticket.
type TicketMaker interface {
	TextToIncidentTicket(ctx context.Context, rawText string) (*pipeline.Ticket, error)
}

type Handler struct {
	config     *Config
	tickets    TicketMaker
	logger     logger.Logger
	errHandler *errors.ErrorHandler
	obs        *observability.Observability
}

func NewHandler(config *Config, tickets TicketMaker, log logger.Logger, obs *observability.Observability) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		tickets:    tickets,
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

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, errors.NewInvalidInputError(err.Error()), start)
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, err, start)
		return
	}

	h.completeJob(client, job, output, start)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.RawText) == "" {
		return nil, errors.NewInvalidInputError(ErrEmptyText.Error())
	}

	ticket, err := h.tickets.TextToIncidentTicket(ctx, input.RawText)
	if err != nil {
		return nil, errors.NewExtractionFailedError(err)
	}
	if ticket.IsRejected() {
		return nil, errors.NewExtractionInvalidJSONError(ticket.Rejected.Raw()).
			WithMetadata("ticketRef", ticket.Ref)
	}

	h.logger.Info("incident ticket extracted", map[string]interface{}{
		"ticketRef": ticket.Ref,
		"policyId":  ticket.Record.PolicyID,
		"warnings":  len(ticket.Warnings),
	})

	return &Output{
		Incident:  *ticket.Record,
		TicketRef: ticket.Ref,
		Warnings:  ticket.Warnings,
	}, nil
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
