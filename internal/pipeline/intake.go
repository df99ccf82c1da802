package pipeline

import (
	"context"
	"time"

	"incident-relay/internal/common/errors"
	"incident-relay/internal/common/logger"
	"incident-relay/internal/common/metrics"
	"incident-relay/internal/common/observability"
	"incident-relay/internal/delivery"
	"incident-relay/internal/incident"
	"incident-relay/internal/voice"
)

// Deliverer posts a record downstream.
type Deliverer interface {
	PostRecord(ctx context.Context, record incident.Record) delivery.Result
}

// Speaker plays a spoken message.
type Speaker interface {
	Speak(ctx context.Context, text string, blocking bool) error
}

// Outcome statuses.
const (
	StatusRejected       = "rejected"
	StatusInvalid        = "invalid"
	StatusDryRun         = "dry_run"
	StatusDelivered      = "delivered"
	StatusDeliveryFailed = "delivery_failed"
)

// IntakeOptions controls one Run.
type IntakeOptions struct {
	DryRun bool
	Speak  bool
	// Blocking waits for playback to finish before Run returns.
	Blocking bool
}

// Outcome summarises one intake.
type Outcome struct {
	Status          string           `json:"status"`
	Ticket          *Ticket          `json:"ticket"`
	ValidationError string           `json:"validationError,omitempty"`
	Delivery        *delivery.Result `json:"delivery,omitempty"`
}

// OK reports whether the incident reached the webhook, or would have in a dry run.
func (o *Outcome) OK() bool {
	return o.Status == StatusDelivered || o.Status == StatusDryRun
}

// Intake runs ticket, validation, delivery and confirmation in sequence.
type Intake struct {
	pipeline  *Pipeline
	deliverer Deliverer
	speaker   Speaker
	logger    logger.Logger
	obs       *observability.Observability
}

// NewIntake wires the flow. speaker may be nil when voice is disabled.
func NewIntake(p *Pipeline, deliverer Deliverer, speaker Speaker, log logger.Logger, obs *observability.Observability) *Intake {
	return &Intake{
		pipeline:  p,
		deliverer: deliverer,
		speaker:   speaker,
		logger:    log,
		obs:       obs,
	}
}

// Run processes one description. A non-nil error is a hard failure of the
// language-model or speech service; the outcome is still returned when the
// failure happened after the ticket was built.
func (in *Intake) Run(ctx context.Context, rawText string, opts IntakeOptions) (*Outcome, error) {
	ticket, err := in.pipeline.TextToIncidentTicket(ctx, rawText)
	if err != nil {
		return nil, errors.NewExtractionFailedError(err)
	}
	log := in.logger.With(map[string]interface{}{"ticketRef": ticket.Ref})
	out := &Outcome{Ticket: ticket}

	if ticket.IsRejected() {
		out.Status = StatusRejected
		return out, in.confirm(ctx, opts, voice.RejectionMessage(""))
	}

	start := time.Now()
	failure := incident.Check(ticket.Record.Fields())
	if failure != nil {
		in.obs.RecordStage(ctx, observability.StageValidate, time.Since(start), "invalid")
		metrics.ValidationFailures.WithLabelValues(failure.Field).Inc()
		log.Warn("incident failed validation", map[string]interface{}{
			"errorCode": string(errors.ErrCodeIncidentValidationFailed),
			"field":     failure.Field,
			"reason":    failure.Message,
		})
		out.Status = StatusInvalid
		out.ValidationError = failure.Message
		return out, in.confirm(ctx, opts, voice.RejectionMessage(failure.Message))
	}
	in.obs.RecordStage(ctx, observability.StageValidate, time.Since(start), "ok")

	if opts.DryRun {
		log.Info("dry run, delivery skipped", map[string]interface{}{"policyId": ticket.Record.PolicyID})
		out.Status = StatusDryRun
		return out, nil
	}

	result := in.deliverer.PostRecord(ctx, *ticket.Record)
	out.Delivery = &result
	if result.Success {
		out.Status = StatusDelivered
	} else {
		out.Status = StatusDeliveryFailed
	}

	return out, in.confirm(ctx, opts, voice.ConfirmationMessage(*ticket.Record, result))
}

func (in *Intake) confirm(ctx context.Context, opts IntakeOptions, text string) error {
	if !opts.Speak || in.speaker == nil {
		return nil
	}
	return in.speaker.Speak(ctx, text, opts.Blocking)
}
