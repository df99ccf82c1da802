// Package pipeline composes extraction, record building, validation,
// delivery and voice confirmation into the incident intake flow.
package pipeline

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"incident-relay/internal/common/logger"
	"incident-relay/internal/incident"
)

// Extractor produces a candidate from free-form text.
type Extractor interface {
	Extract(ctx context.Context, rawText string) (incident.Candidate, error)
}

// Ticket is the result of turning text into a record. Exactly one of Record
// and Rejected is set.
type Ticket struct {
	Ref      string
	Record   *incident.Record
	Rejected incident.Candidate
	// Warnings lists lossy coercions applied to the candidate.
	Warnings []string
}

// IsRejected reports whether extraction returned an error record.
func (t *Ticket) IsRejected() bool {
	return t.Rejected != nil
}

func (t *Ticket) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{"ticketRef": t.Ref}
	if t.IsRejected() {
		out["rejected"] = t.Rejected
	} else {
		out["incident"] = t.Record
	}
	if len(t.Warnings) > 0 {
		out["warnings"] = t.Warnings
	}
	return json.Marshal(out)
}

// Pipeline turns raw text into a ticket.
type Pipeline struct {
	extractor Extractor
	builder   *incident.Builder
	logger    logger.Logger
	newRef    func() string
}

func New(extractor Extractor, builder *incident.Builder, log logger.Logger) *Pipeline {
	if builder == nil {
		builder = incident.NewBuilder()
	}
	return &Pipeline{
		extractor: extractor,
		builder:   builder,
		logger:    log,
		newRef:    uuid.NewString,
	}
}

// TextToIncidentTicket extracts fields from rawText and fills the gaps with
// defaults. An extractor error record is returned unchanged in
// Ticket.Rejected. The record is not validated here.
func (p *Pipeline) TextToIncidentTicket(ctx context.Context, rawText string) (*Ticket, error) {
	ref := p.newRef()
	log := p.logger.With(map[string]interface{}{"ticketRef": ref})

	candidate, err := p.extractor.Extract(ctx, rawText)
	if err != nil {
		return nil, err
	}

	if candidate.IsError() {
		log.Warn("ticket rejected by extraction", map[string]interface{}{
			"errorCode": "EXTRACTION_INVALID_JSON",
			"reason":    candidate.ErrorMessage(),
		})
		return &Ticket{Ref: ref, Rejected: candidate}, nil
	}

	partial := incident.PartialFromCandidate(candidate)
	for _, w := range partial.Warnings {
		log.Warn("candidate coerced", map[string]interface{}{"warning": w})
	}
	record := partial.Complete(p.builder)

	log.Info("ticket created", map[string]interface{}{
		"policyId":     record.PolicyID,
		"incidentDate": record.IncidentDate,
	})
	return &Ticket{Ref: ref, Record: &record, Warnings: partial.Warnings}, nil
}
