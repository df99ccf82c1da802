// internal/workers/incident/extract-incident-ticket/models.go
package extractincidentticket

import "incident-relay/internal/incident"

type Input struct {
	RawText string `json:"rawText"`
}

type Output struct {
	Incident  incident.Record `json:"incident"`
	TicketRef string          `json:"ticketRef"`
	Warnings  []string        `json:"warnings,omitempty"`
}
