// internal/workers/incident/post-incident/models.go
package postincident

import "incident-relay/internal/delivery"

type Input struct {
	Incident  map[string]interface{} `json:"incident"`
	TicketRef string                 `json:"ticketRef,omitempty"`
}

type Output struct {
	Delivery delivery.Result `json:"delivery"`
}
