package voice

import (
	"fmt"

	"incident-relay/internal/delivery"
	"incident-relay/internal/incident"
)

// ConfirmationMessage is what the caller hears after delivery.
func ConfirmationMessage(record incident.Record, result delivery.Result) string {
	if !result.Success {
		return "Sorry, we could not submit your incident report right now. Please try again later."
	}

	name := record.CustomerName
	if name == incident.DefaultUnknown {
		name = "there"
	}
	msg := fmt.Sprintf("Thank you, %s. Your incident report", name)
	if record.IncidentType != incident.DefaultUnspecified && record.IncidentType != "" {
		msg += " for the " + record.IncidentType
	}
	if record.PolicyID != incident.DefaultUnknown {
		msg += " on policy " + record.PolicyID
	}
	return msg + " has been submitted."
}

// RejectionMessage is spoken when the description could not be turned into
// a deliverable record.
func RejectionMessage(reason string) string {
	if reason == "" {
		return "Sorry, I could not understand the incident details. Please describe it again."
	}
	return "Sorry, the incident report is incomplete: " + reason + "."
}
