// Package incident defines the canonical incident record, the loosely typed
// candidate produced by extraction, and the single validator both share.
package incident

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the wire format of incidentDate.
const DateLayout = "2006-01-02"

// Wire keys, in payload order.
const (
	KeyPolicyID        = "policyId"
	KeyCustomerName    = "customerName"
	KeyIncidentDate    = "incidentDate"
	KeyIncidentType    = "incidentType"
	KeyDescription     = "description"
	KeyLocation        = "location"
	KeyEstimatedDamage = "estimatedDamage"
)

// FieldNames lists the required keys in the order the validator checks them.
var FieldNames = []string{
	KeyPolicyID,
	KeyCustomerName,
	KeyIncidentDate,
	KeyIncidentType,
	KeyDescription,
	KeyLocation,
	KeyEstimatedDamage,
}

// Record is the canonical incident payload posted to the webhook.
type Record struct {
	PolicyID        string  `json:"policyId"`
	CustomerName    string  `json:"customerName"`
	IncidentDate    string  `json:"incidentDate"`
	IncidentType    string  `json:"incidentType"`
	Description     string  `json:"description"`
	Location        string  `json:"location"`
	EstimatedDamage float64 `json:"estimatedDamage"`
}

// Fields returns the record as a wire-keyed map for validation.
func (r Record) Fields() map[string]interface{} {
	return map[string]interface{}{
		KeyPolicyID:        r.PolicyID,
		KeyCustomerName:    r.CustomerName,
		KeyIncidentDate:    r.IncidentDate,
		KeyIncidentType:    r.IncidentType,
		KeyDescription:     r.Description,
		KeyLocation:        r.Location,
		KeyEstimatedDamage: r.EstimatedDamage,
	}
}

// FromFields converts a validated wire-keyed map into a Record. Callers
// validate first; type mismatches here are reported, not coerced.
func FromFields(fields map[string]interface{}) (Record, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return Record{}, fmt.Errorf("encode incident fields: %w", err)
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("decode incident fields: %w", err)
	}
	return r, nil
}

// Builder assembles records. Now supplies the default incident date.
type Builder struct {
	Now func() time.Time
}

// NewBuilder returns a Builder on the wall clock.
func NewBuilder() *Builder {
	return &Builder{Now: time.Now}
}

// Build assembles a record. A nil incidentDate defaults to today. No
// validation is performed.
func (b *Builder) Build(policyID, customerName, incidentType, description, location string, estimatedDamage float64, incidentDate *string) Record {
	date := ""
	if incidentDate != nil {
		date = *incidentDate
	} else {
		date = b.today()
	}
	return Record{
		PolicyID:        policyID,
		CustomerName:    customerName,
		IncidentDate:    date,
		IncidentType:    incidentType,
		Description:     description,
		Location:        location,
		EstimatedDamage: estimatedDamage,
	}
}

func (b *Builder) today() string {
	now := time.Now
	if b != nil && b.Now != nil {
		now = b.Now
	}
	return now().Format(DateLayout)
}

var defaultBuilder = NewBuilder()

// Build assembles a record using the wall clock for the default date.
func Build(policyID, customerName, incidentType, description, location string, estimatedDamage float64, incidentDate *string) Record {
	return defaultBuilder.Build(policyID, customerName, incidentType, description, location, estimatedDamage, incidentDate)
}
