package incident

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"incident-relay/internal/common/validation"
)

// structure holds the rules checked after presence, date and damage type.
var structure = validation.MustCompile(`{
	"type": "object",
	"properties": {
		"policyId":        {"type": "string"},
		"customerName":    {"type": "string"},
		"incidentDate":    {"type": "string"},
		"incidentType":    {"type": "string"},
		"description":     {"type": "string"},
		"location":        {"type": "string"},
		"estimatedDamage": {"type": "number", "minimum": 0}
	}
}`)

// Failure is the first rule an incident map broke.
type Failure struct {
	Field   string
	Message string
}

func (f *Failure) Error() string { return f.Message }

// Check runs the validator and returns the first failure, or nil. Rules run
// in order: key presence (a null value counts as present), date format,
// damage type, then structure. The input is never modified.
func Check(fields map[string]interface{}) *Failure {
	for _, key := range FieldNames {
		if _, ok := fields[key]; !ok {
			return &Failure{Field: key, Message: "Missing required field: " + key}
		}
	}

	if !isDate(fields[KeyIncidentDate]) {
		return &Failure{Field: KeyIncidentDate, Message: "incidentDate must be in YYYY-MM-DD format"}
	}

	if !isNumber(fields[KeyEstimatedDamage]) {
		return &Failure{Field: KeyEstimatedDamage, Message: "estimatedDamage must be a number"}
	}

	result := structure.ValidateInput(fields)
	if first := result.FirstError(); first != nil {
		return structuralFailure(first)
	}
	return nil
}

// Validate reports whether fields form a deliverable incident, with the
// diagnostic of the first failed rule.
func Validate(fields map[string]interface{}) (bool, string) {
	if f := Check(fields); f != nil {
		return false, f.Message
	}
	return true, ""
}

// ValidateRecord validates a typed record.
func ValidateRecord(r Record) (bool, string) {
	return Validate(r.Fields())
}

// acceptedDateLayout takes a four-digit year with one- or two-digit month
// and day, so "2024-3-5" passes alongside "2024-03-05".
const acceptedDateLayout = "2006-1-2"

func isDate(v interface{}) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	_, err := time.Parse(acceptedDateLayout, s)
	return err == nil
}

func isNumber(v interface{}) bool {
	switch n := v.(type) {
	case float64:
		return !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return !math.IsNaN(float64(n)) && !math.IsInf(float64(n), 0)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case json.Number:
		_, err := n.Float64()
		return err == nil
	default:
		return false
	}
}

func structuralFailure(e *validation.ValidationError) *Failure {
	switch e.Code {
	case "INVALID_TYPE":
		return &Failure{Field: e.Field, Message: fmt.Sprintf("%s must be a string", e.Field)}
	case "NUMBER_GTE":
		return &Failure{Field: e.Field, Message: fmt.Sprintf("%s must not be negative", e.Field)}
	default:
		return &Failure{Field: e.Field, Message: fmt.Sprintf("%s: %s", e.Field, e.Message)}
	}
}
