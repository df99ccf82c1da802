package incident

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	KeyError = "error"
	KeyRaw   = "raw"

	// InvalidJSONMessage is the error value of an extractor error record.
	InvalidJSONMessage = "Invalid JSON returned"

	DefaultUnknown     = "UNKNOWN"
	DefaultUnspecified = "unspecified"
)

// Candidate is the untyped mapping produced by extraction. Any key may be
// absent or null.
type Candidate map[string]interface{}

// NewErrorCandidate is the record returned when the model reply is not a
// JSON object.
func NewErrorCandidate(raw string) Candidate {
	return Candidate{KeyError: InvalidJSONMessage, KeyRaw: raw}
}

// IsError reports whether the candidate carries the error key.
func (c Candidate) IsError() bool {
	_, ok := c[KeyError]
	return ok
}

// ErrorMessage returns the error value as text.
func (c Candidate) ErrorMessage() string {
	if v, ok := c[KeyError]; ok && v != nil {
		return stringify(v)
	}
	return ""
}

// Raw returns the raw model output of an error record.
func (c Candidate) Raw() string {
	if v, ok := c[KeyRaw].(string); ok {
		return v
	}
	return ""
}

// PartialRecord is a candidate after defaults and coercion, waiting on the
// Builder for its date.
type PartialRecord struct {
	PolicyID        string
	CustomerName    string
	IncidentType    string
	Description     string
	Location        string
	EstimatedDamage float64
	IncidentDate    *string

	// Warnings lists coercions that lost information.
	Warnings []string
}

// PartialFromCandidate applies the extraction defaults: empty identity fields
// become UNKNOWN, empty type and location become unspecified, damage is
// coerced to a number. incidentDate passes through untouched.
func PartialFromCandidate(c Candidate) PartialRecord {
	p := PartialRecord{
		PolicyID:     textOr(c[KeyPolicyID], DefaultUnknown),
		CustomerName: textOr(c[KeyCustomerName], DefaultUnknown),
		IncidentType: textOr(c[KeyIncidentType], DefaultUnspecified),
		Description:  textOr(c[KeyDescription], ""),
		Location:     textOr(c[KeyLocation], DefaultUnspecified),
	}

	damage, ok := CoerceDamage(c[KeyEstimatedDamage])
	if !ok {
		p.Warnings = append(p.Warnings, fmt.Sprintf("estimatedDamage %v is not numeric, using 0", c[KeyEstimatedDamage]))
	}
	p.EstimatedDamage = damage

	switch v := c[KeyIncidentDate].(type) {
	case nil:
	case string:
		p.IncidentDate = &v
	default:
		s := stringify(v)
		p.IncidentDate = &s
		p.Warnings = append(p.Warnings, fmt.Sprintf("incidentDate %v is not a string", v))
	}
	return p
}

// Complete builds the record, defaulting a missing date through b.
func (p PartialRecord) Complete(b *Builder) Record {
	if b == nil {
		b = defaultBuilder
	}
	return b.Build(p.PolicyID, p.CustomerName, p.IncidentType, p.Description, p.Location, p.EstimatedDamage, p.IncidentDate)
}

// CoerceDamage converts a candidate damage value to a number. Null and
// absent values are 0. Strings such as "$1,500" or "1500 USD" are parsed.
// ok is false when a present value could not be interpreted.
func CoerceDamage(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case float32:
		return CoerceDamage(float64(n))
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, true
		}
		s = strings.TrimSpace(strings.TrimSuffix(strings.ToUpper(s), "USD"))
		s = strings.TrimPrefix(s, "$")
		s = strings.ReplaceAll(s, ",", "")
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func textOr(v interface{}, def string) string {
	if s := stringify(v); s != "" {
		return s
	}
	return def
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if !t {
			return ""
		}
		return "true"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case map[string]interface{}, []interface{}:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	default:
		return fmt.Sprint(t)
	}
}
