package incident

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedBuilder() *Builder {
	return &Builder{Now: func() time.Time {
		return time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)
	}}
}

func validFields() map[string]interface{} {
	return map[string]interface{}{
		"policyId":        "PL-4829",
		"customerName":    "Sarah Thompson",
		"incidentDate":    "2024-03-14",
		"incidentType":    "Auto Accident",
		"description":     "Rear-ended on Main Street",
		"location":        "Denver",
		"estimatedDamage": 1500.0,
	}
}

func TestBuilder_Date(t *testing.T) {
	b := fixedBuilder()

	date := "2024-01-02"
	r := b.Build("P-1", "Jane", "Theft", "", "Home", 10, &date)
	assert.Equal(t, "2024-01-02", r.IncidentDate)

	r = b.Build("P-1", "Jane", "Theft", "", "Home", 10, nil)
	assert.Equal(t, "2024-03-15", r.IncidentDate)
	assert.Equal(t, Record{
		PolicyID:        "P-1",
		CustomerName:    "Jane",
		IncidentDate:    "2024-03-15",
		IncidentType:    "Theft",
		Description:     "",
		Location:        "Home",
		EstimatedDamage: 10,
	}, r)
}

func TestBuild_DefaultsToToday(t *testing.T) {
	r := Build("P-1", "Jane", "Theft", "", "Home", 10, nil)
	assert.Equal(t, time.Now().Format(DateLayout), r.IncidentDate)
}

func TestValidate_MissingField(t *testing.T) {
	for _, key := range FieldNames {
		t.Run(key, func(t *testing.T) {
			fields := validFields()
			delete(fields, key)

			ok, msg := Validate(fields)
			assert.False(t, ok)
			assert.Equal(t, "Missing required field: "+key, msg)
		})
	}
}

func TestValidate_ReportsFirstMissingInOrder(t *testing.T) {
	ok, msg := Validate(map[string]interface{}{"incidentDate": "2024-03-15"})
	assert.False(t, ok)
	assert.Equal(t, "Missing required field: policyId", msg)
}

func TestValidate_Date(t *testing.T) {
	tests := []struct {
		date interface{}
		ok   bool
	}{
		{"2024-03-15", true},
		{"2024-3-5", true},
		{"2024-03-5", true},
		{"2024-13-01", false},
		{"24-03-15", false},
		{"2024-03-15T10:00:00Z", false},
		{"13-13-2024", false},
		{"2024-02-30", false},
		{"2024/03/15", false},
		{"", false},
		{nil, false},
	}
	for _, tt := range tests {
		fields := validFields()
		fields["incidentDate"] = tt.date

		ok, msg := Validate(fields)
		assert.Equal(t, tt.ok, ok, "%v", tt.date)
		if !tt.ok {
			assert.Equal(t, "incidentDate must be in YYYY-MM-DD format", msg)
		}
	}
}

func TestValidate_Damage(t *testing.T) {
	tests := []struct {
		name   string
		damage interface{}
		ok     bool
		msg    string
	}{
		{name: "int", damage: 1500, ok: true},
		{name: "float", damage: 1500.0, ok: true},
		{name: "zero", damage: 0, ok: true},
		{name: "string", damage: "1500", msg: "estimatedDamage must be a number"},
		{name: "bool", damage: true, msg: "estimatedDamage must be a number"},
		{name: "null", damage: nil, msg: "estimatedDamage must be a number"},
		{name: "negative", damage: -5.0, msg: "estimatedDamage must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := validFields()
			fields["estimatedDamage"] = tt.damage

			ok, msg := Validate(fields)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.msg, msg)
		})
	}
}

func TestValidate_TextFieldsMustBeStrings(t *testing.T) {
	fields := validFields()
	fields["location"] = nil

	ok, msg := Validate(fields)
	assert.False(t, ok)
	assert.Equal(t, "location must be a string", msg)

	f := Check(fields)
	require.NotNil(t, f)
	assert.Equal(t, "location", f.Field)
}

func TestValidate_DoesNotMutate(t *testing.T) {
	fields := validFields()
	fields["extra"] = "kept"
	before := len(fields)

	ok, _ := Validate(fields)
	assert.True(t, ok)
	assert.Len(t, fields, before)
	assert.Equal(t, "kept", fields["extra"])
}

func TestValidateRecord(t *testing.T) {
	r := fixedBuilder().Build("P-1", "Jane", "Theft", "", "Home", 10, nil)
	ok, msg := ValidateRecord(r)
	assert.True(t, ok)
	assert.Empty(t, msg)
}

func TestPartialFromCandidate_Defaults(t *testing.T) {
	c := Candidate{
		"policyId":        nil,
		"customerName":    "Sarah Thompson",
		"incidentType":    nil,
		"description":     nil,
		"location":        nil,
		"estimatedDamage": nil,
		"incidentDate":    nil,
	}

	p := PartialFromCandidate(c)
	assert.Empty(t, p.Warnings)

	r := p.Complete(fixedBuilder())
	assert.Equal(t, Record{
		PolicyID:        "UNKNOWN",
		CustomerName:    "Sarah Thompson",
		IncidentDate:    "2024-03-15",
		IncidentType:    "unspecified",
		Description:     "",
		Location:        "unspecified",
		EstimatedDamage: 0,
	}, r)
}

func TestPartialFromCandidate_PassesValuesThrough(t *testing.T) {
	c := Candidate{
		"policyId":        "PL-4829",
		"customerName":    "",
		"incidentType":    "Auto Accident",
		"description":     "bumper",
		"location":        "Denver",
		"estimatedDamage": "$1,500",
		"incidentDate":    "2024-03-14",
	}

	r := PartialFromCandidate(c).Complete(fixedBuilder())
	assert.Equal(t, "PL-4829", r.PolicyID)
	assert.Equal(t, "UNKNOWN", r.CustomerName)
	assert.Equal(t, 1500.0, r.EstimatedDamage)
	assert.Equal(t, "2024-03-14", r.IncidentDate)
}

func TestCoerceDamage(t *testing.T) {
	tests := []struct {
		in   interface{}
		want float64
		ok   bool
	}{
		{nil, 0, true},
		{1500.5, 1500.5, true},
		{42, 42, true},
		{"$1,500", 1500, true},
		{"2000 USD", 2000, true},
		{"", 0, true},
		{"a lot", 0, false},
		{true, 0, false},
		{"NaN", 0, false},
		{"Infinity", 0, false},
		{"-inf", 0, false},
		{math.Inf(1), 0, false},
		{json.Number("1e400"), 0, false},
	}
	for _, tt := range tests {
		got, ok := CoerceDamage(tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
	}

	p := PartialFromCandidate(Candidate{"estimatedDamage": "a lot"})
	assert.Len(t, p.Warnings, 1)
}

func TestPartialFromCandidate_NonFiniteDamage(t *testing.T) {
	for _, raw := range []string{"NaN", "Infinity", "-inf"} {
		p := PartialFromCandidate(Candidate{"customerName": "Sarah", "estimatedDamage": raw})
		assert.Len(t, p.Warnings, 1, raw)

		r := p.Complete(nil)
		assert.Equal(t, 0.0, r.EstimatedDamage, raw)
		_, err := json.Marshal(r)
		assert.NoError(t, err, raw)
	}
}

func TestCandidate_ErrorRecord(t *testing.T) {
	c := NewErrorCandidate("not json")
	assert.True(t, c.IsError())
	assert.Equal(t, "Invalid JSON returned", c.ErrorMessage())
	assert.Equal(t, "not json", c.Raw())

	assert.False(t, Candidate{"policyId": "x"}.IsError())
}

func TestFromFields(t *testing.T) {
	r, err := FromFields(validFields())
	require.NoError(t, err)
	assert.Equal(t, "PL-4829", r.PolicyID)
	assert.Equal(t, 1500.0, r.EstimatedDamage)
	assert.Equal(t, validFields()["incidentDate"], r.Fields()["incidentDate"])
}
