// internal/workers/incident/validate-incident/models.go
package validateincident

type Input struct {
	Incident map[string]interface{} `json:"incident"`
}

type Output struct {
	IsValid      bool   `json:"isValid"`
	ErrorMessage string `json:"errorMessage"`
	Field        string `json:"invalidField,omitempty"`
}
