package camunda

import (
	"encoding/json"
	"testing"

	"incident-relay/internal/common/camunda/camundatest"
	"incident-relay/internal/common/logger"
	"incident-relay/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rawTextSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["rawText"],
	"properties": {"rawText": {"type": "string", "minLength": 1}}
}`)

func TestWithInputSchema(t *testing.T) {
	tests := []struct {
		name      string
		variables string
		wantCalls int
		wantField string
	}{
		{"valid", `{"rawText":"hail on the roof","other":1}`, 1, ""},
		{"missing field", `{"other":1}`, 0, "rawText"},
		{"wrong type", `{"rawText":42}`, 0, "rawText"},
		{"not json", `{`, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			next := func(worker.JobClient, entities.Job) { calls++ }
			client := camundatest.NewJobClient()

			handler := WithInputSchema(rawTextSchema, next, logger.NewTestLogger(t))
			handler(client, camundatest.NewJob("extract-incident-ticket", tt.variables))

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantCalls == 1 {
				assert.Empty(t, client.Thrown())
				return
			}

			require.Len(t, client.Thrown(), 1)
			thrown := client.Thrown()[0]
			assert.Equal(t, "INVALID_INPUT", thrown.ErrorCode)
			assert.Empty(t, client.Failed())

			if tt.wantField != "" {
				var vars map[string]interface{}
				require.NoError(t, json.Unmarshal([]byte(thrown.Variables), &vars))
				assert.Equal(t, tt.wantField, vars["field"])
			}
		})
	}
}
