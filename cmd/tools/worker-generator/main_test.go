package main

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"incident-relay/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	reg, err := registry.LoadRegistry(filepath.Join("..", "..", "..", registry.DefaultPath))
	require.NoError(t, err)
	activity, ok := reg.Find("validate-incident")
	require.True(t, ok)

	out := t.TempDir()
	written, err := generate(activity, out)
	require.NoError(t, err)
	require.Len(t, written, 4)

	fset := token.NewFileSet()
	for _, path := range written {
		_, err := parser.ParseFile(fset, path, nil, parser.AllErrors)
		assert.NoError(t, err, path)
	}

	models, err := os.ReadFile(filepath.Join(out, "incident", "validate-incident", "models.go"))
	require.NoError(t, err)
	assert.Contains(t, string(models), "package validateincident")
	assert.Contains(t, string(models), "IsValid      bool   `json:\"isValid\"`")
	assert.Contains(t, string(models), "InvalidField string `json:\"invalidField,omitempty\"`")

	config, err := os.ReadFile(filepath.Join(out, "incident", "validate-incident", "config.go"))
	require.NoError(t, err)
	assert.Contains(t, string(config), "Timeout: 10000 * time.Millisecond")
}

func TestStructFields(t *testing.T) {
	fields := structFields(map[string]interface{}{
		"required": []interface{}{"policyId"},
		"properties": map[string]interface{}{
			"policyId":        map[string]interface{}{"type": "string"},
			"estimatedDamage": map[string]interface{}{"type": "number"},
		},
	})
	assert.Equal(t, "\tEstimatedDamage float64 `json:\"estimatedDamage,omitempty\"`\n\tPolicyID string `json:\"policyId\"`", fields)
}
