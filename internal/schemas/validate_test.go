package schemas

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	schemafiles "github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/schemas"
)

const personSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["person"],
	"properties": {
		"person": {
			"type": "object",
			"required": ["name"],
			"properties": {
				"name": {"type": "string"}
			}
		}
	}
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestEmbeddedSchemasCompile(t *testing.T) {
	for _, name := range schemafiles.Names {
		t.Run(name, func(t *testing.T) {
			_, err := embedded(name)
			assert.NoError(t, err)
			assert.True(t, IsEmbedded(name))
		})
	}
	assert.False(t, IsEmbedded("unknown.schema.json"))
}

func TestValidateBytes_Insights(t *testing.T) {
	valid := `{
		"filter": {"year": "2024"},
		"response_count": 10,
		"analysis": ["Approximately 80% employed within 6 months (based on 10 responses)."],
		"matches": [{"program": "BSIT", "program_count": 5, "matched_job": null, "confidence": 0, "match_job_count": 0}],
		"decision_nodes": [{"rule": "employedWithin% >= 80 (80%)", "outcome": "high employment"}],
		"recommendations": ["Collect more survey responses to improve analysis confidence."]
	}`
	assert.NoError(t, ValidateBytes(schemafiles.Insights, []byte(valid)))

	invalid := `{
		"filter": {"year": "24"},
		"response_count": -1,
		"analysis": [],
		"matches": [{"program": "BSIT", "program_count": 5, "matched_job": null, "confidence": 140, "match_job_count": 0}],
		"decision_nodes": [],
		"recommendations": []
	}`
	err := ValidateBytes(schemafiles.Insights, []byte(invalid))
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	fields := map[string]bool{}
	for _, fe := range validationErr.Errors {
		fields[fe.Field] = true
	}
	assert.True(t, fields["filter.year"])
	assert.True(t, fields["matches.0.confidence"])
	assert.True(t, fields["decision_nodes"])
}

func TestValidateBytes_Trend(t *testing.T) {
	valid := `{"years": ["2024", "2023"], "values": [50, null], "direction": "insufficient-data", "slope": null, "order": "desc"}`
	assert.NoError(t, ValidateBytes(schemafiles.Trend, []byte(valid)))

	invalid := `{"years": ["2024"], "values": [50], "direction": "sideways", "slope": 1, "order": "desc"}`
	assert.Error(t, ValidateBytes(schemafiles.Trend, []byte(invalid)))
}

func TestValidate_MarshalsValue(t *testing.T) {
	doc := map[string]any{
		"employed":         map[string]int{"Yes": 3, "No": 1},
		"sources":          map[string]int{},
		"performance":      map[string]int{},
		"programs":         map[string]int{"BSIT": 4},
		"promoted":         map[string]int{},
		"jobs_related":     map[string]int{},
		"job_difficulties": map[string]int{},
		"count":            4,
	}
	assert.NoError(t, Validate(schemafiles.Aggregates, doc))

	doc["count"] = "four"
	assert.Error(t, Validate(schemafiles.Aggregates, doc))
}

func TestValidateBytes_UnknownSchema(t *testing.T) {
	err := ValidateBytes("missing.schema.json", []byte(`{}`))

	var loadErr *SchemaLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "missing.schema.json", loadErr.Path)
	assert.True(t, errors.Unwrap(err) != nil)
}

func TestValidateJSON_EmbeddedName(t *testing.T) {
	path := writeFile(t, "trend.json", `{"years": [], "values": [], "direction": "insufficient-data", "slope": null, "order": "asc"}`)
	assert.NoError(t, ValidateJSON(schemafiles.Trend, path))
}

func TestValidateJSON_SchemaFile(t *testing.T) {
	schemaPath := writeFile(t, "person.schema.json", personSchema)

	assert.NoError(t, ValidateJSON(schemaPath, writeFile(t, "ok.json", `{"person": {"name": "Ana"}}`)))

	err := ValidateJSON(schemaPath, writeFile(t, "bad.json", `{"person": {}}`))
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "person", validationErr.Errors[0].Field)
}

func TestValidateJSON_NonExistentFiles(t *testing.T) {
	schemaPath := writeFile(t, "person.schema.json", personSchema)

	err := ValidateJSON(schemaPath, filepath.Join(t.TempDir(), "nonexistent.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JSON file not found")

	err = ValidateJSON(filepath.Join(t.TempDir(), "nonexistent.schema.json"), writeFile(t, "ok.json", `{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema file not found")
}

func TestValidateJSON_MalformedJSON(t *testing.T) {
	schemaPath := writeFile(t, "person.schema.json", personSchema)
	malformed := writeFile(t, "malformed.json", "{ invalid json }")

	assert.Error(t, ValidateJSON(schemaPath, malformed))
}

func TestValidateJSONString_Valid(t *testing.T) {
	assert.NoError(t, ValidateJSONString(personSchema, `{"person": {"name": "test"}}`))
}

func TestValidateJSONString_Invalid(t *testing.T) {
	err := ValidateJSONString(personSchema, `{"age": 30}`)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Greater(t, len(validationErr.Errors), 0)
	assert.Equal(t, "(root)", validationErr.Errors[0].Field)
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Errors: []FieldError{
			{Field: "program", Message: "is required"},
			{Field: "count", Message: "must be a number"},
		},
	}

	errorMsg := err.Error()
	assert.Contains(t, errorMsg, "validation failed")
	assert.Contains(t, errorMsg, "1. program: is required")
	assert.Contains(t, errorMsg, "2. count: must be a number")
}
