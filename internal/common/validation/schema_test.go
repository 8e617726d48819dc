package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() JSONSchema {
	return JSONSchema{
		Type:     "object",
		Required: []string{"query"},
		Properties: map[string]Property{
			"query": {Type: "string", MaxLength: IntPtr(10)},
			"limit": {Type: "integer", Minimum: FloatPtr(1), Maximum: FloatPtr(50)},
			"email": {Type: "string", Format: "email"},
			"mode":  {Type: "string", Enum: []string{"a", "b"}},
		},
	}
}

func fields(vr *ValidationResult) []string {
	out := make([]string, 0, len(vr.Errors))
	for _, e := range vr.Errors {
		out = append(out, e.Field)
	}
	return out
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		input     map[string]interface{}
		wantValid bool
		wantField string
	}{
		{"valid", map[string]interface{}{"query": "red", "limit": 5}, true, ""},
		{"extra fields allowed", map[string]interface{}{"query": "red", "processId": "p-1"}, true, ""},
		{"missing required", map[string]interface{}{"limit": 5}, false, "query"},
		{"too long", map[string]interface{}{"query": "much too long a query"}, false, "query"},
		{"below minimum", map[string]interface{}{"query": "x", "limit": 0}, false, "limit"},
		{"bad email", map[string]interface{}{"query": "x", "email": "nope"}, false, "email"},
		{"enum", map[string]interface{}{"query": "x", "mode": "c"}, false, "mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Validate(testSchema(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, result.Valid, result.Summary())
			if tt.wantField != "" {
				assert.Contains(t, fields(result), tt.wantField, result.Summary())
			}
		})
	}
}

func TestValidate_StructDocument(t *testing.T) {
	type input struct {
		Query string `json:"query"`
	}
	result, err := Validate(testSchema(), input{Query: "red"})
	require.NoError(t, err)
	assert.True(t, result.Valid)
}
