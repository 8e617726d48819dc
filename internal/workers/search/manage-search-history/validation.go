package managesearchhistory

import "storefront-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"action"},
		Properties: map[string]validation.Property{
			"action": {
				Type:        "string",
				Description: "One of record, list or clear",
				MinLength:   validation.IntPtr(1),
			},
			"query": {
				Type:        "string",
				Description: "Query to record",
				MaxLength:   validation.IntPtr(200),
			},
		},
	}
}
