package assistantreply

import "storefront-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"message"},
		Properties: map[string]validation.Property{
			"message": {
				Type:        "string",
				Description: "Customer chat message",
				MinLength:   validation.IntPtr(1),
				MaxLength:   validation.IntPtr(2000),
			},
			"sessionId": {
				Type:      "string",
				MaxLength: validation.IntPtr(64),
			},
		},
	}
}
