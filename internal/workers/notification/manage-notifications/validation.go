package managenotifications

import "storefront-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"action"},
		Properties: map[string]validation.Property{
			"action": {
				Type:        "string",
				Description: "add, mark-read, mark-all-read, delete, clear or list",
				MinLength:   validation.IntPtr(1),
			},
			"id": {
				Type:        "integer",
				Description: "Notification id",
				Minimum:     validation.FloatPtr(1),
			},
			"title": {
				Type:      "string",
				MaxLength: validation.IntPtr(120),
			},
			"message": {
				Type:      "string",
				MaxLength: validation.IntPtr(1000),
			},
			"type": {
				Type:        "string",
				Description: "Notification category",
			},
		},
	}
}
