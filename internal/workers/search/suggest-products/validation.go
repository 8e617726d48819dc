package suggestproducts

import "storefront-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"query": {
				Type:        "string",
				Description: "Text typed into the search box",
				MaxLength:   validation.IntPtr(200),
			},
			"limit": {
				Type:        "integer",
				Description: "Maximum number of suggestions",
				Minimum:     validation.FloatPtr(0),
				Maximum:     validation.FloatPtr(50),
			},
			"recordHistory": {
				Type:        "boolean",
				Description: "Append a non-empty query to the search history",
			},
		},
	}
}
