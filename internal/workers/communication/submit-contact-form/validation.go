package submitcontactform

import (
	"storefront-workers/internal/common/validation"
	"storefront-workers/internal/contact"
)

// GetInputSchema is the contact form schema; the contact client enforces it.
func GetInputSchema() validation.JSONSchema {
	return contact.SubmissionSchema()
}
