package submitcontactform

import "storefront-workers/internal/models"

type Input struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

type Output struct {
	SubmissionID string                 `json:"submissionId"`
	State        models.SubmissionState `json:"state"`
	SubmittedAt  string                 `json:"submittedAt"`
}
