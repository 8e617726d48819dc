// internal/models/contact.go
package models

// ContactSubmission is the payload posted by the storefront contact form.
type ContactSubmission struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

// SubmissionState tracks one contact form through its single request.
type SubmissionState string

const (
	SubmissionIdle    SubmissionState = "idle"
	SubmissionLoading SubmissionState = "loading"
	SubmissionSuccess SubmissionState = "success"
	SubmissionFailure SubmissionState = "failure"
)
