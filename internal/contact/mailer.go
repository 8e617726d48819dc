package contact

import (
	"context"
	"fmt"

	"storefront-workers/internal/common/aws"
	"storefront-workers/internal/models"
)

// SESMailer copies accepted submissions to the store inbox through SES.
type SESMailer struct {
	client *aws.SESClient
	from   string
	to     string
}

func NewSESMailer(client *aws.SESClient, from, to string) *SESMailer {
	return &SESMailer{client: client, from: from, to: to}
}

func (m *SESMailer) Send(ctx context.Context, sub models.ContactSubmission) error {
	subject := sub.Subject
	if subject == "" {
		subject = "New contact form submission"
	}
	body := fmt.Sprintf("From: %s <%s>\nReference: %s\n\n%s", sub.Name, sub.Email, sub.ID, sub.Message)

	_, err := m.client.SendText(ctx, m.from, m.to, sub.Email, "[Contact] "+subject, body)
	return err
}
