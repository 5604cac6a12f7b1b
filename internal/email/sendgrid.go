package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const senderName = "UrbanFrill"

var ErrSendGridKeyMissing = errors.New("sendgrid api key is empty")

// SendGridSender sends through the SendGrid v3 API.
type SendGridSender struct {
	client *sendgrid.Client
	from   string
}

func NewSendGridSender(apiKey, from string) (*SendGridSender, error) {
	if apiKey == "" {
		return nil, ErrSendGridKeyMissing
	}
	return &SendGridSender{
		client: sendgrid.NewSendClient(apiKey),
		from:   from,
	}, nil
}

func (s *SendGridSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	message := mail.NewSingleEmail(
		mail.NewEmail(senderName, s.from),
		subject,
		mail.NewEmail("", to),
		subject,
		htmlBody,
	)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", response.StatusCode, response.Body)
	}
	return nil
}
