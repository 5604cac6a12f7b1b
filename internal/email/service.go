// Package email sends order confirmation mail through SMTP or SendGrid.
package email

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/urbanfrill/storefront/internal/domain/order"
)

var ErrNoRecipient = errors.New("order has no shipping email")

// Sender delivers one HTML message.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Service renders and sends customer mail.
type Service struct {
	sender Sender
}

// NewService creates a new email service
func NewService(sender Sender) *Service {
	return &Service{sender: sender}
}

// SendOrderConfirmation mails the order summary to the shipping address.
func (s *Service) SendOrderConfirmation(ctx context.Context, o *order.Order) error {
	to := strings.TrimSpace(o.ShippingAddress.Email)
	if to == "" {
		return ErrNoRecipient
	}
	return s.sender.Send(ctx, to, ConfirmationSubject(o), BuildOrderConfirmationBody(o))
}

// ConfirmationSubject is the subject line for an order confirmation.
func ConfirmationSubject(o *order.Order) string {
	if o.Status == order.StatusPaid {
		return fmt.Sprintf("Payment received for your UrbanFrill order #%s", o.ShortID())
	}
	return fmt.Sprintf("Your UrbanFrill order #%s is confirmed", o.ShortID())
}

// SMTPSender sends through a plain SMTP relay without authentication.
type SMTPSender struct {
	host string
	port string
	from string
}

func NewSMTPSender(host, port, from string) *SMTPSender {
	return &SMTPSender{
		host: host,
		port: port,
		from: from,
	}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return smtp.SendMail(addr, nil, s.from, []string{to}, []byte(msg))
}
