// Package notify sends best-effort customer emails; failures are logged and
// never surfaced to the order flow.
package notify

import (
	"fmt"

	"storefront-api/models"

	"github.com/rs/zerolog/log"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer sends transactional storefront emails.
type Mailer interface {
	SendOrderConfirmation(order *models.Order) error
}

// SendgridMailer delivers through SendGrid. A nil or unconfigured mailer is
// valid: callers treat email as optional.
type SendgridMailer struct {
	client    *sendgrid.Client
	fromName  string
	fromEmail string
	storeName string
}

func NewSendgridMailer(apiKey, fromName, fromEmail, storeName string) *SendgridMailer {
	return &SendgridMailer{
		client:    sendgrid.NewSendClient(apiKey),
		fromName:  fromName,
		fromEmail: fromEmail,
		storeName: storeName,
	}
}

func (m *SendgridMailer) SendOrderConfirmation(order *models.Order) error {
	if order.CustomerEmail == "" {
		return nil
	}

	subject := fmt.Sprintf("%s — order %s confirmed", m.storeName, order.OrderNumber)
	body := fmt.Sprintf(
		"Hi %s,\n\nThank you for your order %s.\n\nSubtotal: %.2f\nDelivery fee: %.2f\nTotal: %.2f\n\nWe will keep you posted.\n",
		order.CustomerName, order.OrderNumber, order.Subtotal, order.DeliveryFee, order.TotalAmount,
	)

	from := mail.NewEmail(m.fromName, m.fromEmail)
	to := mail.NewEmail(order.CustomerName, order.CustomerEmail)
	msg := mail.NewSingleEmail(from, subject, to, body, "")

	resp, err := m.client.Send(msg)
	if err != nil {
		return fmt.Errorf("sendgrid send failed: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid rejected email with status %d", resp.StatusCode)
	}
	log.Debug().Str("order", order.OrderNumber).Msg("confirmation email sent")
	return nil
}
