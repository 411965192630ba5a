package notify

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/diagnosis/bnb-marketplace/pkg/logger"
	"github.com/mailersend/mailersend-go"
)

// Email is a rendered message ready to send.
type Email struct {
	ToEmail string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, e Email) error
}

type MailerSendClient struct {
	client *mailersend.Mailersend
	from   mailersend.From
}

func NewMailerSend(apiKey, fromName, fromEmail string) *MailerSendClient {
	return &MailerSendClient{
		client: mailersend.NewMailersend(apiKey),
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}
}

func (m *MailerSendClient) Send(ctx context.Context, e Email) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: e.ToName, Email: e.ToEmail}})
	msg.SetSubject(e.Subject)

	if strings.TrimSpace(e.Text) != "" {
		msg.SetText(e.Text)
	}
	if strings.TrimSpace(e.HTML) != "" {
		msg.SetHTML(e.HTML)
	}

	if _, err := m.client.Email.Send(ctx, msg); err != nil {
		return fmt.Errorf("mailersend: %w", err)
	}
	return nil
}

// DevMailer logs emails instead of sending them.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) Send(ctx context.Context, e Email) error {
	logger.InfoContext(ctx, "[DEV MAIL] "+e.Subject,
		"to", e.ToEmail,
		"name", e.ToName,
		"body", e.Text,
	)
	return nil
}

func bookingRequestEmail(toEmail, toName, propertyName, checkIn, checkOut string, total float64) Email {
	subject := fmt.Sprintf("New booking request for %s", propertyName)
	text := fmt.Sprintf("Hi %s,\n\nYou have a new booking request for %s from %s to %s (total %.2f).\nOpen your booking requests to confirm or reject it.",
		toName, propertyName, checkIn, checkOut, total)
	body := fmt.Sprintf(`
		<h2>New booking request</h2>
		<p>Hi %s,</p>
		<p>You have a new booking request for <strong>%s</strong> from %s to %s.</p>
		<p>Total: <strong>%.2f</strong></p>
		<p>Open your booking requests to confirm or reject it.</p>
	`, html.EscapeString(toName), html.EscapeString(propertyName), checkIn, checkOut, total)

	return Email{ToEmail: toEmail, ToName: toName, Subject: subject, Text: text, HTML: body}
}

func bookingStatusEmail(toEmail, toName, propertyName, status, checkIn, checkOut string) Email {
	subject := fmt.Sprintf("Your booking for %s was %s", propertyName, status)
	text := fmt.Sprintf("Hi %s,\n\nYour booking for %s from %s to %s is now %s.",
		toName, propertyName, checkIn, checkOut, status)
	body := fmt.Sprintf(`
		<h2>Booking %s</h2>
		<p>Hi %s,</p>
		<p>Your booking for <strong>%s</strong> from %s to %s is now <strong>%s</strong>.</p>
	`, html.EscapeString(status), html.EscapeString(toName), html.EscapeString(propertyName), checkIn, checkOut, html.EscapeString(status))

	return Email{ToEmail: toEmail, ToName: toName, Subject: subject, Text: text, HTML: body}
}
