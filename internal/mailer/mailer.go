// Package mailer delivers ticket confirmation emails over SMTP.
package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/clubgrid/ticketing/internal/config"
	gomail "gopkg.in/gomail.v2"
)

// TicketEmail carries everything the confirmation template needs.
type TicketEmail struct {
	To        string
	Name      string
	EventName string
	EventDate time.Time
	TicketID  string
	QRURL     string
}

// Mailer sends ticket confirmations. Delivery is success/failure only; no
// receipts are tracked.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailer constructs a Mailer from SMTP settings.
func NewMailer(cfg config.SMTPConfig) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// SendTicket delivers the confirmation email for a freshly created ticket.
func (m *Mailer) SendTicket(ctx context.Context, e TicketEmail) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", e.To)
	msg.SetHeader("Subject", fmt.Sprintf("Your ticket for %s", e.EventName))
	msg.SetBody("text/html", confirmationBody(e))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send ticket email: %w", err)
	}
	return nil
}

func confirmationBody(e TicketEmail) string {
	body := fmt.Sprintf(
		`<p>Hi %s,</p>
<p>You are registered for <strong>%s</strong> on %s.</p>
<p>Your ticket id is <strong>%s</strong>. Show it at the entrance.</p>`,
		e.Name, e.EventName, e.EventDate.Format("Mon, 2 Jan 2006 15:04"), e.TicketID,
	)
	if e.QRURL != "" {
		body += fmt.Sprintf(`<p><img src=%q alt="ticket QR code"></p>`, e.QRURL)
	}
	return body
}
