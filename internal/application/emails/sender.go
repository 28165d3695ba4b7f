package emails

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Sender sends transactional emails (welcome, price alert, waitlist). Nil = no-op.
type Sender interface {
	SendWelcome(ctx context.Context, toEmail, username string, bonus decimal.Decimal) error
	SendPriceAlert(ctx context.Context, toEmail, username, ticker string, price, target decimal.Decimal) error
	SendWaitlistConfirmation(ctx context.Context, toEmail, username string) error
}

// Message is one rendered email.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Transport delivers a rendered message (SMTP, Brevo).
type Transport interface {
	Deliver(ctx context.Context, msg Message) error
}

// Mailer renders templates and hands them to a Transport.
type Mailer struct {
	Transport Transport
}

func NewMailer(t Transport) *Mailer {
	return &Mailer{Transport: t}
}

func (m *Mailer) deliver(ctx context.Context, to string, subject string, text, html string) error {
	if to == "" {
		return ErrNoRecipient
	}
	if err := m.Transport.Deliver(ctx, Message{To: to, Subject: subject, Text: text, HTML: EmailLayout(html)}); err != nil {
		return fmt.Errorf("send %q to %s: %w", subject, to, err)
	}
	return nil
}

// SendWelcome sends the account-created email announcing the starting balance.
func (m *Mailer) SendWelcome(ctx context.Context, toEmail, username string, bonus decimal.Decimal) error {
	text, html := welcomeContent(username, bonus)
	return m.deliver(ctx, toEmail, "Welcome to TradeRiser!", text, html)
}

// SendPriceAlert notifies that a target price was reached.
func (m *Mailer) SendPriceAlert(ctx context.Context, toEmail, username, ticker string, price, target decimal.Decimal) error {
	text, html := priceAlertContent(username, ticker, price, target)
	return m.deliver(ctx, toEmail, "TradeRiser Price Alert: "+ticker, text, html)
}

// SendWaitlistConfirmation confirms a premium waitlist signup.
func (m *Mailer) SendWaitlistConfirmation(ctx context.Context, toEmail, username string) error {
	text, html := waitlistContent(username)
	return m.deliver(ctx, toEmail, "TradeRiser Premium Waitlist Confirmation", text, html)
}
