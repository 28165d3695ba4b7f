package emails

import (
	"context"

	"gopkg.in/gomail.v2"
)

// SMTPClient delivers mail over SMTP submission (STARTTLS on 587).
type SMTPClient struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Deliver sends a multipart text + HTML message.
func (c *SMTPClient) Deliver(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", c.from())
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}
	d := gomail.NewDialer(c.Host, c.Port, c.Username, c.Password)
	return d.DialAndSend(m)
}

func (c *SMTPClient) from() string {
	if c.From != "" {
		return c.From
	}
	return c.Username
}
