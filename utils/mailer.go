package utils

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPMailer delivers sequence emails over SMTP. It satisfies the
// sequence.DeliveryProvider interface; the returned id is the Message-ID
// stamped on the outgoing mail so reply matching works over IMAP.
type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
}

// NewSMTPMailer creates a mailer
func NewSMTPMailer(host string, port int, username, password string) *SMTPMailer {
	return &SMTPMailer{Host: host, Port: port, Username: username, Password: password}
}

// Send delivers one HTML email and returns the message id it was stamped
// with.
func (m *SMTPMailer) Send(to, subject, htmlBody, fromEmail, fromName, messageID string) (string, error) {
	msg := gomail.NewMessage()
	msg.SetHeader("From", fmt.Sprintf("%s <%s>", fromName, fromEmail))
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetHeader("Message-ID", fmt.Sprintf("<%s>", messageID))
	msg.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(m.Host, m.Port, m.Username, m.Password)
	if err := d.DialAndSend(msg); err != nil {
		return "", fmt.Errorf("error sending email to %s: %w", to, err)
	}
	return messageID, nil
}
