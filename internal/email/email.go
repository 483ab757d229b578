// Package email sends notification mails to registered doctors.
package email

import (
	"bytes"
	"fmt"
	"text/template"

	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/doctor-directory-api/internal/config"
	"github.com/jwalitptl/doctor-directory-api/internal/model"
)

// Sender delivers composed messages. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Mailer struct {
	sender Sender
	from   string
}

func NewMailer(cfg config.MailConfig) *Mailer {
	return NewMailerWithSender(gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), cfg.From)
}

func NewMailerWithSender(sender Sender, from string) *Mailer {
	return &Mailer{sender: sender, from: from}
}

var welcomeBody = template.Must(template.New("welcome").Parse(
	`Hello {{.Name}},

Your profile as a {{.Specialization}} in {{.Location}} is now listed in the doctor directory.

Consultation fee: {{.ConsultationFee}}
Experience: {{.ExperienceYears}} years

Thank you for registering.
`))

// SendWelcome mails the newly registered doctor.
func (m *Mailer) SendWelcome(d *model.Doctor) error {
	var body bytes.Buffer
	if err := welcomeBody.Execute(&body, d); err != nil {
		return fmt.Errorf("error rendering welcome email: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", d.Email)
	msg.SetHeader("Subject", "Welcome to the doctor directory")
	msg.SetBody("text/plain", body.String())

	if err := m.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("error sending email: %w", err)
	}
	return nil
}
