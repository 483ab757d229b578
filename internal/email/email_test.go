package email

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/doctor-directory-api/internal/model"
)

type fakeSender struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

func TestMailer_SendWelcome(t *testing.T) {
	sender := &fakeSender{}
	mailer := NewMailerWithSender(sender, "no-reply@test.local")

	err := mailer.SendWelcome(&model.Doctor{
		Name: "Dr. A", Email: "a@x.com", Specialization: "Cardiologist",
		Location: "Pune", ConsultationFee: 500, ExperienceYears: 10,
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, []string{"a@x.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"no-reply@test.local"}, msg.GetHeader("From"))

	var raw bytes.Buffer
	_, err = msg.WriteTo(&raw)
	require.NoError(t, err)
	assert.Contains(t, raw.String(), "Cardiologist in Pune")
}

func TestMailer_SendWelcomeError(t *testing.T) {
	mailer := NewMailerWithSender(&fakeSender{err: errors.New("smtp down")}, "no-reply@test.local")

	err := mailer.SendWelcome(&model.Doctor{Email: "a@x.com"})
	assert.ErrorContains(t, err, "smtp down")
}
