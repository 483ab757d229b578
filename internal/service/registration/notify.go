package registration

import (
	"context"

	"github.com/jwalitptl/doctor-directory-api/internal/email"
	"github.com/jwalitptl/doctor-directory-api/internal/model"
	"github.com/jwalitptl/doctor-directory-api/pkg/messaging"
)

const EventDoctorRegistered = "doctor.registered"

// Notifier is told about every completed registration. Failures are logged
// by the service and never fail the registration.
type Notifier interface {
	DoctorRegistered(ctx context.Context, d *model.Doctor) error
}

type EventNotifier struct {
	publisher messaging.Publisher
}

func NewEventNotifier(p messaging.Publisher) *EventNotifier {
	return &EventNotifier{publisher: p}
}

// DoctorRegistered publishes the stored doctor as the event payload.
func (n *EventNotifier) DoctorRegistered(ctx context.Context, d *model.Doctor) error {
	return n.publisher.Publish(ctx, EventDoctorRegistered, d)
}

type MailNotifier struct {
	mailer *email.Mailer
}

func NewMailNotifier(m *email.Mailer) *MailNotifier {
	return &MailNotifier{mailer: m}
}

func (n *MailNotifier) DoctorRegistered(_ context.Context, d *model.Doctor) error {
	return n.mailer.SendWelcome(d)
}
