package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/doctor-directory-api/internal/model"
	"github.com/jwalitptl/doctor-directory-api/internal/service/registration"
	"github.com/jwalitptl/doctor-directory-api/pkg/messaging"
	"github.com/jwalitptl/doctor-directory-api/pkg/metrics"
)

// WelcomeSender is satisfied by *email.Mailer.
type WelcomeSender interface {
	SendWelcome(d *model.Doctor) error
}

// WelcomeMailer consumes doctor.registered events and mails each new doctor.
// Delivery is at most once: Redis pub/sub does not redeliver.
type WelcomeMailer struct {
	broker  messaging.Broker
	channel string
	sender  WelcomeSender
	metrics *metrics.Metrics
}

func NewWelcomeMailer(broker messaging.Broker, channel string, sender WelcomeSender, m *metrics.Metrics) *WelcomeMailer {
	return &WelcomeMailer{
		broker:  broker,
		channel: channel,
		sender:  sender,
		metrics: m,
	}
}

// Start blocks until ctx is cancelled or the subscription ends.
func (w *WelcomeMailer) Start(ctx context.Context) error {
	msgs, err := w.broker.Subscribe(ctx, w.channel)
	if err != nil {
		return err
	}

	log.Info().Str("channel", w.channel).Msg("welcome mailer started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("welcome mailer stopped")
			return nil
		case raw, ok := <-msgs:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("subscription closed")
			}
			w.record(w.Handle(raw))
		}
	}
}

var errSkipped = errors.New("skipped")

// Handle processes one raw message. Messages of other types are skipped.
func (w *WelcomeMailer) Handle(raw []byte) error {
	msg, err := messaging.DecodeMessage(raw)
	if err != nil {
		log.Warn().Err(err).Msg("dropping undecodable message")
		return err
	}
	if msg.Type != registration.EventDoctorRegistered {
		return errSkipped
	}

	var d model.Doctor
	if err := json.Unmarshal(msg.Payload, &d); err != nil {
		log.Warn().Err(err).Str("type", msg.Type).Msg("dropping message with bad payload")
		return fmt.Errorf("failed to decode doctor: %w", err)
	}
	if d.Email == "" {
		log.Warn().Int64("doctor_id", d.ID).Msg("dropping registration event without email")
		return errors.New("doctor has no email")
	}

	if err := w.sender.SendWelcome(&d); err != nil {
		log.Error().Err(err).Int64("doctor_id", d.ID).Msg("failed to send welcome mail")
		return err
	}

	log.Info().Int64("doctor_id", d.ID).Msg("welcome mail sent")
	return nil
}

func (w *WelcomeMailer) record(err error) {
	if w.metrics == nil {
		return
	}
	result := "sent"
	switch {
	case errors.Is(err, errSkipped):
		result = "skipped"
	case err != nil:
		result = "failed"
	}
	w.metrics.WelcomeMails.WithLabelValues(result).Inc()
}
