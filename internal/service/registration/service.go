package registration

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/doctor-directory-api/internal/model"
	"github.com/jwalitptl/doctor-directory-api/internal/repository"
	"github.com/jwalitptl/doctor-directory-api/internal/session"
	"github.com/jwalitptl/doctor-directory-api/pkg/errors"
	"github.com/jwalitptl/doctor-directory-api/pkg/metrics"
	"github.com/jwalitptl/doctor-directory-api/pkg/validator"
)

const notifyTimeout = 10 * time.Second

// Servicer is the registration API consumed by the HTTP layer.
type Servicer interface {
	Start(ctx context.Context, form Step1Form) (*model.RegistrationSession, error)
	AttachImage(ctx context.Context, tempID, path string) (bool, error)
	Complete(ctx context.Context, form Step2Form) (*model.Doctor, error)
	Get(ctx context.Context, tempID string) (*model.RegistrationSession, error)
	ExpiresIn(sess *model.RegistrationSession) int
	Cancel(ctx context.Context, tempID string) error
	Stats(ctx context.Context) (*Stats, error)
}

var _ Servicer = (*Service)(nil)

// Service drives the Staged -> Completed | Cancelled | Expired lifecycle of
// a registration.
type Service struct {
	repo      repository.DoctorRepository
	store     session.Store
	validator *validator.Validator
	metrics   *metrics.Metrics
	notifiers []Notifier
	ttl       time.Duration
	now       func() time.Time

	pending sync.WaitGroup
}

func NewService(
	repo repository.DoctorRepository,
	store session.Store,
	v *validator.Validator,
	m *metrics.Metrics,
	ttl time.Duration,
	notifiers ...Notifier,
) *Service {
	return &Service{
		repo:      repo,
		store:     store,
		validator: v,
		metrics:   m,
		notifiers: notifiers,
		ttl:       ttl,
		now:       time.Now,
	}
}

// Start validates step 1 and stages it under a new tempId.
func (s *Service) Start(ctx context.Context, form Step1Form) (*model.RegistrationSession, error) {
	form.trim()
	if msgs := s.validator.Struct(form); len(msgs) > 0 {
		return nil, errors.NewValidation(msgs)
	}
	data := form.data()

	exists, err := s.repo.ExistsByEmail(ctx, data.Email)
	if err != nil {
		return nil, errors.NewInternalWithMessage("Registration failed", err)
	}
	if exists {
		s.conflict()
		return nil, errors.NewConflict("Email already registered", "email", repository.ErrDuplicateEmail)
	}

	now := s.now()
	sess := &model.RegistrationSession{
		TempID:    "temp_" + uuid.NewString(),
		Step1:     data,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.Create(ctx, sess); err != nil {
		return nil, errors.NewInternalWithMessage("Registration failed", err)
	}

	if s.metrics != nil {
		s.metrics.RegistrationsStarted.Inc()
	}
	log.Info().Str("temp_id", sess.TempID).Msg("registration started")
	return sess, nil
}

// AttachImage records an uploaded image on the session. It reports false
// when the session no longer exists; the upload itself stays valid.
func (s *Service) AttachImage(ctx context.Context, tempID, path string) (bool, error) {
	if tempID == "" {
		return false, nil
	}
	err := s.store.AttachImage(ctx, tempID, path)
	if stderrors.Is(err, session.ErrNotFound) {
		log.Warn().Str("temp_id", tempID).Msg("image uploaded for unknown registration session")
		return false, nil
	}
	if err != nil {
		return false, errors.NewInternalWithMessage("Image upload failed", err)
	}
	return true, nil
}

// Complete promotes a staged session into a doctor. The session is consumed
// before the insert; it is put back only when the insert fails for a reason
// other than a duplicate email.
func (s *Service) Complete(ctx context.Context, form Step2Form) (*model.Doctor, error) {
	form.trim()
	if msgs := s.validator.Struct(form); len(msgs) > 0 {
		return nil, errors.NewValidation(msgs)
	}
	if form.TempID == "" {
		return nil, errors.NewInvalidSession(session.ErrNotFound)
	}

	sess, err := s.store.Take(ctx, form.TempID)
	if stderrors.Is(err, session.ErrNotFound) {
		return nil, errors.NewInvalidSession(err)
	}
	if err != nil {
		return nil, errors.NewInternalWithMessage("Registration failed", err)
	}

	exists, err := s.repo.ExistsByEmail(ctx, sess.Step1.Email)
	if err != nil {
		s.restore(ctx, sess)
		return nil, errors.NewInternalWithMessage("Registration failed", err)
	}
	if exists {
		s.conflict()
		return nil, errors.NewConflict("Email already registered. Please use a different email.", "email", repository.ErrDuplicateEmail)
	}

	doctor := sess.NewDoctor(form.data())
	if err := s.repo.Create(ctx, doctor); err != nil {
		if stderrors.Is(err, repository.ErrDuplicateEmail) {
			s.conflict()
			return nil, errors.NewConflict("Email already registered. Please use a different email.", "email", err)
		}
		s.restore(ctx, sess)
		return nil, errors.NewInternalWithMessage("Registration failed", err)
	}

	if s.metrics != nil {
		s.metrics.RegistrationsCompleted.Inc()
	}
	log.Info().Int64("doctor_id", doctor.ID).Str("temp_id", sess.TempID).Msg("registration completed")

	s.notify(ctx, doctor)
	return doctor, nil
}

func (s *Service) restore(ctx context.Context, sess *model.RegistrationSession) {
	if err := s.store.Restore(context.WithoutCancel(ctx), sess); err != nil {
		log.Error().Err(err).Str("temp_id", sess.TempID).Msg("failed to restore registration session")
	}
}

func (s *Service) conflict() {
	if s.metrics != nil {
		s.metrics.RegistrationConflicts.Inc()
	}
}

func (s *Service) notify(ctx context.Context, d *model.Doctor) {
	if len(s.notifiers) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, n := range s.notifiers {
		s.pending.Add(1)
		go func(n Notifier) {
			defer s.pending.Done()
			ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
			defer cancel()
			if err := n.DoctorRegistered(ctx, d); err != nil {
				log.Error().Err(err).Int64("doctor_id", d.ID).Msg("registration notification failed")
			}
		}(n)
	}
}

// Wait blocks until in-flight notifications finish.
func (s *Service) Wait() {
	s.pending.Wait()
}

// Get returns a staged session.
func (s *Service) Get(ctx context.Context, tempID string) (*model.RegistrationSession, error) {
	sess, err := s.store.Get(ctx, tempID)
	if stderrors.Is(err, session.ErrNotFound) {
		return nil, errors.NewNotFound("Registration session", err)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return sess, nil
}

// ExpiresIn is the number of seconds before sess expires.
func (s *Service) ExpiresIn(sess *model.RegistrationSession) int {
	return sess.ExpiresIn(s.now())
}

// Cancel discards a staged session.
func (s *Service) Cancel(ctx context.Context, tempID string) error {
	err := s.store.Delete(ctx, tempID)
	if stderrors.Is(err, session.ErrNotFound) {
		return errors.NewNotFound("Registration session", err)
	}
	if err != nil {
		return errors.NewInternal(err)
	}
	if s.metrics != nil {
		s.metrics.RegistrationsCancelled.Inc()
	}
	log.Info().Str("temp_id", tempID).Msg("registration cancelled")
	return nil
}

type Stats struct {
	ActiveRegistrations int                  `json:"activeRegistrations"`
	Registrations       []model.SessionStats `json:"registrations"`
}

// Stats describes every staged session.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	sessions, err := s.store.List(ctx)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	now := s.now()
	stats := &Stats{
		ActiveRegistrations: len(sessions),
		Registrations:       make([]model.SessionStats, 0, len(sessions)),
	}
	for _, sess := range sessions {
		stats.Registrations = append(stats.Registrations, model.SessionStats{
			TempID:    sess.TempID,
			Timestamp: sess.CreatedAt.UnixMilli(),
			AgeMillis: now.Sub(sess.CreatedAt).Milliseconds(),
		})
	}
	return stats, nil
}
