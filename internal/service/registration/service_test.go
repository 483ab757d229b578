package registration

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/doctor-directory-api/internal/model"
	"github.com/jwalitptl/doctor-directory-api/internal/repository"
	"github.com/jwalitptl/doctor-directory-api/internal/session"
	apperrors "github.com/jwalitptl/doctor-directory-api/pkg/errors"
	"github.com/jwalitptl/doctor-directory-api/pkg/metrics"
	"github.com/jwalitptl/doctor-directory-api/pkg/validator"
)

// doctorTable is an in-memory doctors table with a unique email constraint.
type doctorTable struct {
	repository.DoctorRepository

	mu        sync.Mutex
	rows      []*model.Doctor
	createErr error
	// beforeCreate runs inside Create before the uniqueness check.
	beforeCreate func()
}

func (d *doctorTable) ExistsByEmail(_ context.Context, email string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, r := range d.rows {
		if strings.EqualFold(r.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (d *doctorTable) Create(_ context.Context, doc *model.Doctor) error {
	if d.beforeCreate != nil {
		d.beforeCreate()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.createErr != nil {
		return d.createErr
	}
	for _, r := range d.rows {
		if strings.EqualFold(r.Email, doc.Email) {
			return repository.ErrDuplicateEmail
		}
	}
	doc.ID = int64(len(d.rows) + 1)
	doc.CreatedAt = time.Now()
	doc.UpdatedAt = doc.CreatedAt
	cp := *doc
	d.rows = append(d.rows, &cp)
	return nil
}

func (d *doctorTable) insert(email string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rows = append(d.rows, &model.Doctor{ID: int64(len(d.rows) + 1), Email: email})
}

func (d *doctorTable) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.rows)
}

type recordingNotifier struct {
	mu   sync.Mutex
	seen []int64
	err  error
}

func (r *recordingNotifier) DoctorRegistered(_ context.Context, d *model.Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, d.ID)
	return r.err
}

func validStep1() Step1Form {
	return Step1Form{Name: "Dr. A", Email: " A@X.com ", Phone: "9876543210", Gender: "Male", Age: "40", Location: "Pune"}
}

func validStep2(tempID string) Step2Form {
	return Step2Form{
		TempID: tempID, Specialization: "Cardiologist", Institute: "AIIMS", Degree: "MD",
		ExperienceYears: "10", ConsultationFee: "500",
	}
}

func newTestService(t *testing.T, table *doctorTable, notifiers ...Notifier) (*Service, session.Store, *metrics.Metrics) {
	t.Helper()
	store := session.NewMemoryStore()
	m := metrics.NewNop()
	return NewService(table, store, validator.New(), m, time.Hour, notifiers...), store, m
}

func TestService_FullRegistration(t *testing.T) {
	table := &doctorTable{}
	notifier := &recordingNotifier{}
	svc, _, m := newTestService(t, table, notifier)
	ctx := context.Background()

	sess, err := svc.Start(ctx, validStep1())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sess.TempID, "temp_"))
	assert.Equal(t, "a@x.com", sess.Step1.Email)
	assert.Equal(t, 40, sess.Step1.Age)

	doctor, err := svc.Complete(ctx, validStep2(sess.TempID))
	require.NoError(t, err)
	assert.Equal(t, "Dr. A", doctor.Name)
	assert.Equal(t, "Cardiologist", doctor.Specialization)
	assert.Equal(t, 10, doctor.ExperienceYears)
	assert.Equal(t, 500, doctor.ConsultationFee)
	assert.Equal(t, "0.0", doctor.Rating)
	assert.Zero(t, doctor.SearchCount)
	assert.Equal(t, 1, table.count())

	svc.Wait()
	assert.Equal(t, []int64{doctor.ID}, notifier.seen)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RegistrationsStarted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RegistrationsCompleted))
}

func TestService_CompleteIsAtMostOnce(t *testing.T) {
	table := &doctorTable{}
	svc, _, _ := newTestService(t, table)
	ctx := context.Background()

	sess, err := svc.Start(ctx, validStep1())
	require.NoError(t, err)

	_, err = svc.Complete(ctx, validStep2(sess.TempID))
	require.NoError(t, err)

	_, err = svc.Complete(ctx, validStep2(sess.TempID))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrInvalidSession))
	assert.Equal(t, 1, table.count())
}

func TestService_ConcurrentCompleteCreatesOneDoctor(t *testing.T) {
	table := &doctorTable{}
	svc, _, _ := newTestService(t, table)
	ctx := context.Background()

	sess, err := svc.Start(ctx, validStep1())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Complete(ctx, validStep2(sess.TempID))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, table.count())
}

func TestService_StartValidation(t *testing.T) {
	table := &doctorTable{}
	svc, store, _ := newTestService(t, table)

	_, err := svc.Start(context.Background(), Step1Form{Name: "Al", Email: "nope", Phone: "12345", Gender: "male", Age: "24", Location: "P"})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)
	assert.Equal(t, []string{
		"Name must be at least 3 characters long",
		"Valid email is required",
		"Valid Indian phone number is required. Received: 12345",
		"Valid gender is required. Received: male",
		"Age must be between 25 and 80. Received: 24",
		"Location is required",
	}, appErr.Details)

	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestService_StartEmailTaken(t *testing.T) {
	table := &doctorTable{}
	table.insert("a@x.com")
	svc, store, _ := newTestService(t, table)

	_, err := svc.Start(context.Background(), validStep1())
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
	assert.Equal(t, "email", appErr.Field)

	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestService_CompleteEmailClaimedAfterStep1(t *testing.T) {
	table := &doctorTable{}
	svc, store, _ := newTestService(t, table)
	ctx := context.Background()

	sess, err := svc.Start(ctx, validStep1())
	require.NoError(t, err)
	table.insert("a@x.com")

	_, err = svc.Complete(ctx, validStep2(sess.TempID))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrConflict))

	_, err = store.Get(ctx, sess.TempID)
	assert.ErrorIs(t, err, session.ErrNotFound)
	assert.Equal(t, 1, table.count())
}

func TestService_CompleteUniqueViolationIsConflict(t *testing.T) {
	table := &doctorTable{}
	svc, store, _ := newTestService(t, table)
	ctx := context.Background()

	sess, err := svc.Start(ctx, validStep1())
	require.NoError(t, err)
	// Another registration wins the race between the re-check and the insert.
	table.beforeCreate = func() { table.insert("a@x.com") }

	_, err = svc.Complete(ctx, validStep2(sess.TempID))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrConflict))

	_, err = store.Get(ctx, sess.TempID)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestService_CompleteStoreFailureRestoresSession(t *testing.T) {
	table := &doctorTable{createErr: errors.New("connection refused")}
	svc, store, _ := newTestService(t, table)
	ctx := context.Background()

	sess, err := svc.Start(ctx, validStep1())
	require.NoError(t, err)

	_, err = svc.Complete(ctx, validStep2(sess.TempID))
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, 500, appErr.StatusCode())

	restored, err := store.Get(ctx, sess.TempID)
	require.NoError(t, err)
	assert.True(t, sess.ExpiresAt.Equal(restored.ExpiresAt))

	table.createErr = nil
	_, err = svc.Complete(ctx, validStep2(sess.TempID))
	assert.NoError(t, err)
}

func TestService_CompleteValidation(t *testing.T) {
	table := &doctorTable{}
	svc, store, _ := newTestService(t, table)
	ctx := context.Background()

	sess, err := svc.Start(ctx, validStep1())
	require.NoError(t, err)

	_, err = svc.Complete(ctx, Step2Form{TempID: sess.TempID, ExperienceYears: "71", ConsultationFee: "-5", Rating: "6"})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, []string{
		"Specialization is required",
		"Institute name is required",
		"Degree is required",
		"Experience years must be between 0 and 70",
		"Valid consultation fee is required",
		"Rating must be between 0 and 5. Received: 6",
	}, appErr.Details)

	// a rejected step 2 leaves the session staged
	_, err = store.Get(ctx, sess.TempID)
	assert.NoError(t, err)
}

func TestService_CompleteAcceptsZeroValuesAndRating(t *testing.T) {
	table := &doctorTable{}
	svc, _, _ := newTestService(t, table)
	ctx := context.Background()

	sess, err := svc.Start(ctx, validStep1())
	require.NoError(t, err)

	form := validStep2(sess.TempID)
	form.ExperienceYears = "0"
	form.ConsultationFee = "0"
	form.Rating = "4.75"
	form.Bio = "  Heart specialist  "

	doctor, err := svc.Complete(ctx, form)
	require.NoError(t, err)
	assert.Zero(t, doctor.ExperienceYears)
	assert.Zero(t, doctor.ConsultationFee)
	assert.Equal(t, "4.8", doctor.Rating)
	assert.Equal(t, "Heart specialist", *doctor.Bio)
}

func TestService_CompleteUnknownSession(t *testing.T) {
	svc, _, _ := newTestService(t, &doctorTable{})

	_, err := svc.Complete(context.Background(), validStep2("temp_unknown"))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrInvalidSession))

	_, err = svc.Complete(context.Background(), validStep2(""))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrInvalidSession))
}

func TestService_ImageThreadsIntoDoctor(t *testing.T) {
	svc, _, _ := newTestService(t, &doctorTable{})
	ctx := context.Background()

	sess, err := svc.Start(ctx, validStep1())
	require.NoError(t, err)

	attached, err := svc.AttachImage(ctx, sess.TempID, "uploads/doctors/1-2.png")
	require.NoError(t, err)
	assert.True(t, attached)

	attached, err = svc.AttachImage(ctx, "temp_gone", "uploads/doctors/3-4.png")
	require.NoError(t, err)
	assert.False(t, attached)

	attached, err = svc.AttachImage(ctx, "", "uploads/doctors/5-6.png")
	require.NoError(t, err)
	assert.False(t, attached)

	doctor, err := svc.Complete(ctx, validStep2(sess.TempID))
	require.NoError(t, err)
	require.NotNil(t, doctor.ImageURL)
	assert.Equal(t, "uploads/doctors/1-2.png", *doctor.ImageURL)
}

func TestService_GetAndCancel(t *testing.T) {
	svc, _, m := newTestService(t, &doctorTable{})
	ctx := context.Background()

	sess, err := svc.Start(ctx, validStep1())
	require.NoError(t, err)

	got, err := svc.Get(ctx, sess.TempID)
	require.NoError(t, err)
	assert.Equal(t, sess.Step1, got.Step1)
	assert.InDelta(t, 3600, svc.ExpiresIn(got), 2)

	require.NoError(t, svc.Cancel(ctx, sess.TempID))
	assert.True(t, apperrors.HasCode(svc.Cancel(ctx, sess.TempID), apperrors.ErrNotFound))

	_, err = svc.Get(ctx, sess.TempID)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))

	_, err = svc.Complete(ctx, validStep2(sess.TempID))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrInvalidSession))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RegistrationsCancelled))
}

func TestService_Stats(t *testing.T) {
	svc, _, _ := newTestService(t, &doctorTable{})
	ctx := context.Background()

	_, err := svc.Start(ctx, validStep1())
	require.NoError(t, err)
	form := validStep1()
	form.Email = "b@x.com"
	_, err = svc.Start(ctx, form)
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.ActiveRegistrations)
	require.Len(t, stats.Registrations, 2)
	assert.GreaterOrEqual(t, stats.Registrations[0].AgeMillis, int64(0))
}

func TestService_NotifierFailureDoesNotFailRegistration(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	svc, _, _ := newTestService(t, &doctorTable{}, notifier)
	ctx := context.Background()

	sess, err := svc.Start(ctx, validStep1())
	require.NoError(t, err)

	_, err = svc.Complete(ctx, validStep2(sess.TempID))
	require.NoError(t, err)

	svc.Wait()
	assert.Len(t, notifier.seen, 1)
}
