package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/doctor-directory-api/internal/model"
	"github.com/jwalitptl/doctor-directory-api/internal/session"
	"github.com/jwalitptl/doctor-directory-api/pkg/metrics"
)

type fakeStore struct {
	session.Store
	deleteExpired func(ctx context.Context) (int, error)
	list          func(ctx context.Context) ([]*model.RegistrationSession, error)
}

func (f *fakeStore) DeleteExpired(ctx context.Context) (int, error) { return f.deleteExpired(ctx) }

func (f *fakeStore) List(ctx context.Context) ([]*model.RegistrationSession, error) {
	return f.list(ctx)
}

func TestSessionSweeper_Sweep(t *testing.T) {
	m := metrics.NewNop()
	store := &fakeStore{
		deleteExpired: func(context.Context) (int, error) { return 3, nil },
		list: func(context.Context) ([]*model.RegistrationSession, error) {
			return []*model.RegistrationSession{{TempID: "temp_a"}, {TempID: "temp_b"}}, nil
		},
	}

	removed, err := NewSessionSweeper(store, time.Minute, m).Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, removed)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RegistrationSessionsExp))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RegistrationSessions))
}

func TestSessionSweeper_SweepError(t *testing.T) {
	store := &fakeStore{
		deleteExpired: func(context.Context) (int, error) { return 0, errors.New("redis down") },
	}

	_, err := NewSessionSweeper(store, time.Minute, nil).Sweep(context.Background())
	assert.Error(t, err)
}

func TestSessionSweeper_StartStopsOnCancel(t *testing.T) {
	var sweeps int32
	store := &fakeStore{
		deleteExpired: func(context.Context) (int, error) {
			atomic.AddInt32(&sweeps, 1)
			return 0, nil
		},
		list: func(context.Context) ([]*model.RegistrationSession, error) { return nil, nil },
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewSessionSweeper(store, 5*time.Millisecond, nil).Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&sweeps) >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}

func TestSessionSweeper_RemovesExpiredFromMemoryStore(t *testing.T) {
	store := session.NewMemoryStore()
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, store.Create(ctx, &model.RegistrationSession{
		TempID: "temp_live", CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	}))

	removed, err := NewSessionSweeper(store, time.Minute, metrics.NewNop()).Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)

	_, err = store.Get(ctx, "temp_live")
	assert.NoError(t, err)
}
