package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/doctor-directory-api/internal/session"
	"github.com/jwalitptl/doctor-directory-api/pkg/metrics"
)

// SessionSweeper periodically removes expired registration sessions.
type SessionSweeper struct {
	store         session.Store
	sweepInterval time.Duration
	metrics       *metrics.Metrics
}

func NewSessionSweeper(store session.Store, sweepInterval time.Duration, m *metrics.Metrics) *SessionSweeper {
	return &SessionSweeper{
		store:         store,
		sweepInterval: sweepInterval,
		metrics:       m,
	}
}

// Start blocks until ctx is cancelled.
func (w *SessionSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()

	log.Info().Dur("interval", w.sweepInterval).Msg("session sweeper started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("session sweeper stopped")
			return
		case <-ticker.C:
			if _, err := w.Sweep(ctx); err != nil {
				log.Error().Err(err).Msg("failed to sweep registration sessions")
			}
		}
	}
}

// Sweep runs one pass and returns the number of removed sessions.
func (w *SessionSweeper) Sweep(ctx context.Context) (int, error) {
	removed, err := w.store.DeleteExpired(ctx)
	if err != nil {
		return 0, err
	}

	active, err := w.store.List(ctx)
	if err != nil {
		return removed, err
	}

	if w.metrics != nil {
		w.metrics.RegistrationSessionsExp.Add(float64(removed))
		w.metrics.RegistrationSessions.Set(float64(len(active)))
	}

	if removed > 0 {
		log.Info().Int("removed", removed).Int("active", len(active)).Msg("expired registration sessions removed")
	}
	return removed, nil
}
