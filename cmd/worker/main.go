package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/doctor-directory-api/internal/config"
	"github.com/jwalitptl/doctor-directory-api/internal/email"
	"github.com/jwalitptl/doctor-directory-api/internal/worker"
	"github.com/jwalitptl/doctor-directory-api/pkg/logger"
	"github.com/jwalitptl/doctor-directory-api/pkg/messaging/redis"
	"github.com/jwalitptl/doctor-directory-api/pkg/metrics"
)

// The worker mails newly registered doctors from the registration event
// channel. Run it with events.enabled on the API and mail.enabled off there,
// otherwise doctors get two mails.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Setup(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := redis.NewClient(ctx, cfg.Redis.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	broker := redis.NewRedisBroker(client, log.Logger)
	defer broker.Close()

	registry := prometheus.NewRegistry()
	m := metrics.New(cfg.Metrics.Namespace, registry)

	srv := healthServer(cfg.Worker.HealthPort, registry)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health check server failed")
		}
	}()

	mailer := worker.NewWelcomeMailer(broker, cfg.Events.Channel, email.NewMailer(cfg.Mail), m)
	if err := mailer.Start(ctx); err != nil {
		log.Error().Err(err).Msg("welcome mailer exited")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	log.Info().Msg("worker exited")
}

func healthServer(port int, registry *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
