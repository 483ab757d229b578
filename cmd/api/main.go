package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/doctor-directory-api/internal/config"
	"github.com/jwalitptl/doctor-directory-api/internal/email"
	doctorHandler "github.com/jwalitptl/doctor-directory-api/internal/handler/doctor"
	"github.com/jwalitptl/doctor-directory-api/internal/handler/health"
	promHandler "github.com/jwalitptl/doctor-directory-api/internal/handler/prometheus"
	registrationHandler "github.com/jwalitptl/doctor-directory-api/internal/handler/registration"
	"github.com/jwalitptl/doctor-directory-api/internal/repository/postgres"
	"github.com/jwalitptl/doctor-directory-api/internal/router"
	doctorService "github.com/jwalitptl/doctor-directory-api/internal/service/doctor"
	registrationService "github.com/jwalitptl/doctor-directory-api/internal/service/registration"
	"github.com/jwalitptl/doctor-directory-api/internal/session"
	"github.com/jwalitptl/doctor-directory-api/internal/storage"
	"github.com/jwalitptl/doctor-directory-api/internal/worker"
	"github.com/jwalitptl/doctor-directory-api/pkg/logger"
	"github.com/jwalitptl/doctor-directory-api/pkg/messaging"
	"github.com/jwalitptl/doctor-directory-api/pkg/messaging/redis"
	"github.com/jwalitptl/doctor-directory-api/pkg/metrics"
	"github.com/jwalitptl/doctor-directory-api/pkg/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Setup(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	if cfg.App.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("failed to apply database schema")
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(cfg.Metrics.Namespace, registry)

	// Redis backs the session store and the event channel; only dial it when
	// one of them needs it.
	var redisClient *goredis.Client
	if cfg.Registration.Backend == config.BackendRedis || cfg.Events.Enabled {
		redisClient, err = redis.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer redisClient.Close()
	}

	var store session.Store
	switch cfg.Registration.Backend {
	case config.BackendRedis:
		store = session.NewRedisStore(redisClient, cfg.Registration.KeyPrefix)
	default:
		store = session.NewMemoryStore()
	}

	images, err := storage.NewImageStore(cfg.Upload.Dir, cfg.Upload.URLPrefix, cfg.Upload.MaxBytes)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to prepare upload directory")
	}

	var notifiers []registrationService.Notifier
	if cfg.Events.Enabled {
		broker := redis.NewRedisBroker(redisClient, log.Logger)
		notifiers = append(notifiers, registrationService.NewEventNotifier(
			messaging.NewChannelPublisher(broker, cfg.Events.Channel),
		))
	}
	if cfg.Mail.Enabled {
		notifiers = append(notifiers, registrationService.NewMailNotifier(email.NewMailer(cfg.Mail)))
	}

	// Initialize repositories and services
	v := validator.New()
	doctorRepo := postgres.NewDoctorRepository(db, m)
	doctorSvc := doctorService.NewService(doctorRepo, v, m)
	registrationSvc := registrationService.NewService(doctorRepo, store, v, m, cfg.Registration.SessionTTL, notifiers...)

	sweeper := worker.NewSessionSweeper(store, cfg.Registration.SweepInterval, m)
	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		sweeper.Start(sweeperCtx)
	}()

	// Initialize handlers
	var metricsH *promHandler.Handler
	if cfg.Metrics.Enabled {
		metricsH = promHandler.New(registry, m)
	}

	r := router.NewRouter(
		cfg,
		health.NewHandler(doctorSvc),
		metricsH,
		doctorHandler.NewHandler(doctorSvc),
		registrationHandler.NewHandler(registrationSvc, images, cfg.Registration.StatsEnabled),
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Int("port", cfg.Server.Port).
			Str("env", cfg.App.Env).
			Str("session_backend", cfg.Registration.Backend).
			Msg("Doctor Discovery API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")
	case err := <-serverErr:
		log.Error().Err(err).Msg("server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	stopSweeper()
	<-sweeperDone

	// let in-flight welcome notifications finish before Redis goes away
	waitWithTimeout(registrationSvc.Wait, 5*time.Second)

	log.Info().Msg("server exited properly")
}

func waitWithTimeout(wait func(), d time.Duration) {
	done := make(chan struct{})
	go func() {
		wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
		log.Warn().Dur("timeout", d).Msg("gave up waiting for pending notifications")
	}
}
