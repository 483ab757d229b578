package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// HTTP
	RequestDuration *prometheus.HistogramVec
	RequestTotal    *prometheus.CounterVec

	// Directory
	DoctorViews   prometheus.Counter
	SearchQueries prometheus.Counter

	// Registration
	RegistrationsStarted    prometheus.Counter
	RegistrationsCompleted  prometheus.Counter
	RegistrationsCancelled  prometheus.Counter
	RegistrationConflicts   prometheus.Counter
	RegistrationSessions    prometheus.Gauge
	RegistrationSessionsExp prometheus.Counter

	// Welcome mail worker
	WelcomeMails *prometheus.CounterVec

	// Database
	DatabaseLatency *prometheus.HistogramVec
}

// New creates all application metrics and registers them with reg.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		RequestTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),

		DoctorViews: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "doctor_views_total",
			Help:      "Total number of doctor detail fetches",
		}),
		SearchQueries: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "doctor_searches_total",
			Help:      "Total number of executed doctor searches",
		}),

		RegistrationsStarted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registration",
			Name:      "started_total",
			Help:      "Registration sessions created by step 1",
		}),
		RegistrationsCompleted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registration",
			Name:      "completed_total",
			Help:      "Registration sessions promoted into doctors",
		}),
		RegistrationsCancelled: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registration",
			Name:      "cancelled_total",
			Help:      "Registration sessions cancelled by the client",
		}),
		RegistrationConflicts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registration",
			Name:      "conflicts_total",
			Help:      "Registrations rejected because the email was taken",
		}),
		RegistrationSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registration",
			Name:      "sessions_active",
			Help:      "Staged registration sessions seen by the last sweep",
		}),
		RegistrationSessionsExp: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registration",
			Name:      "sessions_expired_total",
			Help:      "Registration sessions removed by the expiry sweep",
		}),

		WelcomeMails: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "welcome_mails_total",
			Help:      "Welcome mails handled by the event worker, by result",
		}, []string{"result"}),

		DatabaseLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "database_operation_duration_seconds",
			Help:      "Duration of database operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
	}
}

// NewNop returns metrics registered against a throwaway registry.
func NewNop() *Metrics {
	return New("test", prometheus.NewRegistry())
}
