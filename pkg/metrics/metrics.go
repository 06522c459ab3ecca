package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Booking wizard metrics
	WizardTransitions  *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	BookingsFinalized  *prometheus.CounterVec
	BookingTotal       prometheus.Histogram
	PaymentLatency     prometheus.Histogram
	PaymentFailures    *prometheus.CounterVec
	ActiveSessions     *prometheus.GaugeVec

	// Verification metrics
	CodesDispatched      *prometheus.CounterVec
	VerificationOutcomes *prometheus.CounterVec

	// Notification metrics
	NotificationsEmitted *prometheus.CounterVec
	ConfirmationEmails   *prometheus.CounterVec

	// Database metrics
	DatabaseOperations *prometheus.CounterVec
	DatabaseLatency    *prometheus.HistogramVec

	// Redis metrics
	RedisOperations *prometheus.CounterVec
	RedisLatency    *prometheus.HistogramVec
}

// NewMetrics creates and registers all application metrics with reg.
// A nil reg registers with the default prometheus registry.
func NewMetrics(namespace, subsystem string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		WizardTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "wizard_transitions_total",
			Help:      "Total number of booking wizard step transitions",
		}, []string{"from", "to"}),
		ValidationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "validation_failures_total",
			Help:      "Total number of rejected wizard and verification inputs",
		}, []string{"flow", "step"}),
		BookingsFinalized: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bookings_finalized_total",
			Help:      "Total number of bookings that reached confirmation",
		}, []string{"appointment_type"}),
		BookingTotal: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "booking_total_amount",
			Help:      "Charged amount per finalized booking",
			Buckets:   []float64{50, 100, 125, 150, 175, 200, 250, 500},
		}),
		PaymentLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "payment_duration_seconds",
			Help:      "Time spent confirming payments",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		PaymentFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "payment_failures_total",
			Help:      "Total number of failed or cancelled payment attempts",
		}, []string{"reason"}),
		ActiveSessions: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "active_sessions",
			Help:      "Current number of open wizard and verification sessions",
		}, []string{"kind"}),

		CodesDispatched: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "verification_codes_dispatched_total",
			Help:      "Total number of verification codes sent",
		}, []string{"purpose", "mode"}),
		VerificationOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "verification_outcomes_total",
			Help:      "Total number of verification attempts by outcome",
		}, []string{"purpose", "outcome"}),

		NotificationsEmitted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "notifications_emitted_total",
			Help:      "Total number of user facing notifications",
		}, []string{"kind"}),
		ConfirmationEmails: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "confirmation_emails_total",
			Help:      "Total number of booking confirmation emails by status",
		}, []string{"status"}),

		DatabaseOperations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
		DatabaseLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "database_operation_duration_seconds",
			Help:      "Duration of database operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),

		RedisOperations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "redis_operations_total",
			Help:      "Total number of Redis operations",
		}, []string{"operation", "status"}),
		RedisLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "redis_operation_duration_seconds",
			Help:      "Duration of Redis operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5},
		}, []string{"operation"}),
	}
}

// NewNop returns metrics registered on a private registry, for tests and tools.
func NewNop() *Metrics {
	return NewMetrics("booking", "test", prometheus.NewRegistry())
}

// Status maps an error to the status label used by operation counters.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
