package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all application metrics
type Metrics struct {
	AppointmentsBooked   prometheus.Counter
	BookingConflicts     prometheus.Counter
	StatusTransitions    *prometheus.CounterVec
	EventsPublished      *prometheus.CounterVec
	UsersDeleted         *prometheus.CounterVec
	EmailsSent           *prometheus.CounterVec
	SessionsIssued       prometheus.Counter
	EventHandlingLatency prometheus.Histogram
}

// New creates the metrics and registers them on reg. A nil reg leaves them
// unregistered, which is what tests want.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AppointmentsBooked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointments_booked_total",
			Help:      "Total number of appointments booked",
		}),
		BookingConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointment_conflicts_total",
			Help:      "Total number of bookings rejected because the slot was taken",
		}),
		StatusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointment_status_transitions_total",
			Help:      "Appointment status changes by target status",
		}, []string{"to"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Broker publishes by event type and outcome",
		}, []string{"event_type", "status"}),
		UsersDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "users_deleted_total",
			Help:      "Users removed through bulk deletion by outcome",
		}, []string{"status"}),
		EmailsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_sent_total",
			Help:      "Notification e-mails by event type and outcome",
		}, []string{"event_type", "status"}),
		SessionsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_issued_total",
			Help:      "Total number of access tokens issued",
		}),
		EventHandlingLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_handling_duration_seconds",
			Help:      "Time spent handling one broker event in the worker",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.AppointmentsBooked,
			m.BookingConflicts,
			m.StatusTransitions,
			m.EventsPublished,
			m.UsersDeleted,
			m.EmailsSent,
			m.SessionsIssued,
			m.EventHandlingLatency,
		)
	}
	return m
}
