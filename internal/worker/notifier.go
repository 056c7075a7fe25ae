// Package worker consumes appointment events and notifies pet owners.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cuidapet/clinic-api/internal/email"
	"github.com/cuidapet/clinic-api/internal/model"
	"github.com/cuidapet/clinic-api/pkg/messaging"
	"github.com/cuidapet/clinic-api/pkg/metrics"
)

type AppointmentNotifier struct {
	broker  messaging.Broker
	mailer  email.Service
	metrics *metrics.Metrics
	logger  zerolog.Logger
	clinic  string
}

func NewAppointmentNotifier(broker messaging.Broker, mailer email.Service, m *metrics.Metrics,
	logger zerolog.Logger, clinicName string) *AppointmentNotifier {
	return &AppointmentNotifier{
		broker:  broker,
		mailer:  mailer,
		metrics: m,
		logger:  logger.With().Str("component", "appointment_notifier").Logger(),
		clinic:  clinicName,
	}
}

// Start blocks until ctx is done or the subscription closes.
func (w *AppointmentNotifier) Start(ctx context.Context) error {
	messages, err := w.broker.Subscribe(ctx, messaging.ChannelAppointments)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	w.logger.Info().Str("channel", messaging.ChannelAppointments).Msg("notifier started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case payload, ok := <-messages:
			if !ok {
				return nil
			}
			if err := w.Handle(ctx, payload); err != nil {
				w.logger.Error().Err(err).Msg("failed to handle appointment event")
			}
		}
	}
}

// Handle decodes one event and e-mails the owner when the event type
// calls for it.
func (w *AppointmentNotifier) Handle(ctx context.Context, payload []byte) error {
	start := time.Now()
	defer func() {
		w.metrics.EventHandlingLatency.Observe(time.Since(start).Seconds())
	}()

	var event model.AppointmentEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("failed to decode event: %w", err)
	}
	if event.Appointment == nil || event.OwnerEmail == "" {
		w.logger.Debug().Str("event_type", event.Type).Msg("event without recipient skipped")
		return nil
	}

	subject, body, ok := w.compose(&event)
	if !ok {
		return nil
	}

	if err := w.mailer.SendCustom(ctx, event.OwnerEmail, subject, body); err != nil {
		w.metrics.EmailsSent.WithLabelValues(event.Type, "failed").Inc()
		return err
	}
	w.metrics.EmailsSent.WithLabelValues(event.Type, "sent").Inc()

	w.logger.Info().
		Str("event_type", event.Type).
		Str("appointment_id", event.Appointment.ID.String()).
		Msg("owner notified")
	return nil
}

func (w *AppointmentNotifier) compose(event *model.AppointmentEvent) (string, string, bool) {
	apt := event.Appointment
	when := fmt.Sprintf("%s from %s to %s", apt.Date, apt.StartTime, apt.EndTime)

	greeting := "Hello"
	if event.OwnerName != "" {
		greeting += " " + event.OwnerName
	}

	switch event.Type {
	case model.EventAppointmentCreated:
		return fmt.Sprintf("%s: appointment booked for %s", w.clinic, event.PetName),
			fmt.Sprintf("%s,\n\n%s for %s is booked on %s.\n\n%s\n",
				greeting, event.ServiceName, event.PetName, when, w.clinic), true
	case model.EventAppointmentCancelled:
		return fmt.Sprintf("%s: appointment cancelled", w.clinic),
			fmt.Sprintf("%s,\n\nthe %s appointment for %s on %s was cancelled.\n\n%s\n",
				greeting, event.ServiceName, event.PetName, when, w.clinic), true
	case model.EventAppointmentStatusChanged:
		return fmt.Sprintf("%s: appointment %s", w.clinic, apt.Status),
			fmt.Sprintf("%s,\n\nthe %s appointment for %s on %s changed from %s to %s.\n\n%s\n",
				greeting, event.ServiceName, event.PetName, when, event.Previous, apt.Status, w.clinic), true
	default:
		return "", "", false
	}
}
