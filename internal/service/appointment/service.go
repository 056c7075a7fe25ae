package appointment

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cuidapet/clinic-api/internal/model"
	"github.com/cuidapet/clinic-api/internal/repository"
	"github.com/cuidapet/clinic-api/pkg/errors"
	"github.com/cuidapet/clinic-api/pkg/messaging"
	"github.com/cuidapet/clinic-api/pkg/metrics"
)

// Hours are the clinic opening hours in "HH:MM".
type Hours struct {
	Open  string
	Close string
}

type Service struct {
	repo     repository.AppointmentRepository
	pets     repository.PetRepository
	services repository.ServiceRepository
	users    repository.UserRepository
	broker   messaging.Broker
	metrics  *metrics.Metrics
	hours    Hours

	// bookMu serialises every read-modify-write of an appointment, and the
	// conflict check with the write that follows it.
	bookMu sync.Mutex
	now    func() time.Time
}

func NewService(repo repository.AppointmentRepository, pets repository.PetRepository,
	services repository.ServiceRepository, users repository.UserRepository,
	broker messaging.Broker, m *metrics.Metrics, hours Hours) *Service {
	return &Service{
		repo:     repo,
		pets:     pets,
		services: services,
		users:    users,
		broker:   broker,
		metrics:  m,
		hours:    hours,
		now:      time.Now,
	}
}

// loadPet returns the pet if the actor may book for it.
func (s *Service) loadPet(ctx context.Context, actor model.Actor, petID uuid.UUID) (*model.Pet, error) {
	pet, err := s.pets.Get(ctx, petID)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && pet.OwnerID != actor.UserID {
		return nil, errors.NotFound("pet", nil)
	}
	return pet, nil
}

// load returns the appointment if the actor may see it. Clients only see
// appointments of their own pets.
func (s *Service) load(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.AppointmentDetail, error) {
	detail, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && detail.OwnerID != actor.UserID {
		return nil, errors.NotFound("appointment", nil)
	}
	return detail, nil
}

// endFor resolves the end time of a booking: the explicit one when given,
// otherwise start plus the service duration.
func endFor(start, end string, service *model.Service) (string, error) {
	from, ok := model.ParseClock(start)
	if !ok {
		return "", errors.BadRequest(fmt.Sprintf("invalid start time %q", start), nil)
	}

	if end != "" {
		to, ok := model.ParseClock(end)
		if !ok {
			return "", errors.BadRequest(fmt.Sprintf("invalid end time %q", end), nil)
		}
		if to <= from {
			return "", errors.BadRequest("end time must be after start time", nil)
		}
		return model.FormatClock(to), nil
	}

	to := from + service.Minutes()
	if to >= 24*60 {
		return "", errors.BadRequest("appointment must end on the same day", nil)
	}
	return model.FormatClock(to), nil
}

// checkSlot rejects a slot that overlaps another live appointment.
func (s *Service) checkSlot(ctx context.Context, slot model.Slot, exclude *uuid.UUID) error {
	booked, err := s.repo.BookedSlots(ctx, slot.Date, exclude)
	if err != nil {
		return fmt.Errorf("failed to load booked slots: %w", err)
	}
	if clash, taken := FindOverlap(slot, booked); taken {
		s.metrics.BookingConflicts.Inc()
		return errors.Conflict(fmt.Sprintf("time slot %s-%s on %s is already booked",
			clash.Start, clash.End, clash.Date), nil)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, actor model.Actor, req *model.CreateAppointmentRequest) (*model.AppointmentDetail, error) {
	if !model.ValidDate(req.Date) {
		return nil, errors.BadRequest(fmt.Sprintf("invalid date %q", req.Date), nil)
	}
	if _, err := s.loadPet(ctx, actor, req.PetID); err != nil {
		return nil, fmt.Errorf("failed to get pet: %w", err)
	}
	service, err := s.services.Get(ctx, req.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	end, err := endFor(req.StartTime, req.EndTime, service)
	if err != nil {
		return nil, err
	}

	apt := &model.Appointment{
		PetID:     req.PetID,
		ServiceID: req.ServiceID,
		Date:      req.Date,
		StartTime: model.FormatClock(mustClock(req.StartTime)),
		EndTime:   end,
		Notes:     strings.TrimSpace(req.Notes),
	}
	apt.SetStatus(model.AppointmentStatusPending)

	s.bookMu.Lock()
	err = s.checkSlot(ctx, apt.Slot(), nil)
	if err == nil {
		err = s.repo.Create(ctx, apt)
	}
	s.bookMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to book appointment: %w", err)
	}

	s.metrics.AppointmentsBooked.Inc()
	log.Info().
		Str("appointment_id", apt.ID.String()).
		Str("date", apt.Date).
		Str("start", apt.StartTime).
		Msg("appointment booked")

	return s.afterWrite(ctx, apt.ID, model.EventAppointmentCreated, "")
}

func (s *Service) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.AppointmentDetail, error) {
	detail, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return detail, nil
}

func (s *Service) List(ctx context.Context, actor model.Actor, filters *model.AppointmentFilters) ([]*model.AppointmentDetail, error) {
	if filters == nil {
		filters = &model.AppointmentFilters{}
	}
	if !actor.IsStaff() {
		filters.OwnerID = actor.UserID
	}

	details, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return details, nil
}

// Update reschedules an appointment or edits its notes. Changing the date,
// time or service runs the conflict check again.
func (s *Service) Update(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.AppointmentDetail, error) {
	s.bookMu.Lock()
	defer s.bookMu.Unlock()

	detail, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	apt := detail.Appointment

	rescheduled := false
	if req.ServiceID != nil && *req.ServiceID != apt.ServiceID {
		apt.ServiceID = *req.ServiceID
		rescheduled = true
	}
	if req.Date != nil && *req.Date != apt.Date {
		if !model.ValidDate(*req.Date) {
			return nil, errors.BadRequest(fmt.Sprintf("invalid date %q", *req.Date), nil)
		}
		apt.Date = *req.Date
		rescheduled = true
	}
	if req.StartTime != nil && *req.StartTime != apt.StartTime {
		apt.StartTime = *req.StartTime
		rescheduled = true
	}
	if req.Notes != nil {
		apt.Notes = strings.TrimSpace(*req.Notes)
	}

	if rescheduled || req.EndTime != nil {
		service, err := s.services.Get(ctx, apt.ServiceID)
		if err != nil {
			return nil, fmt.Errorf("failed to get service: %w", err)
		}
		explicitEnd := ""
		if req.EndTime != nil {
			explicitEnd = *req.EndTime
		}
		end, err := endFor(apt.StartTime, explicitEnd, service)
		if err != nil {
			return nil, err
		}
		apt.StartTime = model.FormatClock(mustClock(apt.StartTime))
		apt.EndTime = end

		if apt.Status != model.AppointmentStatusCancelled {
			if err := s.checkSlot(ctx, apt.Slot(), &apt.ID); err != nil {
				return nil, err
			}
		}
	}

	if err := s.repo.Update(ctx, &apt); err != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}
	return s.afterWrite(ctx, id, model.EventAppointmentUpdated, "")
}

// Cancel moves the appointment straight to the cancelled state.
func (s *Service) Cancel(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.AppointmentDetail, error) {
	s.bookMu.Lock()
	defer s.bookMu.Unlock()

	detail, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	apt := detail.Appointment
	previous := apt.Status
	if previous == model.AppointmentStatusCancelled {
		return detail, nil
	}

	apt.SetStatus(model.AppointmentStatusCancelled)
	if err := s.repo.Update(ctx, &apt); err != nil {
		return nil, fmt.Errorf("failed to cancel appointment: %w", err)
	}
	s.metrics.StatusTransitions.WithLabelValues(string(apt.Status)).Inc()

	return s.afterWrite(ctx, id, model.EventAppointmentCancelled, previous)
}

// CycleStatus advances the appointment one step along
// pending -> completed -> cancelled -> pending and stores the result.
// Reopening a cancelled appointment needs its slot to be free again.
func (s *Service) CycleStatus(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.AppointmentDetail, error) {
	if !actor.IsStaff() {
		return nil, errors.Forbidden("only clinic staff can change appointment status")
	}

	s.bookMu.Lock()
	defer s.bookMu.Unlock()

	detail, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	apt := detail.Appointment
	previous := apt.Status
	next := previous.Next()

	if previous == model.AppointmentStatusCancelled {
		if err := s.checkSlot(ctx, apt.Slot(), &apt.ID); err != nil {
			return nil, err
		}
	}

	apt.SetStatus(next)
	if err := s.repo.Update(ctx, &apt); err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}
	s.metrics.StatusTransitions.WithLabelValues(string(next)).Inc()

	log.Info().
		Str("appointment_id", id.String()).
		Str("from", string(previous)).
		Str("to", string(next)).
		Msg("appointment status changed")

	return s.afterWrite(ctx, id, model.EventAppointmentStatusChanged, previous)
}

func (s *Service) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	s.bookMu.Lock()
	defer s.bookMu.Unlock()

	detail, err := s.load(ctx, actor, id)
	if err != nil {
		return fmt.Errorf("failed to get appointment: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}

	s.publish(ctx, model.EventAppointmentDeleted, detail, "")
	return nil
}

// Availability lists the free slots for a service on date within the
// clinic opening hours.
func (s *Service) Availability(ctx context.Context, date string, serviceID uuid.UUID) ([]model.Slot, error) {
	if !model.ValidDate(date) {
		return nil, errors.BadRequest(fmt.Sprintf("invalid date %q", date), nil)
	}
	service, err := s.services.Get(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	booked, err := s.repo.BookedSlots(ctx, date, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load booked slots: %w", err)
	}
	return FreeSlots(date, service.Minutes(), s.hours.Open, s.hours.Close, booked), nil
}

// afterWrite re-reads the appointment and publishes the event.
func (s *Service) afterWrite(ctx context.Context, id uuid.UUID, eventType string, previous model.AppointmentStatus) (*model.AppointmentDetail, error) {
	detail, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload appointment: %w", err)
	}
	s.publish(ctx, eventType, detail, previous)
	return detail, nil
}

// publish is best effort: failures are logged and counted only.
func (s *Service) publish(ctx context.Context, eventType string, detail *model.AppointmentDetail, previous model.AppointmentStatus) {
	apt := detail.Appointment
	event := &model.AppointmentEvent{
		Type:        eventType,
		Appointment: &apt,
		Previous:    previous,
		PetName:     detail.PetName,
		ServiceName: detail.ServiceName,
		OccurredAt:  s.now().UTC(),
	}
	if owner, err := s.users.Get(ctx, detail.OwnerID); err == nil {
		event.OwnerEmail = owner.Email
		event.OwnerName = owner.FullName()
	}

	if err := s.broker.Publish(ctx, messaging.ChannelAppointments, event); err != nil {
		s.metrics.EventsPublished.WithLabelValues(eventType, "failed").Inc()
		log.Warn().Err(err).
			Str("event_type", eventType).
			Str("appointment_id", apt.ID.String()).
			Msg("failed to publish appointment event")
		return
	}
	s.metrics.EventsPublished.WithLabelValues(eventType, "published").Inc()
}

// mustClock parses a time already checked by endFor.
func mustClock(s string) int {
	m, _ := model.ParseClock(s)
	return m
}
