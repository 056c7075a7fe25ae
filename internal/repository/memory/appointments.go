package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/cuidapet/clinic-api/internal/model"
	"github.com/cuidapet/clinic-api/pkg/errors"
)

type appointmentRepo struct {
	s *Store
}

func (r *appointmentRepo) Create(ctx context.Context, appointment *model.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	appointment.Touch(time.Now().UTC())
	if _, ok := r.s.pets[appointment.PetID]; !ok {
		return errors.BadRequest("pet does not exist", nil)
	}
	if _, ok := r.s.services[appointment.ServiceID]; !ok {
		return errors.BadRequest("service does not exist", nil)
	}
	r.s.appointments[appointment.ID] = *appointment
	return nil
}

func (r *appointmentRepo) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.appointments[id]
	if !ok {
		return nil, errors.NotFound("appointment", nil)
	}
	return &a, nil
}

func (r *appointmentRepo) detailLocked(a model.Appointment) *model.AppointmentDetail {
	d := &model.AppointmentDetail{Appointment: a}
	if p, ok := r.s.pets[a.PetID]; ok {
		d.PetName = p.Name
		d.OwnerID = p.OwnerID
	}
	if s, ok := r.s.services[a.ServiceID]; ok {
		d.ServiceName = s.Name
	}
	return d
}

func (r *appointmentRepo) GetDetail(ctx context.Context, id uuid.UUID) (*model.AppointmentDetail, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.appointments[id]
	if !ok {
		return nil, errors.NotFound("appointment", nil)
	}
	return r.detailLocked(a), nil
}

func (r *appointmentRepo) Update(ctx context.Context, appointment *model.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.appointments[appointment.ID]; !ok {
		return errors.NotFound("appointment", nil)
	}
	appointment.Touch(time.Now().UTC())
	if _, ok := r.s.services[appointment.ServiceID]; !ok {
		return errors.BadRequest("service does not exist", nil)
	}
	r.s.appointments[appointment.ID] = *appointment
	return nil
}

func (r *appointmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.appointments[id]; !ok {
		return errors.NotFound("appointment", nil)
	}
	delete(r.s.appointments, id)
	return nil
}

func (r *appointmentRepo) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.AppointmentDetail, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*model.AppointmentDetail, 0)
	for _, a := range r.s.appointments {
		d := r.detailLocked(a)
		if filters != nil {
			if filters.PetID != uuid.Nil && a.PetID != filters.PetID {
				continue
			}
			if filters.OwnerID != uuid.Nil && d.OwnerID != filters.OwnerID {
				continue
			}
			if filters.Date != "" && a.Date != filters.Date {
				continue
			}
			if filters.Status != "" && a.Status != filters.Status {
				continue
			}
		}
		out = append(out, d)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (r *appointmentRepo) BookedSlots(ctx context.Context, date string, excludeID *uuid.UUID) ([]model.Slot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	slots := make([]model.Slot, 0)
	for id, a := range r.s.appointments {
		if a.Date != date || a.Canceled || a.Status == model.AppointmentStatusCancelled {
			continue
		}
		if excludeID != nil && id == *excludeID {
			continue
		}
		slots = append(slots, a.Slot())
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Start < slots[j].Start })
	return slots, nil
}
