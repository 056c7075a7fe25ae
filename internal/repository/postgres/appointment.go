package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cuidapet/clinic-api/internal/model"
	"github.com/cuidapet/clinic-api/pkg/errors"
)

const appointmentColumns = `
	a.id, a.pet_id, a.service_id,
	to_char(a.date, 'YYYY-MM-DD') AS date,
	to_char(a.start_time, 'HH24:MI') AS start_time,
	to_char(a.end_time, 'HH24:MI') AS end_time,
	a.status, a.canceled, a.notes, a.created_at, a.updated_at`

const appointmentDetailFrom = `
	, p.name AS pet_name, p.owner_id, s.name AS service_name
	FROM appointments a
	JOIN pets p ON p.id = a.pet_id
	JOIN services s ON s.id = a.service_id`

// overlapQuery counts live appointments other than $4 intersecting
// [start, end).
const overlapQuery = `
	SELECT COUNT(*) FROM appointments
	WHERE date = $1 AND status <> 'cancelled' AND NOT canceled
	  AND start_time < $3::time AND end_time > $2::time
	  AND id <> $4`

// lockSlot takes the per-date booking lock and rejects the appointment if
// it is live and overlaps another one.
func lockSlot(ctx context.Context, tx *sqlx.Tx, appointment *model.Appointment) error {
	// serialise bookings of the same day across API instances
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, appointment.Date); err != nil {
		return translate("appointment", err)
	}
	if appointment.Canceled || appointment.Status == model.AppointmentStatusCancelled {
		return nil
	}

	var clashes int
	if err := tx.GetContext(ctx, &clashes, overlapQuery,
		appointment.Date, appointment.StartTime, appointment.EndTime, appointment.ID); err != nil {
		return translate("appointment", err)
	}
	if clashes > 0 {
		return errors.Conflict("time slot "+appointment.StartTime+"-"+appointment.EndTime+
			" on "+appointment.Date+" is already booked", nil)
	}
	return nil
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, pet_id, service_id, date, start_time, end_time,
			status, canceled, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	appointment.Touch(time.Now().UTC())

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := lockSlot(ctx, tx, appointment); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, query,
			appointment.ID,
			appointment.PetID,
			appointment.ServiceID,
			appointment.Date,
			appointment.StartTime,
			appointment.EndTime,
			appointment.Status,
			appointment.Canceled,
			appointment.Notes,
			appointment.CreatedAt,
			appointment.UpdatedAt,
		)
		return translate("appointment", err)
	})
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var appointment model.Appointment
	query := `SELECT` + appointmentColumns + ` FROM appointments a WHERE a.id = $1`
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		return nil, translate("appointment", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) GetDetail(ctx context.Context, id uuid.UUID) (*model.AppointmentDetail, error) {
	var detail model.AppointmentDetail
	query := `SELECT` + appointmentColumns + appointmentDetailFrom + ` WHERE a.id = $1`
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, translate("appointment", err)
	}
	return &detail, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	query := `
		UPDATE appointments SET
			service_id = $2, date = $3, start_time = $4, end_time = $5,
			status = $6, canceled = $7, notes = $8, updated_at = $9
		WHERE id = $1
	`

	appointment.Touch(time.Now().UTC())
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := lockSlot(ctx, tx, appointment); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, query,
			appointment.ID,
			appointment.ServiceID,
			appointment.Date,
			appointment.StartTime,
			appointment.EndTime,
			appointment.Status,
			appointment.Canceled,
			appointment.Notes,
			appointment.UpdatedAt,
		)
		if err != nil {
			return translate("appointment", err)
		}
		return mustAffect("appointment", res)
	})
}

func (r *appointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return translate("appointment", err)
	}
	return mustAffect("appointment", res)
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.AppointmentDetail, error) {
	var w whereBuilder
	if filters != nil {
		if filters.PetID != uuid.Nil {
			w.add("a.pet_id = ?", filters.PetID)
		}
		if filters.OwnerID != uuid.Nil {
			w.add("p.owner_id = ?", filters.OwnerID)
		}
		if filters.Date != "" {
			w.add("a.date = ?", filters.Date)
		}
		if filters.Status != "" {
			w.add("a.status = ?", filters.Status)
		}
	}

	query := `SELECT` + appointmentColumns + appointmentDetailFrom + w.sql() +
		` ORDER BY a.date, a.start_time`

	details := make([]*model.AppointmentDetail, 0)
	if err := r.db.SelectContext(ctx, &details, query, w.args...); err != nil {
		return nil, translate("appointment", err)
	}
	return details, nil
}

func (r *appointmentRepository) BookedSlots(ctx context.Context, date string, excludeID *uuid.UUID) ([]model.Slot, error) {
	var w whereBuilder
	w.add("date = ?", date)
	w.add("status <> ?", model.AppointmentStatusCancelled)
	w.add("canceled = ?", false)
	if excludeID != nil {
		w.add("id <> ?", *excludeID)
	}

	query := `
		SELECT to_char(date, 'YYYY-MM-DD') AS date,
		       to_char(start_time, 'HH24:MI') AS start,
		       to_char(end_time, 'HH24:MI') AS "end"
		FROM appointments` + w.sql() + ` ORDER BY start_time`

	slots := make([]model.Slot, 0)
	if err := r.db.SelectContext(ctx, &slots, query, w.args...); err != nil {
		return nil, translate("appointment", err)
	}
	return slots, nil
}
