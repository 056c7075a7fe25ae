package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cuidapet/clinic-api/internal/model"
)

// All repository interfaces in one file. Implementations return
// errors.NotFound (pkg/errors) when a row does not exist.
type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
		UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.UserFilters) ([]*model.User, error)
	}

	PetRepository interface {
		Create(ctx context.Context, pet *model.Pet) error
		Get(ctx context.Context, id uuid.UUID) (*model.Pet, error)
		Update(ctx context.Context, pet *model.Pet) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.PetFilters) ([]*model.Pet, error)
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		GetDetail(ctx context.Context, id uuid.UUID) (*model.AppointmentDetail, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.AppointmentDetail, error)
		// BookedSlots returns the non-cancelled intervals on date, optionally
		// skipping one appointment.
		BookedSlots(ctx context.Context, date string, excludeID *uuid.UUID) ([]model.Slot, error)
	}

	ServiceRepository interface {
		Create(ctx context.Context, service *model.Service) error
		Get(ctx context.Context, id uuid.UUID) (*model.Service, error)
		Update(ctx context.Context, service *model.Service) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.Service, error)
	}

	// SessionStore tracks revoked access tokens until they expire.
	SessionStore interface {
		Revoke(ctx context.Context, tokenID string, until time.Time) error
		IsRevoked(ctx context.Context, tokenID string) (bool, error)
	}
)
