// Package postgres implements the repositories on PostgreSQL through sqlx.
package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/cuidapet/clinic-api/internal/repository"
)

type userRepository struct {
	BaseRepository
}

type petRepository struct {
	BaseRepository
}

type appointmentRepository struct {
	BaseRepository
}

type serviceRepository struct {
	BaseRepository
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{NewBaseRepository(db)}
}

func NewPetRepository(db *sqlx.DB) repository.PetRepository {
	return &petRepository{NewBaseRepository(db)}
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{NewBaseRepository(db)}
}

func NewServiceRepository(db *sqlx.DB) repository.ServiceRepository {
	return &serviceRepository{NewBaseRepository(db)}
}
