// Package memory keeps every table in process memory. It backs the
// "memory" database driver and the service tests.
package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/cuidapet/clinic-api/internal/model"
	"github.com/cuidapet/clinic-api/internal/repository"
)

// Store holds all tables behind one lock so deletes can cascade the way
// the postgres foreign keys do.
type Store struct {
	mu           sync.RWMutex
	users        map[uuid.UUID]model.User
	pets         map[uuid.UUID]model.Pet
	appointments map[uuid.UUID]model.Appointment
	services     map[uuid.UUID]model.Service
}

func NewStore() *Store {
	return &Store{
		users:        make(map[uuid.UUID]model.User),
		pets:         make(map[uuid.UUID]model.Pet),
		appointments: make(map[uuid.UUID]model.Appointment),
		services:     make(map[uuid.UUID]model.Service),
	}
}

func (s *Store) Users() repository.UserRepository {
	return &userRepo{s}
}

func (s *Store) Pets() repository.PetRepository {
	return &petRepo{s}
}

func (s *Store) Appointments() repository.AppointmentRepository {
	return &appointmentRepo{s}
}

func (s *Store) Services() repository.ServiceRepository {
	return &serviceRepo{s}
}

// deletePetLocked removes a pet and its appointments.
func (s *Store) deletePetLocked(id uuid.UUID) {
	delete(s.pets, id)
	for aid, a := range s.appointments {
		if a.PetID == id {
			delete(s.appointments, aid)
		}
	}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
