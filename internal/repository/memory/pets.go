package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/cuidapet/clinic-api/internal/model"
	"github.com/cuidapet/clinic-api/pkg/errors"
)

type petRepo struct {
	s *Store
}

func clonePet(p model.Pet) *model.Pet {
	p.Allergies = cloneStrings(p.Allergies)
	p.MedicalHistory = cloneStrings(p.MedicalHistory)
	return &p
}

func (r *petRepo) Create(ctx context.Context, pet *model.Pet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if pet.ID == uuid.Nil {
		pet.ID = uuid.New()
	}
	pet.Touch(time.Now().UTC())
	if _, ok := r.s.users[pet.OwnerID]; !ok {
		return errors.BadRequest("owner does not exist", nil)
	}
	r.s.pets[pet.ID] = *clonePet(*pet)
	return nil
}

func (r *petRepo) Get(ctx context.Context, id uuid.UUID) (*model.Pet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.pets[id]
	if !ok {
		return nil, errors.NotFound("pet", nil)
	}
	return clonePet(p), nil
}

func (r *petRepo) Update(ctx context.Context, pet *model.Pet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.pets[pet.ID]; !ok {
		return errors.NotFound("pet", nil)
	}
	pet.Touch(time.Now().UTC())
	r.s.pets[pet.ID] = *clonePet(*pet)
	return nil
}

func (r *petRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.pets[id]; !ok {
		return errors.NotFound("pet", nil)
	}
	r.s.deletePetLocked(id)
	return nil
}

func (r *petRepo) List(ctx context.Context, filters *model.PetFilters) ([]*model.Pet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*model.Pet, 0)
	for _, p := range r.s.pets {
		if filters != nil {
			if filters.OwnerID != uuid.Nil && p.OwnerID != filters.OwnerID {
				continue
			}
			if filters.Species != "" && p.Species != filters.Species {
				continue
			}
		}
		out = append(out, clonePet(p))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
