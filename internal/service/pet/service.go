package pet

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/cuidapet/clinic-api/internal/model"
	"github.com/cuidapet/clinic-api/internal/repository"
	"github.com/cuidapet/clinic-api/internal/service/photo"
	"github.com/cuidapet/clinic-api/pkg/errors"
)

const photoFolder = "pets"

type Service struct {
	repo   repository.PetRepository
	users  repository.UserRepository
	photos *photo.Photos
}

func NewService(repo repository.PetRepository, users repository.UserRepository, photos *photo.Photos) *Service {
	return &Service{
		repo:   repo,
		users:  users,
		photos: photos,
	}
}

func (s *Service) withPhoto(p *model.Pet) *model.Pet {
	p.PhotoURL = s.photos.URL(p.PhotoPath)
	return p
}

// load returns the pet if the actor may see it. Clients get a not-found
// for pets of other owners.
func (s *Service) load(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Pet, error) {
	pet, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && pet.OwnerID != actor.UserID {
		return nil, errors.NotFound("pet", nil)
	}
	return pet, nil
}

func (s *Service) Create(ctx context.Context, actor model.Actor, req *model.CreatePetRequest) (*model.Pet, error) {
	ownerID := actor.UserID
	if actor.IsStaff() && req.OwnerID != nil {
		ownerID = *req.OwnerID
		if _, err := s.users.Get(ctx, ownerID); err != nil {
			return nil, fmt.Errorf("failed to find owner: %w", err)
		}
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.BadRequest("name is required", nil)
	}

	pet := &model.Pet{
		OwnerID:        ownerID,
		Name:           name,
		Species:        strings.TrimSpace(req.Species),
		Breed:          strings.TrimSpace(req.Breed),
		Age:            req.Age,
		Weight:         req.Weight,
		Allergies:      pq.StringArray(compact(req.Allergies)),
		MedicalHistory: pq.StringArray(compact(req.MedicalHistory)),
		SpecialNotes:   req.SpecialNotes,
	}
	if err := s.repo.Create(ctx, pet); err != nil {
		return nil, fmt.Errorf("failed to create pet: %w", err)
	}

	log.Info().Str("pet_id", pet.ID.String()).Str("owner_id", ownerID.String()).Msg("pet created")
	return s.Get(ctx, actor, pet.ID)
}

func (s *Service) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Pet, error) {
	pet, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get pet: %w", err)
	}
	return s.withPhoto(pet), nil
}

// List returns the actor's own pets, or every pet for staff.
func (s *Service) List(ctx context.Context, actor model.Actor, filters *model.PetFilters) ([]*model.Pet, error) {
	if filters == nil {
		filters = &model.PetFilters{}
	}
	if !actor.IsStaff() {
		filters.OwnerID = actor.UserID
	}

	pets, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list pets: %w", err)
	}
	for _, p := range pets {
		s.withPhoto(p)
	}
	return pets, nil
}

func (s *Service) Update(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.UpdatePetRequest) (*model.Pet, error) {
	pet, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get pet: %w", err)
	}

	req.Apply(pet)
	pet.Name = strings.TrimSpace(pet.Name)
	if pet.Name == "" {
		return nil, errors.BadRequest("name is required", nil)
	}
	pet.Allergies = compact(pet.Allergies)
	pet.MedicalHistory = compact(pet.MedicalHistory)

	if err := s.repo.Update(ctx, pet); err != nil {
		return nil, fmt.Errorf("failed to update pet: %w", err)
	}
	return s.Get(ctx, actor, id)
}

func (s *Service) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	pet, err := s.load(ctx, actor, id)
	if err != nil {
		return fmt.Errorf("failed to get pet: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete pet: %w", err)
	}
	s.photos.Remove(ctx, pet.PhotoPath)

	log.Info().Str("pet_id", id.String()).Msg("pet deleted")
	return nil
}

func (s *Service) UploadPhoto(ctx context.Context, actor model.Actor, id uuid.UUID, filename string, r io.Reader) (*model.Pet, error) {
	pet, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get pet: %w", err)
	}

	key, err := s.photos.Replace(ctx, photoFolder, pet.ID, filename, r, pet.PhotoPath)
	if err != nil {
		return nil, err
	}
	pet.PhotoPath = key
	if err := s.repo.Update(ctx, pet); err != nil {
		s.photos.Remove(ctx, key)
		return nil, fmt.Errorf("failed to save photo: %w", err)
	}
	return s.Get(ctx, actor, id)
}

// compact trims entries and drops empty ones.
func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
