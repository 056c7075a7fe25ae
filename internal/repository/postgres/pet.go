package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/cuidapet/clinic-api/internal/model"
)

const petColumns = `
	id, owner_id, name, species, breed, age, weight, allergies,
	medical_history, special_notes, photo_path, created_at, updated_at`

func nonNil(a pq.StringArray) pq.StringArray {
	if a == nil {
		return pq.StringArray{}
	}
	return a
}

func (r *petRepository) Create(ctx context.Context, pet *model.Pet) error {
	query := `
		INSERT INTO pets (` + petColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	if pet.ID == uuid.Nil {
		pet.ID = uuid.New()
	}
	pet.Touch(time.Now().UTC())

	_, err := r.db.ExecContext(ctx, query,
		pet.ID,
		pet.OwnerID,
		pet.Name,
		pet.Species,
		pet.Breed,
		pet.Age,
		pet.Weight,
		nonNil(pet.Allergies),
		nonNil(pet.MedicalHistory),
		pet.SpecialNotes,
		pet.PhotoPath,
		pet.CreatedAt,
		pet.UpdatedAt,
	)
	return translate("pet", err)
}

func (r *petRepository) Get(ctx context.Context, id uuid.UUID) (*model.Pet, error) {
	var pet model.Pet
	if err := r.db.GetContext(ctx, &pet, `SELECT`+petColumns+` FROM pets WHERE id = $1`, id); err != nil {
		return nil, translate("pet", err)
	}
	return &pet, nil
}

func (r *petRepository) Update(ctx context.Context, pet *model.Pet) error {
	query := `
		UPDATE pets SET
			name = $2, species = $3, breed = $4, age = $5, weight = $6,
			allergies = $7, medical_history = $8, special_notes = $9,
			photo_path = $10, updated_at = $11
		WHERE id = $1
	`

	pet.Touch(time.Now().UTC())
	res, err := r.db.ExecContext(ctx, query,
		pet.ID,
		pet.Name,
		pet.Species,
		pet.Breed,
		pet.Age,
		pet.Weight,
		nonNil(pet.Allergies),
		nonNil(pet.MedicalHistory),
		pet.SpecialNotes,
		pet.PhotoPath,
		pet.UpdatedAt,
	)
	if err != nil {
		return translate("pet", err)
	}
	return mustAffect("pet", res)
}

func (r *petRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pets WHERE id = $1`, id)
	if err != nil {
		return translate("pet", err)
	}
	return mustAffect("pet", res)
}

func (r *petRepository) List(ctx context.Context, filters *model.PetFilters) ([]*model.Pet, error) {
	var w whereBuilder
	if filters != nil {
		if filters.OwnerID != uuid.Nil {
			w.add("owner_id = ?", filters.OwnerID)
		}
		if filters.Species != "" {
			w.add("species = ?", filters.Species)
		}
	}

	query := `SELECT` + petColumns + ` FROM pets` + w.sql() + ` ORDER BY name, created_at`

	pets := make([]*model.Pet, 0)
	if err := r.db.SelectContext(ctx, &pets, query, w.args...); err != nil {
		return nil, translate("pet", err)
	}
	return pets, nil
}
