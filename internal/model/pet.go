package model

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Pet is an animal registered by a client
type Pet struct {
	Base
	OwnerID        uuid.UUID      `json:"owner_id" db:"owner_id"`
	Name           string         `json:"name" db:"name"`
	Species        string         `json:"species" db:"species"`
	Breed          string         `json:"breed" db:"breed"`
	Age            int            `json:"age" db:"age"`
	Weight         float64        `json:"weight" db:"weight"`
	Allergies      pq.StringArray `json:"allergies" db:"allergies"`
	MedicalHistory pq.StringArray `json:"medical_history" db:"medical_history"`
	SpecialNotes   string         `json:"special_notes" db:"special_notes"`
	PhotoPath      string         `json:"-" db:"photo_path"`
	PhotoURL       string         `json:"photo_url,omitempty" db:"-"`
}

type CreatePetRequest struct {
	// OwnerID is honoured only for staff; clients always own what they create.
	OwnerID        *uuid.UUID `json:"owner_id"`
	Name           string     `json:"name" binding:"required,max=100"`
	Species        string     `json:"species" binding:"required,max=50"`
	Breed          string     `json:"breed" binding:"max=100"`
	Age            int        `json:"age" binding:"gte=0,lte=100"`
	Weight         float64    `json:"weight" binding:"gte=0"`
	Allergies      []string   `json:"allergies" binding:"dive,max=100"`
	MedicalHistory []string   `json:"medical_history" binding:"dive,max=500"`
	SpecialNotes   string     `json:"special_notes" binding:"max=1000"`
}

type UpdatePetRequest struct {
	Name           *string   `json:"name" binding:"omitempty,max=100"`
	Species        *string   `json:"species" binding:"omitempty,max=50"`
	Breed          *string   `json:"breed" binding:"omitempty,max=100"`
	Age            *int      `json:"age" binding:"omitempty,gte=0,lte=100"`
	Weight         *float64  `json:"weight" binding:"omitempty,gte=0"`
	Allergies      *[]string `json:"allergies"`
	MedicalHistory *[]string `json:"medical_history"`
	SpecialNotes   *string   `json:"special_notes" binding:"omitempty,max=1000"`
}

// Apply copies the set fields onto p.
func (r *UpdatePetRequest) Apply(p *Pet) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Species != nil {
		p.Species = *r.Species
	}
	if r.Breed != nil {
		p.Breed = *r.Breed
	}
	if r.Age != nil {
		p.Age = *r.Age
	}
	if r.Weight != nil {
		p.Weight = *r.Weight
	}
	if r.Allergies != nil {
		p.Allergies = pq.StringArray(*r.Allergies)
	}
	if r.MedicalHistory != nil {
		p.MedicalHistory = pq.StringArray(*r.MedicalHistory)
	}
	if r.SpecialNotes != nil {
		p.SpecialNotes = *r.SpecialNotes
	}
}

type PetFilters struct {
	OwnerID uuid.UUID
	Species string
}
