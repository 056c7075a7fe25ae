package model

import (
	"github.com/google/uuid"
)

// User represents a registered account and its profile
type User struct {
	Base
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-" db:"password_hash"`
	Role         Role   `json:"role" db:"role"`
	Name         string `json:"name" db:"name"`
	Surname      string `json:"surname" db:"surname"`
	Address      string `json:"address" db:"address"`
	PhotoPath    string `json:"-" db:"photo_path"`
	PhotoURL     string `json:"photo_url,omitempty" db:"-"`
}

// FullName joins name and surname.
func (u *User) FullName() string {
	switch {
	case u.Surname == "":
		return u.Name
	case u.Name == "":
		return u.Surname
	default:
		return u.Name + " " + u.Surname
	}
}

// UpdateProfileRequest represents profile update parameters
type UpdateProfileRequest struct {
	Name    string `json:"name" binding:"required,max=100"`
	Surname string `json:"surname" binding:"max=100"`
	Address string `json:"address" binding:"max=255"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=client employee admin"`
}

type BulkDeleteUsersRequest struct {
	UserIDs []uuid.UUID `json:"user_ids" binding:"required,min=1,dive,required"`
}

// BulkDeleteFailure records one user that could not be deleted.
type BulkDeleteFailure struct {
	UserID uuid.UUID `json:"user_id"`
	Error  string    `json:"error"`
}

// BulkDeleteResult aggregates per-user outcomes of a bulk deletion.
type BulkDeleteResult struct {
	Deleted []uuid.UUID         `json:"deleted"`
	Failed  []BulkDeleteFailure `json:"failed"`
}

type UserFilters struct {
	Role       Role   `form:"role"`
	SearchTerm string `form:"search"`
}
