package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cuidapet/clinic-api/internal/model"
)

const userColumns = `
	u.id, u.email, u.password_hash, r.name AS role, u.name, u.surname,
	u.address, u.photo_path, u.created_at, u.updated_at`

const userFrom = ` FROM users u JOIN roles r ON r.id = u.role_id`

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (
			id, email, password_hash, role_id, name,
			surname, address, photo_path, created_at, updated_at
		) VALUES ($1, $2, $3, (SELECT id FROM roles WHERE name = $4), $5, $6, $7, $8, $9, $10)
	`

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.Touch(time.Now().UTC())

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			user.ID,
			user.Email,
			user.PasswordHash,
			user.Role,
			user.Name,
			user.Surname,
			user.Address,
			user.PhotoPath,
			user.CreatedAt,
			user.UpdatedAt,
		)
		return translate("user", err)
	})
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `SELECT` + userColumns + userFrom + ` WHERE u.id = $1`

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, translate("user", err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT` + userColumns + userFrom + ` WHERE LOWER(u.email) = LOWER($1)`

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, translate("user", err)
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users SET
			email = $2, password_hash = $3, name = $4, surname = $5,
			address = $6, photo_path = $7, updated_at = $8
		WHERE id = $1
	`

	user.Touch(time.Now().UTC())
	res, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Surname,
		user.Address,
		user.PhotoPath,
		user.UpdatedAt,
	)
	if err != nil {
		return translate("user", err)
	}
	return mustAffect("user", res)
}

func (r *userRepository) UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) error {
	query := `
		UPDATE users SET
			role_id = (SELECT id FROM roles WHERE name = $2),
			updated_at = $3
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id, role, time.Now().UTC())
	if err != nil {
		return translate("user", err)
	}
	return mustAffect("user", res)
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return translate("user", err)
	}
	return mustAffect("user", res)
}

func (r *userRepository) List(ctx context.Context, filters *model.UserFilters) ([]*model.User, error) {
	var w whereBuilder
	if filters != nil {
		if filters.Role != "" {
			w.add("r.name = ?", filters.Role)
		}
		if filters.SearchTerm != "" {
			w.add("(LOWER(u.email) LIKE ? OR LOWER(u.name || ' ' || u.surname) LIKE ?)",
				"%"+strings.ToLower(filters.SearchTerm)+"%")
		}
	}

	query := `SELECT` + userColumns + userFrom + w.sql() + ` ORDER BY u.created_at`

	users := make([]*model.User, 0)
	if err := r.db.SelectContext(ctx, &users, query, w.args...); err != nil {
		return nil, translate("user", err)
	}
	return users, nil
}
