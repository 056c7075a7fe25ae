package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cuidapet/clinic-api/internal/model"
	"github.com/cuidapet/clinic-api/pkg/errors"
)

type userRepo struct {
	s *Store
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.Touch(time.Now().UTC())
	if _, exists := r.s.users[user.ID]; exists {
		return errors.Conflict("user already exists", nil)
	}
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return errors.Conflict("email already registered", nil)
		}
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r *userRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, errors.NotFound("user", nil)
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, errors.NotFound("user", nil)
}

func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.ID]; !ok {
		return errors.NotFound("user", nil)
	}
	user.Touch(time.Now().UTC())
	r.s.users[user.ID] = *user
	return nil
}

func (r *userRepo) UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return errors.NotFound("user", nil)
	}
	u.Role = role
	u.Touch(time.Now().UTC())
	r.s.users[id] = u
	return nil
}

func (r *userRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return errors.NotFound("user", nil)
	}
	delete(r.s.users, id)
	for pid, p := range r.s.pets {
		if p.OwnerID == id {
			r.s.deletePetLocked(pid)
		}
	}
	return nil
}

func (r *userRepo) List(ctx context.Context, filters *model.UserFilters) ([]*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*model.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		if filters != nil {
			if filters.Role != "" && u.Role != filters.Role {
				continue
			}
			if term := strings.ToLower(filters.SearchTerm); term != "" &&
				!strings.Contains(strings.ToLower(u.Email), term) &&
				!strings.Contains(strings.ToLower(u.FullName()), term) {
				continue
			}
		}
		u := u
		out = append(out, &u)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
