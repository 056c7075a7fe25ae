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

type serviceRepo struct {
	s *Store
}

func (r *serviceRepo) Create(ctx context.Context, service *model.Service) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if service.ID == uuid.Nil {
		service.ID = uuid.New()
	}
	service.Touch(time.Now().UTC())
	for _, existing := range r.s.services {
		if strings.EqualFold(existing.Name, service.Name) {
			return errors.Conflict("service name already exists", nil)
		}
	}
	r.s.services[service.ID] = *service
	return nil
}

func (r *serviceRepo) Get(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	s, ok := r.s.services[id]
	if !ok {
		return nil, errors.NotFound("service", nil)
	}
	return &s, nil
}

func (r *serviceRepo) Update(ctx context.Context, service *model.Service) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.services[service.ID]; !ok {
		return errors.NotFound("service", nil)
	}
	service.Touch(time.Now().UTC())
	r.s.services[service.ID] = *service
	return nil
}

func (r *serviceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.services[id]; !ok {
		return errors.NotFound("service", nil)
	}
	for _, a := range r.s.appointments {
		if a.ServiceID == id {
			return errors.Conflict("service has appointments", nil)
		}
	}
	delete(r.s.services, id)
	return nil
}

func (r *serviceRepo) List(ctx context.Context) ([]*model.Service, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*model.Service, 0, len(r.s.services))
	for _, s := range r.s.services {
		s := s
		out = append(out, &s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
