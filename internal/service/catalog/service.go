// Package catalog manages the services offered by the clinic.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/cuidapet/clinic-api/internal/model"
	"github.com/cuidapet/clinic-api/internal/repository"
	"github.com/cuidapet/clinic-api/pkg/errors"
)

const listKey = "services"

type Service struct {
	repo  repository.ServiceRepository
	cache *cache.Cache
}

func NewService(repo repository.ServiceRepository, ttl time.Duration) *Service {
	return &Service{
		repo:  repo,
		cache: cache.New(ttl, 2*ttl),
	}
}

// List returns the catalog ordered by name. The result is cached until
// the next write or until the TTL passes.
func (s *Service) List(ctx context.Context) ([]*model.Service, error) {
	if cached, ok := s.cache.Get(listKey); ok {
		return copyList(cached.([]*model.Service)), nil
	}

	services, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	s.cache.SetDefault(listKey, services)
	return copyList(services), nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	service, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return service, nil
}

func (s *Service) Create(ctx context.Context, req *model.CreateServiceRequest) (*model.Service, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.BadRequest("name is required", nil)
	}

	service := &model.Service{Name: name, Duration: req.Duration}
	service.Duration = service.Minutes()
	if err := s.repo.Create(ctx, service); err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	s.cache.Delete(listKey)
	return s.Get(ctx, service.ID)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateServiceRequest) (*model.Service, error) {
	service, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, errors.BadRequest("name is required", nil)
		}
		service.Name = name
	}
	if req.Duration != nil {
		service.Duration = *req.Duration
	}
	service.Duration = service.Minutes()

	if err := s.repo.Update(ctx, service); err != nil {
		return nil, fmt.Errorf("failed to update service: %w", err)
	}
	s.cache.Delete(listKey)
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete service: %w", err)
	}
	s.cache.Delete(listKey)
	return nil
}

func copyList(in []*model.Service) []*model.Service {
	out := make([]*model.Service, len(in))
	for i, s := range in {
		c := *s
		out[i] = &c
	}
	return out
}
