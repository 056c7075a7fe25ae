package user

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cuidapet/clinic-api/internal/model"
	"github.com/cuidapet/clinic-api/internal/repository"
	"github.com/cuidapet/clinic-api/internal/service/photo"
	"github.com/cuidapet/clinic-api/pkg/errors"
	"github.com/cuidapet/clinic-api/pkg/metrics"
)

const photoFolder = "users"

type Service struct {
	repo    repository.UserRepository
	photos  *photo.Photos
	metrics *metrics.Metrics
}

func NewService(repo repository.UserRepository, photos *photo.Photos, m *metrics.Metrics) *Service {
	return &Service{
		repo:    repo,
		photos:  photos,
		metrics: m,
	}
}

func (s *Service) withPhoto(u *model.User) *model.User {
	u.PhotoURL = s.photos.URL(u.PhotoPath)
	return u
}

func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return s.withPhoto(user), nil
}

// UpdateProfile overwrites the editable profile fields and returns the
// stored record. Repeating the same update leaves the values unchanged.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, req *model.UpdateProfileRequest) (*model.User, error) {
	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.BadRequest("name is required", nil)
	}
	user.Name = name
	user.Surname = strings.TrimSpace(req.Surname)
	user.Address = strings.TrimSpace(req.Address)

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return s.GetProfile(ctx, userID)
}

func (s *Service) UploadPhoto(ctx context.Context, userID uuid.UUID, filename string, r io.Reader) (*model.User, error) {
	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	key, err := s.photos.Replace(ctx, photoFolder, userID, filename, r, user.PhotoPath)
	if err != nil {
		return nil, err
	}
	user.PhotoPath = key
	if err := s.repo.Update(ctx, user); err != nil {
		s.photos.Remove(ctx, key)
		return nil, fmt.Errorf("failed to save photo: %w", err)
	}
	return s.GetProfile(ctx, userID)
}

func (s *Service) List(ctx context.Context, filters *model.UserFilters) ([]*model.User, error) {
	users, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	for _, u := range users {
		s.withPhoto(u)
	}
	return users, nil
}

func (s *Service) ChangeRole(ctx context.Context, actor model.Actor, userID uuid.UUID, role model.Role) (*model.User, error) {
	if !role.Assignable() {
		return nil, errors.BadRequest(fmt.Sprintf("role %q cannot be assigned", role), nil)
	}
	if actor.UserID == userID && role != model.RoleAdmin {
		return nil, errors.BadRequest("admins cannot demote themselves", nil)
	}

	if err := s.repo.UpdateRole(ctx, userID, role); err != nil {
		return nil, fmt.Errorf("failed to change role: %w", err)
	}

	log.Info().
		Str("actor_id", actor.UserID.String()).
		Str("user_id", userID.String()).
		Str("role", string(role)).
		Msg("user role changed")
	return s.GetProfile(ctx, userID)
}

// DeleteMany deletes each user on its own. A failure does not roll back
// the users already deleted; it is reported per id.
func (s *Service) DeleteMany(ctx context.Context, actor model.Actor, ids []uuid.UUID) *model.BulkDeleteResult {
	result := &model.BulkDeleteResult{
		Deleted: make([]uuid.UUID, 0, len(ids)),
		Failed:  make([]model.BulkDeleteFailure, 0),
	}

	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		if err := s.deleteOne(ctx, actor, id); err != nil {
			s.metrics.UsersDeleted.WithLabelValues("failed").Inc()
			result.Failed = append(result.Failed, model.BulkDeleteFailure{UserID: id, Error: describe(err)})
			continue
		}
		s.metrics.UsersDeleted.WithLabelValues("deleted").Inc()
		result.Deleted = append(result.Deleted, id)
	}

	log.Info().
		Str("actor_id", actor.UserID.String()).
		Int("deleted", len(result.Deleted)).
		Int("failed", len(result.Failed)).
		Msg("bulk user deletion finished")
	return result
}

func (s *Service) deleteOne(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	if id == actor.UserID {
		return errors.BadRequest("cannot delete your own account", nil)
	}

	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.photos.Remove(ctx, user.PhotoPath)
	return nil
}

func describe(err error) string {
	if appErr, ok := errors.As(err); ok {
		return appErr.Message
	}
	return "internal error"
}
