package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cuidapet/clinic-api/internal/model"
	"github.com/cuidapet/clinic-api/pkg/errors"
)

const serviceColumns = ` id, name, duration, created_at, updated_at`

func (r *serviceRepository) Create(ctx context.Context, service *model.Service) error {
	if service.ID == uuid.Nil {
		service.ID = uuid.New()
	}
	service.Touch(time.Now().UTC())

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO services (`+serviceColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		service.ID, service.Name, service.Minutes(), service.CreatedAt, service.UpdatedAt,
	)
	return translate("service", err)
}

func (r *serviceRepository) Get(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	var service model.Service
	if err := r.db.GetContext(ctx, &service, `SELECT`+serviceColumns+` FROM services WHERE id = $1`, id); err != nil {
		return nil, translate("service", err)
	}
	return &service, nil
}

func (r *serviceRepository) Update(ctx context.Context, service *model.Service) error {
	service.Touch(time.Now().UTC())
	res, err := r.db.ExecContext(ctx,
		`UPDATE services SET name = $2, duration = $3, updated_at = $4 WHERE id = $1`,
		service.ID, service.Name, service.Minutes(), service.UpdatedAt,
	)
	if err != nil {
		return translate("service", err)
	}
	return mustAffect("service", res)
}

func (r *serviceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		// appointments reference services with ON DELETE RESTRICT
		if appErr, ok := errors.As(translate("service", err)); ok && appErr.Code == errors.ErrBadRequest {
			return errors.Conflict("service has appointments", err)
		}
		return translate("service", err)
	}
	return mustAffect("service", res)
}

func (r *serviceRepository) List(ctx context.Context) ([]*model.Service, error) {
	services := make([]*model.Service, 0)
	if err := r.db.SelectContext(ctx, &services, `SELECT`+serviceColumns+` FROM services ORDER BY name`); err != nil {
		return nil, translate("service", err)
	}
	return services, nil
}
