package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuidapet/clinic-api/internal/model"
	"github.com/cuidapet/clinic-api/internal/repository"
	"github.com/cuidapet/clinic-api/internal/repository/memory"
	"github.com/cuidapet/clinic-api/pkg/errors"
)

type countingRepo struct {
	repository.ServiceRepository
	lists int
}

func (r *countingRepo) List(ctx context.Context) ([]*model.Service, error) {
	r.lists++
	return r.ServiceRepository.List(ctx)
}

func TestListIsCachedUntilWrite(t *testing.T) {
	ctx := context.Background()
	repo := &countingRepo{ServiceRepository: memory.NewStore().Services()}
	svc := NewService(repo, time.Minute)

	_, err := svc.Create(ctx, &model.CreateServiceRequest{Name: "Banho"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		list, err := svc.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
	}
	assert.Equal(t, 1, repo.lists)

	_, err = svc.Create(ctx, &model.CreateServiceRequest{Name: "Consulta", Duration: 45})
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, 2, repo.lists)
}

func TestCreateDefaultsDuration(t *testing.T) {
	svc := NewService(memory.NewStore().Services(), time.Minute)

	s, err := svc.Create(context.Background(), &model.CreateServiceRequest{Name: "Tosa"})
	require.NoError(t, err)
	assert.Equal(t, model.DefaultServiceDuration, s.Duration)
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewStore().Services(), time.Minute)

	s, err := svc.Create(ctx, &model.CreateServiceRequest{Name: "Tosa"})
	require.NoError(t, err)

	d := 60
	got, err := svc.Update(ctx, s.ID, &model.UpdateServiceRequest{Duration: &d})
	require.NoError(t, err)
	assert.Equal(t, 60, got.Duration)
	assert.Equal(t, "Tosa", got.Name)

	require.NoError(t, svc.Delete(ctx, s.ID))
	_, err = svc.Get(ctx, s.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestListReturnsCopies(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewStore().Services(), time.Minute)
	_, err := svc.Create(ctx, &model.CreateServiceRequest{Name: "Tosa"})
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	list[0].Name = "changed"

	list, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Tosa", list[0].Name)
}
