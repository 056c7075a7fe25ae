package pet

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuidapet/clinic-api/internal/model"
	"github.com/cuidapet/clinic-api/internal/repository/memory"
	"github.com/cuidapet/clinic-api/internal/service/photo"
	"github.com/cuidapet/clinic-api/pkg/errors"
	"github.com/cuidapet/clinic-api/pkg/storage"
)

type fixture struct {
	svc      *Service
	owner    model.Actor
	stranger model.Actor
	employee model.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	files, err := storage.NewLocalStore(storage.Config{Root: t.TempDir(), BaseURL: "http://files", Secret: "s"})
	require.NoError(t, err)

	mk := func(email string, role model.Role) model.Actor {
		u := &model.User{Email: email, Role: role}
		require.NoError(t, store.Users().Create(ctx, u))
		return model.Actor{UserID: u.ID, Role: role}
	}

	return &fixture{
		svc:      NewService(store.Pets(), store.Users(), photo.New(files, time.Hour)),
		owner:    mk("owner@example.com", model.RoleClient),
		stranger: mk("other@example.com", model.RoleClient),
		employee: mk("staff@example.com", model.RoleEmployee),
	}
}

func (f *fixture) createPet(t *testing.T) *model.Pet {
	t.Helper()
	pet, err := f.svc.Create(context.Background(), f.owner, &model.CreatePetRequest{
		Name:      "Toby",
		Species:   "dog",
		Age:       3,
		Weight:    12.5,
		Allergies: []string{" pollen ", ""},
	})
	require.NoError(t, err)
	return pet
}

func TestCreateAssignsOwner(t *testing.T) {
	f := newFixture(t)
	pet := f.createPet(t)

	assert.Equal(t, f.owner.UserID, pet.OwnerID)
	assert.Equal(t, []string{"pollen"}, []string(pet.Allergies))
}

func TestClientCannotPickOwner(t *testing.T) {
	f := newFixture(t)
	other := f.stranger.UserID

	pet, err := f.svc.Create(context.Background(), f.owner, &model.CreatePetRequest{
		OwnerID: &other, Name: "Mia", Species: "cat",
	})
	require.NoError(t, err)
	assert.Equal(t, f.owner.UserID, pet.OwnerID)
}

func TestStaffCreatesForOwner(t *testing.T) {
	f := newFixture(t)
	owner := f.owner.UserID

	pet, err := f.svc.Create(context.Background(), f.employee, &model.CreatePetRequest{
		OwnerID: &owner, Name: "Mia", Species: "cat",
	})
	require.NoError(t, err)
	assert.Equal(t, owner, pet.OwnerID)

	missing := uuid.New()
	_, err = f.svc.Create(context.Background(), f.employee, &model.CreatePetRequest{
		OwnerID: &missing, Name: "Mia", Species: "cat",
	})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestListScopesClients(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createPet(t)

	mine, err := f.svc.List(ctx, f.owner, nil)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := f.svc.List(ctx, f.stranger, &model.PetFilters{OwnerID: f.owner.UserID})
	require.NoError(t, err)
	assert.Empty(t, theirs)

	all, err := f.svc.List(ctx, f.employee, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUpdateKeepsUnsetFields(t *testing.T) {
	f := newFixture(t)
	pet := f.createPet(t)

	breed := "beagle"
	got, err := f.svc.Update(context.Background(), f.owner, pet.ID, &model.UpdatePetRequest{Breed: &breed})
	require.NoError(t, err)
	assert.Equal(t, "beagle", got.Breed)
	assert.Equal(t, "Toby", got.Name)
	assert.Equal(t, 3, got.Age)
}

func TestStrangerSeesNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pet := f.createPet(t)

	_, err := f.svc.Get(ctx, f.stranger, pet.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	err = f.svc.Delete(ctx, f.stranger, pet.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestDeleteMissingPet(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Delete(context.Background(), f.employee, uuid.New())
	require.Error(t, err)
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrNotFound, appErr.Code)
	assert.Equal(t, "pet not found", appErr.Message)
}

func TestDeletePet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pet := f.createPet(t)

	require.NoError(t, f.svc.Delete(ctx, f.owner, pet.ID))
	_, err := f.svc.Get(ctx, f.owner, pet.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestUploadPhoto(t *testing.T) {
	f := newFixture(t)
	pet := f.createPet(t)

	got, err := f.svc.UploadPhoto(context.Background(), f.owner, pet.ID, "toby.png", strings.NewReader("png"))
	require.NoError(t, err)
	assert.Contains(t, got.PhotoURL, "/pets/"+pet.ID.String()+"/")
}
