package appointment

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuidapet/clinic-api/internal/model"
	"github.com/cuidapet/clinic-api/internal/repository/memory"
	"github.com/cuidapet/clinic-api/pkg/errors"
	"github.com/cuidapet/clinic-api/pkg/metrics"
)

type recordingBroker struct {
	mu     sync.Mutex
	events []*model.AppointmentEvent
	fail   bool
}

func (b *recordingBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	if b.fail {
		return fmt.Errorf("broker down")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, message.(*model.AppointmentEvent))
	return nil
}

func (b *recordingBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	return nil, nil
}

func (b *recordingBroker) Close() error { return nil }

func (b *recordingBroker) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	for i, e := range b.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	svc      *Service
	broker   *recordingBroker
	owner    model.Actor
	stranger model.Actor
	staff    model.Actor
	pet      *model.Pet
	service  *model.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	owner := &model.User{Email: "ana@example.com", Name: "Ana", Surname: "Souza", Role: model.RoleClient}
	stranger := &model.User{Email: "bia@example.com", Name: "Bia", Role: model.RoleClient}
	staff := &model.User{Email: "vet@example.com", Name: "Vet", Role: model.RoleEmployee}
	for _, u := range []*model.User{owner, stranger, staff} {
		require.NoError(t, store.Users().Create(ctx, u))
	}

	pet := &model.Pet{OwnerID: owner.ID, Name: "Toby", Species: "dog"}
	require.NoError(t, store.Pets().Create(ctx, pet))
	service := &model.Service{Name: "Consulta", Duration: 30}
	require.NoError(t, store.Services().Create(ctx, service))

	broker := &recordingBroker{}
	svc := NewService(store.Appointments(), store.Pets(), store.Services(), store.Users(),
		broker, metrics.New("test", nil), Hours{Open: "09:00", Close: "12:00"})

	return &fixture{
		svc:      svc,
		broker:   broker,
		owner:    model.Actor{UserID: owner.ID, Role: model.RoleClient},
		stranger: model.Actor{UserID: stranger.ID, Role: model.RoleClient},
		staff:    model.Actor{UserID: staff.ID, Role: model.RoleEmployee},
		pet:      pet,
		service:  service,
	}
}

func (f *fixture) book(t *testing.T, start string) *model.AppointmentDetail {
	t.Helper()
	apt, err := f.svc.Create(context.Background(), f.owner, &model.CreateAppointmentRequest{
		PetID: f.pet.ID, ServiceID: f.service.ID, Date: day, StartTime: start,
	})
	require.NoError(t, err)
	return apt
}

func TestCreateFillsEndAndJoins(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t, "09:00")

	assert.Equal(t, "09:30", apt.EndTime)
	assert.Equal(t, model.AppointmentStatusPending, apt.Status)
	assert.False(t, apt.Canceled)
	assert.Equal(t, "Toby", apt.PetName)
	assert.Equal(t, "Consulta", apt.ServiceName)
	assert.Equal(t, f.owner.UserID, apt.OwnerID)

	require.Len(t, f.broker.events, 1)
	event := f.broker.events[0]
	assert.Equal(t, model.EventAppointmentCreated, event.Type)
	assert.Equal(t, "ana@example.com", event.OwnerEmail)
	assert.Equal(t, "Ana Souza", event.OwnerName)
}

func TestCreateRejectsConflict(t *testing.T) {
	f := newFixture(t)
	f.book(t, "10:00")

	_, err := f.svc.Create(context.Background(), f.owner, &model.CreateAppointmentRequest{
		PetID: f.pet.ID, ServiceID: f.service.ID, Date: day, StartTime: "10:00",
	})
	require.True(t, errors.Is(err, errors.ErrConflict))
	appErr, _ := errors.As(err)
	assert.Contains(t, appErr.Message, "10:00-10:30")

	// the booked end is free
	f.book(t, "10:30")
}

func TestCreateForeignPet(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), f.stranger, &model.CreateAppointmentRequest{
		PetID: f.pet.ID, ServiceID: f.service.ID, Date: day, StartTime: "10:00",
	})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestCreateRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.owner, &model.CreateAppointmentRequest{
		PetID: f.pet.ID, ServiceID: f.service.ID, Date: "15/05/2025", StartTime: "10:00",
	})
	assert.True(t, errors.Is(err, errors.ErrBadRequest))

	_, err = f.svc.Create(ctx, f.owner, &model.CreateAppointmentRequest{
		PetID: f.pet.ID, ServiceID: f.service.ID, Date: day, StartTime: "10:00", EndTime: "09:00",
	})
	assert.True(t, errors.Is(err, errors.ErrBadRequest))

	_, err = f.svc.Create(ctx, f.owner, &model.CreateAppointmentRequest{
		PetID: f.pet.ID, ServiceID: f.service.ID, Date: day, StartTime: "23:45",
	})
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
}

func TestCancelledAppointmentFreesSlot(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t, "10:00")

	cancelled, err := f.svc.Cancel(context.Background(), f.owner, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)
	assert.True(t, cancelled.Canceled)

	f.book(t, "10:00")
}

func TestCycleStatusPersistsEveryStep(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	apt := f.book(t, "10:00")

	want := []model.AppointmentStatus{
		model.AppointmentStatusCompleted,
		model.AppointmentStatusCancelled,
		model.AppointmentStatusPending,
		model.AppointmentStatusCompleted,
	}
	for _, status := range want {
		got, err := f.svc.CycleStatus(ctx, f.staff, apt.ID)
		require.NoError(t, err)
		assert.Equal(t, status, got.Status)

		stored, err := f.svc.Get(ctx, f.staff, apt.ID)
		require.NoError(t, err)
		assert.Equal(t, status, stored.Status)
		assert.Equal(t, status == model.AppointmentStatusCancelled, stored.Canceled)
	}

	last := f.broker.events[len(f.broker.events)-1]
	assert.Equal(t, model.EventAppointmentStatusChanged, last.Type)
	assert.Equal(t, model.AppointmentStatusPending, last.Previous)
}

func TestCycleStatusRequiresStaff(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t, "10:00")

	_, err := f.svc.CycleStatus(context.Background(), f.owner, apt.ID)
	assert.True(t, errors.Is(err, errors.ErrForbidden))
}

func TestReopeningNeedsFreeSlot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	apt := f.book(t, "10:00")

	_, err := f.svc.Cancel(ctx, f.owner, apt.ID)
	require.NoError(t, err)
	f.book(t, "10:00")

	// cancelled -> pending would double-book
	_, err = f.svc.CycleStatus(ctx, f.staff, apt.ID)
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestUpdateReschedules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first := f.book(t, "10:00")
	f.book(t, "11:00")

	moved := "11:15"
	_, err := f.svc.Update(ctx, f.owner, first.ID, &model.UpdateAppointmentRequest{StartTime: &moved})
	assert.True(t, errors.Is(err, errors.ErrConflict))

	// moving inside its own slot does not conflict with itself
	moved = "10:15"
	got, err := f.svc.Update(ctx, f.owner, first.ID, &model.UpdateAppointmentRequest{StartTime: &moved})
	require.NoError(t, err)
	assert.Equal(t, "10:15", got.StartTime)
	assert.Equal(t, "10:45", got.EndTime)

	notes := " bring vaccination card "
	got, err = f.svc.Update(ctx, f.owner, first.ID, &model.UpdateAppointmentRequest{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "bring vaccination card", got.Notes)
}

func TestListScopesClients(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.book(t, "10:00")

	mine, err := f.svc.List(ctx, f.owner, nil)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := f.svc.List(ctx, f.stranger, nil)
	require.NoError(t, err)
	assert.Empty(t, theirs)

	all, err := f.svc.List(ctx, f.staff, &model.AppointmentFilters{Date: day})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	apt := f.book(t, "10:00")

	err := f.svc.Delete(ctx, f.stranger, apt.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	require.NoError(t, f.svc.Delete(ctx, f.owner, apt.ID))
	_, err = f.svc.Get(ctx, f.owner, apt.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	assert.Equal(t, model.EventAppointmentDeleted, f.broker.types()[len(f.broker.types())-1])
}

func TestAvailability(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.book(t, "10:00")

	free, err := f.svc.Availability(ctx, day, f.service.ID)
	require.NoError(t, err)

	var starts []string
	for _, s := range free {
		starts = append(starts, s.Start)
	}
	assert.Equal(t, []string{"09:00", "09:30", "10:30", "11:00", "11:30"}, starts)

	_, err = f.svc.Availability(ctx, day, uuid.New())
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestPublishFailureDoesNotFailBooking(t *testing.T) {
	f := newFixture(t)
	f.broker.fail = true

	apt := f.book(t, "09:00")
	assert.Equal(t, "09:30", apt.EndTime)
}
