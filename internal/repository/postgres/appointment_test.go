package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuidapet/clinic-api/internal/model"
	"github.com/cuidapet/clinic-api/pkg/errors"
)

// openTestDB connects to CUIDAPET_TEST_DATABASE_DSN and applies the schema.
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv("CUIDAPET_TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("CUIDAPET_TEST_DATABASE_DSN not set")
	}
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(context.Background(), db))
	return db
}

type bookingFixture struct {
	appointments *appointmentRepository
	services     *serviceRepository
	pet          *model.Pet
	service      *model.Service
	date         string
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	ctx := context.Background()
	db := openTestDB(t)
	base := NewBaseRepository(db)

	users := &userRepository{base}
	owner := &model.User{Email: uuid.NewString() + "@example.com", PasswordHash: "x", Role: model.RoleClient}
	require.NoError(t, users.Create(ctx, owner))

	pet := &model.Pet{OwnerID: owner.ID, Name: "Rex", Species: "dog"}
	require.NoError(t, (&petRepository{base}).Create(ctx, pet))

	services := &serviceRepository{base}
	service := &model.Service{Name: "bath " + uuid.NewString(), Duration: 30}
	require.NoError(t, services.Create(ctx, service))

	t.Cleanup(func() {
		// cascades to the pet and its appointments
		users.Delete(context.Background(), owner.ID)
		services.Delete(context.Background(), service.ID)
	})

	// a day of its own keeps parallel runs from sharing slots
	id := uuid.New()
	offset := int(id[0])<<8 | int(id[1])
	date := time.Date(2090, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset).Format("2006-01-02")

	return &bookingFixture{
		appointments: &appointmentRepository{base},
		services:     services,
		pet:          pet,
		service:      service,
		date:         date,
	}
}

func (f *bookingFixture) book(t *testing.T, start, end string) *model.Appointment {
	t.Helper()
	apt := &model.Appointment{
		PetID:     f.pet.ID,
		ServiceID: f.service.ID,
		Date:      f.date,
		StartTime: start,
		EndTime:   end,
	}
	apt.SetStatus(model.AppointmentStatusPending)
	require.NoError(t, f.appointments.Create(context.Background(), apt))
	return apt
}

func TestAppointmentUpdateRejectsOverlap(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	first := f.book(t, "09:00", "09:30")
	second := f.book(t, "10:00", "10:30")

	moved := *second
	moved.StartTime, moved.EndTime = "09:15", "09:45"
	err := f.appointments.Update(ctx, &moved)
	assert.True(t, errors.Is(err, errors.ErrConflict), "got %v", err)

	stored, err := f.appointments.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "10:00", stored.StartTime)

	// an appointment never clashes with itself
	first.Notes = "nervous around dryers"
	require.NoError(t, f.appointments.Update(ctx, first))

	// a cancelled booking may sit on a taken slot
	moved.SetStatus(model.AppointmentStatusCancelled)
	require.NoError(t, f.appointments.Update(ctx, &moved))
}

func TestAppointmentCreateRejectsOverlap(t *testing.T) {
	f := newBookingFixture(t)

	f.book(t, "09:00", "09:30")

	clash := &model.Appointment{
		PetID:     f.pet.ID,
		ServiceID: f.service.ID,
		Date:      f.date,
		StartTime: "09:29",
		EndTime:   "09:59",
	}
	clash.SetStatus(model.AppointmentStatusPending)
	err := f.appointments.Create(context.Background(), clash)
	assert.True(t, errors.Is(err, errors.ErrConflict), "got %v", err)

	// [start, end) leaves the end minute free
	f.book(t, "09:30", "10:00")
}

func TestServiceDeleteWithAppointmentsConflicts(t *testing.T) {
	f := newBookingFixture(t)
	f.book(t, "11:00", "11:30")

	err := f.services.Delete(context.Background(), f.service.ID)
	assert.True(t, errors.Is(err, errors.ErrConflict), "got %v", err)
}
