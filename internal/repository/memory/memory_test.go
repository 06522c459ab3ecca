package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	"github.com/jwalitptl/booking-api/internal/repository/seed"
)

func TestDoctorRepositoryLookup(t *testing.T) {
	doctors, err := seed.Doctors()
	require.NoError(t, err)
	repo, err := NewDoctorRepository(doctors, 0)
	require.NoError(t, err)

	d, err := repo.Get(context.Background(), "4")
	require.NoError(t, err)
	assert.Equal(t, "Dr. James Wilson", d.Name)

	_, err = repo.Get(context.Background(), "999")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	all, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 6)
	assert.Equal(t, "1", all[0].ID)
}

func TestDoctorRepositoryLatencyHonoursContext(t *testing.T) {
	repo, err := NewDoctorRepository([]*model.Doctor{{ID: "1"}}, time.Hour)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = repo.Get(ctx, "1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDoctorRepositoryRejectsDuplicates(t *testing.T) {
	_, err := NewDoctorRepository([]*model.Doctor{{ID: "1"}, {ID: "1"}}, 0)
	assert.Error(t, err)
}

func TestAppointmentRepositoryFiltersByStatus(t *testing.T) {
	repo := NewAppointmentRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.Appointment{Subject: "ann", ConfirmationID: "c1", Status: model.AppointmentStatusUpcoming}))
	require.NoError(t, repo.Create(ctx, &model.Appointment{Subject: "ann", ConfirmationID: "c2", Status: model.AppointmentStatusCancelled}))
	require.NoError(t, repo.Create(ctx, &model.Appointment{Subject: "bob", ConfirmationID: "c3", Status: model.AppointmentStatusUpcoming}))
	assert.ErrorIs(t, repo.Create(ctx, &model.Appointment{Subject: "ann", ConfirmationID: "c1"}), repository.ErrDuplicate)

	all, err := repo.ListBySubject(ctx, "ann", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	upcoming, err := repo.ListBySubject(ctx, "ann", model.AppointmentStatusUpcoming)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "c1", upcoming[0].ConfirmationID)
}

func TestProfileRepositoryKeepsIdentityOnUpdate(t *testing.T) {
	repo := NewProfileRepository()
	ctx := context.Background()

	first := &model.PatientProfile{Subject: "ann", FullName: "Ann"}
	require.NoError(t, repo.Save(ctx, first))
	second := &model.PatientProfile{Subject: "ann", FullName: "Ann Lee"}
	require.NoError(t, repo.Save(ctx, second))

	got, err := repo.Get(ctx, "ann")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "Ann Lee", got.FullName)

	_, err = repo.Get(ctx, "bob")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAccountRepository(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.Account{Subject: "ann@example.com", Mode: model.ContactEmail, PasswordHash: "h1"}))
	assert.ErrorIs(t, repo.Create(ctx, &model.Account{Subject: "ann@example.com"}), repository.ErrDuplicate)

	require.NoError(t, repo.SetPassword(ctx, "ann@example.com", model.ContactPhone, "h2"))
	a, err := repo.Get(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, "h2", a.PasswordHash)
	assert.Equal(t, model.ContactEmail, a.Mode)
}

func TestCodeStore(t *testing.T) {
	store := NewCodeStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "k", "hash", time.Minute))
	v, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "hash", v)

	require.NoError(t, store.Delete(ctx, "k"))
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
