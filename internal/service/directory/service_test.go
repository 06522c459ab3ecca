package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository/memory"
	"github.com/jwalitptl/booking-api/internal/repository/seed"
	apperrors "github.com/jwalitptl/booking-api/pkg/errors"
)

func newService(t *testing.T) *Service {
	t.Helper()
	doctors, err := seed.Doctors()
	require.NoError(t, err)
	repo, err := memory.NewDoctorRepository(doctors, 0)
	require.NoError(t, err)
	return NewService(repo)
}

func ids(doctors []*model.Doctor) []string {
	out := make([]string, 0, len(doctors))
	for _, d := range doctors {
		out = append(out, d.ID)
	}
	return out
}

func TestSearchFilters(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	all, err := svc.Search(ctx, model.DoctorFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6"}, ids(all))

	byName, err := svc.Search(ctx, model.DoctorFilter{Query: "  chen "})
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, ids(byName))

	bySpecialty, err := svc.Search(ctx, model.DoctorFilter{Specialty: model.SpecialtyOrthopedics})
	require.NoError(t, err)
	assert.Equal(t, []string{"4"}, ids(bySpecialty))

	onWednesday, err := svc.Search(ctx, model.DoctorFilter{Day: "Wednesday"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3", "5"}, ids(onWednesday))
}

func TestSearchRejectsBadFilter(t *testing.T) {
	svc := newService(t)
	_, err := svc.Search(context.Background(), model.DoctorFilter{Specialty: "Astrology", MinRating: 7})

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)
	assert.Len(t, appErr.Fields, 2)
}

func TestProfile(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	p, err := svc.Profile(ctx, "4", "")
	require.NoError(t, err)
	assert.Equal(t, "Dr. James Wilson", p.Doctor.Name)
	assert.Equal(t, []string{"Tuesday", "Thursday", "Friday"}, p.AvailableDays)
	assert.Empty(t, p.AvailableTimes)

	p, err = svc.Profile(ctx, "4", "Friday")
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "10:00", "11:00"}, p.AvailableTimes)

	p, err = svc.Profile(ctx, "4", "Monday")
	require.NoError(t, err)
	assert.NotNil(t, p.AvailableTimes)
	assert.Empty(t, p.AvailableTimes)
}

func TestProfileUnknownDoctor(t *testing.T) {
	_, err := newService(t).Profile(context.Background(), "42", "")
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
	assert.Equal(t, "/search", appErr.Next)
}

func TestSpecialtiesIsACopy(t *testing.T) {
	svc := newService(t)
	list := svc.Specialties()
	require.NotEmpty(t, list)
	list[0] = "Changed"
	assert.Equal(t, model.SpecialtyCardiology, svc.Specialties()[0])
}
