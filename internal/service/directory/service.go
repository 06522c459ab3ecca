// Package directory serves the doctor search and profile views.
package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	"github.com/jwalitptl/booking-api/internal/service/availability"
	apperrors "github.com/jwalitptl/booking-api/pkg/errors"
)

const KeyDoctorNotFound = "directory.doctorNotFound"

// Profile is a doctor with the slots a booking could start from.
type Profile struct {
	Doctor         *model.Doctor `json:"doctor"`
	AvailableDays  []string      `json:"available_days"`
	SelectedDay    string        `json:"selected_day,omitempty"`
	AvailableTimes []string      `json:"available_times"`
	BookingPath    string        `json:"booking_path"`
}

type Service struct {
	repo repository.DoctorRepository
}

func NewService(repo repository.DoctorRepository) *Service {
	return &Service{repo: repo}
}

// Search returns the doctors matching filter in directory order.
func (s *Service) Search(ctx context.Context, filter model.DoctorFilter) ([]*model.Doctor, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}

	doctors, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}

	out := make([]*model.Doctor, 0, len(doctors))
	for _, d := range doctors {
		if filter.Matches(d) {
			out = append(out, d)
		}
	}
	return out, nil
}

// Profile looks up a doctor. When day is set the times for that day are
// included; an unknown day yields no times rather than an error.
func (s *Service) Profile(ctx context.Context, id, day string) (*Profile, error) {
	doctor, err := s.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("doctor", err).WithKey(KeyDoctorNotFound).WithNext(model.PathSearch)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}

	p := &Profile{
		Doctor:         doctor,
		AvailableDays:  availability.AvailableDays(doctor),
		AvailableTimes: []string{},
		BookingPath:    model.BookingPath(doctor.ID),
	}
	if day != "" {
		p.SelectedDay = day
		p.AvailableTimes = availability.AvailableTimes(doctor, day)
	}
	return p, nil
}

// Specialties is the catalogue offered as search filter options.
func (s *Service) Specialties() []model.Specialty {
	return append([]model.Specialty(nil), model.Specialties...)
}

func validateFilter(f model.DoctorFilter) error {
	var fields []apperrors.FieldError
	if f.Specialty != "" {
		known := false
		for _, sp := range model.Specialties {
			if sp == f.Specialty {
				known = true
				break
			}
		}
		if !known {
			fields = append(fields, apperrors.FieldError{Field: "specialty", Key: "validation.oneOf", Message: "unknown specialty"})
		}
	}
	if f.MinRating < 0 || f.MinRating > 5 {
		fields = append(fields, apperrors.FieldError{Field: "min_rating", Key: "validation.invalid", Message: "min_rating must be between 0 and 5"})
	}
	if len(fields) > 0 {
		return apperrors.NewValidation("validation.invalid", "invalid search filter", fields...)
	}
	return nil
}
