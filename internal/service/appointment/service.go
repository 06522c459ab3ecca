package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	apperrors "github.com/jwalitptl/booking-api/pkg/errors"
)

type Service struct {
	repo repository.AppointmentRepository
	now  func() time.Time
}

func NewService(repo repository.AppointmentRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Record stores an acknowledged booking as an upcoming appointment for
// subject. Recording the same confirmation twice is a conflict.
func (s *Service) Record(ctx context.Context, subject string, booking *model.FinalizedBooking) (*model.Appointment, error) {
	if booking == nil {
		return nil, apperrors.NewBadRequest("booking is required", nil)
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, apperrors.NewBadRequest("appointment owner is required", nil)
	}

	now := s.now().UTC()
	apt := &model.Appointment{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Subject:        subject,
		ConfirmationID: booking.ConfirmationID,
		DoctorID:       booking.Draft.DoctorID,
		DoctorName:     booking.DoctorName,
		Specialty:      booking.Specialty,
		Day:            booking.Draft.Day,
		Time:           booking.Draft.Time,
		Type:           booking.Draft.AppointmentType,
		Status:         model.AppointmentStatusUpcoming,
		Symptoms:       booking.Draft.Patient.Symptoms,
		Notes:          booking.Draft.Patient.Notes,
		Total:          booking.Fees.Total,
	}

	if err := s.repo.Create(ctx, apt); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("appointment already recorded")
		}
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}
	return apt, nil
}

// List returns subject's appointments for a dashboard tab
// (all, upcoming, completed or cancelled).
func (s *Service) List(ctx context.Context, subject, tab string) ([]*model.Appointment, error) {
	status, err := model.ParseStatusFilter(tab)
	if err != nil {
		return nil, apperrors.NewValidation("validation.oneOf", err.Error(), apperrors.FieldError{
			Field:   "status",
			Key:     "validation.oneOf",
			Message: "status must be one of all upcoming completed cancelled",
		})
	}

	appointments, err := s.repo.ListBySubject(ctx, subject, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	if appointments == nil {
		appointments = []*model.Appointment{}
	}
	return appointments, nil
}
