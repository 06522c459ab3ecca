package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
)

type appointmentRepository struct {
	mu        sync.RWMutex
	bySubject map[string][]*model.Appointment
}

func NewAppointmentRepository() repository.AppointmentRepository {
	return &appointmentRepository{bySubject: make(map[string][]*model.Appointment)}
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	now := time.Now().UTC()
	appointment.CreatedAt = now
	appointment.UpdatedAt = now

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.bySubject[appointment.Subject] {
		if a.ConfirmationID == appointment.ConfirmationID {
			return repository.ErrDuplicate
		}
	}
	stored := *appointment
	r.bySubject[appointment.Subject] = append(r.bySubject[appointment.Subject], &stored)
	return nil
}

func (r *appointmentRepository) ListBySubject(ctx context.Context, subject string, status model.AppointmentStatus) ([]*model.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Appointment, 0, len(r.bySubject[subject]))
	for _, a := range r.bySubject[subject] {
		if status != "" && a.Status != status {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}
