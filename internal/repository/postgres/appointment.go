package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	"github.com/jwalitptl/booking-api/pkg/metrics"
)

const uniqueViolation = "23505"

type AppointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(db *sqlx.DB, m *metrics.Metrics) *AppointmentRepository {
	return &AppointmentRepository{BaseRepository: NewBaseRepository(db, m)}
}

var _ repository.AppointmentRepository = (*AppointmentRepository)(nil)

func (r *AppointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, subject, confirmation_id, doctor_id, doctor_name, specialty,
			day, time, type, status, symptoms, notes, total,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	appointment.CreatedAt = time.Now().UTC()
	appointment.UpdatedAt = appointment.CreatedAt

	err := r.observe("appointment_create", func() error {
		_, err := r.db.ExecContext(ctx, query,
			appointment.ID,
			appointment.Subject,
			appointment.ConfirmationID,
			appointment.DoctorID,
			appointment.DoctorName,
			string(appointment.Specialty),
			appointment.Day,
			appointment.Time,
			string(appointment.Type),
			string(appointment.Status),
			appointment.Symptoms,
			appointment.Notes,
			appointment.Total,
			appointment.CreatedAt,
			appointment.UpdatedAt,
		)
		return err
	})
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return repository.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *AppointmentRepository) ListBySubject(ctx context.Context, subject string, status model.AppointmentStatus) ([]*model.Appointment, error) {
	query := `
		SELECT id, subject, confirmation_id, doctor_id, doctor_name, specialty,
			   day, time, type, status, symptoms, notes, total,
			   created_at, updated_at
		FROM appointments
		WHERE subject = $1
	`
	args := []interface{}{subject}
	if status != "" {
		query += " AND status = $2"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at ASC"

	appointments := []*model.Appointment{}
	err := r.observe("appointment_list", func() error {
		return r.db.SelectContext(ctx, &appointments, query, args...)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}
