package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jwalitptl/booking-api/internal/model"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// All repository interfaces in one file
type (
	// DoctorRepository is the read-only doctor directory.
	DoctorRepository interface {
		Get(ctx context.Context, id string) (*model.Doctor, error)
		List(ctx context.Context) ([]*model.Doctor, error)
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		ListBySubject(ctx context.Context, subject string, status model.AppointmentStatus) ([]*model.Appointment, error)
	}

	ProfileRepository interface {
		Save(ctx context.Context, profile *model.PatientProfile) error
		Get(ctx context.Context, subject string) (*model.PatientProfile, error)
	}

	AccountRepository interface {
		Create(ctx context.Context, account *model.Account) error
		Get(ctx context.Context, subject string) (*model.Account, error)
		SetPassword(ctx context.Context, subject string, mode model.ContactMode, hash string) error
	}

	// CodeStore keeps hashed one-time codes until they expire.
	CodeStore interface {
		Save(ctx context.Context, key, hash string, ttl time.Duration) error
		Get(ctx context.Context, key string) (string, error)
		Delete(ctx context.Context, key string) error
	}
)
