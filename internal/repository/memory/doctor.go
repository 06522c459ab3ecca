package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
)

type doctorRepository struct {
	doctors []*model.Doctor
	byID    map[string]*model.Doctor
	latency time.Duration
}

// NewDoctorRepository serves a fixed directory. Every lookup waits latency
// first, or returns early when the context ends.
func NewDoctorRepository(doctors []*model.Doctor, latency time.Duration) (repository.DoctorRepository, error) {
	byID := make(map[string]*model.Doctor, len(doctors))
	for _, d := range doctors {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate doctor id %q", d.ID)
		}
		byID[d.ID] = d
	}
	return &doctorRepository{doctors: doctors, byID: byID, latency: latency}, nil
}

func (r *doctorRepository) wait(ctx context.Context) error {
	if r.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(r.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (r *doctorRepository) Get(ctx context.Context, id string) (*model.Doctor, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	d, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return d, nil
}

func (r *doctorRepository) List(ctx context.Context) ([]*model.Doctor, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	out := make([]*model.Doctor, len(r.doctors))
	copy(out, r.doctors)
	return out, nil
}
