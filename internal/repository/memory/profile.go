package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
)

type profileRepository struct {
	mu       sync.RWMutex
	profiles map[string]model.PatientProfile
}

func NewProfileRepository() repository.ProfileRepository {
	return &profileRepository{profiles: make(map[string]model.PatientProfile)}
}

// Save inserts or replaces the profile for its subject.
func (r *profileRepository) Save(ctx context.Context, profile *model.PatientProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := r.profiles[profile.Subject]; ok {
		profile.ID = existing.ID
		profile.CreatedAt = existing.CreatedAt
	} else {
		profile.ID = uuid.New()
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	r.profiles[profile.Subject] = *profile
	return nil
}

func (r *profileRepository) Get(ctx context.Context, subject string) (*model.PatientProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[subject]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}
