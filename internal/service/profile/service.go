package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	"github.com/jwalitptl/booking-api/internal/service/notification"
	apperrors "github.com/jwalitptl/booking-api/pkg/errors"
	"github.com/jwalitptl/booking-api/pkg/logger"
	"github.com/jwalitptl/booking-api/pkg/validator"
)

const (
	KeySaved           = "profile.savedSuccess"
	KeyNotFound        = "profile.notFound"
	KeyFutureBirthDate = "profile.futureBirthDate"
)

type Result struct {
	Profile      *model.PatientProfile `json:"profile"`
	Notification *model.Notification  `json:"notification,omitempty"`
	Next         string               `json:"next,omitempty"`
}

type Service struct {
	repo      repository.ProfileRepository
	validator validator.Validator
	notifier  notification.Service
	logger    *logger.Logger
	now       func() time.Time
}

func NewService(repo repository.ProfileRepository, v validator.Validator, notifier notification.Service, log *logger.Logger) *Service {
	if v == nil {
		v = validator.New()
	}
	if notifier == nil {
		notifier = notification.NewRecorder()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repo: repo, validator: v, notifier: notifier, logger: log, now: time.Now}
}

// Save creates or replaces the medical profile of subject.
func (s *Service) Save(ctx context.Context, subject string, p *model.PatientProfile) (*Result, error) {
	if p == nil {
		return nil, apperrors.NewBadRequest("profile is required", nil)
	}
	p.Subject = subject
	p.FullName = strings.TrimSpace(p.FullName)
	p.BloodType = strings.TrimSpace(p.BloodType)

	fields := s.validator.Validate(p)
	if len(fields) == 0 {
		if dob, err := time.Parse("2006-01-02", p.DateOfBirth); err == nil && dob.After(s.now()) {
			fields = append(fields, apperrors.FieldError{
				Field:   "date_of_birth",
				Key:     KeyFutureBirthDate,
				Message: "date_of_birth cannot be in the future",
			})
		}
	}
	if len(fields) > 0 {
		err := apperrors.NewValidation("validation.invalid", "invalid profile", fields...)
		s.send(ctx, model.NewNotification(model.NotificationError, "validation.invalid"))
		return nil, err
	}

	p.Allergies = cleanList(p.Allergies)
	p.ChronicConditions = cleanList(p.ChronicConditions)
	p.Medications = cleanList(p.Medications)
	if p.EmergencyContact != nil && *p.EmergencyContact == (model.EmergencyContact{}) {
		p.EmergencyContact = nil
	}
	if p.Address != nil && *p.Address == (model.Address{}) {
		p.Address = nil
	}

	if err := s.repo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	return &Result{
		Profile:      p,
		Notification: s.send(ctx, model.NewNotification(model.NotificationSuccess, KeySaved)),
		Next:         model.PathDashboard,
	}, nil
}

func (s *Service) Get(ctx context.Context, subject string) (*model.PatientProfile, error) {
	p, err := s.repo.Get(ctx, subject)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("profile", err).WithKey(KeyNotFound).WithNext(model.PathCreateProfile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

func (s *Service) send(ctx context.Context, n *model.Notification) *model.Notification {
	// the profile is saved either way
	if err := s.notifier.Send(ctx, n); err != nil {
		s.logger.Error(err, "failed to send notification", "key", n.Key)
	}
	return n
}

// cleanList trims entries, drops blanks and keeps the first of any
// case-insensitive duplicates.
func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		k := strings.ToLower(it)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}
