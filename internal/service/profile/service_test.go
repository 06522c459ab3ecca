package profile

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository/memory"
	"github.com/jwalitptl/booking-api/internal/service/notification"
	apperrors "github.com/jwalitptl/booking-api/pkg/errors"
	"github.com/jwalitptl/booking-api/pkg/logger"
)

func newService() (*Service, *notification.Recorder) {
	notes := notification.NewRecorder()
	svc := NewService(memory.NewProfileRepository(), nil, notes, nil)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc, notes
}

func TestSaveCleansAndNotifies(t *testing.T) {
	svc, notes := newService()
	ctx := context.Background()

	res, err := svc.Save(ctx, "jane@example.com", &model.PatientProfile{
		FullName:         "  Jane Doe ",
		DateOfBirth:      "1990-05-17",
		Gender:           model.GenderFemale,
		BloodType:        "O+",
		Allergies:        []string{"Penicillin", " ", "penicillin", "Peanuts"},
		Medications:      nil,
		EmergencyContact: &model.EmergencyContact{},
		Address:          &model.Address{City: "Boston"},
	})
	require.NoError(t, err)
	assert.Equal(t, "/dashboard", res.Next)
	assert.Equal(t, "Jane Doe", res.Profile.FullName)
	assert.Equal(t, []string{"Penicillin", "Peanuts"}, res.Profile.Allergies)
	assert.Equal(t, []string{}, res.Profile.Medications)
	assert.Nil(t, res.Profile.EmergencyContact)
	require.NotNil(t, res.Profile.Address)
	assert.Equal(t, []string{KeySaved}, notes.Keys())

	got, err := svc.Get(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, res.Profile.ID, got.ID)
}

func TestSaveValidation(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	_, err := svc.Save(ctx, "s", &model.PatientProfile{FullName: " ", DateOfBirth: "17/05/1990", Gender: "unknown", BloodType: "C+"})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	fields := map[string]string{}
	for _, f := range appErr.Fields {
		fields[f.Field] = f.Key
	}
	assert.Equal(t, "validation.required", fields["full_name"])
	assert.Equal(t, "validation.date", fields["date_of_birth"])
	assert.Equal(t, "validation.oneOf", fields["gender"])
	assert.Equal(t, "validation.oneOf", fields["blood_type"])

	_, err = svc.Save(ctx, "s", &model.PatientProfile{FullName: "Jane", DateOfBirth: "2030-01-01", Gender: model.GenderOther})
	appErr, ok = apperrors.As(err)
	require.True(t, ok)
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, KeyFutureBirthDate, appErr.Fields[0].Key)
}

func TestGetMissingProfile(t *testing.T) {
	svc, _ := newService()
	_, err := svc.Get(context.Background(), "nobody")
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "/create-profile", appErr.Next)
}

type failingNotifier struct{}

func (failingNotifier) Send(context.Context, *model.Notification) error {
	return errors.New("broker unavailable")
}

func TestSaveLogsNotificationFailure(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLogger(&logger.Config{Level: logger.InfoLevel, Output: &buf})
	svc := NewService(memory.NewProfileRepository(), nil, failingNotifier{}, log)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }

	res, err := svc.Save(context.Background(), "jane@example.com", &model.PatientProfile{
		FullName:    "Jane Doe",
		DateOfBirth: "1990-05-17",
		Gender:      model.GenderFemale,
	})
	require.NoError(t, err)
	assert.Equal(t, KeySaved, res.Notification.Key)
	assert.Contains(t, buf.String(), "failed to send notification")
	assert.Contains(t, buf.String(), "broker unavailable")
	assert.Contains(t, buf.String(), KeySaved)

	saved, err := svc.Get(context.Background(), "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", saved.FullName)
}
