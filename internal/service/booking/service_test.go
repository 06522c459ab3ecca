package booking

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository/memory"
	"github.com/jwalitptl/booking-api/internal/repository/seed"
	"github.com/jwalitptl/booking-api/internal/service/appointment"
	"github.com/jwalitptl/booking-api/internal/service/notification"
	apperrors "github.com/jwalitptl/booking-api/pkg/errors"
	"github.com/jwalitptl/booking-api/pkg/messaging"
	"github.com/jwalitptl/booking-api/pkg/metrics"
)

type serviceFixture struct {
	svc          *Service
	notes        *notification.Recorder
	appointments *appointment.Service
	broker       *messaging.MemoryBroker
	metrics      *metrics.Metrics
}

func newServiceFixture(t *testing.T, cfg Config, gw PaymentGateway) *serviceFixture {
	t.Helper()
	doctors, err := seed.Doctors()
	require.NoError(t, err)
	repo, err := memory.NewDoctorRepository(doctors, 0)
	require.NoError(t, err)

	f := &serviceFixture{
		notes:        notification.NewRecorder(),
		appointments: appointment.NewService(memory.NewAppointmentRepository()),
		broker:       messaging.NewMemoryBroker(),
		metrics:      metrics.NewNop(),
	}
	t.Cleanup(func() { _ = f.broker.Close() })

	f.svc = NewService(Dependencies{
		Doctors:      repo,
		Appointments: f.appointments,
		Gateway:      gw,
		Notifier:     f.notes,
		Broker:       f.broker,
		Metrics:      f.metrics,
	}, cfg)
	return f
}

func TestServiceStartUnknownDoctor(t *testing.T) {
	f := newServiceFixture(t, Config{}, nil)

	res, err := f.svc.Start(context.Background(), "999", "")
	assert.Nil(t, res)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
	assert.Equal(t, "/search", appErr.Next)
	assert.Equal(t, 0, f.svc.ActiveSessions())
	assert.Equal(t, []string{KeyDoctorNotFound}, f.notes.Keys())
}

func TestServiceFullBooking(t *testing.T) {
	f := newServiceFixture(t, Config{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	finalized, err := f.broker.Subscribe(ctx, messaging.TopicBookingFinalized)
	require.NoError(t, err)

	res, err := f.svc.Start(ctx, "1", "")
	require.NoError(t, err)
	id := res.State.SessionID
	assert.Equal(t, 1, f.svc.ActiveSessions())
	assert.Equal(t, "Dr. Sarah Johnson", res.State.DoctorName)

	_, err = f.svc.SelectDay(ctx, id, "Monday")
	require.NoError(t, err)
	_, err = f.svc.SelectTime(ctx, id, "10:00")
	require.NoError(t, err)
	_, err = f.svc.SelectAppointmentType(ctx, id, model.AppointmentVideo)
	require.NoError(t, err)
	_, err = f.svc.Advance(ctx, id)
	require.NoError(t, err)
	_, err = f.svc.UpdatePatientInfo(ctx, id, model.PatientInfo{Name: "Jane Doe", Email: "Jane@Example.com", Phone: "5550100"})
	require.NoError(t, err)
	_, err = f.svc.Advance(ctx, id)
	require.NoError(t, err)

	res, err = f.svc.Advance(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StepConfirmation, res.State.Step)
	require.NotNil(t, res.Notification)
	assert.Equal(t, KeyBookingConfirmed, res.Notification.Key)
	assert.Equal(t, model.NotificationSuccess, res.Notification.Kind)

	res, err = f.svc.Acknowledge(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "/dashboard", res.Next)
	require.NotNil(t, res.Booking)
	assert.Equal(t, 155.0, res.Booking.Fees.Total)
	require.NotNil(t, res.Appointment)
	assert.Equal(t, "jane@example.com", res.Appointment.Subject)
	assert.Equal(t, 0, f.svc.ActiveSessions())

	listed, err := f.appointments.List(ctx, "jane@example.com", "upcoming")
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	select {
	case raw := <-finalized:
		var got model.FinalizedBooking
		_, err := messaging.Decode(raw, &got)
		require.NoError(t, err)
		assert.Equal(t, res.Booking.ConfirmationID, got.ConfirmationID)
	case <-time.After(time.Second):
		t.Fatal("booking.finalized was not published")
	}

	_, err = f.svc.Get(ctx, id)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.BookingsFinalized.WithLabelValues("video")))
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.ActiveSessions.WithLabelValues("booking")))
}

func TestServiceValidationFailureNotifies(t *testing.T) {
	f := newServiceFixture(t, Config{}, nil)
	ctx := context.Background()

	res, err := f.svc.Start(ctx, "3", "")
	require.NoError(t, err)
	id := res.State.SessionID

	_, err = f.svc.SelectDay(ctx, id, "Monday")
	require.NoError(t, err)
	_, err = f.svc.Advance(ctx, id)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))

	sent := f.notes.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, model.NotificationError, sent[0].Kind)
	assert.Equal(t, KeyMissingInformation, sent[0].Key)
	assert.Equal(t, id, sent[0].SessionID)

	got, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StepDateTime, got.State.Step)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ValidationFailures.WithLabelValues("booking", "date_time")))
}

func TestServiceLeave(t *testing.T) {
	f := newServiceFixture(t, Config{}, nil)
	ctx := context.Background()

	res, err := f.svc.Start(ctx, "4", "")
	require.NoError(t, err)

	res, err = f.svc.Leave(ctx, res.State.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "/doctors/4", res.Next)
	assert.True(t, res.State.Closed)
	assert.Equal(t, 0, f.svc.ActiveSessions())
}

func TestServiceExpiryCancelsPayment(t *testing.T) {
	gw := newBlockingGateway()
	f := newServiceFixture(t, Config{SessionTTL: 50 * time.Millisecond, CleanupInterval: 10 * time.Millisecond}, gw)
	ctx := context.Background()

	res, err := f.svc.Start(ctx, "1", "patient-1")
	require.NoError(t, err)
	id := res.State.SessionID

	_, err = f.svc.SelectDay(ctx, id, "Monday")
	require.NoError(t, err)
	_, err = f.svc.SelectTime(ctx, id, "09:00")
	require.NoError(t, err)
	_, err = f.svc.Advance(ctx, id)
	require.NoError(t, err)
	_, err = f.svc.UpdatePatientInfo(ctx, id, model.PatientInfo{Name: "A", Email: "a@b.co", Phone: "5550100"})
	require.NoError(t, err)
	_, err = f.svc.Advance(ctx, id)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Advance(ctx, id)
		done <- err
	}()
	<-gw.started

	select {
	case err := <-done:
		assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
	case <-time.After(2 * time.Second):
		t.Fatal("expired session did not cancel the payment")
	}
	assert.Equal(t, 0, f.svc.ActiveSessions())
}
