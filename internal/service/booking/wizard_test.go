package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/booking-api/internal/model"
	apperrors "github.com/jwalitptl/booking-api/pkg/errors"
)

func testDoctor() *model.Doctor {
	return &model.Doctor{
		ID:              "1",
		Name:            "Dr. Sarah Johnson",
		Specialty:       model.SpecialtyCardiology,
		ConsultationFee: 150,
		Availability: model.Availability{
			{Day: "Monday", Times: []string{"09:00", "10:00", "11:00"}},
			{Day: "Tuesday", Times: []string{"14:00", "15:00"}},
			{Day: "Sunday", Times: []string{}},
		},
	}
}

func validPatient() model.PatientInfo {
	return model.PatientInfo{Name: "Jane Doe", Email: "jane@example.com", Phone: "+1 555 0100"}
}

// blockingGateway holds every charge until released.
type blockingGateway struct {
	started chan struct{}
	release chan error
	calls   int
	mu      sync.Mutex
}

func newBlockingGateway() *blockingGateway {
	return &blockingGateway{started: make(chan struct{}, 4), release: make(chan error, 4)}
}

func (g *blockingGateway) Charge(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	g.started <- struct{}{}
	select {
	case err := <-g.release:
		if err != nil {
			return nil, err
		}
		return &PaymentResult{Reference: "ref", Amount: req.Amount}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type failingGateway struct{ err error }

func (g failingGateway) Charge(context.Context, PaymentRequest) (*PaymentResult, error) {
	return nil, g.err
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) observe(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventKind, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

func newTestWizard(t *testing.T, opts Options) *Wizard {
	t.Helper()
	w, err := NewWizard("sess-1", testDoctor(), opts)
	require.NoError(t, err)
	return w
}

func toPayment(t *testing.T, w *Wizard, typ model.AppointmentType) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, w.SelectDay("Monday"))
	require.NoError(t, w.SelectTime("10:00"))
	require.NoError(t, w.SelectAppointmentType(typ))
	require.NoError(t, w.Advance(ctx))
	require.NoError(t, w.UpdatePatientInfo(validPatient()))
	require.NoError(t, w.Advance(ctx))
	require.Equal(t, model.StepPayment, w.Snapshot().Step)
}

func TestNewWizardUnknownDoctor(t *testing.T) {
	w, err := NewWizard("x", nil, Options{})
	assert.Nil(t, w)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
	assert.Equal(t, model.PathSearch, appErr.Next)
}

func TestWizardHappyPathInPerson(t *testing.T) {
	rec := &recorder{}
	w := newTestWizard(t, Options{Observer: rec.observe, Subject: "jane@example.com"})

	state := w.Snapshot()
	assert.Equal(t, model.StepDateTime, state.Step)
	assert.Equal(t, model.AppointmentInPerson, state.Draft.AppointmentType)
	assert.Equal(t, []string{"Monday", "Tuesday", "Sunday"}, state.AvailableDays)
	assert.Empty(t, state.AvailableTimes)

	toPayment(t, w, model.AppointmentInPerson)
	require.NoError(t, w.Advance(context.Background()))

	state = w.Snapshot()
	assert.Equal(t, model.StepConfirmation, state.Step)
	require.NotNil(t, state.Booking)
	assert.Equal(t, 150.0, state.Booking.Fees.Total)
	assert.Equal(t, 0.0, state.Booking.Fees.PlatformFee)
	assert.Equal(t, "Monday", state.Booking.Draft.Day)
	assert.Equal(t, "10:00", state.Booking.Draft.Time)
	assert.Equal(t, "jane@example.com", state.Booking.Subject)
	assert.NotEmpty(t, state.Booking.ConfirmationID)

	booking, err := w.Acknowledge()
	require.NoError(t, err)
	require.NotNil(t, booking)
	assert.True(t, w.Closed())
	assert.Nil(t, w.Snapshot().Booking)

	assert.Contains(t, rec.kinds(), EventFinalized)
	assert.Equal(t, EventClosed, rec.kinds()[len(rec.kinds())-1])
}

func TestWizardVideoAddsPlatformFee(t *testing.T) {
	w := newTestWizard(t, Options{})
	toPayment(t, w, model.AppointmentVideo)
	assert.Equal(t, 155.0, w.Snapshot().Fees.Total)

	require.NoError(t, w.Advance(context.Background()))
	booking := w.Snapshot().Booking
	require.NotNil(t, booking)
	assert.Equal(t, 150.0, booking.Fees.ConsultationFee)
	assert.Equal(t, 5.0, booking.Fees.PlatformFee)
	assert.Equal(t, 155.0, booking.Fees.Total)
}

func TestWizardAdvanceWithoutTime(t *testing.T) {
	rec := &recorder{}
	w := newTestWizard(t, Options{Observer: rec.observe})
	require.NoError(t, w.SelectDay("Monday"))

	err := w.Advance(context.Background())
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)
	assert.Equal(t, KeyMissingInformation, appErr.Key)
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, "time", appErr.Fields[0].Field)

	assert.Equal(t, model.StepDateTime, w.Snapshot().Step)
	assert.Equal(t, []EventKind{EventRejected}, rec.kinds())
}

func TestWizardSelectDayClearsTime(t *testing.T) {
	w := newTestWizard(t, Options{})
	require.NoError(t, w.SelectDay("Monday"))
	require.NoError(t, w.SelectTime("09:00"))
	assert.Equal(t, []string{"09:00", "10:00", "11:00"}, w.Snapshot().AvailableTimes)

	require.NoError(t, w.SelectDay("Tuesday"))
	state := w.Snapshot()
	assert.Equal(t, "Tuesday", state.Draft.Day)
	assert.Empty(t, state.Draft.Time)
	assert.Equal(t, []string{"14:00", "15:00"}, state.AvailableTimes)

	// Reselecting the same day still clears the time.
	require.NoError(t, w.SelectTime("14:00"))
	require.NoError(t, w.SelectDay("Tuesday"))
	assert.Empty(t, w.Snapshot().Draft.Time)
}

func TestWizardRejectsUnknownSlots(t *testing.T) {
	w := newTestWizard(t, Options{})

	assert.True(t, apperrors.Is(w.SelectDay("Saturday"), apperrors.ErrValidation))
	assert.True(t, apperrors.Is(w.SelectTime("09:00"), apperrors.ErrValidation))

	require.NoError(t, w.SelectDay("Monday"))
	assert.True(t, apperrors.Is(w.SelectTime("14:00"), apperrors.ErrValidation))

	require.NoError(t, w.SelectDay("Sunday"))
	assert.Empty(t, w.Snapshot().AvailableTimes)
	assert.True(t, apperrors.Is(w.Advance(context.Background()), apperrors.ErrValidation))
}

func TestWizardPatientInfoGuard(t *testing.T) {
	w := newTestWizard(t, Options{})
	ctx := context.Background()
	require.NoError(t, w.SelectDay("Monday"))
	require.NoError(t, w.SelectTime("09:00"))
	require.NoError(t, w.Advance(ctx))

	require.NoError(t, w.UpdatePatientInfo(model.PatientInfo{Name: "Jane", Email: "   ", Phone: ""}))
	err := w.Advance(ctx)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, KeyMissingInformation, appErr.Key)
	require.Len(t, appErr.Fields, 2)
	assert.Equal(t, "email", appErr.Fields[0].Field)
	assert.Equal(t, "phone", appErr.Fields[1].Field)
	assert.Equal(t, model.StepPatientInfo, w.Snapshot().Step)

	require.NoError(t, w.UpdatePatientInfo(validPatient()))
	require.NoError(t, w.Advance(ctx))
	assert.Equal(t, model.StepPayment, w.Snapshot().Step)
}

func TestWizardBackKeepsSelections(t *testing.T) {
	w := newTestWizard(t, Options{})
	toPayment(t, w, model.AppointmentPhone)

	require.NoError(t, w.Back())
	assert.Equal(t, model.StepPatientInfo, w.Snapshot().Step)
	require.NoError(t, w.Back())

	state := w.Snapshot()
	assert.Equal(t, model.StepDateTime, state.Step)
	assert.Equal(t, "Monday", state.Draft.Day)
	assert.Equal(t, "10:00", state.Draft.Time)
	assert.Equal(t, model.AppointmentPhone, state.Draft.AppointmentType)
	assert.Equal(t, validPatient(), state.Draft.Patient)

	assert.True(t, apperrors.Is(w.Back(), apperrors.ErrConflict))

	require.NoError(t, w.Advance(context.Background()))
	require.NoError(t, w.Advance(context.Background()))
	assert.Equal(t, model.StepPayment, w.Snapshot().Step)
}

func TestWizardStepScopedActions(t *testing.T) {
	w := newTestWizard(t, Options{})
	assert.True(t, apperrors.Is(w.UpdatePatientInfo(validPatient()), apperrors.ErrConflict))

	toPayment(t, w, model.AppointmentInPerson)
	assert.True(t, apperrors.Is(w.SelectDay("Tuesday"), apperrors.ErrConflict))

	// The appointment type stays editable until confirmation.
	require.NoError(t, w.SelectAppointmentType(model.AppointmentVideo))
	assert.Equal(t, 155.0, w.Snapshot().Fees.Total)
	assert.True(t, apperrors.Is(w.SelectAppointmentType("house-call"), apperrors.ErrValidation))
}

func TestWizardConfirmationRules(t *testing.T) {
	w := newTestWizard(t, Options{})
	toPayment(t, w, model.AppointmentInPerson)
	require.NoError(t, w.Advance(context.Background()))

	assert.True(t, apperrors.Is(w.Back(), apperrors.ErrConflict))
	assert.True(t, apperrors.Is(w.Advance(context.Background()), apperrors.ErrConflict))
	err := w.SelectAppointmentType(model.AppointmentVideo)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
	assert.Contains(t, err.Error(), "already confirmed")
	assert.Equal(t, model.AppointmentInPerson, w.Snapshot().Draft.AppointmentType)
	assert.Equal(t, model.StepConfirmation, w.Snapshot().Step)

	_, err = w.Acknowledge()
	require.NoError(t, err)
	_, err = w.Acknowledge()
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
	assert.True(t, apperrors.Is(w.SelectDay("Monday"), apperrors.ErrConflict))
}

func TestWizardAcknowledgeOnlyInConfirmation(t *testing.T) {
	w := newTestWizard(t, Options{})
	booking, err := w.Acknowledge()
	assert.Nil(t, booking)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
	assert.False(t, w.Closed())
}

func TestWizardPaymentFailureStaysInPayment(t *testing.T) {
	rec := &recorder{}
	w := newTestWizard(t, Options{Gateway: failingGateway{err: ErrPaymentDeclined}, Observer: rec.observe})
	toPayment(t, w, model.AppointmentInPerson)

	err := w.Advance(context.Background())
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrTransient, appErr.Code)
	assert.Equal(t, KeyPaymentFailed, appErr.Key)
	assert.True(t, errors.Is(err, ErrPaymentDeclined))

	state := w.Snapshot()
	assert.Equal(t, model.StepPayment, state.Step)
	assert.False(t, state.PaymentPending)
	assert.Nil(t, state.Booking)
	assert.Contains(t, rec.kinds(), EventPaymentFailed)
}

func TestWizardPaymentLocksOutForwardActions(t *testing.T) {
	gw := newBlockingGateway()
	w := newTestWizard(t, Options{Gateway: gw})
	toPayment(t, w, model.AppointmentInPerson)

	done := make(chan error, 1)
	go func() { done <- w.Advance(context.Background()) }()
	<-gw.started

	assert.True(t, w.Snapshot().PaymentPending)
	assert.True(t, apperrors.Is(w.Advance(context.Background()), apperrors.ErrBusy))
	assert.True(t, apperrors.Is(w.SelectAppointmentType(model.AppointmentVideo), apperrors.ErrBusy))

	gw.release <- nil
	require.NoError(t, <-done)
	assert.Equal(t, model.StepConfirmation, w.Snapshot().Step)
	assert.Equal(t, 1, gw.calls)
}

func TestWizardBackCancelsPayment(t *testing.T) {
	gw := newBlockingGateway()
	rec := &recorder{}
	w := newTestWizard(t, Options{Gateway: gw, Observer: rec.observe})
	toPayment(t, w, model.AppointmentInPerson)

	done := make(chan error, 1)
	go func() { done <- w.Advance(context.Background()) }()
	<-gw.started

	require.NoError(t, w.Back())

	err := <-done
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, KeyPaymentCancelled, appErr.Key)

	state := w.Snapshot()
	assert.Equal(t, model.StepPatientInfo, state.Step)
	assert.False(t, state.PaymentPending)
	assert.Nil(t, state.Booking)
	assert.NotContains(t, rec.kinds(), EventFinalized)
}

func TestWizardLeaveDuringPayment(t *testing.T) {
	gw := newBlockingGateway()
	w := newTestWizard(t, Options{Gateway: gw})
	toPayment(t, w, model.AppointmentInPerson)

	done := make(chan error, 1)
	go func() { done <- w.Advance(context.Background()) }()
	<-gw.started

	next, err := w.Leave()
	require.NoError(t, err)
	assert.Equal(t, "/doctors/1", next)

	assert.True(t, apperrors.Is(<-done, apperrors.ErrConflict))
	assert.True(t, w.Closed())
	assert.Nil(t, w.Snapshot().Booking)
}

func TestWizardPaymentTimeout(t *testing.T) {
	gw := newBlockingGateway()
	w := newTestWizard(t, Options{Gateway: gw, PaymentTimeout: 10 * time.Millisecond})
	toPayment(t, w, model.AppointmentInPerson)

	err := w.Advance(context.Background())
	assert.True(t, apperrors.Is(err, apperrors.ErrTransient))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, model.StepPayment, w.Snapshot().Step)
}

func TestWizardLeaveFromAnyStep(t *testing.T) {
	w := newTestWizard(t, Options{})
	next, err := w.Leave()
	require.NoError(t, err)
	assert.Equal(t, model.DoctorPath("1"), next)

	_, err = w.Leave()
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}
