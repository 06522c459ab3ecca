package booking

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/service/availability"
	apperrors "github.com/jwalitptl/booking-api/pkg/errors"
	"github.com/jwalitptl/booking-api/pkg/validator"
)

// Message keys surfaced by the wizard.
const (
	KeyMissingInformation = "booking.missingInformation"
	KeyUnavailableDay     = "booking.unavailableDay"
	KeyUnavailableTime    = "booking.unavailableTime"
	KeyInvalidType        = "booking.invalidAppointmentType"
	KeyPaymentInFlight    = "booking.paymentInFlight"
	KeyPaymentFailed      = "booking.paymentFailed"
	KeyPaymentCancelled   = "booking.paymentCancelled"
	KeyWizardClosed       = "booking.closed"
	KeyDoctorNotFound     = "booking.doctorNotFound"
)

type EventKind string

const (
	EventTransition     EventKind = "transition"
	EventRejected       EventKind = "rejected"
	EventPaymentStarted EventKind = "payment_started"
	EventPaymentFailed  EventKind = "payment_failed"
	EventFinalized      EventKind = "finalized"
	EventClosed         EventKind = "closed"
)

// Event describes something a wizard did. Observers run after the wizard
// lock is released, in the order the events happened.
type Event struct {
	Kind      EventKind
	SessionID string
	DoctorID  string
	From      model.WizardStep
	To        model.WizardStep
	Err       error
	Booking   *model.FinalizedBooking
	Elapsed   time.Duration
}

type Observer func(Event)

type Options struct {
	Gateway        PaymentGateway
	Validator      validator.Validator
	Observer       Observer
	Now            func() time.Time
	PaymentTimeout time.Duration
	// Subject is the verified patient the booking is made for, if any.
	Subject string
}

// State is a read-only view of a wizard.
type State struct {
	SessionID      string                  `json:"session_id"`
	DoctorID       string                  `json:"doctor_id"`
	DoctorName     string                  `json:"doctor_name"`
	Step           model.WizardStep        `json:"step"`
	Draft          model.BookingDraft      `json:"draft"`
	AvailableDays  []string                `json:"available_days"`
	AvailableTimes []string                `json:"available_times"`
	Fees           model.FeeBreakdown      `json:"fees"`
	PaymentPending bool                    `json:"payment_pending"`
	Closed         bool                    `json:"closed"`
	Booking        *model.FinalizedBooking `json:"booking,omitempty"`
}

// Wizard drives one booking from date selection to confirmation. It is
// safe for concurrent use; actions are applied in the order they acquire
// the wizard.
type Wizard struct {
	id      string
	doctor  *model.Doctor
	opts    Options
	mu      sync.Mutex
	step    model.WizardStep
	draft   model.BookingDraft
	closed  bool
	pending []Event

	finalized *model.FinalizedBooking

	paying     bool
	generation uint64
	cancelPay  context.CancelFunc
}

// NewWizard opens a wizard for doctor. A nil doctor yields a NotFound error
// offering navigation back to search, and no wizard.
func NewWizard(id string, doctor *model.Doctor, opts Options) (*Wizard, error) {
	if doctor == nil {
		return nil, apperrors.NewNotFound("doctor", nil).WithKey(KeyDoctorNotFound).WithNext(model.PathSearch)
	}
	if opts.Gateway == nil {
		opts.Gateway = NewSimulatedGateway(0)
	}
	if opts.Validator == nil {
		opts.Validator = validator.New()
	}
	if opts.Observer == nil {
		opts.Observer = func(Event) {}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if id == "" {
		id = uuid.NewString()
	}

	return &Wizard{
		id:     id,
		doctor: doctor,
		opts:   opts,
		step:   model.StepDateTime,
		draft: model.BookingDraft{
			DoctorID:        doctor.ID,
			AppointmentType: model.AppointmentInPerson,
		},
	}, nil
}

func (w *Wizard) ID() string {
	return w.id
}

// do runs fn under the lock, records a rejection for any error it returns
// and then delivers queued events without holding the lock.
func (w *Wizard) do(fn func() error) error {
	w.mu.Lock()
	err := fn()
	if err != nil {
		w.emit(Event{Kind: EventRejected, From: w.step, To: w.step, Err: err})
	}
	events := w.pending
	w.pending = nil
	w.mu.Unlock()

	for _, ev := range events {
		w.opts.Observer(ev)
	}
	return err
}

// emit must be called with mu held.
func (w *Wizard) emit(ev Event) {
	ev.SessionID = w.id
	ev.DoctorID = w.doctor.ID
	w.pending = append(w.pending, ev)
}

// moveTo must be called with mu held.
func (w *Wizard) moveTo(to model.WizardStep) {
	from := w.step
	w.step = to
	w.emit(Event{Kind: EventTransition, From: from, To: to})
}

// checkMutable must be called with mu held.
func (w *Wizard) checkMutable() error {
	if w.closed {
		return apperrors.NewConflict("booking session is closed").WithKey(KeyWizardClosed)
	}
	if w.paying {
		return apperrors.NewBusy("payment is being processed").WithKey(KeyPaymentInFlight)
	}
	return nil
}

func (w *Wizard) requireStep(step model.WizardStep) error {
	if w.step != step {
		return apperrors.NewConflict("action not available in step " + w.step.String())
	}
	return nil
}

// SelectDay picks a day and always clears the selected time.
func (w *Wizard) SelectDay(day string) error {
	return w.do(func() error {
		if err := w.checkMutable(); err != nil {
			return err
		}
		if err := w.requireStep(model.StepDateTime); err != nil {
			return err
		}
		w.draft.Time = ""
		if !availability.HasDay(w.doctor, day) {
			w.draft.Day = ""
			return apperrors.NewValidation(KeyUnavailableDay, "day is not available",
				apperrors.FieldError{Field: "day", Key: KeyUnavailableDay, Message: "day is not available"})
		}
		w.draft.Day = day
		return nil
	})
}

// SelectTime picks a slot on the selected day.
func (w *Wizard) SelectTime(t string) error {
	return w.do(func() error {
		if err := w.checkMutable(); err != nil {
			return err
		}
		if err := w.requireStep(model.StepDateTime); err != nil {
			return err
		}
		if w.draft.Day == "" {
			return apperrors.NewValidation(KeyMissingInformation, "select a day first",
				apperrors.FieldError{Field: "day", Key: "validation.required", Message: "day is required"})
		}
		if !availability.HasSlot(w.doctor, w.draft.Day, t) {
			return apperrors.NewValidation(KeyUnavailableTime, "time is not available",
				apperrors.FieldError{Field: "time", Key: KeyUnavailableTime, Message: "time is not available"})
		}
		w.draft.Time = t
		return nil
	})
}

// SelectAppointmentType may be changed in any step before confirmation.
func (w *Wizard) SelectAppointmentType(t model.AppointmentType) error {
	return w.do(func() error {
		if err := w.checkMutable(); err != nil {
			return err
		}
		if w.step == model.StepConfirmation {
			return apperrors.NewConflict("booking is already confirmed")
		}
		if !t.Valid() {
			return apperrors.NewValidation(KeyInvalidType, "unknown appointment type",
				apperrors.FieldError{Field: "appointment_type", Key: "validation.oneOf", Message: "appointment_type must be one of in-person video phone"})
		}
		w.draft.AppointmentType = t
		return nil
	})
}

// UpdatePatientInfo replaces the patient details. Validation happens when
// advancing.
func (w *Wizard) UpdatePatientInfo(info model.PatientInfo) error {
	return w.do(func() error {
		if err := w.checkMutable(); err != nil {
			return err
		}
		if err := w.requireStep(model.StepPatientInfo); err != nil {
			return err
		}
		w.draft.Patient = info
		return nil
	})
}

// Advance moves one step forward when the current step's guard holds.
// Leaving Payment charges through the gateway; the call blocks until the
// charge resolves or ctx ends. While it is pending every other action
// except Back and Leave is rejected as busy.
func (w *Wizard) Advance(ctx context.Context) error {
	var (
		gen    uint64
		payCtx context.Context
		req    PaymentRequest
	)

	err := w.do(func() error {
		if err := w.checkMutable(); err != nil {
			return err
		}
		switch w.step {
		case model.StepDateTime:
			var missing []apperrors.FieldError
			if w.draft.Day == "" {
				missing = append(missing, apperrors.FieldError{Field: "day", Key: "validation.required", Message: "day is required"})
			}
			if w.draft.Time == "" {
				missing = append(missing, apperrors.FieldError{Field: "time", Key: "validation.required", Message: "time is required"})
			}
			if len(missing) > 0 {
				return apperrors.NewValidation(KeyMissingInformation, "missing information", missing...)
			}
			w.moveTo(model.StepPatientInfo)
			return nil

		case model.StepPatientInfo:
			if fields := w.opts.Validator.Validate(w.draft.Patient); len(fields) > 0 {
				return apperrors.NewValidation(KeyMissingInformation, "missing information", fields...)
			}
			w.moveTo(model.StepPayment)
			return nil

		case model.StepPayment:
			var cancel context.CancelFunc
			if w.opts.PaymentTimeout > 0 {
				payCtx, cancel = context.WithTimeout(ctx, w.opts.PaymentTimeout)
			} else {
				payCtx, cancel = context.WithCancel(ctx)
			}
			w.paying = true
			w.generation++
			gen = w.generation
			w.cancelPay = cancel
			req = PaymentRequest{
				SessionID: w.id,
				DoctorID:  w.doctor.ID,
				Amount:    Total(w.doctor.ConsultationFee, w.draft.AppointmentType),
				Patient:   w.draft.Patient,
			}
			w.emit(Event{Kind: EventPaymentStarted, From: w.step, To: w.step})
			return nil

		default:
			return apperrors.NewConflict("booking is already confirmed; acknowledge it")
		}
	})
	if err != nil || payCtx == nil {
		return err
	}

	started := w.opts.Now()
	res, payErr := w.opts.Gateway.Charge(payCtx, req)
	elapsed := w.opts.Now().Sub(started)

	return w.do(func() error {
		if gen != w.generation {
			// Back or Leave superseded this attempt; its result is stale.
			return apperrors.NewConflict("payment attempt was cancelled").WithKey(KeyPaymentCancelled)
		}
		w.cancelPay()
		w.paying = false
		w.cancelPay = nil

		if payErr != nil {
			w.emit(Event{Kind: EventPaymentFailed, From: w.step, To: w.step, Err: payErr, Elapsed: elapsed})
			msg := "payment failed"
			if errors.Is(payErr, ErrPaymentDeclined) {
				msg = "payment declined"
			}
			return apperrors.NewTransient(msg, payErr).WithKey(KeyPaymentFailed)
		}

		w.finalized = &model.FinalizedBooking{
			ConfirmationID:   uuid.NewString(),
			SessionID:        w.id,
			Subject:          w.opts.Subject,
			Draft:            w.draft,
			DoctorName:       w.doctor.Name,
			Specialty:        w.doctor.Specialty,
			Fees:             Fees(w.doctor.ConsultationFee, w.draft.AppointmentType),
			PaymentReference: res.Reference,
			FinalizedAt:      w.opts.Now().UTC(),
		}
		w.moveTo(model.StepConfirmation)
		w.emit(Event{Kind: EventFinalized, From: model.StepPayment, To: model.StepConfirmation, Booking: w.finalized, Elapsed: elapsed})
		return nil
	})
}

// cancelPaymentLocked abandons an in-flight charge. Must be called with mu held.
func (w *Wizard) cancelPaymentLocked() {
	if !w.paying {
		return
	}
	w.generation++
	w.cancelPay()
	w.cancelPay = nil
	w.paying = false
	w.emit(Event{Kind: EventPaymentFailed, From: w.step, To: w.step, Err: context.Canceled})
}

// Back moves exactly one step back, keeping every selection. It is
// available from PatientInfo and Payment and abandons a pending charge.
func (w *Wizard) Back() error {
	return w.do(func() error {
		if w.closed {
			return apperrors.NewConflict("booking session is closed").WithKey(KeyWizardClosed)
		}
		switch w.step {
		case model.StepPatientInfo:
			w.moveTo(model.StepDateTime)
		case model.StepPayment:
			w.cancelPaymentLocked()
			w.moveTo(model.StepPatientInfo)
		default:
			return apperrors.NewConflict("back is not available in step " + w.step.String())
		}
		return nil
	})
}

// Acknowledge closes a confirmed wizard and hands over the booking. The
// wizard keeps no reference to it afterwards.
func (w *Wizard) Acknowledge() (*model.FinalizedBooking, error) {
	var booking *model.FinalizedBooking
	err := w.do(func() error {
		if w.closed {
			return apperrors.NewConflict("booking session is closed").WithKey(KeyWizardClosed)
		}
		if err := w.requireStep(model.StepConfirmation); err != nil {
			return err
		}
		booking = w.finalized
		w.finalized = nil
		w.closed = true
		w.emit(Event{Kind: EventClosed, From: w.step, To: w.step, Booking: booking})
		return nil
	})
	return booking, err
}

// Leave abandons the wizard from any open step and returns the path to
// navigate to.
func (w *Wizard) Leave() (string, error) {
	err := w.do(func() error {
		if w.closed {
			return apperrors.NewConflict("booking session is closed").WithKey(KeyWizardClosed)
		}
		w.cancelPaymentLocked()
		w.closed = true
		w.finalized = nil
		w.emit(Event{Kind: EventClosed, From: w.step, To: w.step})
		return nil
	})
	return model.DoctorPath(w.doctor.ID), err
}

// Closed reports whether the wizard was acknowledged or left.
func (w *Wizard) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *Wizard) Snapshot() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	times := []string{}
	if w.draft.Day != "" {
		times = availability.AvailableTimes(w.doctor, w.draft.Day)
	}
	var booking *model.FinalizedBooking
	if w.finalized != nil {
		cp := *w.finalized
		booking = &cp
	}
	return State{
		SessionID:      w.id,
		DoctorID:       w.doctor.ID,
		DoctorName:     w.doctor.Name,
		Step:           w.step,
		Draft:          w.draft,
		AvailableDays:  availability.AvailableDays(w.doctor),
		AvailableTimes: times,
		Fees:           Fees(w.doctor.ConsultationFee, w.draft.AppointmentType),
		PaymentPending: w.paying,
		Closed:         w.closed,
		Booking:        booking,
	}
}
