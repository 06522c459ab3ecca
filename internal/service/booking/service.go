package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	"github.com/jwalitptl/booking-api/internal/service/notification"
	apperrors "github.com/jwalitptl/booking-api/pkg/errors"
	"github.com/jwalitptl/booking-api/pkg/logger"
	"github.com/jwalitptl/booking-api/pkg/messaging"
	"github.com/jwalitptl/booking-api/pkg/metrics"
	"github.com/jwalitptl/booking-api/pkg/validator"
)

const (
	KeyBookingConfirmed    = "booking.confirmed"
	KeyBookingAcknowledged = "booking.acknowledged"
	KeySessionNotFound     = "booking.sessionNotFound"
)

// Recorder stores acknowledged bookings for the appointment dashboard.
type Recorder interface {
	Record(ctx context.Context, subject string, booking *model.FinalizedBooking) (*model.Appointment, error)
}

type Config struct {
	SessionTTL      time.Duration
	CleanupInterval time.Duration
	PaymentTimeout  time.Duration
}

type Dependencies struct {
	Doctors      repository.DoctorRepository
	Appointments Recorder
	Gateway      PaymentGateway
	Notifier     notification.Service
	// Broker receives booking.finalized events. Optional.
	Broker    messaging.Broker
	Metrics   *metrics.Metrics
	Logger    *logger.Logger
	Validator validator.Validator
}

// Result is what every booking action hands back to the caller.
type Result struct {
	State        State                   `json:"state"`
	Notification *model.Notification     `json:"notification,omitempty"`
	Next         string                  `json:"next,omitempty"`
	Booking      *model.FinalizedBooking `json:"booking,omitempty"`
	Appointment  *model.Appointment      `json:"appointment,omitempty"`
}

// Service keeps one wizard per booking session. Idle sessions expire after
// SessionTTL and any pending payment is abandoned with them.
type Service struct {
	deps     Dependencies
	cfg      Config
	sessions *cache.Cache
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}
	if deps.Gateway == nil {
		deps.Gateway = NewSimulatedGateway(0)
	}
	if deps.Notifier == nil {
		deps.Notifier = notification.NewRecorder()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewNop()
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}

	s := &Service{
		deps:     deps,
		cfg:      cfg,
		sessions: cache.New(cfg.SessionTTL, cfg.CleanupInterval),
	}
	s.sessions.OnEvicted(func(_ string, v interface{}) {
		if w, ok := v.(*Wizard); ok && !w.Closed() {
			_, _ = w.Leave()
		}
		s.deps.Metrics.ActiveSessions.WithLabelValues("booking").Dec()
	})
	return s
}

// Start opens a booking session for doctorID. An unknown doctor creates no
// session and points the caller back to search.
func (s *Service) Start(ctx context.Context, doctorID, subject string) (*Result, error) {
	doctor, err := s.deps.Doctors.Get(ctx, doctorID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to load doctor: %w", err)
	}

	id := uuid.NewString()
	w, err := NewWizard(id, doctor, Options{
		Gateway:        s.deps.Gateway,
		Validator:      s.deps.Validator,
		Observer:       s.observe,
		PaymentTimeout: s.cfg.PaymentTimeout,
		Subject:        subject,
	})
	if err != nil {
		s.notify(ctx, "", errorNotification(err))
		return nil, err
	}

	s.sessions.Set(id, w, cache.DefaultExpiration)
	s.deps.Metrics.ActiveSessions.WithLabelValues("booking").Inc()
	s.deps.Logger.Info("booking session started", "session_id", id, "doctor_id", doctorID)

	return &Result{State: w.Snapshot()}, nil
}

func (s *Service) Get(ctx context.Context, sessionID string) (*Result, error) {
	w, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return &Result{State: w.Snapshot()}, nil
}

func (s *Service) SelectDay(ctx context.Context, sessionID, day string) (*Result, error) {
	return s.apply(ctx, sessionID, func(w *Wizard) error { return w.SelectDay(day) })
}

func (s *Service) SelectTime(ctx context.Context, sessionID, t string) (*Result, error) {
	return s.apply(ctx, sessionID, func(w *Wizard) error { return w.SelectTime(t) })
}

func (s *Service) SelectAppointmentType(ctx context.Context, sessionID string, t model.AppointmentType) (*Result, error) {
	return s.apply(ctx, sessionID, func(w *Wizard) error { return w.SelectAppointmentType(t) })
}

func (s *Service) UpdatePatientInfo(ctx context.Context, sessionID string, info model.PatientInfo) (*Result, error) {
	return s.apply(ctx, sessionID, func(w *Wizard) error { return w.UpdatePatientInfo(info) })
}

func (s *Service) Back(ctx context.Context, sessionID string) (*Result, error) {
	return s.apply(ctx, sessionID, func(w *Wizard) error { return w.Back() })
}

// Advance moves the session forward. From Payment it blocks while the
// gateway confirms the charge.
func (s *Service) Advance(ctx context.Context, sessionID string) (*Result, error) {
	res, err := s.apply(ctx, sessionID, func(w *Wizard) error { return w.Advance(ctx) })
	if err != nil {
		return nil, err
	}
	if res.State.Step == model.StepConfirmation && res.State.Booking != nil {
		n := model.NewNotification(model.NotificationSuccess, KeyBookingConfirmed).
			With("confirmation_id", res.State.Booking.ConfirmationID)
		res.Notification = s.notify(ctx, sessionID, n)
	}
	return res, nil
}

// Acknowledge closes a confirmed session, records the appointment and
// announces the booking.
func (s *Service) Acknowledge(ctx context.Context, sessionID string) (*Result, error) {
	w, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	booking, err := w.Acknowledge()
	if err != nil {
		s.notify(ctx, sessionID, errorNotification(err))
		return nil, err
	}
	s.sessions.Delete(sessionID)

	res := &Result{
		State:   w.Snapshot(),
		Next:    model.PathDashboard,
		Booking: booking,
	}

	if subject := bookingOwner(booking); subject != "" && s.deps.Appointments != nil {
		apt, err := s.deps.Appointments.Record(ctx, subject, booking)
		if err != nil {
			s.deps.Logger.Error(err, "failed to record appointment", "confirmation_id", booking.ConfirmationID)
		}
		res.Appointment = apt
	}

	if s.deps.Broker != nil {
		if err := s.publishFinalized(ctx, booking); err != nil {
			s.deps.Logger.Error(err, "failed to publish booking", "confirmation_id", booking.ConfirmationID)
		}
	}

	n := model.NewNotification(model.NotificationSuccess, KeyBookingAcknowledged).
		With("confirmation_id", booking.ConfirmationID)
	res.Notification = s.notify(ctx, sessionID, n)
	return res, nil
}

// Leave abandons the session and returns navigation to the doctor profile.
func (s *Service) Leave(ctx context.Context, sessionID string) (*Result, error) {
	w, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	next, err := w.Leave()
	if err != nil {
		return nil, err
	}
	s.sessions.Delete(sessionID)
	return &Result{State: w.Snapshot(), Next: next}, nil
}

// ActiveSessions is the number of open booking sessions.
func (s *Service) ActiveSessions() int {
	return s.sessions.ItemCount()
}

func (s *Service) lookup(sessionID string) (*Wizard, error) {
	v, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, apperrors.NewNotFound("booking session", nil).
			WithKey(KeySessionNotFound).
			WithNext(model.PathSearch)
	}
	return v.(*Wizard), nil
}

func (s *Service) apply(ctx context.Context, sessionID string, fn func(*Wizard) error) (*Result, error) {
	w, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(w); err != nil {
		s.notify(ctx, sessionID, errorNotification(err))
		return nil, err
	}
	if !w.Closed() {
		// sliding expiry
		s.sessions.Set(sessionID, w, cache.DefaultExpiration)
	}
	return &Result{State: w.Snapshot()}, nil
}

func (s *Service) publishFinalized(ctx context.Context, booking *model.FinalizedBooking) error {
	env, err := messaging.NewEnvelope(messaging.TopicBookingFinalized, booking)
	if err != nil {
		return err
	}
	return s.deps.Broker.Publish(ctx, messaging.TopicBookingFinalized, env)
}

func (s *Service) notify(ctx context.Context, sessionID string, n *model.Notification) *model.Notification {
	n.SessionID = sessionID
	if err := s.deps.Notifier.Send(ctx, n); err != nil {
		s.deps.Logger.Error(err, "failed to send notification", "key", n.Key)
	}
	return n
}

func (s *Service) observe(ev Event) {
	m := s.deps.Metrics
	log := s.deps.Logger

	switch ev.Kind {
	case EventTransition:
		m.WizardTransitions.WithLabelValues(ev.From.String(), ev.To.String()).Inc()
		log.Debug("booking transition", "session_id", ev.SessionID, "from", ev.From.String(), "to", ev.To.String())
	case EventRejected:
		if apperrors.Is(ev.Err, apperrors.ErrValidation) {
			m.ValidationFailures.WithLabelValues("booking", ev.From.String()).Inc()
		}
		log.Debug("booking action rejected", "session_id", ev.SessionID, "step", ev.From.String(), "error", ev.Err.Error())
	case EventPaymentStarted:
		log.Info("payment started", "session_id", ev.SessionID, "doctor_id", ev.DoctorID)
	case EventPaymentFailed:
		m.PaymentFailures.WithLabelValues(paymentFailureReason(ev.Err)).Inc()
		if ev.Elapsed > 0 {
			m.PaymentLatency.Observe(ev.Elapsed.Seconds())
		}
		log.Warn("payment failed", "session_id", ev.SessionID, "error", ev.Err.Error())
	case EventFinalized:
		m.BookingsFinalized.WithLabelValues(string(ev.Booking.Draft.AppointmentType)).Inc()
		m.BookingTotal.Observe(ev.Booking.Fees.Total)
		m.PaymentLatency.Observe(ev.Elapsed.Seconds())
		log.Info("booking finalized", "session_id", ev.SessionID, "confirmation_id", ev.Booking.ConfirmationID)
	case EventClosed:
		log.Debug("booking session closed", "session_id", ev.SessionID)
	}
}

func paymentFailureReason(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrPaymentDeclined):
		return "declined"
	default:
		return "error"
	}
}

func errorNotification(err error) *model.Notification {
	key := "error.internal"
	if appErr, ok := apperrors.As(err); ok && appErr.Key != "" {
		key = appErr.Key
	}
	return model.NewNotification(model.NotificationError, key)
}

// bookingOwner is the verified subject, or the patient's email for
// anonymous bookings.
func bookingOwner(booking *model.FinalizedBooking) string {
	if booking.Subject != "" {
		return booking.Subject
	}
	return strings.ToLower(strings.TrimSpace(booking.Draft.Patient.Email))
}
