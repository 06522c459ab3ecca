package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	"github.com/jwalitptl/booking-api/internal/service/notification"
	"github.com/jwalitptl/booking-api/pkg/auth"
	apperrors "github.com/jwalitptl/booking-api/pkg/errors"
	"github.com/jwalitptl/booking-api/pkg/logger"
	"github.com/jwalitptl/booking-api/pkg/metrics"
	"github.com/jwalitptl/booking-api/pkg/security"
	"github.com/jwalitptl/booking-api/pkg/validator"
)

const (
	KeyAccountExists      = "auth.accountExists"
	KeyInvalidCredentials = "auth.invalidCredentials"
	KeyFlowNotFound       = "verification.flowNotFound"
)

type Config struct {
	FlowTTL         time.Duration
	CleanupInterval time.Duration
}

type Dependencies struct {
	Accounts   repository.AccountRepository
	Verifier   CodeVerifier
	Dispatcher CodeDispatcher
	Passwords  security.PasswordHasher
	Tokens     auth.JWTService
	Notifier   notification.Service
	Metrics    *metrics.Metrics
	Logger     *logger.Logger
	Validator  validator.Validator
	Now        func() time.Time
}

// Result is what every verification action hands back to the caller.
type Result struct {
	State        FlowState           `json:"state"`
	Notification *model.Notification `json:"notification,omitempty"`
	Next         string              `json:"next,omitempty"`
	Token        string              `json:"token,omitempty"`
	ExpiresAt    *time.Time          `json:"expires_at,omitempty"`
}

type Service struct {
	deps  Dependencies
	flows *cache.Cache
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.FlowTTL <= 0 {
		cfg.FlowTTL = 15 * time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}
	if deps.Verifier == nil {
		deps.Verifier = NewLengthOnlyVerifier()
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Dispatcher == nil {
		deps.Dispatcher = NewLogDispatcher(deps.Logger)
	}
	if deps.Passwords == nil {
		deps.Passwords = security.NewBcryptHasher(0)
	}
	if deps.Notifier == nil {
		deps.Notifier = notification.NewRecorder()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewNop()
	}
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	s := &Service{deps: deps, flows: cache.New(cfg.FlowTTL, cfg.CleanupInterval)}
	s.flows.OnEvicted(func(string, interface{}) {
		s.deps.Metrics.ActiveSessions.WithLabelValues("verification").Dec()
	})
	return s
}

// Start opens a flow for purpose (register, login or recovery).
func (s *Service) Start(ctx context.Context, purpose model.VerificationPurpose) (*Result, error) {
	f, err := NewFlow(uuid.NewString(), purpose, s.deps.Validator, s.deps.Now)
	if err != nil {
		return nil, err
	}
	s.flows.Set(f.ID(), f, cache.DefaultExpiration)
	s.deps.Metrics.ActiveSessions.WithLabelValues("verification").Inc()
	return &Result{State: f.Snapshot()}, nil
}

func (s *Service) Get(ctx context.Context, flowID string) (*Result, error) {
	f, err := s.lookup(flowID)
	if err != nil {
		return nil, err
	}
	return &Result{State: f.Snapshot()}, nil
}

func (s *Service) SetMode(ctx context.Context, flowID string, mode model.ContactMode) (*Result, error) {
	return s.apply(ctx, flowID, func(f *Flow) error { return f.SetMode(mode) })
}

func (s *Service) SetContact(ctx context.Context, flowID string, mode model.ContactMode, value string) (*Result, error) {
	return s.apply(ctx, flowID, func(f *Flow) error { return f.SetContact(mode, value) })
}

func (s *Service) SetCredentials(ctx context.Context, flowID string, creds model.Credentials) (*Result, error) {
	return s.apply(ctx, flowID, func(f *Flow) error { return f.SetCredentials(creds) })
}

// Submit validates the request form, checks the account for the purpose
// and sends the first code.
func (s *Service) Submit(ctx context.Context, flowID string) (*Result, error) {
	f, err := s.lookup(flowID)
	if err != nil {
		return nil, err
	}
	contact, err := f.Submit()
	if err != nil {
		return nil, s.fail(ctx, f, err)
	}

	if err := s.checkAccount(ctx, f, contact); err != nil {
		_ = f.Cancel()
		return nil, s.fail(ctx, f, err)
	}
	if err := s.sendCode(ctx, f, contact); err != nil {
		_ = f.Cancel()
		return nil, s.fail(ctx, f, err)
	}

	return &Result{
		State:        f.Snapshot(),
		Notification: s.notify(ctx, f, model.NewNotification(model.NotificationInfo, KeyCodeSent)),
	}, nil
}

// Resend sends a new code once the countdown has reached zero.
func (s *Service) Resend(ctx context.Context, flowID string) (*Result, error) {
	f, err := s.lookup(flowID)
	if err != nil {
		return nil, err
	}
	contact, err := f.ResendContact()
	if err != nil {
		return nil, s.fail(ctx, f, err)
	}
	if err := s.sendCode(ctx, f, contact); err != nil {
		return nil, s.fail(ctx, f, err)
	}
	if err := f.RestartCountdown(); err != nil {
		return nil, s.fail(ctx, f, err)
	}
	return &Result{
		State:        f.Snapshot(),
		Notification: s.notify(ctx, f, model.NewNotification(model.NotificationInfo, KeyCodeSent)),
	}, nil
}

// Verify checks code. Codes of the wrong length are rejected before any
// verifier is consulted.
func (s *Service) Verify(ctx context.Context, flowID, code string) (*Result, error) {
	f, err := s.lookup(flowID)
	if err != nil {
		return nil, err
	}
	purpose := string(f.Purpose())

	if err := f.CheckCode(code); err != nil {
		if apperrors.Is(err, apperrors.ErrValidation) {
			s.deps.Metrics.VerificationOutcomes.WithLabelValues(purpose, "invalid_length").Inc()
		}
		return nil, s.fail(ctx, f, err)
	}

	if err := s.deps.Verifier.Verify(ctx, f.ID(), code); err != nil {
		if errors.Is(err, ErrCodeRejected) {
			s.deps.Metrics.VerificationOutcomes.WithLabelValues(purpose, "rejected").Inc()
			return nil, s.fail(ctx, f, apperrors.NewValidation(KeyCodeRejected, "code was not accepted",
				apperrors.FieldError{Field: "code", Key: KeyCodeRejected, Message: "code was not accepted"}))
		}
		return nil, s.fail(ctx, f, apperrors.NewTransient("code verification failed", err))
	}

	// The flow stays in Verify until the account and token exist.
	res := &Result{}
	switch f.Purpose() {
	case model.PurposeRegister:
		if err := s.createAccount(ctx, f); err != nil {
			return nil, s.fail(ctx, f, err)
		}
		if err := s.issueToken(f, res); err != nil {
			return nil, s.fail(ctx, f, err)
		}
		res.Next = model.PathCreateProfile
	case model.PurposeLogin:
		if err := s.issueToken(f, res); err != nil {
			return nil, s.fail(ctx, f, err)
		}
		res.Next = model.PathDashboard
	}

	if err := f.Verified(); err != nil {
		return nil, s.fail(ctx, f, err)
	}
	s.deps.Metrics.VerificationOutcomes.WithLabelValues(purpose, "verified").Inc()

	res.State = f.Snapshot()
	res.Notification = s.notify(ctx, f, model.NewNotification(model.NotificationSuccess, KeyVerified))
	s.deps.Logger.Info("contact verified", "flow_id", f.ID(), "purpose", purpose)
	return res, nil
}

// Cancel returns from Verify to Request and discards the pending code.
func (s *Service) Cancel(ctx context.Context, flowID string) (*Result, error) {
	f, err := s.lookup(flowID)
	if err != nil {
		return nil, err
	}
	if err := f.Cancel(); err != nil {
		return nil, s.fail(ctx, f, err)
	}
	if err := s.deps.Verifier.Discard(ctx, f.ID()); err != nil {
		s.deps.Logger.Error(err, "failed to discard code", "flow_id", f.ID())
	}
	return &Result{State: f.Snapshot()}, nil
}

// Reset sets a new password at the end of a recovery flow.
func (s *Service) Reset(ctx context.Context, flowID string, reset model.PasswordReset) (*Result, error) {
	f, err := s.lookup(flowID)
	if err != nil {
		return nil, err
	}
	if err := f.Reset(reset); err != nil {
		return nil, s.fail(ctx, f, err)
	}

	hash, err := s.deps.Passwords.Hash(reset.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.deps.Accounts.SetPassword(ctx, f.Contact(), f.Mode(), hash); err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}

	return &Result{
		State:        f.Snapshot(),
		Next:         model.PathLogin,
		Notification: s.notify(ctx, f, model.NewNotification(model.NotificationSuccess, KeyPasswordUpdated)),
	}, nil
}

func (s *Service) lookup(flowID string) (*Flow, error) {
	v, ok := s.flows.Get(flowID)
	if !ok {
		return nil, apperrors.NewNotFound("verification flow", nil).WithKey(KeyFlowNotFound)
	}
	return v.(*Flow), nil
}

func (s *Service) apply(ctx context.Context, flowID string, fn func(*Flow) error) (*Result, error) {
	f, err := s.lookup(flowID)
	if err != nil {
		return nil, err
	}
	if err := fn(f); err != nil {
		return nil, s.fail(ctx, f, err)
	}
	return &Result{State: f.Snapshot()}, nil
}

func (s *Service) checkAccount(ctx context.Context, f *Flow, contact string) error {
	switch f.Purpose() {
	case model.PurposeRegister:
		_, err := s.deps.Accounts.Get(ctx, contact)
		if err == nil {
			return apperrors.NewConflict("account already exists").WithKey(KeyAccountExists)
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("failed to load account: %w", err)
		}
	case model.PurposeLogin:
		account, err := s.deps.Accounts.Get(ctx, contact)
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.Unauthorized(err).WithKey(KeyInvalidCredentials)
		}
		if err != nil {
			return fmt.Errorf("failed to load account: %w", err)
		}
		if err := s.deps.Passwords.Compare(account.PasswordHash, f.Credentials().Password); err != nil {
			return apperrors.Unauthorized(err).WithKey(KeyInvalidCredentials)
		}
	}
	return nil
}

func (s *Service) createAccount(ctx context.Context, f *Flow) error {
	hash, err := s.deps.Passwords.Hash(f.Credentials().Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	err = s.deps.Accounts.Create(ctx, &model.Account{Subject: f.Contact(), Mode: f.Mode(), PasswordHash: hash})
	if errors.Is(err, repository.ErrDuplicate) {
		return apperrors.NewConflict("account already exists").WithKey(KeyAccountExists)
	}
	return err
}

func (s *Service) issueToken(f *Flow, res *Result) error {
	if s.deps.Tokens == nil {
		return nil
	}
	token, expires, err := s.deps.Tokens.GenerateAccessToken(f.Contact(), string(f.Purpose()))
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}
	res.Token = token
	res.ExpiresAt = &expires
	return nil
}

func (s *Service) sendCode(ctx context.Context, f *Flow, contact string) error {
	code, err := s.deps.Verifier.Issue(ctx, f.ID())
	if err != nil {
		return apperrors.NewTransient("failed to issue code", err).WithKey(KeyDispatchFailed)
	}
	msg := CodeMessage{
		FlowID:  f.ID(),
		Purpose: f.Purpose(),
		Mode:    f.Mode(),
		Contact: contact,
		Code:    code,
	}
	if err := s.deps.Dispatcher.Dispatch(ctx, msg); err != nil {
		return apperrors.NewTransient("failed to send code", err).WithKey(KeyDispatchFailed)
	}
	s.deps.Metrics.CodesDispatched.WithLabelValues(string(msg.Purpose), string(msg.Mode)).Inc()
	return nil
}

// fail reports err to the notification sink and returns it unchanged.
func (s *Service) fail(ctx context.Context, f *Flow, err error) error {
	key := "error.internal"
	if appErr, ok := apperrors.As(err); ok && appErr.Key != "" {
		key = appErr.Key
	}
	if apperrors.Is(err, apperrors.ErrValidation) {
		s.deps.Metrics.ValidationFailures.WithLabelValues("verification", f.Snapshot().Stage.String()).Inc()
	}
	s.notify(ctx, f, model.NewNotification(model.NotificationError, key))
	return err
}

func (s *Service) notify(ctx context.Context, f *Flow, n *model.Notification) *model.Notification {
	n.SessionID = f.ID()
	if err := s.deps.Notifier.Send(ctx, n); err != nil {
		s.deps.Logger.Error(err, "failed to send notification", "key", n.Key)
	}
	return n
}
