package verification

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"
	"unicode/utf8"

	"github.com/jwalitptl/booking-api/internal/email"
	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	"github.com/jwalitptl/booking-api/pkg/logger"
	"github.com/jwalitptl/booking-api/pkg/messaging"
	"github.com/jwalitptl/booking-api/pkg/security"
)

var ErrCodeRejected = errors.New("verification code rejected")

// CodeVerifier issues one-time codes and checks them.
type CodeVerifier interface {
	Issue(ctx context.Context, flowID string) (string, error)
	Verify(ctx context.Context, flowID, code string) error
	Discard(ctx context.Context, flowID string) error
}

// CodeDispatcher delivers a code to the captured contact.
type CodeDispatcher interface {
	Dispatch(ctx context.Context, msg CodeMessage) error
}

type CodeMessage struct {
	FlowID  string                    `json:"flow_id"`
	Purpose model.VerificationPurpose `json:"purpose"`
	Mode    model.ContactMode         `json:"mode"`
	Contact string                    `json:"contact"`
	Code    string                    `json:"code,omitempty"`
}

func randomCode() (string, error) {
	buf := make([]byte, CodeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate code: %w", err)
		}
		buf[i] = byte('0' + n.Int64())
	}
	return string(buf), nil
}

type lengthOnlyVerifier struct{}

// NewLengthOnlyVerifier accepts any code of CodeLength characters. It
// still issues a code so dispatchers have something to send.
func NewLengthOnlyVerifier() CodeVerifier {
	return lengthOnlyVerifier{}
}

func (lengthOnlyVerifier) Issue(ctx context.Context, flowID string) (string, error) {
	return randomCode()
}

func (lengthOnlyVerifier) Verify(ctx context.Context, flowID, code string) error {
	if utf8.RuneCountInString(code) != CodeLength {
		return ErrCodeRejected
	}
	return nil
}

func (lengthOnlyVerifier) Discard(ctx context.Context, flowID string) error {
	return nil
}

type storedCodeVerifier struct {
	store  repository.CodeStore
	hasher security.PasswordHasher
	ttl    time.Duration
}

// NewStoredCodeVerifier keeps a bcrypt hash of the latest issued code per
// flow in store. Codes are single use.
func NewStoredCodeVerifier(store repository.CodeStore, hasher security.PasswordHasher, ttl time.Duration) CodeVerifier {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &storedCodeVerifier{store: store, hasher: hasher, ttl: ttl}
}

func (v *storedCodeVerifier) Issue(ctx context.Context, flowID string) (string, error) {
	code, err := randomCode()
	if err != nil {
		return "", err
	}
	hash, err := v.hasher.Hash(code)
	if err != nil {
		return "", fmt.Errorf("failed to hash code: %w", err)
	}
	if err := v.store.Save(ctx, flowID, hash, v.ttl); err != nil {
		return "", err
	}
	return code, nil
}

func (v *storedCodeVerifier) Verify(ctx context.Context, flowID, code string) error {
	hash, err := v.store.Get(ctx, flowID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrCodeRejected
	}
	if err != nil {
		return err
	}
	if err := v.hasher.Compare(hash, code); err != nil {
		return ErrCodeRejected
	}
	return v.store.Delete(ctx, flowID)
}

func (v *storedCodeVerifier) Discard(ctx context.Context, flowID string) error {
	return v.store.Delete(ctx, flowID)
}

type logDispatcher struct {
	log *logger.Logger
}

// NewLogDispatcher writes codes to the log. Meant for local development.
func NewLogDispatcher(log *logger.Logger) CodeDispatcher {
	return &logDispatcher{log: log}
}

func (d *logDispatcher) Dispatch(ctx context.Context, msg CodeMessage) error {
	d.log.Info("verification code issued",
		"flow_id", msg.FlowID,
		"purpose", string(msg.Purpose),
		"mode", string(msg.Mode),
		"contact", msg.Contact,
		"code", msg.Code)
	return nil
}

type emailDispatcher struct {
	email    email.Service
	fallback CodeDispatcher
}

// NewEmailDispatcher mails codes for email contacts and hands phone
// contacts to fallback.
func NewEmailDispatcher(svc email.Service, fallback CodeDispatcher) CodeDispatcher {
	return &emailDispatcher{email: svc, fallback: fallback}
}

func (d *emailDispatcher) Dispatch(ctx context.Context, msg CodeMessage) error {
	if msg.Mode != model.ContactEmail {
		if d.fallback == nil {
			return fmt.Errorf("no dispatcher for %s contacts", msg.Mode)
		}
		return d.fallback.Dispatch(ctx, msg)
	}
	return d.email.SendVerificationCode(ctx, msg.Contact, msg.Purpose, msg.Code)
}

type brokerDispatcher struct {
	broker messaging.Broker
}

// NewBrokerDispatcher publishes codes for an out-of-process sender such as
// an SMS gateway.
func NewBrokerDispatcher(broker messaging.Broker) CodeDispatcher {
	return &brokerDispatcher{broker: broker}
}

func (d *brokerDispatcher) Dispatch(ctx context.Context, msg CodeMessage) error {
	env, err := messaging.NewEnvelope(messaging.TopicVerificationCode, msg)
	if err != nil {
		return err
	}
	if err := d.broker.Publish(ctx, messaging.TopicVerificationCode, env); err != nil {
		return fmt.Errorf("failed to publish code: %w", err)
	}
	return nil
}
