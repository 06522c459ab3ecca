package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jwalitptl/booking-api/internal/email"
	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/pkg/logger"
	"github.com/jwalitptl/booking-api/pkg/messaging"
	"github.com/jwalitptl/booking-api/pkg/metrics"
)

var errNoRecipient = errors.New("booking has no patient email")

type ConfirmationMailerConfig struct {
	RetryAttempts int
	RetryDelay    time.Duration
}

// ConfirmationMailer mails a confirmation for every booking.finalized
// message on the broker.
type ConfirmationMailer struct {
	broker  messaging.Broker
	mailer  email.Service
	config  ConfirmationMailerConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewConfirmationMailer(
	broker messaging.Broker,
	mailer email.Service,
	config ConfirmationMailerConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *ConfirmationMailer {
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = 1
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = time.Second
	}

	return &ConfirmationMailer{
		broker:  broker,
		mailer:  mailer,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

// Start blocks until ctx is done or the subscription closes.
func (p *ConfirmationMailer) Start(ctx context.Context) error {
	msgs, err := p.broker.Subscribe(ctx, messaging.TopicBookingFinalized)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", messaging.TopicBookingFinalized, err)
	}

	p.logger.Info("Starting confirmation mailer")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Shutting down confirmation mailer")
			return nil
		case raw, ok := <-msgs:
			if !ok {
				p.logger.Warn("Booking subscription closed")
				return nil
			}
			if err := p.process(ctx, raw); err != nil {
				p.logger.Error(err, "Failed to send booking confirmation")
			}
		}
	}
}

func (p *ConfirmationMailer) process(ctx context.Context, raw []byte) error {
	var booking model.FinalizedBooking
	env, err := messaging.Decode(raw, &booking)
	if err != nil {
		p.metrics.ConfirmationEmails.WithLabelValues("invalid").Inc()
		return err
	}

	to := strings.TrimSpace(booking.Draft.Patient.Email)
	if to == "" {
		p.metrics.ConfirmationEmails.WithLabelValues("skipped").Inc()
		return fmt.Errorf("%w: %s", errNoRecipient, booking.ConfirmationID)
	}

	err = retry(ctx, p.config.RetryAttempts, p.config.RetryDelay, func() error {
		return p.mailer.SendBookingConfirmation(ctx, to, &booking)
	})

	if err != nil {
		p.metrics.ConfirmationEmails.WithLabelValues("failed").Inc()
		return fmt.Errorf("confirmation %s: %w", booking.ConfirmationID, err)
	}

	p.metrics.ConfirmationEmails.WithLabelValues("sent").Inc()
	p.logger.Info("Booking confirmation sent",
		"message_id", env.ID,
		"confirmation_id", booking.ConfirmationID)
	return nil
}

// retry calls fn up to attempts times, waiting delay between calls.
func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return err
}
