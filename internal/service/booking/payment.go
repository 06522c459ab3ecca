package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/pkg/circuitbreaker"
)

var ErrPaymentDeclined = errors.New("payment declined")

type PaymentRequest struct {
	SessionID string
	DoctorID  string
	Amount    float64
	Patient   model.PatientInfo
}

type PaymentResult struct {
	Reference   string
	Amount      float64
	ProcessedAt time.Time
}

// PaymentGateway confirms a charge. Implementations must return promptly
// once ctx is done.
type PaymentGateway interface {
	Charge(ctx context.Context, req PaymentRequest) (*PaymentResult, error)
}

// SimulatedGateway accepts every charge after a fixed delay.
type SimulatedGateway struct {
	delay time.Duration
	now   func() time.Time
}

func NewSimulatedGateway(delay time.Duration) *SimulatedGateway {
	return &SimulatedGateway{delay: delay, now: time.Now}
}

func (g *SimulatedGateway) Charge(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	if g.delay > 0 {
		t := time.NewTimer(g.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &PaymentResult{
		Reference:   "sim_" + uuid.NewString(),
		Amount:      req.Amount,
		ProcessedAt: g.now().UTC(),
	}, nil
}

// guardedGateway stops calling a failing gateway for a while. Declines and
// cancellations do not count as gateway failures.
type guardedGateway struct {
	next PaymentGateway
	cb   *circuitbreaker.CircuitBreaker
}

func NewGuardedGateway(next PaymentGateway, maxFailures int, cooldown time.Duration) PaymentGateway {
	return &guardedGateway{
		next: next,
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "payment-gateway",
			MaxFailures: maxFailures,
			Timeout:     cooldown,
			IsFailure: func(err error) bool {
				return !errors.Is(err, ErrPaymentDeclined) &&
					!errors.Is(err, context.Canceled)
			},
		}),
	}
}

func (g *guardedGateway) Charge(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	var res *PaymentResult
	err := g.cb.Execute(func() error {
		var err error
		res, err = g.next.Charge(ctx, req)
		return err
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return nil, fmt.Errorf("payment gateway unavailable: %w", err)
	}
	return res, err
}
