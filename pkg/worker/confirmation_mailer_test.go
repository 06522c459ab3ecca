package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/booking-api/internal/email"
	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/pkg/logger"
	"github.com/jwalitptl/booking-api/pkg/messaging"
	"github.com/jwalitptl/booking-api/pkg/metrics"
)

type outbox struct {
	mu    sync.Mutex
	to    [][]string
	fails int
}

func (o *outbox) send(from string, to []string, msg io.WriterTo) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fails > 0 {
		o.fails--
		return errors.New("smtp unavailable")
	}
	o.to = append(o.to, to)
	return nil
}

func (o *outbox) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.to)
}

func newMailer(t *testing.T, box *outbox, attempts int) (*ConfirmationMailer, *messaging.MemoryBroker, *metrics.Metrics) {
	t.Helper()
	broker := messaging.NewMemoryBroker()
	t.Cleanup(func() { broker.Close() })
	m := metrics.NewMetrics("test", "worker", prometheus.NewRegistry())
	svc := email.NewServiceWithSender("noreply@example.com", gomail.SendFunc(box.send))
	mailer := NewConfirmationMailer(broker, svc, ConfirmationMailerConfig{
		RetryAttempts: attempts,
		RetryDelay:    time.Millisecond,
	}, logger.Nop(), m)
	return mailer, broker, m
}

func finalized(emailAddr string) *model.FinalizedBooking {
	return &model.FinalizedBooking{
		ConfirmationID: "c-1",
		DoctorName:     "Dr. Sarah Johnson",
		Specialty:      model.SpecialtyCardiology,
		Draft: model.BookingDraft{
			Day:             "Monday",
			Time:            "09:00",
			AppointmentType: model.AppointmentInPerson,
			Patient:         model.PatientInfo{Name: "Jane", Email: emailAddr},
		},
		Fees: model.FeeBreakdown{ConsultationFee: 150, Total: 150},
	}
}

func encode(t *testing.T, b *model.FinalizedBooking) []byte {
	t.Helper()
	env, err := messaging.NewEnvelope(messaging.TopicBookingFinalized, b)
	require.NoError(t, err)
	raw, err := json.Marshal(env)
	require.NoError(t, err)
	return raw
}

func TestConfirmationMailerRetriesUntilSent(t *testing.T) {
	box := &outbox{fails: 2}
	mailer, _, m := newMailer(t, box, 3)

	require.NoError(t, mailer.process(context.Background(), encode(t, finalized("jane@example.com"))))
	assert.Equal(t, 1, box.count())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ConfirmationEmails.WithLabelValues("sent")))
}

func TestConfirmationMailerGivesUp(t *testing.T) {
	box := &outbox{fails: 5}
	mailer, _, m := newMailer(t, box, 2)

	err := mailer.process(context.Background(), encode(t, finalized("jane@example.com")))
	assert.Error(t, err)
	assert.Equal(t, 0, box.count())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ConfirmationEmails.WithLabelValues("failed")))
}

func TestConfirmationMailerSkipsMissingRecipient(t *testing.T) {
	box := &outbox{}
	mailer, _, m := newMailer(t, box, 1)

	err := mailer.process(context.Background(), encode(t, finalized("  ")))
	assert.ErrorIs(t, err, errNoRecipient)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ConfirmationEmails.WithLabelValues("skipped")))

	assert.Error(t, mailer.process(context.Background(), []byte("not json")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ConfirmationEmails.WithLabelValues("invalid")))
}

func TestConfirmationMailerConsumesBroker(t *testing.T) {
	box := &outbox{}
	mailer, broker, _ := newMailer(t, box, 1)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- mailer.Start(ctx) }()

	env, err := messaging.NewEnvelope(messaging.TopicBookingFinalized, finalized("jane@example.com"))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		// the subscription may not exist yet on the first publish
		_ = broker.Publish(ctx, messaging.TopicBookingFinalized, env)
		return box.count() > 0
	}, time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("mailer did not stop")
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := retry(ctx, 5, time.Hour, func() error {
		calls++
		return errors.New("boom")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
