package email

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/booking-api/internal/model"
)

type sentMail struct {
	from string
	to   []string
	body string
}

func capture(out *[]sentMail) gomail.SendFunc {
	return func(from string, to []string, msg io.WriterTo) error {
		var buf bytes.Buffer
		if _, err := msg.WriteTo(&buf); err != nil {
			return err
		}
		*out = append(*out, sentMail{from: from, to: to, body: buf.String()})
		return nil
	}
}

func TestSendBookingConfirmation(t *testing.T) {
	var sent []sentMail
	svc := NewServiceWithSender("noreply@example.com", capture(&sent))

	err := svc.SendBookingConfirmation(context.Background(), "jane@example.com", &model.FinalizedBooking{
		ConfirmationID: "c-42",
		DoctorName:     "Dr. Sarah Johnson",
		Specialty:      model.SpecialtyCardiology,
		Draft: model.BookingDraft{
			Day:             "Monday",
			Time:            "09:00",
			AppointmentType: model.AppointmentVideo,
			Patient:         model.PatientInfo{Name: "Jane"},
		},
		Fees: model.FeeBreakdown{ConsultationFee: 150, PlatformFee: 5, Total: 155},
	})
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, "noreply@example.com", sent[0].from)
	assert.Equal(t, []string{"jane@example.com"}, sent[0].to)
	assert.Contains(t, sent[0].body, "Appointment confirmed")
	assert.Contains(t, sent[0].body, "Total: 155.00")
	assert.Contains(t, sent[0].body, "c-42")
}

func TestSendVerificationCode(t *testing.T) {
	var sent []sentMail
	svc := NewServiceWithSender("noreply@example.com", capture(&sent))

	require.NoError(t, svc.SendVerificationCode(context.Background(), "a@b.co", model.PurposeRecovery, "123456"))
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].body, "Reset your password")
	assert.Contains(t, sent[0].body, "123456")
}

func TestSendCustomErrors(t *testing.T) {
	failing := NewServiceWithSender("noreply@example.com", gomail.SendFunc(func(string, []string, io.WriterTo) error {
		return errors.New("relay down")
	}))
	assert.ErrorContains(t, failing.SendCustom(context.Background(), "a@b.co", "s", "c"), "relay down")
	assert.Error(t, failing.SendCustom(context.Background(), " ", "s", "c"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, failing.SendCustom(ctx, "a@b.co", "s", "c"), context.Canceled)
}
