package email

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/booking-api/internal/model"
)

type Service interface {
	SendVerificationCode(ctx context.Context, to string, purpose model.VerificationPurpose, code string) error
	SendBookingConfirmation(ctx context.Context, to string, booking *model.FinalizedBooking) error
	SendCustom(ctx context.Context, to string, subject string, content string) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpService struct {
	from    string
	deliver func(*gomail.Message) error
}

// NewService sends mail through an SMTP relay, dialing once per message.
func NewService(cfg Config) Service {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &smtpService{
		from: cfg.From,
		deliver: func(m *gomail.Message) error {
			return d.DialAndSend(m)
		},
	}
}

// NewServiceWithSender delivers through s instead of dialing SMTP.
func NewServiceWithSender(from string, s gomail.Sender) Service {
	return &smtpService{
		from: from,
		deliver: func(m *gomail.Message) error {
			return gomail.Send(s, m)
		},
	}
}

func (s *smtpService) SendVerificationCode(ctx context.Context, to string, purpose model.VerificationPurpose, code string) error {
	subject := "Your verification code"
	switch purpose {
	case model.PurposeRegister:
		subject = "Confirm your new account"
	case model.PurposeRecovery:
		subject = "Reset your password"
	}
	body := fmt.Sprintf("Your verification code is %s.\n\nIt expires in a few minutes. If you did not request it, ignore this message.", code)
	return s.SendCustom(ctx, to, subject, body)
}

func (s *smtpService) SendBookingConfirmation(ctx context.Context, to string, booking *model.FinalizedBooking) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", booking.Draft.Patient.Name)
	fmt.Fprintf(&b, "Your %s appointment with %s (%s) is confirmed for %s at %s.\n\n",
		booking.Draft.AppointmentType, booking.DoctorName, booking.Specialty, booking.Draft.Day, booking.Draft.Time)
	fmt.Fprintf(&b, "Consultation fee: %.2f\n", booking.Fees.ConsultationFee)
	if booking.Fees.PlatformFee > 0 {
		fmt.Fprintf(&b, "Platform fee: %.2f\n", booking.Fees.PlatformFee)
	}
	fmt.Fprintf(&b, "Total: %.2f\n\nConfirmation: %s\n", booking.Fees.Total, booking.ConfirmationID)

	return s.SendCustom(ctx, to, "Appointment confirmed", b.String())
}

func (s *smtpService) SendCustom(ctx context.Context, to string, subject string, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("recipient is required")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", content)

	if err := s.deliver(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
