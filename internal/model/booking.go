package model

import (
	"time"
)

type AppointmentType string

const (
	AppointmentInPerson AppointmentType = "in-person"
	AppointmentVideo    AppointmentType = "video"
	AppointmentPhone    AppointmentType = "phone"
)

func (t AppointmentType) Valid() bool {
	switch t {
	case AppointmentInPerson, AppointmentVideo, AppointmentPhone:
		return true
	}
	return false
}

// WizardStep is a booking wizard stage. Steps only move one position at a time.
type WizardStep int

const (
	StepDateTime WizardStep = iota
	StepPatientInfo
	StepPayment
	StepConfirmation
)

func (s WizardStep) String() string {
	switch s {
	case StepDateTime:
		return "date_time"
	case StepPatientInfo:
		return "patient_info"
	case StepPayment:
		return "payment"
	case StepConfirmation:
		return "confirmation"
	default:
		return "unknown"
	}
}

func (s WizardStep) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type PatientInfo struct {
	Name     string `json:"name" validate:"notblank"`
	Email    string `json:"email" validate:"notblank"`
	Phone    string `json:"phone" validate:"notblank"`
	Symptoms string `json:"symptoms,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// BookingDraft is everything selected so far in a wizard.
type BookingDraft struct {
	DoctorID        string          `json:"doctor_id"`
	Day             string          `json:"day,omitempty"`
	Time            string          `json:"time,omitempty"`
	AppointmentType AppointmentType `json:"appointment_type"`
	Patient         PatientInfo     `json:"patient"`
}

type FeeBreakdown struct {
	ConsultationFee float64 `json:"consultation_fee"`
	PlatformFee     float64 `json:"platform_fee"`
	Total           float64 `json:"total"`
}

// FinalizedBooking is produced once payment completes.
type FinalizedBooking struct {
	ConfirmationID   string       `json:"confirmation_id"`
	SessionID        string       `json:"session_id"`
	Subject          string       `json:"subject,omitempty"`
	Draft            BookingDraft `json:"draft"`
	DoctorName       string       `json:"doctor_name"`
	Specialty        Specialty    `json:"specialty"`
	Fees             FeeBreakdown `json:"fees"`
	PaymentReference string       `json:"payment_reference"`
	FinalizedAt      time.Time    `json:"finalized_at"`
}
