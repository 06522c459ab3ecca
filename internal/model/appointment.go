package model

import (
	"fmt"
)

type AppointmentStatus string

const (
	AppointmentStatusUpcoming  AppointmentStatus = "upcoming"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// ParseStatusFilter accepts a dashboard tab. "all" and "" mean no filter.
func ParseStatusFilter(s string) (AppointmentStatus, error) {
	switch AppointmentStatus(s) {
	case "", "all":
		return "", nil
	case AppointmentStatusUpcoming, AppointmentStatusCompleted, AppointmentStatusCancelled:
		return AppointmentStatus(s), nil
	}
	return "", fmt.Errorf("unknown appointment status %q", s)
}

type Appointment struct {
	Base
	Subject        string            `json:"subject" db:"subject"`
	ConfirmationID string            `json:"confirmation_id" db:"confirmation_id"`
	DoctorID       string            `json:"doctor_id" db:"doctor_id"`
	DoctorName     string            `json:"doctor_name" db:"doctor_name"`
	Specialty      Specialty         `json:"specialty" db:"specialty"`
	Day            string            `json:"day" db:"day"`
	Time           string            `json:"time" db:"time"`
	Type           AppointmentType   `json:"type" db:"type"`
	Status         AppointmentStatus `json:"status" db:"status"`
	Symptoms       string            `json:"symptoms,omitempty" db:"symptoms"`
	Notes          string            `json:"notes,omitempty" db:"notes"`
	Total          float64           `json:"total" db:"total"`
}
