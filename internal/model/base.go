package model

import (
	"time"

	"github.com/google/uuid"
)

// Base contains common fields for stored records
type Base struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Navigation targets handed back to clients.
const (
	PathDashboard     = "/dashboard"
	PathSearch        = "/search"
	PathCreateProfile = "/create-profile"
	PathLogin         = "/login"
)

// DoctorPath is the profile view of a doctor.
func DoctorPath(id string) string {
	return "/doctors/" + id
}

// BookingPath starts the booking wizard for a doctor.
func BookingPath(doctorID string) string {
	return "/booking/" + doctorID
}
