// Package availability answers which days and times a doctor offers.
// Resolution is pure: doctors are never modified and booked slots are not
// removed.
package availability

import (
	"github.com/jwalitptl/booking-api/internal/model"
)

// AvailableDays returns the doctor's day labels in the order the doctor
// defined them.
func AvailableDays(doctor *model.Doctor) []string {
	if doctor == nil {
		return []string{}
	}
	return doctor.Availability.Days()
}

// AvailableTimes returns the time labels for day, or an empty slice when
// the doctor has no entry for it.
func AvailableTimes(doctor *model.Doctor, day string) []string {
	if doctor == nil {
		return []string{}
	}
	times, _ := doctor.Availability.Times(day)
	return times
}

// HasSlot reports whether time is offered on day.
func HasSlot(doctor *model.Doctor, day, time string) bool {
	for _, t := range AvailableTimes(doctor, day) {
		if t == time {
			return true
		}
	}
	return false
}

// HasDay reports whether day is one of the doctor's day labels.
func HasDay(doctor *model.Doctor, day string) bool {
	for _, d := range AvailableDays(doctor) {
		if d == day {
			return true
		}
	}
	return false
}
