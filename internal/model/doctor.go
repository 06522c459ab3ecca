package model

import (
	"fmt"
	"strings"
)

type Specialty string

const (
	SpecialtyCardiology      Specialty = "Cardiology"
	SpecialtyDermatology     Specialty = "Dermatology"
	SpecialtyPediatrics      Specialty = "Pediatrics"
	SpecialtyOrthopedics     Specialty = "Orthopedics"
	SpecialtyNeurology       Specialty = "Neurology"
	SpecialtyGynecology      Specialty = "Gynecology"
	SpecialtyOphthalmology   Specialty = "Ophthalmology"
	SpecialtyPsychiatry      Specialty = "Psychiatry"
	SpecialtyOncology        Specialty = "Oncology"
	SpecialtyGeneralMedicine Specialty = "General Medicine"
)

// Specialties lists every specialty offered as a search filter.
var Specialties = []Specialty{
	SpecialtyCardiology,
	SpecialtyDermatology,
	SpecialtyPediatrics,
	SpecialtyOrthopedics,
	SpecialtyNeurology,
	SpecialtyGynecology,
	SpecialtyOphthalmology,
	SpecialtyPsychiatry,
	SpecialtyOncology,
	SpecialtyGeneralMedicine,
}

type Location struct {
	Address string `json:"address" db:"address"`
	City    string `json:"city" db:"city"`
	Country string `json:"country" db:"country"`
}

// Doctor is a directory entry. Records are read-only once loaded.
type Doctor struct {
	ID               string       `json:"id" db:"id"`
	Name             string       `json:"name" db:"name"`
	Specialty        Specialty    `json:"specialty" db:"specialty"`
	Avatar           string       `json:"avatar,omitempty" db:"avatar"`
	Rating           float64      `json:"rating" db:"rating"`
	ReviewCount      int          `json:"review_count" db:"review_count"`
	Education        []string     `json:"education,omitempty" db:"-"`
	Experience       int          `json:"experience" db:"experience"`
	Languages        []string     `json:"languages,omitempty" db:"-"`
	About            string       `json:"about,omitempty" db:"about"`
	ConsultationFee  float64      `json:"consultation_fee" db:"consultation_fee"`
	Availability     Availability `json:"availability" db:"-"`
	Location         Location     `json:"location" db:"-"`
	AcceptsInsurance bool         `json:"accepts_insurance" db:"accepts_insurance"`
	Services         []string     `json:"services,omitempty" db:"-"`
}

func (d *Doctor) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("doctor: id is required")
	}
	if d.ConsultationFee < 0 {
		return fmt.Errorf("doctor %s: negative consultation fee", d.ID)
	}
	if err := d.Availability.Validate(); err != nil {
		return fmt.Errorf("doctor %s: %w", d.ID, err)
	}
	return nil
}

// DoctorFilter narrows a directory listing. Zero values match everything.
type DoctorFilter struct {
	Query     string    `form:"query"`
	Specialty Specialty `form:"specialty"`
	MinRating float64   `form:"min_rating"`
	Day       string    `form:"day"`
}

// Matches applies the filter to one record.
func (f DoctorFilter) Matches(d *Doctor) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		hay := []string{d.Name, string(d.Specialty), d.Location.City, d.Location.Country}
		found := false
		for _, h := range hay {
			if strings.Contains(strings.ToLower(h), q) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Specialty != "" && d.Specialty != f.Specialty {
		return false
	}
	if f.MinRating > 0 && d.Rating < f.MinRating {
		return false
	}
	if f.Day != "" {
		times, ok := d.Availability.Times(f.Day)
		if !ok || len(times) == 0 {
			return false
		}
	}
	return true
}
