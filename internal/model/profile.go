package model

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

type EmergencyContact struct {
	Name         string `json:"name,omitempty"`
	Relationship string `json:"relationship,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

type Address struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// PatientProfile is the medical profile created after registration.
type PatientProfile struct {
	Base
	Subject           string            `json:"subject"`
	FullName          string            `json:"full_name" validate:"notblank"`
	DateOfBirth       string            `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Gender            Gender            `json:"gender" validate:"required,oneof=male female other"`
	BloodType         string            `json:"blood_type,omitempty" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	Allergies         []string          `json:"allergies"`
	ChronicConditions []string          `json:"chronic_conditions"`
	Medications       []string          `json:"medications"`
	EmergencyContact  *EmergencyContact `json:"emergency_contact,omitempty"`
	Address           *Address          `json:"address,omitempty"`
}
