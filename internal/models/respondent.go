package models

import "time"

// Gender enumerates the accepted gender values of the extended schema.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Label returns the static display label for the gender.
func (g Gender) Label() string {
	switch g {
	case GenderMale:
		return "Male"
	case GenderFemale:
		return "Female"
	default:
		return ""
	}
}

// Respondent is a survey subject record. ID and CreatedAt are assigned by the
// store on creation and never change afterwards.
type Respondent struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	PlaceOfBirth   string    `json:"pob,omitempty"`
	DateOfBirth    time.Time `json:"dob"`
	Gender         Gender    `json:"gender,omitempty"`
	Address        string    `json:"address,omitempty"`
	Semester       int       `json:"semester,omitempty"`
	Phone          string    `json:"phone"`
	Email          string    `json:"email,omitempty"`
	Height         float64   `json:"height"`
	Weight         float64   `json:"weight"`
	MedicalHistory string    `json:"medicalHistory,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}
