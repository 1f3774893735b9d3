package dto

import (
	"time"

	"github.com/noah-isme/respondent-registry-api/internal/derived"
	"github.com/noah-isme/respondent-registry-api/internal/models"
)

const (
	// DateLayout is the canonical wire format of calendar dates.
	DateLayout = "2006-01-02"
	// TimestampLayout is the canonical wire format of instants, always rendered in UTC.
	TimestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// RespondentInput is the untyped payload submitted by the form or API clients.
type RespondentInput map[string]interface{}

// RespondentResponse is the wire representation of a respondent with derived fields attached.
type RespondentResponse struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	PlaceOfBirth   string  `json:"pob,omitempty"`
	DateOfBirth    string  `json:"dob"`
	Age            int     `json:"age"`
	Gender         string  `json:"gender,omitempty"`
	Address        string  `json:"address,omitempty"`
	Semester       int     `json:"semester,omitempty"`
	Phone          string  `json:"phone"`
	Email          string  `json:"email,omitempty"`
	Height         float64 `json:"height"`
	Weight         float64 `json:"weight"`
	BMI            float64 `json:"bmi"`
	MedicalHistory string  `json:"medicalHistory,omitempty"`
	CreatedAt      string  `json:"createdAt"`
}

// NewRespondentResponse converts a stored respondent into its wire form,
// computing age and BMI against now.
func NewRespondentResponse(model models.Respondent, now time.Time) RespondentResponse {
	return RespondentResponse{
		ID:             model.ID,
		Name:           model.Name,
		PlaceOfBirth:   model.PlaceOfBirth,
		DateOfBirth:    model.DateOfBirth.UTC().Format(DateLayout),
		Age:            derived.Age(model.DateOfBirth, now),
		Gender:         string(model.Gender),
		Address:        model.Address,
		Semester:       model.Semester,
		Phone:          model.Phone,
		Email:          model.Email,
		Height:         model.Height,
		Weight:         model.Weight,
		BMI:            derived.BMI(model.Height, model.Weight),
		MedicalHistory: model.MedicalHistory,
		CreatedAt:      model.CreatedAt.UTC().Format(TimestampLayout),
	}
}

// NewRespondentResponseSlice converts a list of respondents preserving order.
func NewRespondentResponseSlice(items []models.Respondent, now time.Time) []RespondentResponse {
	responses := make([]RespondentResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewRespondentResponse(item, now))
	}
	return responses
}

// DateOfBirthTime parses the canonical date of birth.
func (r RespondentResponse) DateOfBirthTime() (time.Time, error) {
	return time.Parse(DateLayout, r.DateOfBirth)
}

// CreatedAtTime parses the canonical creation timestamp.
func (r RespondentResponse) CreatedAtTime() (time.Time, error) {
	return time.Parse(TimestampLayout, r.CreatedAt)
}

// Input returns the editable fields of the respondent as form input. The date of
// birth is converted back into a calendar date.
func (r RespondentResponse) Input() RespondentInput {
	input := RespondentInput{
		"name":   r.Name,
		"phone":  r.Phone,
		"email":  r.Email,
		"height": r.Height,
		"weight": r.Weight,
	}
	if dob, err := r.DateOfBirthTime(); err == nil {
		input["dob"] = dob
	}
	if r.PlaceOfBirth != "" {
		input["pob"] = r.PlaceOfBirth
	}
	if r.Gender != "" {
		input["gender"] = r.Gender
	}
	if r.Address != "" {
		input["address"] = r.Address
	}
	if r.Semester != 0 {
		input["semester"] = r.Semester
	}
	if r.MedicalHistory != "" {
		input["medicalHistory"] = r.MedicalHistory
	}
	return input
}

// RespondentListRequest captures the filter and sort applied to a listing or export.
type RespondentListRequest struct {
	Search string
	Sort   string
	Order  string
	Format string
}

// RespondentListResponse wraps the rendered view of respondents.
type RespondentListResponse struct {
	Items []RespondentResponse `json:"items"`
	Total int                  `json:"total"`
	Sort  string               `json:"sort,omitempty"`
	Order string               `json:"order,omitempty"`
}

// ActionResponse is the outcome of a write operation as shown to the operator.
type ActionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Change actions broadcast after a successful write.
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

// RespondentChangeEvent signals readers that the respondent set changed.
type RespondentChangeEvent struct {
	Action       string    `json:"action"`
	RespondentID string    `json:"respondent_id"`
	OccurredAt   time.Time `json:"occurred_at"`
}
