package validation

import (
	"errors"
	"fmt"
	"html"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/spf13/cast"

	"github.com/noah-isme/respondent-registry-api/internal/models"
)

// Variant selects which respondent schema is enforced.
type Variant string

const (
	// VariantBase covers name, date of birth, phone, email, height and weight.
	VariantBase Variant = "base"
	// VariantExtended adds place of birth, gender, address, semester and medical history.
	VariantExtended Variant = "extended"
)

// ParseVariant resolves a configured variant name.
func ParseVariant(value string) (Variant, error) {
	switch Variant(strings.ToLower(strings.TrimSpace(value))) {
	case "", VariantBase:
		return VariantBase, nil
	case VariantExtended:
		return VariantExtended, nil
	default:
		return "", fmt.Errorf("unknown schema variant %q", value)
	}
}

// ErrMissing is returned by the parse helpers when no value was supplied.
var ErrMissing = errors.New("value missing")

var minDateOfBirth = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

type baseRecord struct {
	Name   string    `json:"name" validate:"required,min=2"`
	DOB    time.Time `json:"dob" validate:"dob"`
	Phone  string    `json:"phone" validate:"required,min=10"`
	Email  string    `json:"email" validate:"required,email"`
	Height float64   `json:"height" validate:"gt=0"`
	Weight float64   `json:"weight" validate:"gt=0"`
}

type extendedRecord struct {
	Name           string    `json:"name" validate:"required,min=2"`
	PlaceOfBirth   string    `json:"pob" validate:"required,min=2"`
	DOB            time.Time `json:"dob" validate:"dob"`
	Gender         string    `json:"gender" validate:"required,oneof=male female"`
	Address        string    `json:"address" validate:"required,min=5"`
	Semester       int       `json:"semester" validate:"min=1"`
	Phone          string    `json:"phone" validate:"required,min=10"`
	Email          string    `json:"email" validate:"omitempty,email"`
	Height         float64   `json:"height" validate:"gt=0"`
	Weight         float64   `json:"weight" validate:"gt=0"`
	MedicalHistory string    `json:"medicalHistory" validate:"omitempty,max=2000"`
}

// Schema validates untyped respondent input and normalises it into a model.
type Schema struct {
	variant   Variant
	validate  *validator.Validate
	sanitizer *bluemonday.Policy
	now       func() time.Time
}

// Option customises a Schema.
type Option func(*Schema)

// WithClock overrides the clock used for the date of birth upper bound.
func WithClock(now func() time.Time) Option {
	return func(s *Schema) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSchema constructs a validator for the given variant.
func NewSchema(variant Variant, opts ...Option) *Schema {
	if variant == "" {
		variant = VariantBase
	}

	s := &Schema{
		variant:   variant,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		sanitizer: bluemonday.StrictPolicy(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.validate.RegisterTagNameFunc(jsonFieldName)
	_ = s.validate.RegisterValidation("dob", s.validateDateOfBirth)

	return s
}

// Variant reports the enforced schema variant.
func (s *Schema) Variant() Variant {
	return s.variant
}

// Validate checks every field of input and returns the normalised respondent, or
// an *Error listing all violations.
func (s *Schema) Validate(input map[string]interface{}) (models.Respondent, error) {
	violations := newViolationSet()

	dob, err := ParseDate(input["dob"])
	if err != nil {
		if errors.Is(err, ErrMissing) {
			violations.add("dob", messageFor("dob", "required"))
		} else {
			violations.add("dob", messageFor("dob", "date"))
		}
	}

	height := s.number(input, "height", violations)
	weight := s.number(input, "weight", violations)

	record := models.Respondent{
		Name:        s.text(input["name"]),
		DateOfBirth: dob,
		Phone:       strings.TrimSpace(cast.ToString(input["phone"])),
		Email:       strings.ToLower(strings.TrimSpace(cast.ToString(input["email"]))),
		Height:      height,
		Weight:      weight,
	}

	var target interface{}
	switch s.variant {
	case VariantExtended:
		record.PlaceOfBirth = s.text(input["pob"])
		record.Gender = models.Gender(strings.ToLower(strings.TrimSpace(cast.ToString(input["gender"]))))
		record.Address = s.text(input["address"])
		record.Semester = s.semester(input, violations)
		record.MedicalHistory = s.text(input["medicalHistory"])

		target = extendedRecord{
			Name:           record.Name,
			PlaceOfBirth:   record.PlaceOfBirth,
			DOB:            record.DateOfBirth,
			Gender:         string(record.Gender),
			Address:        record.Address,
			Semester:       record.Semester,
			Phone:          record.Phone,
			Email:          record.Email,
			Height:         record.Height,
			Weight:         record.Weight,
			MedicalHistory: record.MedicalHistory,
		}
	default:
		target = baseRecord{
			Name:   record.Name,
			DOB:    record.DateOfBirth,
			Phone:  record.Phone,
			Email:  record.Email,
			Height: record.Height,
			Weight: record.Weight,
		}
	}

	if err := s.validate.Struct(target); err != nil {
		var fieldErrors validator.ValidationErrors
		if !errors.As(err, &fieldErrors) {
			return models.Respondent{}, err
		}
		for _, fe := range fieldErrors {
			violations.add(fe.Field(), messageFor(fe.Field(), fe.Tag()))
		}
	}

	if violations.empty() {
		return record, nil
	}

	return models.Respondent{}, &Error{Violations: violations.list()}
}

// ParseDate coerces a date input into a calendar date at UTC midnight.
func ParseDate(value interface{}) (time.Time, error) {
	if value == nil {
		return time.Time{}, ErrMissing
	}

	var parsed time.Time
	switch v := value.(type) {
	case time.Time:
		parsed = v
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return time.Time{}, ErrMissing
		}
		var err error
		if parsed, err = cast.ToTimeInDefaultLocationE(text, time.UTC); err != nil {
			return time.Time{}, err
		}
	default:
		return time.Time{}, fmt.Errorf("%T is not a calendar date", value)
	}
	if parsed.IsZero() {
		return time.Time{}, ErrMissing
	}

	return DateOf(parsed), nil
}

// ParseNumber coerces a numeric input given as a number or a string.
func ParseNumber(value interface{}) (float64, error) {
	if value == nil {
		return 0, ErrMissing
	}
	if text, ok := value.(string); ok {
		text = strings.TrimSpace(text)
		if text == "" {
			return 0, ErrMissing
		}
		value = text
	}

	parsed, err := cast.ToFloat64E(value)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return 0, fmt.Errorf("%v is not a finite number", value)
	}

	return parsed, nil
}

// DateOf truncates t to its calendar date at UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *Schema) validateDateOfBirth(fl validator.FieldLevel) bool {
	dob, ok := fl.Field().Interface().(time.Time)
	if !ok || dob.IsZero() {
		return false
	}

	return !dob.Before(minDateOfBirth) && !dob.After(DateOf(s.now().UTC()))
}

func (s *Schema) text(value interface{}) string {
	raw := cast.ToString(value)
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(raw)))
}

func (s *Schema) number(input map[string]interface{}, field string, violations *violationSet) float64 {
	value, err := ParseNumber(input[field])
	if err != nil && !errors.Is(err, ErrMissing) {
		violations.add(field, messageFor(field, "number"))
	}
	return value
}

func (s *Schema) semester(input map[string]interface{}, violations *violationSet) int {
	value, err := ParseNumber(input["semester"])
	if err != nil {
		if !errors.Is(err, ErrMissing) {
			violations.add("semester", messageFor("semester", "number"))
		}
		return 0
	}
	if value != math.Trunc(value) || value > math.MaxInt32 || value < math.MinInt32 {
		violations.add("semester", messageFor("semester", "number"))
		return 0
	}
	return int(value)
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return field.Name
	}
	return name
}
