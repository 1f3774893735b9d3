package validation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/respondent-registry-api/internal/models"
)

func fixedClock() time.Time {
	return time.Date(2024, time.June, 15, 9, 30, 0, 0, time.UTC)
}

func validBaseInput() map[string]interface{} {
	return map[string]interface{}{
		"name":   "  Alice Johnson ",
		"dob":    "2000-01-01",
		"phone":  "+10000000001",
		"email":  "Alice@Example.com",
		"height": 170.0,
		"weight": 70.0,
	}
}

func validExtendedInput() map[string]interface{} {
	input := validBaseInput()
	input["pob"] = "Bandung"
	input["gender"] = "Female"
	input["address"] = "Jl. Merdeka 10"
	input["semester"] = "3"
	input["medicalHistory"] = "asthma"
	return input
}

func requireViolations(t *testing.T, err error) *Error {
	t.Helper()
	require.Error(t, err)
	var validationErr *Error
	require.True(t, errors.As(err, &validationErr), "expected *validation.Error, got %T", err)
	return validationErr
}

func TestSchemaValidateBaseSuccess(t *testing.T) {
	schema := NewSchema(VariantBase, WithClock(fixedClock))

	record, err := schema.Validate(validBaseInput())
	require.NoError(t, err)

	require.Equal(t, "Alice Johnson", record.Name)
	require.Equal(t, "alice@example.com", record.Email)
	require.Equal(t, "+10000000001", record.Phone)
	require.Equal(t, time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC), record.DateOfBirth)
	require.Equal(t, 170.0, record.Height)
	require.Equal(t, 70.0, record.Weight)
	require.Empty(t, record.ID)
	require.True(t, record.CreatedAt.IsZero())
}

func TestSchemaValidateCoercesNumericStrings(t *testing.T) {
	schema := NewSchema(VariantBase, WithClock(fixedClock))
	input := validBaseInput()
	input["height"] = " 165.5 "
	input["weight"] = "58"

	record, err := schema.Validate(input)
	require.NoError(t, err)
	require.Equal(t, 165.5, record.Height)
	require.Equal(t, 58.0, record.Weight)
}

func TestSchemaValidateSingleViolationNamesField(t *testing.T) {
	cases := []struct {
		name    string
		field   string
		value   interface{}
		message string
	}{
		{name: "short name", field: "name", value: "A", message: "Name must be at least 2 characters."},
		{name: "future dob", field: "dob", value: "2030-01-01", message: "Date of birth must be between 1900-01-01 and today."},
		{name: "ancient dob", field: "dob", value: "1899-12-31", message: "Date of birth must be between 1900-01-01 and today."},
		{name: "impossible dob", field: "dob", value: "2023-02-30", message: "Date of birth must be a valid date."},
		{name: "missing dob", field: "dob", value: "", message: "Date of birth is required."},
		{name: "short phone", field: "phone", value: "12345", message: "Please enter a valid phone number."},
		{name: "bad email", field: "email", value: "not-an-email", message: "Please enter a valid email address."},
		{name: "zero height", field: "height", value: 0, message: "Height must be a positive number."},
		{name: "negative height", field: "height", value: "-5", message: "Height must be a positive number."},
		{name: "garbage weight", field: "weight", value: "heavy", message: "Weight must be a positive number."},
	}

	schema := NewSchema(VariantBase, WithClock(fixedClock))
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validBaseInput()
			input[tc.field] = tc.value

			_, err := schema.Validate(input)
			validationErr := requireViolations(t, err)
			require.Equal(t, []string{tc.field}, validationErr.Fields())
			require.Equal(t, tc.message, validationErr.Violations[0].Message)
		})
	}
}

func TestSchemaValidateReportsEveryViolation(t *testing.T) {
	schema := NewSchema(VariantBase, WithClock(fixedClock))

	_, err := schema.Validate(map[string]interface{}{})
	validationErr := requireViolations(t, err)
	require.Equal(t, []string{"name", "dob", "phone", "email", "height", "weight"}, validationErr.Fields())
}

func TestSchemaValidateAcceptsBoundaryDates(t *testing.T) {
	schema := NewSchema(VariantBase, WithClock(fixedClock))

	for _, dob := range []interface{}{"1900-01-01", "2024-06-15", time.Date(2024, time.June, 15, 23, 0, 0, 0, time.UTC), "1990-05-20T08:00:00Z"} {
		input := validBaseInput()
		input["dob"] = dob
		_, err := schema.Validate(input)
		require.NoError(t, err, "dob %v", dob)
	}
}

func TestSchemaValidateRejectsNonDateValues(t *testing.T) {
	schema := NewSchema(VariantBase, WithClock(fixedClock))

	for _, dob := range []interface{}{946684800, int64(946684800), 946684800.0, true} {
		input := validBaseInput()
		input["dob"] = dob
		_, err := schema.Validate(input)
		validationErr := requireViolations(t, err)
		require.Equal(t, []string{"dob"}, validationErr.Fields(), "dob %v", dob)
		require.Equal(t, "Date of birth must be a valid date.", validationErr.Violations[0].Message)
	}
}

func TestSchemaValidateBoundsDateOfBirthByUTCDate(t *testing.T) {
	kiritimati := time.FixedZone("LINT", 14*60*60)
	// June 15 locally, June 14 in UTC.
	schema := NewSchema(VariantBase, WithClock(func() time.Time {
		return time.Date(2024, time.June, 15, 1, 0, 0, 0, kiritimati)
	}))

	input := validBaseInput()
	input["dob"] = "2024-06-14"
	_, err := schema.Validate(input)
	require.NoError(t, err)

	input["dob"] = "2024-06-15"
	_, err = schema.Validate(input)
	validationErr := requireViolations(t, err)
	require.Equal(t, []string{"dob"}, validationErr.Fields())
}

func TestSchemaValidateSanitisesFreeText(t *testing.T) {
	schema := NewSchema(VariantBase, WithClock(fixedClock))
	input := validBaseInput()
	input["name"] = "<b>O'Brien</b>"

	record, err := schema.Validate(input)
	require.NoError(t, err)
	require.Equal(t, "O'Brien", record.Name)
}

func TestSchemaValidateExtendedSuccess(t *testing.T) {
	schema := NewSchema(VariantExtended, WithClock(fixedClock))

	record, err := schema.Validate(validExtendedInput())
	require.NoError(t, err)
	require.Equal(t, "Bandung", record.PlaceOfBirth)
	require.Equal(t, models.GenderFemale, record.Gender)
	require.Equal(t, 3, record.Semester)
	require.Equal(t, "asthma", record.MedicalHistory)
}

func TestSchemaValidateExtendedOptionalFields(t *testing.T) {
	schema := NewSchema(VariantExtended, WithClock(fixedClock))
	input := validExtendedInput()
	delete(input, "email")
	delete(input, "medicalHistory")

	record, err := schema.Validate(input)
	require.NoError(t, err)
	require.Empty(t, record.Email)
	require.Empty(t, record.MedicalHistory)
}

func TestSchemaValidateExtendedViolations(t *testing.T) {
	cases := []struct {
		field string
		value interface{}
	}{
		{field: "gender", value: "other"},
		{field: "semester", value: 1.5},
		{field: "semester", value: 0},
		{field: "semester", value: 1e20},
		{field: "address", value: "abc"},
		{field: "pob", value: ""},
		{field: "email", value: "broken@"},
	}

	schema := NewSchema(VariantExtended, WithClock(fixedClock))
	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			input := validExtendedInput()
			input[tc.field] = tc.value

			_, err := schema.Validate(input)
			validationErr := requireViolations(t, err)
			require.Equal(t, []string{tc.field}, validationErr.Fields())
		})
	}
}

func TestParseVariant(t *testing.T) {
	variant, err := ParseVariant("")
	require.NoError(t, err)
	require.Equal(t, VariantBase, variant)

	variant, err = ParseVariant(" Extended ")
	require.NoError(t, err)
	require.Equal(t, VariantExtended, variant)

	_, err = ParseVariant("legacy")
	require.Error(t, err)
}
