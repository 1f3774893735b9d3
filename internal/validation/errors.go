package validation

import (
	"fmt"
	"sort"
	"strings"
)

// FieldViolation describes a single failed constraint.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error carries every field violation found in one validation pass.
type Error struct {
	Violations []FieldViolation
}

func (e *Error) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Fields(), ", "))
}

// Fields lists the offending field names in schema order.
func (e *Error) Fields() []string {
	fields := make([]string, 0, len(e.Violations))
	for _, violation := range e.Violations {
		fields = append(fields, violation.Field)
	}
	return fields
}

// Has reports whether field failed validation.
func (e *Error) Has(field string) bool {
	for _, violation := range e.Violations {
		if violation.Field == field {
			return true
		}
	}
	return false
}

var fieldOrder = map[string]int{
	"name":           0,
	"pob":            1,
	"dob":            2,
	"gender":         3,
	"address":        4,
	"semester":       5,
	"phone":          6,
	"email":          7,
	"height":         8,
	"weight":         9,
	"medicalHistory": 10,
}

var fieldMessages = map[string]string{
	"name":           "Name must be at least 2 characters.",
	"pob":            "Place of birth must be at least 2 characters.",
	"dob":            "Date of birth must be between 1900-01-01 and today.",
	"gender":         "Please select a gender.",
	"address":        "Address must be at least 5 characters.",
	"semester":       "Semester must be at least 1.",
	"phone":          "Please enter a valid phone number.",
	"email":          "Please enter a valid email address.",
	"height":         "Height must be a positive number.",
	"weight":         "Weight must be a positive number.",
	"medicalHistory": "Medical history must be at most 2000 characters.",
}

var tagMessages = map[string]string{
	"dob.required":    "Date of birth is required.",
	"dob.date":        "Date of birth must be a valid date.",
	"semester.number": "Semester must be a whole number.",
}

func messageFor(field, tag string) string {
	if message, ok := tagMessages[field+"."+tag]; ok {
		return message
	}
	if message, ok := fieldMessages[field]; ok {
		return message
	}
	return fmt.Sprintf("%s is invalid.", field)
}

// violationSet keeps the first violation per field.
type violationSet struct {
	byField map[string]string
}

func newViolationSet() *violationSet {
	return &violationSet{byField: make(map[string]string)}
}

func (v *violationSet) add(field, message string) {
	if _, exists := v.byField[field]; exists {
		return
	}
	v.byField[field] = message
}

func (v *violationSet) empty() bool {
	return len(v.byField) == 0
}

func (v *violationSet) list() []FieldViolation {
	result := make([]FieldViolation, 0, len(v.byField))
	for field, message := range v.byField {
		result = append(result, FieldViolation{Field: field, Message: message})
	}
	sort.Slice(result, func(i, j int) bool {
		return fieldOrder[result[i].Field] < fieldOrder[result[j].Field]
	})
	return result
}
