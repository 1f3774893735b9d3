package browser

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/noah-isme/respondent-registry-api/internal/dto"
	"github.com/noah-isme/respondent-registry-api/internal/validation"
)

// Column is a sortable table column.
type Column string

const (
	ColumnName         Column = "name"
	ColumnPlaceOfBirth Column = "pob"
	ColumnDateOfBirth  Column = "dob"
	ColumnAge          Column = "age"
	ColumnGender       Column = "gender"
	ColumnAddress      Column = "address"
	ColumnSemester     Column = "semester"
	ColumnPhone        Column = "phone"
	ColumnEmail        Column = "email"
	ColumnHeight       Column = "height"
	ColumnWeight       Column = "weight"
	ColumnBMI          Column = "bmi"
	ColumnCreatedAt    Column = "createdAt"
)

var columns = []Column{
	ColumnName, ColumnPlaceOfBirth, ColumnDateOfBirth, ColumnAge, ColumnGender, ColumnAddress,
	ColumnSemester, ColumnPhone, ColumnEmail, ColumnHeight, ColumnWeight, ColumnBMI, ColumnCreatedAt,
}

// ParseColumn resolves a column name. An empty name means unsorted.
func ParseColumn(value string) (Column, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	for _, column := range columns {
		if strings.EqualFold(value, string(column)) {
			return column, nil
		}
	}
	return "", fmt.Errorf("unknown sort column %q", value)
}

// Direction is the sort order of the active column.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseDirection resolves a sort direction, defaulting to ascending.
func ParseDirection(value string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	default:
		return "", fmt.Errorf("unknown sort direction %q", value)
	}
}

// Query is the filter and sort applied to the record set.
type Query struct {
	Search    string
	Sort      Column
	Direction Direction
	Variant   validation.Variant
}

// ParseQuery builds a Query from request parameters.
func ParseQuery(req dto.RespondentListRequest, variant validation.Variant) (Query, error) {
	column, err := ParseColumn(req.Sort)
	if err != nil {
		return Query{}, err
	}
	direction, err := ParseDirection(req.Order)
	if err != nil {
		return Query{}, err
	}
	return Query{Search: req.Search, Sort: column, Direction: direction, Variant: variant}, nil
}

// Apply filters and sorts records without modifying the input slice.
func Apply(records []dto.RespondentResponse, query Query) []dto.RespondentResponse {
	needle := strings.ToLower(strings.TrimSpace(query.Search))

	view := make([]dto.RespondentResponse, 0, len(records))
	for _, record := range records {
		if matches(record, needle, query.Variant) {
			view = append(view, record)
		}
	}

	if query.Sort == "" {
		return view
	}

	slices.SortStableFunc(view, func(a, b dto.RespondentResponse) int {
		result := compareBy(query.Sort, a, b)
		if result == 0 {
			result = strings.Compare(a.ID, b.ID)
		}
		if query.Direction == Descending {
			return -result
		}
		return result
	})
	return view
}

func matches(record dto.RespondentResponse, needle string, variant validation.Variant) bool {
	if needle == "" {
		return true
	}
	if strings.Contains(strings.ToLower(record.Name), needle) || strings.Contains(strings.ToLower(record.Phone), needle) {
		return true
	}
	return variant == validation.VariantExtended && strings.Contains(strings.ToLower(record.Email), needle)
}

func compareBy(column Column, a, b dto.RespondentResponse) int {
	switch column {
	case ColumnName:
		return compareText(a.Name, b.Name)
	case ColumnPlaceOfBirth:
		return compareText(a.PlaceOfBirth, b.PlaceOfBirth)
	case ColumnDateOfBirth:
		return strings.Compare(a.DateOfBirth, b.DateOfBirth)
	case ColumnAge:
		return cmp.Compare(a.Age, b.Age)
	case ColumnGender:
		return compareText(a.Gender, b.Gender)
	case ColumnAddress:
		return compareText(a.Address, b.Address)
	case ColumnSemester:
		return cmp.Compare(a.Semester, b.Semester)
	case ColumnPhone:
		return strings.Compare(a.Phone, b.Phone)
	case ColumnEmail:
		return compareText(a.Email, b.Email)
	case ColumnHeight:
		return cmp.Compare(a.Height, b.Height)
	case ColumnWeight:
		return cmp.Compare(a.Weight, b.Weight)
	case ColumnBMI:
		return cmp.Compare(a.BMI, b.BMI)
	case ColumnCreatedAt:
		return strings.Compare(a.CreatedAt, b.CreatedAt)
	default:
		return 0
	}
}

func compareText(a, b string) int {
	if result := strings.Compare(strings.ToLower(a), strings.ToLower(b)); result != 0 {
		return result
	}
	return strings.Compare(a, b)
}
