package browser

import (
	"github.com/noah-isme/respondent-registry-api/internal/dto"
	"github.com/noah-isme/respondent-registry-api/internal/export"
	"github.com/noah-isme/respondent-registry-api/internal/models"
	"github.com/noah-isme/respondent-registry-api/internal/validation"
)

const exportTimestampLayout = "2006-01-02 15:04:05"

var baseHeaders = []string{
	"ID", "Name", "Date of Birth", "Age", "Phone", "Email",
	"Height (cm)", "Weight (kg)", "BMI", "Created At",
}

var extendedHeaders = []string{
	"ID", "Name", "Place of Birth", "Date of Birth", "Age", "Gender", "Address", "Semester",
	"Phone", "Email", "Height (cm)", "Weight (kg)", "BMI", "Medical History", "Created At",
}

// Headers returns the display columns for the schema variant.
func Headers(variant validation.Variant) []string {
	if variant == validation.VariantExtended {
		return append([]string(nil), extendedHeaders...)
	}
	return append([]string(nil), baseHeaders...)
}

// ExportTable lays out rows in display order using the variant's headers.
// Age and BMI are copied from the rows as already computed.
func ExportTable(rows []dto.RespondentResponse, variant validation.Variant) export.Table {
	table := export.Table{
		Headers: Headers(variant),
		Rows:    make([][]interface{}, 0, len(rows)),
	}

	for _, row := range rows {
		createdAt := row.CreatedAt
		if parsed, err := row.CreatedAtTime(); err == nil {
			createdAt = parsed.UTC().Format(exportTimestampLayout)
		}

		if variant == validation.VariantExtended {
			table.Rows = append(table.Rows, []interface{}{
				row.ID, row.Name, row.PlaceOfBirth, row.DateOfBirth, row.Age,
				models.Gender(row.Gender).Label(), row.Address, row.Semester,
				row.Phone, row.Email, row.Height, row.Weight, row.BMI, row.MedicalHistory, createdAt,
			})
			continue
		}

		table.Rows = append(table.Rows, []interface{}{
			row.ID, row.Name, row.DateOfBirth, row.Age, row.Phone, row.Email,
			row.Height, row.Weight, row.BMI, createdAt,
		})
	}

	return table
}
