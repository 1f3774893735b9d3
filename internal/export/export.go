// Package export renders tabular respondent views as CSV or XLSX files.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"
)

// Format identifies an export file type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// SheetName is the single worksheet of an XLSX export.
const SheetName = "Respondents"

// ParseFormat resolves a requested export format, defaulting to CSV.
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX, "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", value)
	}
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string {
	return string(f)
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Table is a header row plus data rows in display order.
type Table struct {
	Headers []string
	Rows    [][]interface{}
}

// Filename builds respondents_<YYYYMMDD>.<ext> for the export date.
func Filename(format Format, now time.Time) string {
	return fmt.Sprintf("respondents_%s.%s", now.Format("20060102"), format.Extension())
}

// Write serialises table in the given format.
func Write(w io.Writer, format Format, table Table) error {
	switch format {
	case FormatXLSX:
		return WriteXLSX(w, table)
	case FormatCSV:
		return WriteCSV(w, table)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// Render serialises table into memory.
func Render(format Format, table Table) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := Write(buf, format, table); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteCSV writes a header row followed by one record per row.
func WriteCSV(w io.Writer, table Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(table.Headers); err != nil {
		return err
	}

	record := make([]string, len(table.Headers))
	for _, row := range table.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) {
				record[i] = cast.ToString(row[i])
			}
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteXLSX writes a single-sheet workbook with a bold header row.
func WriteXLSX(w io.Writer, table Table) (err error) {
	file := excelize.NewFile()
	defer func() {
		if closeErr := file.Close(); err == nil {
			err = closeErr
		}
	}()

	if err := file.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	headers := make([]interface{}, len(table.Headers))
	for i, header := range table.Headers {
		headers[i] = header
	}
	if err := file.SetSheetRow(SheetName, "A1", &headers); err != nil {
		return err
	}

	bold, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if len(table.Headers) > 0 {
		last, err := excelize.CoordinatesToCellName(len(table.Headers), 1)
		if err != nil {
			return err
		}
		if err := file.SetCellStyle(SheetName, "A1", last, bold); err != nil {
			return err
		}
	}

	for i, row := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row
		if err := file.SetSheetRow(SheetName, cell, &values); err != nil {
			return err
		}
	}

	_, err = file.WriteTo(w)
	return err
}
