// Package export renders approved OD requests into an xlsx workbook.
//
// The sheet mirrors the report the administration expects: a bold header
// row, then one block per (faculty code, time slot) group with a styled
// group-header line and a blank separator row between blocks. Input order
// is preserved, so callers should pass rows already sorted by time slot
// then faculty code.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/odautomation/od-backend/internal/domain"
)

// SheetName is the single worksheet holding the report.
const SheetName = "Approved OD Requests"

var (
	headers   = []any{"Faculty Code", "Subject Code", "Name", "Enrollment Number", "Time From", "Time To", "Reason", "Status"}
	colWidths = []float64{15, 15, 25, 20, 15, 15, 40, 12}
)

// Builder produces xlsx workbooks for approved requests. The zero value is
// ready to use.
type Builder struct{}

// Build renders reqs into an xlsx binary. Rows are grouped by faculty code
// and time slot in first-seen order.
func (Builder) Build(reqs []domain.ODRequest) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, err
	}
	for i, w := range colWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(SheetName, col, col, w); err != nil {
			return nil, err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E0E0E0"}},
	})
	if err != nil {
		return nil, err
	}
	groupStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "0000FF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"F0F0F0"}},
	})
	if err != nil {
		return nil, err
	}

	if err := f.SetSheetRow(SheetName, "A1", &headers); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(SheetName, "A1", "H1", headerStyle); err != nil {
		return nil, err
	}

	row := 2
	var lastKey string
	for _, r := range reqs {
		key := r.FacultyCode + "_" + r.TimeFrom + "_" + r.TimeTo
		if key != lastKey {
			if lastKey != "" {
				row++ // blank separator row between groups
			}
			label := fmt.Sprintf("--- %s - %s to %s ---", r.FacultyCode, r.TimeFrom, r.TimeTo)
			cellA, _ := excelize.CoordinatesToCellName(1, row)
			cellC, _ := excelize.CoordinatesToCellName(3, row)
			cellH, _ := excelize.CoordinatesToCellName(8, row)
			if err := f.SetCellValue(SheetName, cellA, r.FacultyCode); err != nil {
				return nil, err
			}
			if err := f.SetCellValue(SheetName, cellC, label); err != nil {
				return nil, err
			}
			if err := f.SetCellStyle(SheetName, cellA, cellH, groupStyle); err != nil {
				return nil, err
			}
			row++
			lastKey = key
		}

		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, err
		}
		values := []any{r.FacultyCode, r.SubjectCode, r.Name, r.EnrollmentNumber, r.TimeFrom, r.TimeTo, r.Reason, r.Status}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, err
		}
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
