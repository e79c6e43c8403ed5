// Package export renders a profile's event log as an Excel workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"cradle/internal/models"
)

var logColumns = []string{"Time", "Type", "End time", "Amount", "Unit", "Details"}

// WriteEventLog writes one sheet named after the profile with one row
// per event, oldest first, and streams the workbook to w.
func WriteEventLog(w io.Writer, profile *models.Profile, events []models.Event) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(profile)
	f.SetSheetName("Sheet1", sheet)

	row := 1
	if err := writeRow(f, sheet, row, headerValues()); err != nil {
		return err
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, row)
		endCell, _ := excelize.CoordinatesToCellName(len(logColumns), row)
		_ = f.SetCellStyle(sheet, startCell, endCell, style)
	}

	for i := range events {
		row++
		if err := writeRow(f, sheet, row, eventRowValues(&events[i])); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func sheetName(p *models.Profile) string {
	name := p.Handle()
	if name == "" {
		name = "Log"
	}
	// Excel caps sheet names at 31 chars.
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}

func headerValues() []interface{} {
	values := make([]interface{}, len(logColumns))
	for i, c := range logColumns {
		values[i] = c
	}
	return values
}

func eventRowValues(e *models.Event) []interface{} {
	end := ""
	if e.EndTime != nil {
		end = e.EndTime.Format("2006-01-02 15:04")
	}
	return []interface{}{
		e.Time.Format("2006-01-02 15:04"),
		e.Type.Label(),
		end,
		e.Amount,
		e.Unit,
		e.Details,
	}
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for i, val := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, val); err != nil {
			return err
		}
	}
	return nil
}
