package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"video-failures-go/internal/types"
)

const sheetName = "Failures"

var header = []string{"Timestamp (s)", "Title", "Expected", "Actual", "Evidence", "Confidence"}

// WriteXLSX writes failure events to a spreadsheet for triage. Used by
// the CLI only; the service itself persists nothing.
func WriteXLSX(path string, failures []types.FailureEvent) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	for col, h := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return err
		}
	}
	for row, ev := range failures {
		values := []any{ev.TimestampSeconds, ev.Title, ev.Expected, ev.Actual, ev.Evidence, ev.Confidence}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}
