package analysis

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/vinvit-2/exp-ai-account/internal/errors"
)

var summaryHeaders = []string{
	"condition_api",
	"condition_alg",
	"participants",
	"decisions",
	"invite_rate",
	"override_rate",
	"rubric_error_rate",
	"mean_rt_ms",
	"median_rt_ms",
	"score_decision_corr",
}

// WriteWorkbook writes the summary as an .xlsx workbook with one row per
// condition cell plus a totals sheet.
func WriteWorkbook(path string, s Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Summary"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return errors.Wrap(err, "failed to rename sheet")
	}

	for col, header := range summaryHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return errors.Wrap(err, "bad header coordinate")
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return errors.Wrap(err, "failed to write header")
		}
	}

	for row, c := range s.Cells {
		values := []any{
			c.ConditionAPI,
			c.ConditionALG,
			c.Participants,
			c.Decisions,
			c.InviteRate,
			c.OverrideRate,
			c.RubricErrorRate,
			c.MeanRTms,
			c.MedianRTms,
			c.ScoreDecisionCorr,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return errors.Wrap(err, "bad cell coordinate")
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return errors.Wrap(err, "failed to write cell")
			}
		}
	}

	const totals = "Totals"
	if _, err := f.NewSheet(totals); err != nil {
		return errors.Wrap(err, "failed to create totals sheet")
	}
	totalRows := [][]any{
		{"events", s.Events},
		{"participants", s.Participants},
		{"completed_sessions", s.Sessions},
	}
	for row, pair := range totalRows {
		for col, value := range pair {
			cell, err := excelize.CoordinatesToCellName(col+1, row+1)
			if err != nil {
				return errors.Wrap(err, "bad totals coordinate")
			}
			if err := f.SetCellValue(totals, cell, value); err != nil {
				return errors.Wrap(err, "failed to write totals cell")
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "failed to save workbook %s", path)
	}
	return nil
}

// WorkbookName builds the conventional export file name for a given tag.
func WorkbookName(tag string) string {
	return fmt.Sprintf("hiring_task_summary_%s.xlsx", tag)
}
