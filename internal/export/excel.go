package export

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/wonny/macrowatch/internal/report"
)

// writeExcel renders the dashboard workbook: an overview sheet with the
// score and report table, plus one sheet per chart series where months
// run down the rows and alert points carry a red fill.
func (e *Exporter) writeExcel(rep *report.Report, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	alertStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFC7CE"}},
		Font: &excelize.Font{Color: "9C0006"},
	})
	if err != nil {
		return fmt.Errorf("creating alert style: %w", err)
	}

	overview := "Overview"
	f.SetSheetName(f.GetSheetName(0), overview)

	f.SetCellValue(overview, "A1", "Generated")
	f.SetCellValue(overview, "B1", rep.GeneratedAt.Format("2006-01-02 15:04 MST"))
	f.SetCellValue(overview, "A2", "Score")
	f.SetCellValue(overview, "B2", fmt.Sprintf("%d%% (%s)", rep.Score.Percentage, rep.Score.Tier))

	headers := []string{"Bucket", "Indicator", "Period", "Level", "Change", "Alerts"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 4)
		f.SetCellValue(overview, cell, h)
	}
	for r, row := range rep.Rows {
		rowNum := r + 5
		set := func(col int, v interface{}) {
			cell, _ := excelize.CoordinatesToCellName(col, rowNum)
			f.SetCellValue(overview, cell, v)
		}
		set(1, row.Bucket)
		set(2, row.Label)
		set(3, row.Period)
		if row.Level != nil {
			set(4, *row.Level)
		}
		if row.Change != nil {
			set(5, *row.Change)
		}
		set(6, alertCell(row))

		if row.Evaluable > 0 && row.Triggered > 0 {
			cell, _ := excelize.CoordinatesToCellName(6, rowNum)
			f.SetCellStyle(overview, cell, cell, alertStyle)
		}
	}

	for _, cs := range rep.Charts {
		if err := writeChartSheet(f, cs, alertStyle); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

func writeChartSheet(f *excelize.File, cs report.ChartSeries, alertStyle int) error {
	sheet := sheetName(cs.IndicatorID)
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating sheet %s: %w", sheet, err)
	}

	f.SetCellValue(sheet, "A1", cs.Label)
	f.SetCellValue(sheet, "A2", "Month")
	f.SetCellValue(sheet, "B2", "Level")
	f.SetCellValue(sheet, "C2", "Change")

	// Change is right-aligned against the level window tail.
	offset := len(cs.Level) - len(cs.Change)

	for i := range cs.Level {
		rowNum := i + 3
		monthCell, _ := excelize.CoordinatesToCellName(1, rowNum)
		levelCell, _ := excelize.CoordinatesToCellName(2, rowNum)
		f.SetCellValue(sheet, monthCell, cs.Months[i].Format("2006-01"))
		f.SetCellValue(sheet, levelCell, cs.Level[i])

		if i < len(cs.LevelAlerts) && cs.LevelAlerts[i] {
			f.SetCellStyle(sheet, levelCell, levelCell, alertStyle)
		}

		ci := i - offset
		if ci < 0 || ci >= len(cs.Change) || math.IsNaN(cs.Change[ci]) {
			continue
		}
		changeCell, _ := excelize.CoordinatesToCellName(3, rowNum)
		f.SetCellValue(sheet, changeCell, cs.Change[ci])
		if ci < len(cs.ChangeAlerts) && cs.ChangeAlerts[ci] {
			f.SetCellStyle(sheet, changeCell, changeCell, alertStyle)
		}
	}
	return nil
}

// sheetName keeps indicator ids inside excel's 31-char sheet limit.
func sheetName(id string) string {
	if len(id) > 31 {
		return id[:31]
	}
	return id
}
