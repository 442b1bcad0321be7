package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/wonny/macrowatch/internal/report"
)

// writeCSV exports the latest values per indicator as a flat table.
func (e *Exporter) writeCSV(rep *report.Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "bucket", "label", "unit", "period", "level", "change", "triggered", "evaluable", "note"}); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, row := range rep.Rows {
		record := []string{
			row.ID, row.Bucket, row.Label, row.Unit, row.Period,
			csvFloat(row.Level), csvFloat(row.Change),
			strconv.Itoa(row.Triggered), strconv.Itoa(row.Evaluable),
			row.Note,
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing csv row %s: %w", row.ID, err)
		}
	}

	w.Flush()
	return w.Error()
}

func csvFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
