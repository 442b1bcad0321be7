package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/wonny/macrowatch/internal/report"
)

// writeMarkdown renders the report table, composite score and summary
// as a markdown note.
func (e *Exporter) writeMarkdown(rep *report.Report, path string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Macro Watch — %s\n\n", rep.GeneratedAt.Format("2006-01-02"))
	fmt.Fprintf(&b, "Catalog: %s v%s\n\n", rep.CatalogID, rep.CatalogVersion)

	fmt.Fprintf(&b, "**Alert score: %d%% (%s)** — %d of %d rules triggered\n\n",
		rep.Score.Percentage, rep.Score.Tier, rep.Score.Triggered, rep.Score.Evaluable)

	b.WriteString("| Bucket | Indicator | Period | Level | Change | Alerts |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, row := range rep.Rows {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			row.Bucket, row.Label,
			orDash(row.Period),
			formatValue(row.Level, row.Unit),
			formatChange(row.Change, row.Adverse),
			alertCell(row),
		)
	}

	if rep.Summary != "" {
		b.WriteString("\n## Summary\n\n")
		b.WriteString(rep.Summary)
		b.WriteString("\n")
	}

	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

func formatValue(v *float64, unit string) string {
	if v == nil {
		return "—"
	}
	if unit != "" {
		return fmt.Sprintf("%.2f %s", *v, unit)
	}
	return fmt.Sprintf("%.2f", *v)
}

func formatChange(v *float64, adverse bool) string {
	if v == nil {
		return "—"
	}
	glyph := "▽"
	if adverse {
		glyph = "▲"
	}
	return fmt.Sprintf("%+.2f %s", *v, glyph)
}

func alertCell(row report.Row) string {
	if row.Note != "" {
		return row.Note
	}
	if row.Evaluable == 0 {
		return "–"
	}
	return fmt.Sprintf("%d/%d", row.Triggered, row.Evaluable)
}
