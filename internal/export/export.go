package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/wonny/macrowatch/internal/report"
	"github.com/wonny/macrowatch/pkg/logger"
)

// RenderError reports a single artifact that failed to render. Other
// artifacts of the same run are unaffected.
type RenderError struct {
	Artifact string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("export: rendering %s: %v", e.Artifact, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Exporter writes the run artifacts into the output directory.
type Exporter struct {
	outputDir string
	logger    *logger.Logger
}

// New creates an exporter rooted at outputDir.
func New(outputDir string, log *logger.Logger) *Exporter {
	return &Exporter{outputDir: outputDir, logger: log}
}

// WriteAll renders every artifact, isolating failures: a broken
// artifact is logged and collected, the rest still get written.
// Returns the paths written and any per-artifact errors.
func (e *Exporter) WriteAll(rep *report.Report) ([]string, []error) {
	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return nil, []error{fmt.Errorf("export: creating output dir: %w", err)}
	}

	artifacts := []struct {
		name   string
		render func(*report.Report, string) error
	}{
		{"note_table.md", e.writeMarkdown},
		{"raw.csv", e.writeCSV},
		{"dashboard.xlsx", e.writeExcel},
	}

	var written []string
	var errs []error
	for _, a := range artifacts {
		path := filepath.Join(e.outputDir, a.name)
		if err := a.render(rep, path); err != nil {
			renderErr := &RenderError{Artifact: a.name, Err: err}
			e.logger.WithError(renderErr).Error("artifact render failed")
			errs = append(errs, renderErr)
			continue
		}
		e.logger.WithField("path", path).Info("artifact written")
		written = append(written, path)
	}
	return written, errs
}
