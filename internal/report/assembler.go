package report

import (
	"time"

	"github.com/wonny/macrowatch/internal/catalog"
	"github.com/wonny/macrowatch/internal/series"
	"github.com/wonny/macrowatch/internal/signal"
)

// Row is one indicator line of the report table, in catalog order.
// Level/Change are nil when the indicator was unavailable this run or
// the value is undefined.
type Row struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	Bucket    string   `json:"bucket"`
	Unit      string   `json:"unit,omitempty"`
	Period    string   `json:"period,omitempty"`
	Level     *float64 `json:"level,omitempty"`
	Change    *float64 `json:"change,omitempty"`
	Adverse   bool     `json:"adverse"`
	Triggered int      `json:"triggered"`
	Evaluable int      `json:"evaluable"`
	Note      string   `json:"note,omitempty"`
}

// ChartSeries carries one indicator's level and change windows with
// per-point alert flags, for the exported dashboard.
type ChartSeries struct {
	IndicatorID  string      `json:"indicator_id"`
	Label        string      `json:"label"`
	Months       []time.Time `json:"months"`
	Level        []float64   `json:"level"`
	Change       []float64   `json:"change"`
	LevelAlerts  []bool      `json:"level_alerts"`
	ChangeAlerts []bool      `json:"change_alerts"`
}

// Report is the fully assembled run output, ready for any exporter.
type Report struct {
	GeneratedAt    time.Time        `json:"generated_at"`
	CatalogID      string           `json:"catalog_id"`
	CatalogVersion string           `json:"catalog_version"`
	CatalogHash    string           `json:"catalog_hash,omitempty"`
	Rows           []Row            `json:"rows"`
	Charts         []ChartSeries    `json:"charts"`
	Outcomes       []signal.Outcome `json:"outcomes"`
	Score          signal.Composite `json:"score"`
	Summary        string           `json:"summary,omitempty"`
}

// Input is everything a run produced that the report needs.
type Input struct {
	Catalog     *catalog.Catalog
	CatalogHash string
	Transformed map[string]*series.Transformed
	Failures    map[string]string // indicator id -> reason note
	Outcomes    []signal.Outcome
	Score       signal.Composite
	Summary     string
	GeneratedAt time.Time
}

// Assembler builds reports from run results. Pure: no clock reads, no
// I/O; GeneratedAt comes from the input.
type Assembler struct {
	evaluator *signal.Evaluator
}

// NewAssembler creates an assembler; the evaluator supplies per-point
// alert flags for chart series.
func NewAssembler(ev *signal.Evaluator) *Assembler {
	return &Assembler{evaluator: ev}
}

// Assemble builds the report. Rows and charts follow catalog order
// exactly; unavailable indicators keep their row with a note.
func (a *Assembler) Assemble(in Input) *Report {
	rep := &Report{
		GeneratedAt:    in.GeneratedAt,
		CatalogID:      in.Catalog.Meta.CatalogID,
		CatalogVersion: in.Catalog.Meta.Version,
		CatalogHash:    in.CatalogHash,
		Rows:           make([]Row, 0, len(in.Catalog.Indicators)),
		Outcomes:       in.Outcomes,
		Score:          in.Score,
		Summary:        in.Summary,
	}

	perIndicator := make(map[string][2]int) // triggered, evaluable
	for _, o := range in.Outcomes {
		if o.Skipped {
			continue
		}
		counts := perIndicator[o.Rule.Indicator]
		counts[1]++
		if o.Triggered {
			counts[0]++
		}
		perIndicator[o.Rule.Indicator] = counts
	}

	for _, ind := range in.Catalog.Indicators {
		row := Row{
			ID:     ind.ID,
			Label:  ind.Label,
			Bucket: ind.Bucket,
			Unit:   ind.Unit,
		}
		counts := perIndicator[ind.ID]
		row.Triggered, row.Evaluable = counts[0], counts[1]

		tr := in.Transformed[ind.ID]
		if tr == nil {
			row.Note = in.Failures[ind.ID]
			if row.Note == "" {
				row.Note = "unavailable"
			}
			rep.Rows = append(rep.Rows, row)
			continue
		}

		row.Period = tr.Months[len(tr.Months)-1].Format("2006-01")
		if lvl, ok := tr.LatestLevel(); ok {
			v := lvl
			row.Level = &v
		}
		if chg, ok := tr.LatestChange(); ok {
			v := chg
			row.Change = &v
			// Rising is adverse by default; invert flips the reading
			// for indicators where falling is the bad direction.
			adverse := v > 0
			if ind.InvertPolarity {
				adverse = v < 0
			}
			row.Adverse = adverse
		}
		rep.Rows = append(rep.Rows, row)
		rep.Charts = append(rep.Charts, a.chartFor(ind, tr, in.Catalog.RulesFor(ind.ID)))
	}

	return rep
}

func (a *Assembler) chartFor(ind catalog.Indicator, tr *series.Transformed, rules []catalog.Rule) ChartSeries {
	cs := ChartSeries{
		IndicatorID: ind.ID,
		Label:       ind.Label,
		Months:      tr.Months,
		Level:       tr.Level,
		Change:      tr.Change,
	}

	for _, rule := range rules {
		flags := a.evaluator.PointTriggers(rule, tr)
		switch rule.Metric {
		case catalog.MetricLatestLevel:
			cs.LevelAlerts = mergeFlags(cs.LevelAlerts, flags)
		case catalog.MetricLatestChange:
			cs.ChangeAlerts = mergeFlags(cs.ChangeAlerts, flags)
		}
	}
	return cs
}

func mergeFlags(into, flags []bool) []bool {
	if into == nil {
		out := make([]bool, len(flags))
		copy(out, flags)
		return out
	}
	for i := range into {
		if i < len(flags) && flags[i] {
			into[i] = true
		}
	}
	return into
}
