package catalog

import (
	"fmt"
)

// ValidationError is a fatal catalog configuration failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required catalog constraints. An error here aborts
// the run before any fetch is issued.
func Validate(cat *Catalog) error {
	if len(cat.Indicators) == 0 {
		return ValidationError{"indicators", "must not be empty"}
	}

	if cat.Window.Months < 12 {
		return ValidationError{"window.months", "must be >= 12"}
	}
	if cat.Window.MaxGapMonths < 0 {
		return ValidationError{"window.max_gap_months", "must be >= 0"}
	}

	// Indicator ids are the dispatch key and must be unique. Labels are
	// presentation-only; duplicates there are allowed.
	seen := make(map[string]bool, len(cat.Indicators))
	for i, ind := range cat.Indicators {
		field := fmt.Sprintf("indicators[%d]", i)

		if ind.ID == "" {
			return ValidationError{field + ".id", "required"}
		}
		if seen[ind.ID] {
			return ValidationError{field + ".id", fmt.Sprintf("duplicate id %q", ind.ID)}
		}
		seen[ind.ID] = true

		if ind.Label == "" {
			return ValidationError{field + ".label", "required"}
		}
		if ind.SeriesID == "" {
			return ValidationError{field + ".series_id", "required"}
		}

		switch ind.Source {
		case SourceFRED, SourceBLS:
		default:
			return ValidationError{field + ".source", fmt.Sprintf("unknown source %q", ind.Source)}
		}

		switch ind.Transform {
		case TransformRatio, TransformDifference:
		default:
			return ValidationError{field + ".transform", fmt.Sprintf("must be %q or %q", TransformRatio, TransformDifference)}
		}
	}

	for i, rule := range cat.Rules {
		field := fmt.Sprintf("rules[%d]", i)

		if !seen[rule.Indicator] {
			return ValidationError{field + ".indicator", fmt.Sprintf("unknown indicator %q", rule.Indicator)}
		}

		switch rule.Metric {
		case MetricLatestLevel, MetricLatestChange:
		default:
			return ValidationError{field + ".metric", fmt.Sprintf("must be %q or %q", MetricLatestLevel, MetricLatestChange)}
		}

		switch rule.Comparator {
		case ComparatorLT, ComparatorGT:
		default:
			return ValidationError{field + ".comparator", fmt.Sprintf("must be %q or %q", ComparatorLT, ComparatorGT)}
		}

		if _, ok := cat.Thresholds[rule.ThresholdKey]; !ok {
			return ValidationError{field + ".threshold", fmt.Sprintf("unknown threshold key %q", rule.ThresholdKey)}
		}
	}

	return nil
}
