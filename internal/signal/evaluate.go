package signal

import (
	"math"

	"github.com/wonny/macrowatch/internal/catalog"
	"github.com/wonny/macrowatch/internal/series"
)

// Outcome is the result of evaluating one rule against one indicator's
// transformed series. Skipped outcomes never enter the composite score.
type Outcome struct {
	Rule      catalog.Rule `json:"rule"`
	Skipped   bool         `json:"skipped"`
	Triggered bool         `json:"triggered"`
	Value     float64      `json:"value"`
	Threshold float64      `json:"threshold"`
}

// Evaluator checks a declarative rule table against transformed series.
// Pure and order-independent: each rule sees only its own indicator.
type Evaluator struct {
	thresholds map[string]float64
}

// NewEvaluator creates an evaluator over the catalog's threshold set.
func NewEvaluator(thresholds map[string]float64) *Evaluator {
	return &Evaluator{thresholds: thresholds}
}

// Evaluate runs every rule against the available transformed series.
// A rule whose indicator is unavailable, or whose metric is undefined
// for that indicator, yields a skipped outcome instead of a failure.
func (e *Evaluator) Evaluate(rules []catalog.Rule, transformed map[string]*series.Transformed) []Outcome {
	outcomes := make([]Outcome, 0, len(rules))
	for _, rule := range rules {
		outcomes = append(outcomes, e.evaluateOne(rule, transformed[rule.Indicator]))
	}
	return outcomes
}

func (e *Evaluator) evaluateOne(rule catalog.Rule, tr *series.Transformed) Outcome {
	out := Outcome{Rule: rule, Skipped: true}

	if tr == nil {
		return out
	}

	value, ok := metricValue(rule.Metric, tr)
	if !ok {
		return out
	}

	threshold, ok := e.thresholds[rule.ThresholdKey]
	if !ok {
		// Validation catches unknown keys at load; a miss here means the
		// caller bypassed it. Skip rather than trigger on garbage.
		return out
	}

	out.Skipped = false
	out.Value = value
	out.Threshold = threshold
	out.Triggered = compare(rule.Comparator, value, threshold)
	return out
}

func metricValue(metric catalog.Metric, tr *series.Transformed) (float64, bool) {
	switch metric {
	case catalog.MetricLatestLevel:
		return tr.LatestLevel()
	case catalog.MetricLatestChange:
		return tr.LatestChange()
	default:
		return 0, false
	}
}

func compare(cmp catalog.Comparator, value, threshold float64) bool {
	switch cmp {
	case catalog.ComparatorLT:
		return value < threshold
	case catalog.ComparatorGT:
		return value > threshold
	default:
		return false
	}
}

// PointTriggers evaluates a rule against every point of the metric's
// window, for per-point alert colouring in exported charts. Undefined
// points report false.
func (e *Evaluator) PointTriggers(rule catalog.Rule, tr *series.Transformed) []bool {
	if tr == nil {
		return nil
	}

	threshold, ok := e.thresholds[rule.ThresholdKey]
	if !ok {
		return nil
	}

	var window []float64
	switch rule.Metric {
	case catalog.MetricLatestLevel:
		window = tr.Level
	case catalog.MetricLatestChange:
		window = tr.Change
	default:
		return nil
	}

	flags := make([]bool, len(window))
	for i, v := range window {
		if math.IsNaN(v) {
			continue
		}
		flags[i] = compare(rule.Comparator, v, threshold)
	}
	return flags
}
