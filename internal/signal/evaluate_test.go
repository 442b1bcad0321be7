package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/macrowatch/internal/catalog"
	"github.com/wonny/macrowatch/internal/series"
)

func transformedWith(id string, level, change []float64) *series.Transformed {
	months := make([]time.Time, len(level))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range months {
		months[i] = base.AddDate(0, i, 0)
	}
	return &series.Transformed{
		IndicatorID: id,
		Kind:        catalog.TransformRatio,
		Months:      months,
		Level:       level,
		Change:      change,
	}
}

func TestEvaluateTriggers(t *testing.T) {
	ev := NewEvaluator(map[string]float64{
		"nfp_yoy_min":   0.5,
		"unrate_dd_max": 0.3,
	})

	rules := []catalog.Rule{
		{Indicator: "nfp", Metric: catalog.MetricLatestChange, Comparator: catalog.ComparatorLT, ThresholdKey: "nfp_yoy_min"},
		{Indicator: "unrate", Metric: catalog.MetricLatestChange, Comparator: catalog.ComparatorGT, ThresholdKey: "unrate_dd_max"},
	}

	transformed := map[string]*series.Transformed{
		"nfp":    transformedWith("nfp", []float64{156000, 156100}, []float64{0.8, 0.2}),
		"unrate": transformedWith("unrate", []float64{4.0, 4.1}, []float64{0.1, 0.1}),
	}

	outcomes := ev.Evaluate(rules, transformed)

	assert.Len(t, outcomes, 2)

	// nfp YoY 0.2 < 0.5 min: triggered.
	assert.False(t, outcomes[0].Skipped)
	assert.True(t, outcomes[0].Triggered)
	assert.Equal(t, 0.2, outcomes[0].Value)
	assert.Equal(t, 0.5, outcomes[0].Threshold)

	// unrate delta 0.1 not > 0.3: evaluable but not triggered.
	assert.False(t, outcomes[1].Skipped)
	assert.False(t, outcomes[1].Triggered)
}

func TestEvaluateSkipsMissingIndicator(t *testing.T) {
	ev := NewEvaluator(map[string]float64{"k": 1.0})
	rules := []catalog.Rule{
		{Indicator: "gone", Metric: catalog.MetricLatestLevel, Comparator: catalog.ComparatorGT, ThresholdKey: "k"},
	}

	outcomes := ev.Evaluate(rules, map[string]*series.Transformed{})

	assert.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Skipped)
	assert.False(t, outcomes[0].Triggered)
}

func TestEvaluateSkipsAbsentChange(t *testing.T) {
	ev := NewEvaluator(map[string]float64{"k": 1.0})
	rules := []catalog.Rule{
		{Indicator: "cpi", Metric: catalog.MetricLatestChange, Comparator: catalog.ComparatorGT, ThresholdKey: "k"},
	}

	// Level present, change empty (short history).
	transformed := map[string]*series.Transformed{
		"cpi": transformedWith("cpi", []float64{300, 301}, nil),
	}

	outcomes := ev.Evaluate(rules, transformed)
	assert.True(t, outcomes[0].Skipped)
}

func TestEvaluateOrderIndependent(t *testing.T) {
	ev := NewEvaluator(map[string]float64{"a": 1, "b": 2})
	r1 := catalog.Rule{Indicator: "x", Metric: catalog.MetricLatestLevel, Comparator: catalog.ComparatorGT, ThresholdKey: "a"}
	r2 := catalog.Rule{Indicator: "y", Metric: catalog.MetricLatestLevel, Comparator: catalog.ComparatorLT, ThresholdKey: "b"}

	transformed := map[string]*series.Transformed{
		"x": transformedWith("x", []float64{5}, nil),
		"y": transformedWith("y", []float64{1}, nil),
	}

	fwd := ev.Evaluate([]catalog.Rule{r1, r2}, transformed)
	rev := ev.Evaluate([]catalog.Rule{r2, r1}, transformed)

	assert.Equal(t, fwd[0], rev[1])
	assert.Equal(t, fwd[1], rev[0])
}

func TestPointTriggers(t *testing.T) {
	ev := NewEvaluator(map[string]float64{"max": 2.0})
	rule := catalog.Rule{Indicator: "x", Metric: catalog.MetricLatestChange, Comparator: catalog.ComparatorGT, ThresholdKey: "max"}

	tr := transformedWith("x", []float64{1, 2, 3, 4}, []float64{1.0, 2.5, 3.0, 1.5})
	flags := ev.PointTriggers(rule, tr)

	assert.Equal(t, []bool{false, true, true, false}, flags)
	assert.Nil(t, ev.PointTriggers(rule, nil))
}
