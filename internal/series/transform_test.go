package series

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/wonny/macrowatch/internal/catalog"
)

func monthlyObs(start time.Time, values []float64) Observed {
	out := make(Observed, len(values))
	for i, v := range values {
		out[i] = Observation{Date: start.AddDate(0, i, 0), Value: v, Valid: true}
	}
	return out
}

func mustAlign(t *testing.T, maxGap int, obs Observed) *Aligned {
	t.Helper()
	aligned, err := NewAligner(maxGap).Align(obs)
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	return aligned
}

func ratioIndicator(id string) catalog.Indicator {
	return catalog.Indicator{ID: id, Transform: catalog.TransformRatio}
}

func TestTransformRatioChange(t *testing.T) {
	// 24 months of steady 5% YoY growth.
	values := make([]float64, 24)
	for i := range values {
		values[i] = 100 * math.Pow(1.05, float64(i)/12)
	}
	aligned := mustAlign(t, 2, monthlyObs(day(2023, 1, 1), values))

	tr, err := NewEngine(6).Transform(ratioIndicator("cpi"), aligned)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}

	if len(tr.Level) != 6 || len(tr.Months) != 6 {
		t.Fatalf("expected 6-month level window, got %d", len(tr.Level))
	}
	if len(tr.Change) != 6 {
		t.Fatalf("expected 6-month change window, got %d", len(tr.Change))
	}
	for i, c := range tr.Change {
		if math.Abs(c-5.0) > 1e-6 {
			t.Errorf("change[%d] = %v, want ~5.0", i, c)
		}
	}

	if lvl, ok := tr.LatestLevel(); !ok || lvl != values[23] {
		t.Errorf("LatestLevel = %v (%v), want %v", lvl, ok, values[23])
	}
	if chg, ok := tr.LatestChange(); !ok || math.Abs(chg-5.0) > 1e-6 {
		t.Errorf("LatestChange = %v (%v), want ~5.0", chg, ok)
	}
}

func TestTransformDifferenceChange(t *testing.T) {
	values := make([]float64, 24)
	for i := range values {
		values[i] = 4.0 + float64(i)*0.1
	}
	aligned := mustAlign(t, 2, monthlyObs(day(2023, 1, 1), values))

	ind := catalog.Indicator{ID: "unrate", Transform: catalog.TransformDifference}
	tr, err := NewEngine(12).Transform(ind, aligned)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}

	// 12 steps of 0.1 apart.
	for i, c := range tr.Change {
		if math.Abs(c-1.2) > 1e-9 {
			t.Errorf("change[%d] = %v, want 1.2", i, c)
		}
	}
}

func TestTransformShortHistoryNoChange(t *testing.T) {
	// Exactly 12 months: level window present, change empty.
	aligned := mustAlign(t, 2, monthlyObs(day(2024, 1, 1), []float64{
		1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12,
	}))

	tr, err := NewEngine(24).Transform(ratioIndicator("payems"), aligned)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}

	if len(tr.Level) != 12 {
		t.Errorf("expected 12-month level window, got %d", len(tr.Level))
	}
	if len(tr.Change) != 0 {
		t.Errorf("expected empty change for 12-month history, got %d entries", len(tr.Change))
	}
	if _, ok := tr.LatestChange(); ok {
		t.Error("LatestChange should report absent for 12-month history")
	}
}

func TestTransformChangeLengthBounded(t *testing.T) {
	// 15 aligned months, window 24: change has 15-12=3 entries.
	values := make([]float64, 15)
	for i := range values {
		values[i] = float64(100 + i)
	}
	aligned := mustAlign(t, 2, monthlyObs(day(2024, 1, 1), values))

	tr, err := NewEngine(24).Transform(ratioIndicator("indpro"), aligned)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if len(tr.Change) != 3 {
		t.Errorf("expected 3 change entries, got %d", len(tr.Change))
	}
}

func TestTransformZeroDenominator(t *testing.T) {
	values := make([]float64, 14)
	for i := range values {
		values[i] = float64(i + 1)
	}
	values[1] = 0 // base for month 13

	aligned := mustAlign(t, 2, monthlyObs(day(2024, 1, 1), values))

	tr, err := NewEngine(24).Transform(ratioIndicator("icsa"), aligned)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}

	// change entries cover months 13 and 14; month 14 has a zero base.
	if len(tr.Change) != 2 {
		t.Fatalf("expected 2 change entries, got %d", len(tr.Change))
	}
	if !math.IsNaN(tr.Change[1]) {
		t.Errorf("expected NaN change over zero base, got %v", tr.Change[1])
	}
	if _, ok := tr.LatestChange(); ok {
		t.Error("LatestChange should report absent over a zero base")
	}
}

func TestTransformGapInsideWindow(t *testing.T) {
	// 24 months but one hole beyond the fill bound inside the window.
	observed := monthlyObs(day(2023, 1, 1), make([]float64, 24))
	for i := range observed {
		observed[i].Value = float64(i + 1)
	}
	// Remove a month near the tail; maxGap=0 leaves it unknown.
	observed = append(observed[:20], observed[21:]...)
	aligned := mustAlign(t, 0, observed)

	_, err := NewEngine(12).Transform(ratioIndicator("nfp"), aligned)
	if !errors.Is(err, ErrInsufficientHistory) {
		t.Errorf("expected ErrInsufficientHistory for hole in window, got %v", err)
	}
}

func TestTransformUndefinedKind(t *testing.T) {
	aligned := mustAlign(t, 2, monthlyObs(day(2024, 1, 1), []float64{1, 2, 3}))

	ind := catalog.Indicator{ID: "x", Transform: catalog.TransformKind("zscore")}
	_, err := NewEngine(3).Transform(ind, aligned)

	var undef *ErrUndefinedTransform
	if !errors.As(err, &undef) {
		t.Fatalf("expected ErrUndefinedTransform, got %v", err)
	}
	if undef.IndicatorID != "x" {
		t.Errorf("error carries wrong indicator: %s", undef.IndicatorID)
	}
}
