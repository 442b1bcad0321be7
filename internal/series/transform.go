package series

import (
	"fmt"
	"math"
	"time"

	"github.com/wonny/macrowatch/internal/catalog"
)

const denomEpsilon = 1e-9

// ErrUndefinedTransform reports a transform kind the engine does not know.
type ErrUndefinedTransform struct {
	IndicatorID string
	Kind        catalog.TransformKind
}

func (e *ErrUndefinedTransform) Error() string {
	return fmt.Sprintf("series: undefined transform %q for indicator %s", e.Kind, e.IndicatorID)
}

// Transformed holds the trailing level window and the derived 12-month
// change for one indicator. Months, Level and Change are parallel slices;
// Change entries without a defined value are NaN.
type Transformed struct {
	IndicatorID string
	Kind        catalog.TransformKind
	Months      []time.Time
	Level       []float64
	Change      []float64
}

// LatestLevel returns the newest level value.
func (t *Transformed) LatestLevel() (float64, bool) {
	if len(t.Level) == 0 {
		return 0, false
	}
	return t.Level[len(t.Level)-1], true
}

// LatestChange returns the newest change value. Returns false when the
// change series is empty or the newest entry is undefined.
func (t *Transformed) LatestChange() (float64, bool) {
	if len(t.Change) == 0 {
		return 0, false
	}
	v := t.Change[len(t.Change)-1]
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Engine derives trailing windows and 12-month changes from aligned
// series. Pure computation, no I/O.
type Engine struct {
	window int
}

// NewEngine creates a transform engine with a trailing window of K months.
func NewEngine(windowMonths int) *Engine {
	return &Engine{window: windowMonths}
}

// Transform cuts the trailing level window (up to K months, shorter
// when less history exists) from the aligned series and computes its
// 12-month change.
//
// The level window tolerates no holes: an unknown month inside the
// window (a gap beyond the aligner's fill bound) makes the indicator
// unavailable rather than silently interpolated. The change series is
// non-empty only when at least 13 aligned months exist; its length is
// min(K, n-12), each entry compared against the value exactly 12
// months earlier. A ratio change whose base is within 1e-9 of zero is
// left NaN.
func (e *Engine) Transform(ind catalog.Indicator, aligned *Aligned) (*Transformed, error) {
	n := aligned.Len()
	if n == 0 {
		return nil, fmt.Errorf("indicator %s: empty aligned series: %w", ind.ID, ErrInsufficientHistory)
	}

	switch ind.Transform {
	case catalog.TransformRatio, catalog.TransformDifference:
	default:
		return nil, &ErrUndefinedTransform{IndicatorID: ind.ID, Kind: ind.Transform}
	}

	levelLen := e.window
	if n < levelLen {
		levelLen = n
	}

	out := &Transformed{
		IndicatorID: ind.ID,
		Kind:        ind.Transform,
		Months:      make([]time.Time, levelLen),
		Level:       make([]float64, levelLen),
	}

	for i := 0; i < levelLen; i++ {
		idx := n - levelLen + i
		v, known := aligned.At(idx)
		if !known {
			return nil, fmt.Errorf("indicator %s: unfilled gap at %s inside level window: %w",
				ind.ID, aligned.MonthAt(idx).Format("2006-01"), ErrInsufficientHistory)
		}
		out.Months[i] = aligned.MonthAt(idx)
		out.Level[i] = v
	}

	if n < 13 {
		return out, nil
	}

	changeLen := e.window
	if n-12 < changeLen {
		changeLen = n - 12
	}
	out.Change = make([]float64, changeLen)

	for i := 0; i < changeLen; i++ {
		idx := n - changeLen + i
		cur, curOK := aligned.At(idx)
		base, baseOK := aligned.At(idx - 12)
		if !curOK || !baseOK {
			out.Change[i] = math.NaN()
			continue
		}
		switch ind.Transform {
		case catalog.TransformRatio:
			if math.Abs(base) < denomEpsilon {
				out.Change[i] = math.NaN()
			} else {
				out.Change[i] = (cur/base - 1) * 100
			}
		case catalog.TransformDifference:
			out.Change[i] = cur - base
		}
	}

	return out, nil
}
