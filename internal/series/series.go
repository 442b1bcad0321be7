package series

import (
	"math"
	"sort"
	"time"
)

// Observation is one raw (date, value) point as returned by a provider.
// Invalid observations (unparsable values, provider missing-markers) are
// carried with Valid=false and dropped during alignment.
type Observation struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
	Valid bool      `json:"valid"`
}

// Observed is the raw, possibly irregular series for one indicator.
type Observed []Observation

// Aligned is a series resampled onto a monthly grid: one value per
// calendar month, month-start timestamps, monotonically increasing.
// Months where a gap exceeded the fill bound are present but unknown.
type Aligned struct {
	start  int // month index of the first entry (year*12 + month-1)
	values []float64
	known  []bool
}

// Len returns the number of grid months.
func (a *Aligned) Len() int {
	return len(a.values)
}

// MonthAt returns the month-start timestamp of entry i (UTC).
func (a *Aligned) MonthAt(i int) time.Time {
	idx := a.start + i
	return time.Date(idx/12, time.Month(idx%12+1), 1, 0, 0, 0, 0, time.UTC)
}

// At returns the value at entry i and whether it is known.
func (a *Aligned) At(i int) (float64, bool) {
	if i < 0 || i >= len(a.values) {
		return 0, false
	}
	return a.values[i], a.known[i]
}

// LastMonth returns the month-start timestamp of the newest entry.
func (a *Aligned) LastMonth() time.Time {
	return a.MonthAt(a.Len() - 1)
}

func monthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}

// Aligner resamples raw observations onto the monthly grid.
// Pure function of its input and the gap bound; no I/O.
type Aligner struct {
	maxGap int
}

// NewAligner creates an aligner that forward-fills gaps of up to
// maxGapMonths missing months. Months beyond the bound stay unknown.
func NewAligner(maxGapMonths int) *Aligner {
	return &Aligner{maxGap: maxGapMonths}
}

// Align resamples obs to one value per calendar month using the last
// observation of each month, then forward-fills bounded gaps.
// Returns ErrNoObservations when nothing valid remains after filtering.
func (al *Aligner) Align(obs Observed) (*Aligned, error) {
	valid := make([]Observation, 0, len(obs))
	for _, o := range obs {
		if !o.Valid || math.IsNaN(o.Value) || math.IsInf(o.Value, 0) {
			continue
		}
		valid = append(valid, o)
	}

	if len(valid) == 0 {
		return nil, ErrNoObservations
	}

	sort.Slice(valid, func(i, j int) bool {
		return valid[i].Date.Before(valid[j].Date)
	})

	// One value per month: the chronologically later observation wins.
	byMonth := make(map[int]float64)
	for _, o := range valid {
		byMonth[monthIndex(o.Date)] = o.Value
	}

	first := monthIndex(valid[0].Date)
	last := monthIndex(valid[len(valid)-1].Date)
	n := last - first + 1

	aligned := &Aligned{
		start:  first,
		values: make([]float64, n),
		known:  make([]bool, n),
	}

	gapRun := 0
	lastValue := 0.0
	haveLast := false

	for i := 0; i < n; i++ {
		if v, ok := byMonth[first+i]; ok {
			aligned.values[i] = v
			aligned.known[i] = true
			lastValue = v
			haveLast = true
			gapRun = 0
			continue
		}

		gapRun++
		if haveLast && gapRun <= al.maxGap {
			aligned.values[i] = lastValue
			aligned.known[i] = true
		}
		// beyond the bound: left unknown, not silently filled
	}

	return aligned, nil
}
