package series

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func obs(y int, m time.Month, d int, v float64) Observation {
	return Observation{Date: day(y, m, d), Value: v, Valid: true}
}

func TestAlignEmpty(t *testing.T) {
	al := NewAligner(2)

	if _, err := al.Align(nil); err != ErrNoObservations {
		t.Errorf("expected ErrNoObservations, got %v", err)
	}

	invalid := Observed{{Date: day(2024, 1, 15), Value: 0, Valid: false}}
	if _, err := al.Align(invalid); err != ErrNoObservations {
		t.Errorf("expected ErrNoObservations for all-invalid input, got %v", err)
	}
}

func TestAlignMonotonicGrid(t *testing.T) {
	al := NewAligner(2)

	// Unsorted input, one gap month in between.
	aligned, err := al.Align(Observed{
		obs(2024, 3, 1, 3.0),
		obs(2024, 1, 1, 1.0),
		obs(2024, 4, 1, 4.0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if aligned.Len() != 4 {
		t.Fatalf("expected 4 grid months, got %d", aligned.Len())
	}

	prev := aligned.MonthAt(0)
	for i := 1; i < aligned.Len(); i++ {
		cur := aligned.MonthAt(i)
		if !cur.After(prev) {
			t.Errorf("grid not monotonic at %d: %s !> %s", i, cur, prev)
		}
		if cur.Day() != 1 {
			t.Errorf("grid month %d not month-start: %s", i, cur)
		}
		prev = cur
	}

	// February was missing and within the gap bound: forward-filled.
	v, known := aligned.At(1)
	if !known || v != 1.0 {
		t.Errorf("expected February forward-filled to 1.0, got %v (known=%v)", v, known)
	}
}

func TestAlignLaterObservationWins(t *testing.T) {
	al := NewAligner(2)

	aligned, err := al.Align(Observed{
		obs(2024, 1, 5, 10.0),
		obs(2024, 1, 20, 11.0),
		obs(2024, 2, 1, 12.0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v, _ := aligned.At(0)
	if v != 11.0 {
		t.Errorf("expected later observation in the month to win, got %v", v)
	}
}

func TestAlignGapBeyondBound(t *testing.T) {
	al := NewAligner(2)

	// Jan then May: 3 missing months, bound is 2.
	aligned, err := al.Align(Observed{
		obs(2024, 1, 1, 1.0),
		obs(2024, 5, 1, 5.0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if aligned.Len() != 5 {
		t.Fatalf("expected 5 grid months, got %d", aligned.Len())
	}

	// Feb and Mar are within the bound, Apr is beyond it.
	for i, wantKnown := range []bool{true, true, true, false, true} {
		_, known := aligned.At(i)
		if known != wantKnown {
			t.Errorf("month %d: known=%v, want %v", i, known, wantKnown)
		}
	}
}

func TestAlignDropsNonFinite(t *testing.T) {
	al := NewAligner(0)

	aligned, err := al.Align(Observed{
		obs(2024, 1, 1, 1.0),
		{Date: day(2024, 2, 1), Value: 0, Valid: false},
		obs(2024, 3, 1, 3.0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// maxGap=0: the invalid February stays unknown.
	if _, known := aligned.At(1); known {
		t.Error("expected February unknown with zero gap bound")
	}
}
