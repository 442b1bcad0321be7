package signal

import "math"

// Tier buckets the composite percentage into an alert level.
type Tier string

const (
	TierObserve  Tier = "observe"
	TierWarning  Tier = "warning"
	TierCritical Tier = "critical"
)

// Composite is the run-level alert score over all evaluable rules.
type Composite struct {
	Triggered  int  `json:"triggered"`
	Evaluable  int  `json:"evaluable"`
	Percentage int  `json:"percentage"`
	Tier       Tier `json:"tier"`
}

// Score folds rule outcomes into the composite. Skipped outcomes are
// excluded from the denominator; zero evaluable rules score 0/observe.
func Score(outcomes []Outcome) Composite {
	var triggered, evaluable int
	for _, o := range outcomes {
		if o.Skipped {
			continue
		}
		evaluable++
		if o.Triggered {
			triggered++
		}
	}

	score := Composite{Triggered: triggered, Evaluable: evaluable}
	if evaluable > 0 {
		score.Percentage = int(math.Round(100 * float64(triggered) / float64(evaluable)))
	}
	score.Tier = tierFor(score.Percentage)
	return score
}

func tierFor(percentage int) Tier {
	switch {
	case percentage >= 80:
		return TierCritical
	case percentage >= 50:
		return TierWarning
	default:
		return TierObserve
	}
}
