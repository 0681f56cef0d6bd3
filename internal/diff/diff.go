package diff

import "fmt"

// Counts is a pair of record totals for one address.
type Counts struct {
	Violations int `json:"violations"`
	Complaints int `json:"complaints"`
}

// Delta returns how many records are new since baseline. It is never negative.
func Delta(baseline, current int) int {
	if current <= baseline {
		return 0
	}
	return current - baseline
}

// Since returns the per-counter delta from baseline to c.
func (c Counts) Since(baseline Counts) Counts {
	return Counts{
		Violations: Delta(baseline.Violations, c.Violations),
		Complaints: Delta(baseline.Complaints, c.Complaints),
	}
}

// Total is the sum of both counters.
func (c Counts) Total() int {
	return c.Violations + c.Complaints
}

// Any reports whether either counter is positive.
func (c Counts) Any() bool {
	return c.Violations > 0 || c.Complaints > 0
}

// Max returns the per-counter maximum of c and o.
func (c Counts) Max(o Counts) Counts {
	return Counts{
		Violations: max(c.Violations, o.Violations),
		Complaints: max(c.Complaints, o.Complaints),
	}
}

func (c Counts) String() string {
	return fmt.Sprintf("(%d violations, %d complaints)", c.Violations, c.Complaints)
}

// GroupBaseline is the comparison baseline for subscribers sharing an
// address: the highest value each counter has reached for any member.
func GroupBaseline(members []Counts) Counts {
	var out Counts
	for _, m := range members {
		out = out.Max(m)
	}
	return out
}

// Advance is the baseline to store after a successful fetch. Stored
// baselines never decrease.
func Advance(baseline, current Counts) Counts {
	return baseline.Max(current)
}
