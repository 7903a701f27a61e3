package shared

import (
	"fmt"
	"time"
)

// Period is an explicit reporting period (e.g. a financial year) threaded
// through queries instead of being held as process-wide state.
type Period struct {
	Start time.Time
	End   time.Time
}

// NewPeriod creates a period; Start must not be after End
func NewPeriod(start, end time.Time) (Period, error) {
	if start.After(end) {
		return Period{}, NewDomainError("INVALID_PERIOD", "Period start cannot be after end")
	}
	return Period{Start: start, End: end}, nil
}

// FinancialYear returns the April-to-March financial year that contains t.
func FinancialYear(t time.Time) Period {
	year := t.Year()
	if t.Month() < time.April {
		year--
	}
	start := time.Date(year, time.April, 1, 0, 0, 0, 0, t.Location())
	end := start.AddDate(1, 0, 0).Add(-time.Nanosecond)
	return Period{Start: start, End: end}
}

// Contains reports whether t falls inside the period (inclusive)
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// IsZero reports whether the period is unset
func (p Period) IsZero() bool {
	return p.Start.IsZero() && p.End.IsZero()
}

// String returns a short label for the period
func (p Period) String() string {
	return fmt.Sprintf("%s..%s", p.Start.Format("2006-01-02"), p.End.Format("2006-01-02"))
}
