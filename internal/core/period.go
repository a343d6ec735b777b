package core

import (
	"fmt"
	"time"
)

// Period is the (month, year) pair an income is attributed to.
type Period struct {
	Month int
	Year  int
}

// PreviousPeriod returns the calendar month preceding now.
// It steps back from the first of the month, so 31 March gives February
// rather than overflowing into March again.
func PreviousPeriod(now time.Time) Period {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	prev := first.AddDate(0, -1, 0)
	return Period{Month: int(prev.Month()), Year: prev.Year()}
}

func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("month %d: %w", p.Month, ErrInvalidPeriod)
	}
	if p.Year < 1900 || p.Year > 9999 {
		return fmt.Errorf("year %d: %w", p.Year, ErrInvalidPeriod)
	}
	return nil
}

// String renders the period as MM/YYYY.
func (p Period) String() string {
	return fmt.Sprintf("%02d/%d", p.Month, p.Year)
}

// Label renders the period as "Month YYYY", e.g. "March 2025".
func (p Period) Label() string {
	return fmt.Sprintf("%s %d", time.Month(p.Month).String(), p.Year)
}

// Before reports whether p is strictly earlier than o.
func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Month < o.Month
}
