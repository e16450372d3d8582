package billing

import (
	"fmt"
	"time"

	"github.com/tmokoena/rentpilot-backend/pkg/enums"
)

// ErrUnsupportedCycle is returned for billing cycles the calculator does not
// schedule yet. Callers must skip such billables rather than guess a date.
type ErrUnsupportedCycle struct {
	Cycle enums.BillingCycle
}

func (e ErrUnsupportedCycle) Error() string {
	return fmt.Sprintf("unsupported billing cycle %q", e.Cycle)
}

// NextDueDate returns the first anchor-aligned occurrence strictly after
// today. The result is always in the future, never equal to today. Only
// monthly cycles are supported.
//
// Pure date arithmetic: each step is computed from the anchor so a Jan 31
// anchor yields Feb 28 (or 29) and then Mar 31, without drifting.
func NextDueDate(anchor time.Time, cycle enums.BillingCycle, today time.Time) (time.Time, error) {
	if cycle != enums.BillingCycleMonthly {
		return time.Time{}, ErrUnsupportedCycle{Cycle: cycle}
	}

	day := StartOfDay(today)
	for months := 0; ; months++ {
		candidate := AddMonths(anchor, months)
		if candidate.After(day) {
			return candidate, nil
		}
	}
}

// AddMonths advances a date by whole calendar months, clamping the day to the
// last day of shorter months. The time component is dropped.
func AddMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	total := int(month) - 1 + months
	year += total / 12
	month = time.Month(total%12 + 1)
	if last := lastDayOfMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// StartOfDay truncates a timestamp to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
