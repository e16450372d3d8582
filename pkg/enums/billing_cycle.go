package enums

import "fmt"

// BillingCycle is the recurrence rule of a recurring billable.
type BillingCycle string

const (
	BillingCycleMonthly   BillingCycle = "monthly"
	BillingCycleWeekly    BillingCycle = "weekly"
	BillingCycleQuarterly BillingCycle = "quarterly"
	BillingCycleAnnually  BillingCycle = "annually"
)

var validBillingCycles = []BillingCycle{
	BillingCycleMonthly,
	BillingCycleWeekly,
	BillingCycleQuarterly,
	BillingCycleAnnually,
}

// String implements fmt.Stringer.
func (c BillingCycle) String() string {
	return string(c)
}

// IsValid reports whether the value is known.
func (c BillingCycle) IsValid() bool {
	for _, candidate := range validBillingCycles {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseBillingCycle converts raw input into a BillingCycle.
func ParseBillingCycle(value string) (BillingCycle, error) {
	for _, candidate := range validBillingCycles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid billing cycle %q", value)
}
