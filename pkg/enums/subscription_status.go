package enums

import "fmt"

// SubscriptionStatus mirrors the payment provider's subscription lifecycle for
// a landlord's platform subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusActive      SubscriptionStatus = "active"
	SubscriptionStatusAttention   SubscriptionStatus = "attention"
	SubscriptionStatusNonRenewing SubscriptionStatus = "non_renewing"
	SubscriptionStatusCancelled   SubscriptionStatus = "cancelled"
	SubscriptionStatusCompleted   SubscriptionStatus = "completed"
	SubscriptionStatusDisabled    SubscriptionStatus = "disabled"
)

var validSubscriptionStatuses = []SubscriptionStatus{
	SubscriptionStatusActive,
	SubscriptionStatusAttention,
	SubscriptionStatusNonRenewing,
	SubscriptionStatusCancelled,
	SubscriptionStatusCompleted,
	SubscriptionStatusDisabled,
}

// String implements fmt.Stringer.
func (s SubscriptionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s SubscriptionStatus) IsValid() bool {
	for _, candidate := range validSubscriptionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSubscriptionStatus converts raw input into a SubscriptionStatus.
func ParseSubscriptionStatus(value string) (SubscriptionStatus, error) {
	for _, candidate := range validSubscriptionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid subscription status %q", value)
}
