package enums

import "fmt"

// NotificationType identifies the kind of landlord-facing notification.
type NotificationType string

const (
	NotificationInvoicePaid           NotificationType = "invoice_paid"
	NotificationInvoicePartiallyPaid  NotificationType = "invoice_partially_paid"
	NotificationSubscriptionWelcome   NotificationType = "subscription_welcome"
	NotificationSubscriptionAttention NotificationType = "subscription_attention"
	NotificationSubscriptionEnded     NotificationType = "subscription_ended"
	NotificationSubscriptionExpiring  NotificationType = "subscription_expiring"
	NotificationCardExpiring          NotificationType = "card_expiring"
)

var validNotificationTypes = []NotificationType{
	NotificationInvoicePaid,
	NotificationInvoicePartiallyPaid,
	NotificationSubscriptionWelcome,
	NotificationSubscriptionAttention,
	NotificationSubscriptionEnded,
	NotificationSubscriptionExpiring,
	NotificationCardExpiring,
}

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
}

// IsValid reports whether the value is known.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw input into a NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
