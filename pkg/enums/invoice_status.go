package enums

import "fmt"

// InvoiceStatus tracks the payment lifecycle of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusPending       InvoiceStatus = "pending"
	InvoiceStatusOverdue       InvoiceStatus = "overdue"
	InvoiceStatusPartiallyPaid InvoiceStatus = "partially_paid"
	InvoiceStatusPaid          InvoiceStatus = "paid"
)

var validInvoiceStatuses = []InvoiceStatus{
	InvoiceStatusPending,
	InvoiceStatusOverdue,
	InvoiceStatusPartiallyPaid,
	InvoiceStatusPaid,
}

// OpenInvoiceStatuses are the non-terminal statuses considered by the
// scheduler's duplicate-invoice lookup.
var OpenInvoiceStatuses = []InvoiceStatus{
	InvoiceStatusPending,
	InvoiceStatusOverdue,
	InvoiceStatusPartiallyPaid,
}

// String implements fmt.Stringer.
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further payment activity is expected.
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid
}

// IsValid reports whether the value is known.
func (s InvoiceStatus) IsValid() bool {
	for _, candidate := range validInvoiceStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseInvoiceStatus converts raw input into an InvoiceStatus.
func ParseInvoiceStatus(value string) (InvoiceStatus, error) {
	for _, candidate := range validInvoiceStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid invoice status %q", value)
}
