package enums

import "fmt"

// InvoiceCategory classifies what an invoice bills for.
type InvoiceCategory string

const (
	InvoiceCategoryRent      InvoiceCategory = "rent"
	InvoiceCategoryUtilities InvoiceCategory = "utilities"
	InvoiceCategoryDeposit   InvoiceCategory = "deposit"
	InvoiceCategoryOther     InvoiceCategory = "other"
)

var validInvoiceCategories = []InvoiceCategory{
	InvoiceCategoryRent,
	InvoiceCategoryUtilities,
	InvoiceCategoryDeposit,
	InvoiceCategoryOther,
}

// String implements fmt.Stringer.
func (c InvoiceCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is known.
func (c InvoiceCategory) IsValid() bool {
	for _, candidate := range validInvoiceCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseInvoiceCategory converts raw input into an InvoiceCategory.
func ParseInvoiceCategory(value string) (InvoiceCategory, error) {
	for _, candidate := range validInvoiceCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid invoice category %q", value)
}
