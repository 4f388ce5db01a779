package enums

import "fmt"

// InvoiceStatus tracks the invoice lifecycle in the reconciliation workflow.
type InvoiceStatus string

const (
	InvoiceUploaded   InvoiceStatus = "uploaded"
	InvoiceReconciled InvoiceStatus = "reconciled"
	InvoiceOrdered    InvoiceStatus = "ordered"
)

var validInvoiceStatuses = []InvoiceStatus{
	InvoiceUploaded,
	InvoiceReconciled,
	InvoiceOrdered,
}

// IsValid reports whether the value is a canonical invoice status.
func (s InvoiceStatus) IsValid() bool {
	for _, candidate := range validInvoiceStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseInvoiceStatus converts the raw string to InvoiceStatus.
func ParseInvoiceStatus(value string) (InvoiceStatus, error) {
	for _, candidate := range validInvoiceStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid invoice status %q", value)
}
