package enums

import "fmt"

// ReconciliationStatus is the terminal outcome of matching one invoice line
// against the catalog. Pending lines have not been checked yet.
type ReconciliationStatus string

const (
	ReconciliationPending        ReconciliationStatus = "pending"
	ReconciliationMatched        ReconciliationStatus = "matched"
	ReconciliationSizeMissing    ReconciliationStatus = "size_missing"
	ReconciliationNewProduct     ReconciliationStatus = "new_product"
	ReconciliationVendorNotFound ReconciliationStatus = "vendor_not_found"
)

var validReconciliationStatuses = []ReconciliationStatus{
	ReconciliationPending,
	ReconciliationMatched,
	ReconciliationSizeMissing,
	ReconciliationNewProduct,
	ReconciliationVendorNotFound,
}

// IsValid reports whether the value is a canonical reconciliation status.
func (s ReconciliationStatus) IsValid() bool {
	for _, candidate := range validReconciliationStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status was set by a reconciliation run.
func (s ReconciliationStatus) IsTerminal() bool {
	return s.IsValid() && s != ReconciliationPending
}

// Label returns the operator-facing name. Presentation glyphs live in the UI,
// not here.
func (s ReconciliationStatus) Label() string {
	switch s {
	case ReconciliationPending:
		return "Pending"
	case ReconciliationMatched:
		return "Matched"
	case ReconciliationSizeMissing:
		return "Size Missing"
	case ReconciliationNewProduct:
		return "New Product"
	case ReconciliationVendorNotFound:
		return "Vendor Not Found"
	default:
		return string(s)
	}
}

// ParseReconciliationStatus converts the raw string to ReconciliationStatus.
func ParseReconciliationStatus(value string) (ReconciliationStatus, error) {
	for _, candidate := range validReconciliationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reconciliation status %q", value)
}
