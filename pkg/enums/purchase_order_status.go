package enums

import "fmt"

// PurchaseOrderStatus tracks the two-step order submission protocol. The
// inventory API has no transactional rollback, so a header created without
// lines is a distinct state the operator must see.
type PurchaseOrderStatus string

const (
	PurchaseOrderDraft         PurchaseOrderStatus = "draft"
	PurchaseOrderHeaderCreated PurchaseOrderStatus = "header_created"
	PurchaseOrderLinesAttached PurchaseOrderStatus = "lines_attached"
	PurchaseOrderLinesFailed   PurchaseOrderStatus = "lines_failed"
	PurchaseOrderFailed        PurchaseOrderStatus = "failed"
)

var validPurchaseOrderStatuses = []PurchaseOrderStatus{
	PurchaseOrderDraft,
	PurchaseOrderHeaderCreated,
	PurchaseOrderLinesAttached,
	PurchaseOrderLinesFailed,
	PurchaseOrderFailed,
}

// IsValid reports whether the value is a canonical purchase order status.
func (s PurchaseOrderStatus) IsValid() bool {
	for _, candidate := range validPurchaseOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParsePurchaseOrderStatus converts the raw string to PurchaseOrderStatus.
func ParsePurchaseOrderStatus(value string) (PurchaseOrderStatus, error) {
	for _, candidate := range validPurchaseOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid purchase order status %q", value)
}
