package purchaseorders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tapcellar/tapcellar-backend/pkg/db/models"
	"github.com/tapcellar/tapcellar-backend/pkg/enums"
)

// CreateOrderInput requests one purchase order for an invoice at a location.
type CreateOrderInput struct {
	Location string `json:"location" validate:"required"`
}

// PurchaseOrderDTO is one recorded submission attempt.
type PurchaseOrderDTO struct {
	ID           uuid.UUID                 `json:"id"`
	InvoiceID    uuid.UUID                 `json:"invoice_id"`
	TaskID       *string                   `json:"task_id,omitempty"`
	SupplierID   string                    `json:"supplier_id"`
	SupplierName string                    `json:"supplier_name"`
	Location     string                    `json:"location"`
	Status       enums.PurchaseOrderStatus `json:"status"`
	LineCount    int                       `json:"line_count"`
	SkippedCount int                       `json:"skipped_count"`
	Total        decimal.Decimal           `json:"total"`
	ErrorDetail  *string                   `json:"error_detail,omitempty"`
	CreatedAt    time.Time                 `json:"created_at"`
}

// ToPurchaseOrderDTO maps the persisted record.
func ToPurchaseOrderDTO(order *models.PurchaseOrder) *PurchaseOrderDTO {
	return &PurchaseOrderDTO{
		ID:           order.ID,
		InvoiceID:    order.InvoiceID,
		TaskID:       order.TaskID,
		SupplierID:   order.SupplierID,
		SupplierName: order.SupplierName,
		Location:     order.Location,
		Status:       order.Status,
		LineCount:    order.LineCount,
		SkippedCount: order.SkippedCount,
		Total:        order.Total,
		ErrorDetail:  order.ErrorDetail,
		CreatedAt:    order.CreatedAt,
	}
}
