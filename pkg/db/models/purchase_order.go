package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tapcellar/tapcellar-backend/pkg/enums"
)

// PurchaseOrder records one submission attempt against the inventory system.
// The upstream API has no rollback, so a header created without lines stays
// visible here in the lines_failed state.
type PurchaseOrder struct {
	ID           uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	InvoiceID    uuid.UUID                 `gorm:"column:invoice_id;type:uuid;not null"`
	TaskID       *string                   `gorm:"column:task_id"`
	SupplierID   string                    `gorm:"column:supplier_id;not null"`
	SupplierName string                    `gorm:"column:supplier_name;not null"`
	Location     string                    `gorm:"column:location;not null"`
	Status       enums.PurchaseOrderStatus `gorm:"column:status;not null;default:'draft'"`
	LineCount    int                       `gorm:"column:line_count;not null;default:0"`
	SkippedCount int                       `gorm:"column:skipped_count;not null;default:0"`
	Total        decimal.Decimal           `gorm:"column:total;type:numeric(12,2);not null;default:0"`
	ErrorDetail  *string                   `gorm:"column:error_detail"`
	CreatedAt    time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
