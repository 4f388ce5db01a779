package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/tapcellar/tapcellar-backend/pkg/enums"
)

// Invoice is the persisted header record produced by the extraction stage.
// Dates arrive as free text from OCR and are stored verbatim; the audit log
// holds the most recent reconciliation run's entries, replaced wholesale.
type Invoice struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PayableTo     string              `gorm:"column:payable_to;not null"`
	InvoiceNumber string              `gorm:"column:invoice_number;not null;default:''"`
	IssueDate     *string             `gorm:"column:issue_date"`
	DueDate       *string             `gorm:"column:due_date"`
	Currency      string              `gorm:"column:currency;not null;default:'GBP'"`
	TotalNet      decimal.Decimal     `gorm:"column:total_net;type:numeric(12,2);not null;default:0"`
	TotalGross    decimal.Decimal     `gorm:"column:total_gross;type:numeric(12,2);not null;default:0"`
	Status        enums.InvoiceStatus `gorm:"column:status;not null;default:'uploaded'"`
	AuditLog      pq.StringArray      `gorm:"column:audit_log;type:text[];not null;default:ARRAY[]::text[]"`
	LineItems     []LineItem          `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
