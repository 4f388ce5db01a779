package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/tapcellar/tapcellar-backend/pkg/db/types"
	"github.com/tapcellar/tapcellar-backend/pkg/enums"
)

// LineItem is one purchased product/format/pack combination from an invoice.
//
// UnitPrice is always the net price per purchase unit (case or keg), never
// pre-divided by pack size. PackSize is nil unless the line is genuinely
// multi-packed (>= 2); "1" is never stored as a pack multiplier.
type LineItem struct {
	ID                 uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	InvoiceID          uuid.UUID                  `gorm:"column:invoice_id;type:uuid;not null"`
	SupplierName       string                     `gorm:"column:supplier_name;not null"`
	Collaborator       *string                    `gorm:"column:collaborator"`
	ProductName        string                     `gorm:"column:product_name;not null"`
	ABV                *string                    `gorm:"column:abv"`
	Format             string                     `gorm:"column:format;not null;default:''"`
	PackSize           *int                       `gorm:"column:pack_size"`
	Volume             string                     `gorm:"column:volume;not null;default:''"`
	Quantity           decimal.Decimal            `gorm:"column:quantity;type:numeric(10,2);not null;default:0"`
	UnitPrice          decimal.Decimal            `gorm:"column:unit_price;type:numeric(12,2);not null;default:0"`
	Status             enums.ReconciliationStatus `gorm:"column:status;not null;default:'pending'"`
	MatchedProductName *string                    `gorm:"column:matched_product_name"`
	MatchedVariantName *string                    `gorm:"column:matched_variant_name"`
	MatchedVariantID   *string                    `gorm:"column:matched_variant_id"`
	ImageURL           *string                    `gorm:"column:image_url"`
	LocationStockCodes dbtypes.StringMap          `gorm:"column:location_stock_codes;type:jsonb;not null;default:'{}'"`
	ExternalProductIDs dbtypes.StringMap          `gorm:"column:external_product_ids;type:jsonb;not null;default:'{}'"`
	Position           int                        `gorm:"column:position;not null;default:0"`
	CreatedAt          time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}
