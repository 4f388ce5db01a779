package invoices

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tapcellar/tapcellar-backend/pkg/db/models"
	"github.com/tapcellar/tapcellar-backend/pkg/enums"
)

// IngestInvoiceInput is the extraction payload posted after OCR. Free-text
// fields arrive as-is; defaulting and junk-value cleanup happen in the
// service, not in the client.
type IngestInvoiceInput struct {
	PayableTo     string            `json:"payable_to" validate:"required"`
	InvoiceNumber string            `json:"invoice_number"`
	IssueDate     *string           `json:"issue_date"`
	DueDate       *string           `json:"due_date"`
	Currency      string            `json:"currency"`
	TotalNet      decimal.Decimal   `json:"total_net"`
	TotalGross    decimal.Decimal   `json:"total_gross"`
	Lines         []IngestLineInput `json:"lines" validate:"required,min=1,dive"`
}

// IngestLineInput is one extracted line. PackSize and Volume are raw text
// exactly as read off the invoice ("24", "4.5 Litre", "nan").
type IngestLineInput struct {
	SupplierName string          `json:"supplier_name" validate:"required"`
	Collaborator *string         `json:"collaborator"`
	ProductName  string          `json:"product_name" validate:"required"`
	ABV          *string         `json:"abv"`
	Format       string          `json:"format"`
	PackSize     string          `json:"pack_size"`
	Volume       string          `json:"volume"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
}

// PatchLineInput carries the operator's corrections to one line. Only set
// fields are applied; any applied change drops the line back to pending so
// the next run re-checks it.
type PatchLineInput struct {
	SupplierName *string          `json:"supplier_name"`
	Collaborator *string          `json:"collaborator"`
	ProductName  *string          `json:"product_name"`
	ABV          *string          `json:"abv"`
	Format       *string          `json:"format"`
	PackSize     *string          `json:"pack_size"`
	Volume       *string          `json:"volume"`
	Quantity     *decimal.Decimal `json:"quantity"`
	UnitPrice    *decimal.Decimal `json:"unit_price"`
}

// InvoiceDTO is the full invoice representation with its lines.
type InvoiceDTO struct {
	ID            uuid.UUID           `json:"id"`
	PayableTo     string              `json:"payable_to"`
	InvoiceNumber string              `json:"invoice_number"`
	IssueDate     *string             `json:"issue_date,omitempty"`
	DueDate       *string             `json:"due_date,omitempty"`
	Currency      string              `json:"currency"`
	TotalNet      decimal.Decimal     `json:"total_net"`
	TotalGross    decimal.Decimal     `json:"total_gross"`
	Status        enums.InvoiceStatus `json:"status"`
	AuditLog      []string            `json:"audit_log"`
	Lines         []LineItemDTO       `json:"lines"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// InvoiceSummaryDTO is the list-view projection without lines.
type InvoiceSummaryDTO struct {
	ID            uuid.UUID           `json:"id"`
	PayableTo     string              `json:"payable_to"`
	InvoiceNumber string              `json:"invoice_number"`
	Currency      string              `json:"currency"`
	TotalGross    decimal.Decimal     `json:"total_gross"`
	Status        enums.InvoiceStatus `json:"status"`
	CreatedAt     time.Time           `json:"created_at"`
}

// LineItemDTO is one line with its reconciliation outcome.
type LineItemDTO struct {
	ID                 uuid.UUID                  `json:"id"`
	SupplierName       string                     `json:"supplier_name"`
	Collaborator       *string                    `json:"collaborator,omitempty"`
	ProductName        string                     `json:"product_name"`
	ABV                *string                    `json:"abv,omitempty"`
	Format             string                     `json:"format"`
	PackSize           *int                       `json:"pack_size,omitempty"`
	Volume             string                     `json:"volume"`
	Quantity           decimal.Decimal            `json:"quantity"`
	UnitPrice          decimal.Decimal            `json:"unit_price"`
	Status             enums.ReconciliationStatus `json:"status"`
	StatusLabel        string                     `json:"status_label"`
	MatchedProductName *string                    `json:"matched_product_name,omitempty"`
	MatchedVariantName *string                    `json:"matched_variant_name,omitempty"`
	MatchedVariantID   *string                    `json:"matched_variant_id,omitempty"`
	ImageURL           *string                    `json:"image_url,omitempty"`
	LocationStockCodes map[string]string          `json:"location_stock_codes"`
	ExternalProductIDs map[string]string          `json:"external_product_ids"`
	Position           int                        `json:"position"`
}

// ToInvoiceDTO maps the persisted invoice with its lines.
func ToInvoiceDTO(invoice *models.Invoice) *InvoiceDTO {
	lines := make([]LineItemDTO, 0, len(invoice.LineItems))
	for i := range invoice.LineItems {
		lines = append(lines, ToLineItemDTO(&invoice.LineItems[i]))
	}
	return &InvoiceDTO{
		ID:            invoice.ID,
		PayableTo:     invoice.PayableTo,
		InvoiceNumber: invoice.InvoiceNumber,
		IssueDate:     invoice.IssueDate,
		DueDate:       invoice.DueDate,
		Currency:      invoice.Currency,
		TotalNet:      invoice.TotalNet,
		TotalGross:    invoice.TotalGross,
		Status:        invoice.Status,
		AuditLog:      append([]string{}, invoice.AuditLog...),
		Lines:         lines,
		CreatedAt:     invoice.CreatedAt,
		UpdatedAt:     invoice.UpdatedAt,
	}
}

// ToInvoiceSummaryDTO maps the list projection.
func ToInvoiceSummaryDTO(invoice *models.Invoice) InvoiceSummaryDTO {
	return InvoiceSummaryDTO{
		ID:            invoice.ID,
		PayableTo:     invoice.PayableTo,
		InvoiceNumber: invoice.InvoiceNumber,
		Currency:      invoice.Currency,
		TotalGross:    invoice.TotalGross,
		Status:        invoice.Status,
		CreatedAt:     invoice.CreatedAt,
	}
}

// ToLineItemDTO maps one persisted line.
func ToLineItemDTO(line *models.LineItem) LineItemDTO {
	return LineItemDTO{
		ID:                 line.ID,
		SupplierName:       line.SupplierName,
		Collaborator:       line.Collaborator,
		ProductName:        line.ProductName,
		ABV:                line.ABV,
		Format:             line.Format,
		PackSize:           line.PackSize,
		Volume:             line.Volume,
		Quantity:           line.Quantity,
		UnitPrice:          line.UnitPrice,
		Status:             line.Status,
		StatusLabel:        line.Status.Label(),
		MatchedProductName: line.MatchedProductName,
		MatchedVariantName: line.MatchedVariantName,
		MatchedVariantID:   line.MatchedVariantID,
		ImageURL:           line.ImageURL,
		LocationStockCodes: line.LocationStockCodes,
		ExternalProductIDs: line.ExternalProductIDs,
		Position:           line.Position,
	}
}
