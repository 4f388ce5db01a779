package invoices

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tapcellar/tapcellar-backend/internal/matching"
	"github.com/tapcellar/tapcellar-backend/pkg/db/models"
	dbtypes "github.com/tapcellar/tapcellar-backend/pkg/db/types"
	"github.com/tapcellar/tapcellar-backend/pkg/enums"
	pkgerrors "github.com/tapcellar/tapcellar-backend/pkg/errors"
	"github.com/tapcellar/tapcellar-backend/pkg/logger"
)

const defaultCurrency = "GBP"

var (
	errRepoRequired          = errors.New("invoices service: repository is required")
	errServiceLoggerRequired = errors.New("invoices service: logger is required")
)

type invoiceRepository interface {
	Create(ctx context.Context, invoice *models.Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	List(ctx context.Context) ([]models.Invoice, error)
	Update(ctx context.Context, invoice *models.Invoice) error
	FindLine(ctx context.Context, invoiceID, lineID uuid.UUID) (*models.LineItem, error)
	UpdateLine(ctx context.Context, line *models.LineItem) error
}

// Service exposes invoice ingestion and the operator's correction loop.
type Service interface {
	Ingest(ctx context.Context, input IngestInvoiceInput) (*InvoiceDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*InvoiceDTO, error)
	List(ctx context.Context) ([]InvoiceSummaryDTO, error)
	PatchLine(ctx context.Context, invoiceID, lineID uuid.UUID, input PatchLineInput) (*LineItemDTO, error)
	ExportCSV(ctx context.Context, id uuid.UUID) ([]byte, error)
}

type service struct {
	repo   invoiceRepository
	logger *logger.Logger
}

// NewService builds the invoices service.
func NewService(repo invoiceRepository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, errRepoRequired
	}
	if logg == nil {
		return nil, errServiceLoggerRequired
	}
	return &service{repo: repo, logger: logg}, nil
}

// Ingest persists one extracted invoice. Junk text from OCR is cleaned here
// so every later stage can trust the stored values: "nan"/"none" collapse to
// empty, and a pack size of one is stored as NULL rather than a multiplier.
func (s *service) Ingest(ctx context.Context, input IngestInvoiceInput) (*InvoiceDTO, error) {
	invoice := &models.Invoice{
		PayableTo:     strings.TrimSpace(input.PayableTo),
		InvoiceNumber: cleanText(input.InvoiceNumber),
		IssueDate:     cleanOptional(input.IssueDate),
		DueDate:       cleanOptional(input.DueDate),
		Currency:      strings.ToUpper(cleanText(input.Currency)),
		TotalNet:      input.TotalNet,
		TotalGross:    input.TotalGross,
		Status:        enums.InvoiceUploaded,
		AuditLog:      pq.StringArray{},
	}
	if invoice.Currency == "" {
		invoice.Currency = defaultCurrency
	}

	for i, line := range input.Lines {
		packSize, err := parsePackSize(line.PackSize)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid pack size").
				WithDetails(map[string]any{"line": i, "pack_size": line.PackSize})
		}
		invoice.LineItems = append(invoice.LineItems, models.LineItem{
			SupplierName:       cleanText(line.SupplierName),
			Collaborator:       cleanOptional(line.Collaborator),
			ProductName:        cleanText(line.ProductName),
			ABV:                cleanOptional(line.ABV),
			Format:             cleanText(line.Format),
			PackSize:           packSize,
			Volume:             cleanText(line.Volume),
			Quantity:           line.Quantity,
			UnitPrice:          line.UnitPrice,
			Status:             enums.ReconciliationPending,
			LocationStockCodes: dbtypes.StringMap{},
			ExternalProductIDs: dbtypes.StringMap{},
			Position:           i,
		})
	}

	if err := s.repo.Create(ctx, invoice); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating invoice")
	}

	ctx = s.logger.WithInvoiceID(ctx, invoice.ID.String())
	s.logger.Info(ctx, "invoice ingested")
	return ToInvoiceDTO(invoice), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*InvoiceDTO, error) {
	invoice, err := s.findInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToInvoiceDTO(invoice), nil
}

func (s *service) List(ctx context.Context) ([]InvoiceSummaryDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing invoices")
	}
	summaries := make([]InvoiceSummaryDTO, 0, len(rows))
	for i := range rows {
		summaries = append(summaries, ToInvoiceSummaryDTO(&rows[i]))
	}
	return summaries, nil
}

// PatchLine applies operator corrections. Any change resets the line to
// pending and clears the previous match, so the next reconciliation run
// re-evaluates it with the corrected values.
func (s *service) PatchLine(ctx context.Context, invoiceID, lineID uuid.UUID, input PatchLineInput) (*LineItemDTO, error) {
	line, err := s.repo.FindLine(ctx, invoiceID, lineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "line item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading line item")
	}

	changed := false
	applyString := func(dest *string, val *string) {
		if val != nil && *dest != cleanText(*val) {
			*dest = cleanText(*val)
			changed = true
		}
	}
	applyOptional := func(dest **string, val *string) {
		if val == nil {
			return
		}
		cleaned := cleanOptional(val)
		if !optionalEqual(*dest, cleaned) {
			*dest = cleaned
			changed = true
		}
	}
	applyDecimal := func(dest *decimal.Decimal, val *decimal.Decimal) {
		if val != nil && !dest.Equal(*val) {
			*dest = *val
			changed = true
		}
	}

	applyString(&line.SupplierName, input.SupplierName)
	applyOptional(&line.Collaborator, input.Collaborator)
	applyString(&line.ProductName, input.ProductName)
	applyOptional(&line.ABV, input.ABV)
	applyString(&line.Format, input.Format)
	applyString(&line.Volume, input.Volume)
	applyDecimal(&line.Quantity, input.Quantity)
	applyDecimal(&line.UnitPrice, input.UnitPrice)

	if input.PackSize != nil {
		packSize, parseErr := parsePackSize(*input.PackSize)
		if parseErr != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid pack size").
				WithDetails(map[string]any{"pack_size": *input.PackSize})
		}
		if !packEqual(line.PackSize, packSize) {
			line.PackSize = packSize
			changed = true
		}
	}

	if line.SupplierName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier name cannot be empty")
	}
	if line.ProductName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
	}

	if changed {
		line.Status = enums.ReconciliationPending
		line.MatchedProductName = nil
		line.MatchedVariantName = nil
		line.MatchedVariantID = nil
		line.ImageURL = nil
		line.LocationStockCodes = dbtypes.StringMap{}
		line.ExternalProductIDs = dbtypes.StringMap{}
		if err := s.repo.UpdateLine(ctx, line); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating line item")
		}
		s.logger.Info(s.logger.WithInvoiceID(ctx, invoiceID.String()), "line item corrected")
	}

	dto := ToLineItemDTO(line)
	return &dto, nil
}

// ExportCSV renders the annotated line table as a downloadable sheet.
func (s *service) ExportCSV(ctx context.Context, id uuid.UUID) ([]byte, error) {
	invoice, err := s.findInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	payload, err := renderLinesCSV(ToInvoiceDTO(invoice))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rendering invoice lines csv")
	}
	return payload, nil
}

func (s *service) findInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading invoice")
	}
	return invoice, nil
}

// cleanText trims and collapses the OCR junk spellings of "empty".
func cleanText(value string) string {
	trimmed := strings.TrimSpace(value)
	switch strings.ToLower(trimmed) {
	case "nan", "none", "null":
		return ""
	}
	return trimmed
}

func cleanOptional(value *string) *string {
	if value == nil {
		return nil
	}
	cleaned := cleanText(*value)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

// parsePackSize converts raw pack text to the stored form: nil for "not
// multi-packed", the integer otherwise.
func parsePackSize(raw string) (*int, error) {
	normalized := matching.NormalizePack(cleanText(raw))
	if normalized == "1" {
		return nil, nil
	}
	size, err := strconv.Atoi(normalized)
	if err != nil || size < 2 {
		return nil, errors.New("pack size must be an integer >= 2")
	}
	return &size, nil
}

func optionalEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func packEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
