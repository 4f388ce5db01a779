package purchaseorders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tapcellar/tapcellar-backend/pkg/config"
	"github.com/tapcellar/tapcellar-backend/pkg/db/models"
	"github.com/tapcellar/tapcellar-backend/pkg/dear"
	"github.com/tapcellar/tapcellar-backend/pkg/enums"
	pkgerrors "github.com/tapcellar/tapcellar-backend/pkg/errors"
	"github.com/tapcellar/tapcellar-backend/pkg/logger"
)

var (
	errOrderRepoRequired   = errors.New("purchaseorders service: order repository is required")
	errInvoiceRepoRequired = errors.New("purchaseorders service: invoice repository is required")
	errOrdersAPIRequired   = errors.New("purchaseorders service: inventory order api is required")
	errResolverRequired    = errors.New("purchaseorders service: supplier resolver is required")
	errLoggerRequired      = errors.New("purchaseorders service: logger is required")
)

type orderRepository interface {
	Create(ctx context.Context, order *models.PurchaseOrder) error
	Update(ctx context.Context, order *models.PurchaseOrder) error
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]models.PurchaseOrder, error)
}

type invoiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	Update(ctx context.Context, invoice *models.Invoice) error
}

type ordersAPI interface {
	CreateOrderHeader(ctx context.Context, params dear.OrderHeaderParams) (string, error)
	AttachOrderLines(ctx context.Context, taskID, status string, lines []dear.OrderLine) error
}

type supplierResolver interface {
	ResolveSupplier(ctx context.Context, name string) (*dear.Supplier, error)
}

// Service assembles and submits purchase orders to the inventory system.
type Service interface {
	Create(ctx context.Context, invoiceID uuid.UUID, input CreateOrderInput) (*PurchaseOrderDTO, error)
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]PurchaseOrderDTO, error)
}

type service struct {
	orders    orderRepository
	invoices  invoiceRepository
	api       ordersAPI
	resolver  supplierResolver
	cfg       config.OrdersConfig
	locations map[string]bool
	logger    *logger.Logger
}

// Deps bundles the service dependencies. Locations is the set of warehouse
// names orders may target.
type Deps struct {
	Orders    orderRepository
	Invoices  invoiceRepository
	API       ordersAPI
	Resolver  supplierResolver
	Cfg       config.OrdersConfig
	Locations []string
	Logger    *logger.Logger
}

func NewService(deps Deps) (Service, error) {
	if deps.Orders == nil {
		return nil, errOrderRepoRequired
	}
	if deps.Invoices == nil {
		return nil, errInvoiceRepoRequired
	}
	if deps.API == nil {
		return nil, errOrdersAPIRequired
	}
	if deps.Resolver == nil {
		return nil, errResolverRequired
	}
	if deps.Logger == nil {
		return nil, errLoggerRequired
	}
	locations := make(map[string]bool, len(deps.Locations))
	for _, name := range deps.Locations {
		locations[name] = true
	}
	return &service{
		orders:    deps.Orders,
		invoices:  deps.Invoices,
		api:       deps.API,
		resolver:  deps.Resolver,
		cfg:       deps.Cfg,
		locations: locations,
		logger:    deps.Logger,
	}, nil
}

// Create submits one purchase order for the invoice's matched lines at the
// given location. Line assembly and validation happen before any network
// call; the upstream protocol is two-step and has no rollback, so every
// attempt is recorded and a header left without lines is persisted as
// lines_failed rather than hidden.
func (s *service) Create(ctx context.Context, invoiceID uuid.UUID, input CreateOrderInput) (*PurchaseOrderDTO, error) {
	if !s.locations[input.Location] {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown location").
			WithDetails(map[string]any{"location": input.Location})
	}

	invoice, err := s.invoices.FindByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading invoice")
	}

	ctx = s.logger.WithInvoiceID(ctx, invoice.ID.String())

	lines, skipped := s.assembleLines(invoice, input.Location)
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no valid lines for purchase order").
			WithDetails(map[string]any{"location": input.Location, "skipped": skipped})
	}

	supplier, err := s.resolver.ResolveSupplier(ctx, invoice.PayableTo)
	if err != nil {
		return nil, err
	}
	if supplier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "supplier not found in inventory system").
			WithDetails(map[string]any{"supplier": invoice.PayableTo})
	}

	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Total)
	}

	order := &models.PurchaseOrder{
		InvoiceID:    invoice.ID,
		SupplierID:   supplier.ID,
		SupplierName: supplier.Name,
		Location:     input.Location,
		Status:       enums.PurchaseOrderDraft,
		LineCount:    len(lines),
		SkippedCount: skipped,
		Total:        total,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording purchase order")
	}

	taskID, err := s.api.CreateOrderHeader(ctx, dear.OrderHeaderParams{
		SupplierID: supplier.ID,
		Location:   input.Location,
		OrderDate:  time.Now().UTC().Format("2006-01-02"),
		TaxRule:    s.cfg.TaxRule,
		Status:     s.cfg.Status,
	})
	if err != nil {
		s.recordFailure(ctx, order, enums.PurchaseOrderFailed, err)
		return nil, err
	}
	order.TaskID = &taskID
	order.Status = enums.PurchaseOrderHeaderCreated
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording order header")
	}

	if err := s.api.AttachOrderLines(ctx, taskID, s.cfg.Status, lines); err != nil {
		s.recordFailure(ctx, order, enums.PurchaseOrderLinesFailed, err)
		return nil, err
	}
	order.Status = enums.PurchaseOrderLinesAttached
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording order lines")
	}

	invoice.Status = enums.InvoiceOrdered
	if err := s.invoices.Update(ctx, invoice); err != nil {
		s.logger.Error(ctx, "marking invoice ordered failed", err)
	}

	s.logger.Info(s.logger.WithFields(ctx, map[string]any{
		"task_id":  taskID,
		"location": input.Location,
		"lines":    len(lines),
		"skipped":  skipped,
	}), "purchase order submitted")
	return ToPurchaseOrderDTO(order), nil
}

func (s *service) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]PurchaseOrderDTO, error) {
	rows, err := s.orders.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing purchase orders")
	}
	dtos := make([]PurchaseOrderDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *ToPurchaseOrderDTO(&rows[i]))
	}
	return dtos, nil
}

// assembleLines collects the matched lines that carry an inventory product ID
// for the location. Matched lines without one are counted, not submitted.
func (s *service) assembleLines(invoice *models.Invoice, location string) ([]dear.OrderLine, int) {
	var (
		lines   []dear.OrderLine
		skipped int
	)
	for i := range invoice.LineItems {
		line := &invoice.LineItems[i]
		if line.Status != enums.ReconciliationMatched {
			continue
		}
		productID := line.ExternalProductIDs[location]
		sku := line.LocationStockCodes[location]
		if productID == "" || sku == "" {
			skipped++
			continue
		}
		lines = append(lines, dear.OrderLine{
			ProductID: productID,
			SKU:       sku,
			Quantity:  line.Quantity,
			Price:     line.UnitPrice,
			Total:     line.Quantity.Mul(line.UnitPrice).Round(2),
			TaxRule:   s.cfg.TaxRule,
		})
	}
	return lines, skipped
}

func (s *service) recordFailure(ctx context.Context, order *models.PurchaseOrder, status enums.PurchaseOrderStatus, cause error) {
	detail := cause.Error()
	if typed := pkgerrors.As(cause); typed != nil {
		detail = typed.Message()
		// The upstream rejection body travels in the error details; keep it
		// with the order so the failure is diagnosable after the fact.
		if details, ok := typed.Details().(map[string]any); ok {
			if body, ok := details["body"].(string); ok && body != "" {
				detail += ": " + body
			}
		}
	}
	order.Status = status
	order.ErrorDetail = &detail
	if err := s.orders.Update(ctx, order); err != nil {
		s.logger.Error(ctx, "recording purchase order failure", err)
	}
	s.logger.Error(ctx, "purchase order submission failed", cause)
}
