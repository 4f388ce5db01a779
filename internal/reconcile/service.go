package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/tapcellar/tapcellar-backend/internal/matching"
	"github.com/tapcellar/tapcellar-backend/internal/skus"
	"github.com/tapcellar/tapcellar-backend/pkg/db/models"
	dbtypes "github.com/tapcellar/tapcellar-backend/pkg/db/types"
	"github.com/tapcellar/tapcellar-backend/pkg/enums"
	pkgerrors "github.com/tapcellar/tapcellar-backend/pkg/errors"
	"github.com/tapcellar/tapcellar-backend/pkg/logger"
	"github.com/tapcellar/tapcellar-backend/pkg/metrics"
	"github.com/tapcellar/tapcellar-backend/pkg/shopify"
)

var (
	errRepoRequired    = errors.New("reconcile service: repository is required")
	errCatalogRequired = errors.New("reconcile service: catalog client is required")
	errDeriverRequired = errors.New("reconcile service: sku deriver is required")
	errLoggerRequired  = errors.New("reconcile service: logger is required")
)

type reconcileRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	Update(ctx context.Context, invoice *models.Invoice) error
	UpdateLines(ctx context.Context, lines []models.LineItem) error
}

type catalogAPI interface {
	FetchProductsByVendor(ctx context.Context, vendor string) ([]shopify.Product, error)
}

type productResolver interface {
	ResolveProductID(ctx context.Context, sku string) (string, error)
}

// Service runs the reconciliation engine over one stored invoice.
type Service interface {
	Run(ctx context.Context, invoiceID uuid.UUID, input RunInput) (*RunSummaryDTO, error)
}

type service struct {
	repo     reconcileRepository
	catalog  catalogAPI
	resolver productResolver
	deriver  *skus.Deriver
	matchCfg matching.Config
	metrics  *metrics.ReconciliationMetrics
	logger   *logger.Logger
}

// Deps bundles the engine dependencies. Resolver and Metrics are optional;
// without a resolver the external product IDs stay empty.
type Deps struct {
	Repo     reconcileRepository
	Catalog  catalogAPI
	Resolver productResolver
	Deriver  *skus.Deriver
	MatchCfg matching.Config
	Metrics  *metrics.ReconciliationMetrics
	Logger   *logger.Logger
}

func NewService(deps Deps) (Service, error) {
	if deps.Repo == nil {
		return nil, errRepoRequired
	}
	if deps.Catalog == nil {
		return nil, errCatalogRequired
	}
	if deps.Deriver == nil {
		return nil, errDeriverRequired
	}
	if deps.Logger == nil {
		return nil, errLoggerRequired
	}
	return &service{
		repo:     deps.Repo,
		catalog:  deps.Catalog,
		resolver: deps.Resolver,
		deriver:  deps.Deriver,
		matchCfg: deps.MatchCfg,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
	}, nil
}

// Run reconciles every line of the invoice against the catalog. The run is
// idempotent: each pass recomputes line statuses from current line values and
// replaces the invoice audit log wholesale. One vendor catalog is fetched at
// most once per run.
func (s *service) Run(ctx context.Context, invoiceID uuid.UUID, input RunInput) (*RunSummaryDTO, error) {
	started := time.Now()

	invoice, err := s.repo.FindByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading invoice")
	}

	ctx = s.logger.WithInvoiceID(ctx, invoice.ID.String())

	run := &runState{
		catalogs: map[string][]shopify.Product{},
		fetchErr: map[string]bool{},
		counts:   map[string]int{},
	}

	for i := range invoice.LineItems {
		line := &invoice.LineItems[i]

		if input.SkipMatched && line.Status == enums.ReconciliationMatched {
			run.skipped++
			run.audit("Line %d: %q kept as %s", line.Position+1, line.ProductName, line.Status.Label())
			continue
		}

		s.reconcileLine(ctx, run, line)
		run.processed++
		run.counts[string(line.Status)]++
		s.metrics.IncLineOutcome(string(line.Status))
	}

	if run.auditLog == nil {
		run.auditLog = []string{}
	}
	invoice.AuditLog = pq.StringArray(run.auditLog)
	invoice.Status = enums.InvoiceReconciled

	if err := s.repo.UpdateLines(ctx, invoice.LineItems); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving reconciled lines")
	}
	if err := s.repo.Update(ctx, invoice); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving invoice")
	}

	s.metrics.ObserveRunDuration(time.Since(started))
	s.logger.Info(s.logger.WithFields(ctx, map[string]any{
		"processed": run.processed,
		"skipped":   run.skipped,
		"counts":    run.counts,
	}), "reconciliation run complete")

	return &RunSummaryDTO{
		InvoiceID:      invoice.ID,
		ProcessedLines: run.processed,
		SkippedLines:   run.skipped,
		StatusCounts:   run.counts,
		AuditLog:       run.auditLog,
	}, nil
}

type runState struct {
	catalogs  map[string][]shopify.Product
	fetchErr  map[string]bool
	counts    map[string]int
	auditLog  []string
	processed int
	skipped   int
}

func (r *runState) audit(format string, args ...any) {
	r.auditLog = append(r.auditLog, fmt.Sprintf(format, args...))
}

func (s *service) reconcileLine(ctx context.Context, run *runState, line *models.LineItem) {
	vendor := line.SupplierName
	// Collaboration beers are listed in the catalog under the brewing
	// collaborator, not the invoicing supplier.
	if line.Collaborator != nil && *line.Collaborator != "" {
		vendor = *line.Collaborator
	}

	catalog := s.vendorCatalog(ctx, run, vendor)

	pack := "1"
	if line.PackSize != nil {
		pack = fmt.Sprintf("%d", *line.PackSize)
	}
	result := matching.Match(s.matchCfg, matching.LineQuery{
		ProductName: line.ProductName,
		Format:      line.Format,
		Pack:        pack,
		Volume:      matching.NormalizeVolume(line.Volume),
	}, catalog)

	// The matcher's trace is the only record of why candidates or variants
	// were rejected, so it goes into the audit log verbatim.
	for _, entry := range result.Trace {
		run.audit("Line %d: %s", line.Position+1, entry)
	}

	line.Status = result.Status
	line.MatchedProductName = nil
	line.MatchedVariantName = nil
	line.MatchedVariantID = nil
	line.ImageURL = nil
	line.LocationStockCodes = dbtypes.StringMap{}
	line.ExternalProductIDs = dbtypes.StringMap{}

	if result.Status != enums.ReconciliationMatched {
		if run.fetchErr[vendor] {
			run.audit("Line %d: %q -> %s (catalog fetch failed for %q)", line.Position+1, line.ProductName, result.Status.Label(), vendor)
		} else {
			run.audit("Line %d: %q -> %s", line.Position+1, line.ProductName, result.Status.Label())
		}
		return
	}

	line.MatchedProductName = &result.ProductTitle
	line.MatchedVariantName = &result.VariantTitle
	line.MatchedVariantID = &result.VariantID
	if result.ImageURL != "" {
		imageURL := result.ImageURL
		line.ImageURL = &imageURL
	}

	derived := s.deriver.DeriveLocationSKUs(result.VariantSKU)
	if len(derived) == 0 {
		run.audit("Line %d: %q -> Matched (%s) but SKU %q is too short for location codes", line.Position+1, line.ProductName, result.VariantTitle, result.VariantSKU)
		return
	}
	line.LocationStockCodes = dbtypes.StringMap(derived)

	if s.resolver != nil {
		for location, code := range derived {
			id, err := s.resolver.ResolveProductID(ctx, code)
			if err != nil {
				s.logger.Warn(s.logger.WithFields(ctx, map[string]any{"sku": code}), "inventory product lookup failed")
				continue
			}
			if id != "" {
				line.ExternalProductIDs[location] = id
			}
		}
	}

	run.audit("Line %d: %q -> Matched (%s, score %d)", line.Position+1, line.ProductName, result.VariantTitle, result.BestScore)
}

// vendorCatalog fetches a vendor's products once per run. A transport failure
// degrades to an empty catalog so the run completes; the affected lines land
// in vendor_not_found and the audit log says why.
func (s *service) vendorCatalog(ctx context.Context, run *runState, vendor string) []shopify.Product {
	if catalog, ok := run.catalogs[vendor]; ok {
		return catalog
	}

	catalog, err := s.catalog.FetchProductsByVendor(ctx, vendor)
	s.metrics.IncCatalogFetch()
	if err != nil {
		s.logger.Warn(s.logger.WithSupplier(ctx, vendor), "vendor catalog fetch failed")
		run.fetchErr[vendor] = true
		run.audit("Vendor %q: catalog fetch failed", vendor)
		catalog = nil
	} else {
		run.audit("Vendor %q: found %d catalog products", vendor, len(catalog))
	}
	run.catalogs[vendor] = catalog
	return catalog
}
