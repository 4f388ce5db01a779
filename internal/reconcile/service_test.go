package reconcile

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tapcellar/tapcellar-backend/internal/matching"
	"github.com/tapcellar/tapcellar-backend/internal/skus"
	"github.com/tapcellar/tapcellar-backend/pkg/db/models"
	"github.com/tapcellar/tapcellar-backend/pkg/enums"
	pkgerrors "github.com/tapcellar/tapcellar-backend/pkg/errors"
	"github.com/tapcellar/tapcellar-backend/pkg/logger"
	"github.com/tapcellar/tapcellar-backend/pkg/shopify"
)

type stubRepo struct {
	invoice      *models.Invoice
	savedInvoice *models.Invoice
	savedLines   []models.LineItem
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	if s.invoice == nil || s.invoice.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.invoice, nil
}

func (s *stubRepo) Update(ctx context.Context, invoice *models.Invoice) error {
	s.savedInvoice = invoice
	return nil
}

func (s *stubRepo) UpdateLines(ctx context.Context, lines []models.LineItem) error {
	s.savedLines = lines
	return nil
}

type stubCatalog struct {
	byVendor map[string][]shopify.Product
	failFor  map[string]bool
	fetches  int
}

func (s *stubCatalog) FetchProductsByVendor(ctx context.Context, vendor string) ([]shopify.Product, error) {
	s.fetches++
	if s.failFor[vendor] {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog unavailable")
	}
	return s.byVendor[vendor], nil
}

type stubResolver struct {
	ids map[string]string
}

func (s *stubResolver) ResolveProductID(ctx context.Context, sku string) (string, error) {
	return s.ids[sku], nil
}

func matchCfg() matching.Config {
	return matching.Config{
		NoiseFloor:        40,
		AcceptScore:       75,
		CaskVolumeAliases: map[string]string{"9": "firkin"},
		SKUPrefixLength:   2,
	}
}

func newEngine(t *testing.T, repo *stubRepo, catalog *stubCatalog, resolver *stubResolver) Service {
	t.Helper()
	var res productResolver
	if resolver != nil {
		res = resolver
	}
	svc, err := NewService(Deps{
		Repo:     repo,
		Catalog:  catalog,
		Resolver: res,
		Deriver:  skus.NewDeriver(2, map[string]string{"London": "L-", "Gloucester": "G-"}),
		MatchCfg: matchCfg(),
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}}),
	})
	require.NoError(t, err)
	return svc
}

func paleFireCatalog() map[string][]shopify.Product {
	return map[string][]shopify.Product{
		"Hammerton": {{
			ID:       "gid://shopify/Product/1",
			Title:    "L-Hammerton / Pale Fire / 4.7% / Steel Keg",
			KegType:  "Steel",
			ImageURL: "https://cdn.example/pf.png",
			Variants: []shopify.Variant{
				{ID: "gid://shopify/ProductVariant/10", Title: "30L Keg", SKU: "L-PF30"},
			},
		}},
	}
}

func pendingInvoice() *models.Invoice {
	return &models.Invoice{
		ID: uuid.New(),
		LineItems: []models.LineItem{{
			ID:           uuid.New(),
			SupplierName: "Hammerton",
			ProductName:  "Pale Fire",
			Format:       "Steel Keg",
			Volume:       "30 Litre",
			Status:       enums.ReconciliationPending,
			Position:     0,
		}},
	}
}

func TestRunMatchesLineAndDerivesCodes(t *testing.T) {
	repo := &stubRepo{invoice: pendingInvoice()}
	catalog := &stubCatalog{byVendor: paleFireCatalog()}
	resolver := &stubResolver{ids: map[string]string{"L-PF30": "dear-1", "G-PF30": "dear-2"}}
	svc := newEngine(t, repo, catalog, resolver)

	summary, err := svc.Run(context.Background(), repo.invoice.ID, RunInput{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ProcessedLines)
	assert.Equal(t, 0, summary.SkippedLines)
	assert.Equal(t, 1, summary.StatusCounts["matched"])

	line := repo.invoice.LineItems[0]
	assert.Equal(t, enums.ReconciliationMatched, line.Status)
	require.NotNil(t, line.MatchedProductName)
	assert.Equal(t, "Hammerton / Pale Fire / 4.7% / Steel Keg", *line.MatchedProductName)
	require.NotNil(t, line.MatchedVariantID)
	assert.Equal(t, "gid://shopify/ProductVariant/10", *line.MatchedVariantID)
	assert.Equal(t, map[string]string(line.LocationStockCodes), map[string]string{
		"London": "L-PF30", "Gloucester": "G-PF30",
	})
	assert.Equal(t, map[string]string(line.ExternalProductIDs), map[string]string{
		"London": "dear-1", "Gloucester": "dear-2",
	})

	require.NotNil(t, repo.savedInvoice)
	assert.Equal(t, enums.InvoiceReconciled, repo.savedInvoice.Status)
	assert.NotEmpty(t, repo.savedInvoice.AuditLog)
	assert.NotEmpty(t, repo.savedLines)
}

func TestRunFetchesEachVendorOnce(t *testing.T) {
	invoice := pendingInvoice()
	invoice.LineItems = append(invoice.LineItems, models.LineItem{
		ID:           uuid.New(),
		SupplierName: "Hammerton",
		ProductName:  "Pale Fire",
		Format:       "Steel Keg",
		Volume:       "30 Litre",
		Status:       enums.ReconciliationPending,
		Position:     1,
	})
	repo := &stubRepo{invoice: invoice}
	catalog := &stubCatalog{byVendor: paleFireCatalog()}
	svc := newEngine(t, repo, catalog, nil)

	_, err := svc.Run(context.Background(), invoice.ID, RunInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, catalog.fetches)
}

func TestRunSkipMatchedLeavesLineAlone(t *testing.T) {
	invoice := pendingInvoice()
	stale := "stale match"
	invoice.LineItems[0].Status = enums.ReconciliationMatched
	invoice.LineItems[0].MatchedProductName = &stale
	repo := &stubRepo{invoice: invoice}
	catalog := &stubCatalog{byVendor: paleFireCatalog()}
	svc := newEngine(t, repo, catalog, nil)

	summary, err := svc.Run(context.Background(), invoice.ID, RunInput{SkipMatched: true})
	require.NoError(t, err)

	assert.Equal(t, 0, summary.ProcessedLines)
	assert.Equal(t, 1, summary.SkippedLines)
	assert.Equal(t, 0, catalog.fetches)
	require.NotNil(t, invoice.LineItems[0].MatchedProductName)
	assert.Equal(t, "stale match", *invoice.LineItems[0].MatchedProductName)
}

func TestRunRerunRecomputesMatchedLines(t *testing.T) {
	invoice := pendingInvoice()
	invoice.LineItems[0].Status = enums.ReconciliationNewProduct
	repo := &stubRepo{invoice: invoice}
	catalog := &stubCatalog{byVendor: paleFireCatalog()}
	svc := newEngine(t, repo, catalog, nil)

	first, err := svc.Run(context.Background(), invoice.ID, RunInput{})
	require.NoError(t, err)
	second, err := svc.Run(context.Background(), invoice.ID, RunInput{})
	require.NoError(t, err)

	assert.Equal(t, first.StatusCounts, second.StatusCounts)
	assert.Equal(t, first.AuditLog, second.AuditLog)
	assert.Len(t, repo.savedInvoice.AuditLog, len(second.AuditLog))
}

func TestRunCatalogFailureDegradesToVendorNotFound(t *testing.T) {
	invoice := pendingInvoice()
	repo := &stubRepo{invoice: invoice}
	catalog := &stubCatalog{failFor: map[string]bool{"Hammerton": true}}
	svc := newEngine(t, repo, catalog, nil)

	summary, err := svc.Run(context.Background(), invoice.ID, RunInput{})
	require.NoError(t, err)

	assert.Equal(t, enums.ReconciliationVendorNotFound, invoice.LineItems[0].Status)
	assert.Equal(t, 1, summary.StatusCounts["vendor_not_found"])
	require.NotEmpty(t, summary.AuditLog)
	assert.Contains(t, summary.AuditLog[0], "catalog fetch failed")
}

func TestRunAuditExplainsNonMatch(t *testing.T) {
	invoice := pendingInvoice()
	// Volume off by an order of magnitude: the product scores well but no
	// variant passes the size check.
	invoice.LineItems[0].Volume = "50 Litre"
	repo := &stubRepo{invoice: invoice}
	catalog := &stubCatalog{byVendor: paleFireCatalog()}
	svc := newEngine(t, repo, catalog, nil)

	summary, err := svc.Run(context.Background(), invoice.ID, RunInput{})
	require.NoError(t, err)

	assert.Equal(t, enums.ReconciliationSizeMissing, invoice.LineItems[0].Status)
	audit := strings.Join(summary.AuditLog, "\n")
	assert.Contains(t, audit, `Vendor "Hammerton": found 1 catalog products`)
	assert.Contains(t, audit, "failed size check")
	assert.Contains(t, audit, "Size Missing")
}

func TestRunUsesCollaboratorAsVendor(t *testing.T) {
	invoice := pendingInvoice()
	collab := "Hammerton"
	invoice.LineItems[0].SupplierName = "Some Distributor"
	invoice.LineItems[0].Collaborator = &collab
	repo := &stubRepo{invoice: invoice}
	catalog := &stubCatalog{byVendor: paleFireCatalog()}
	svc := newEngine(t, repo, catalog, nil)

	_, err := svc.Run(context.Background(), invoice.ID, RunInput{})
	require.NoError(t, err)
	assert.Equal(t, enums.ReconciliationMatched, invoice.LineItems[0].Status)
}

func TestRunUnknownInvoiceIsNotFound(t *testing.T) {
	svc := newEngine(t, &stubRepo{}, &stubCatalog{}, nil)
	_, err := svc.Run(context.Background(), uuid.New(), RunInput{})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
