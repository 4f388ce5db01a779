package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapcellar/tapcellar-backend/internal/invoices"
	"github.com/tapcellar/tapcellar-backend/internal/purchaseorders"
	"github.com/tapcellar/tapcellar-backend/internal/reconcile"
	"github.com/tapcellar/tapcellar-backend/internal/worklist"
	"github.com/tapcellar/tapcellar-backend/pkg/config"
	"github.com/tapcellar/tapcellar-backend/pkg/dear"
	pkgerrors "github.com/tapcellar/tapcellar-backend/pkg/errors"
	"github.com/tapcellar/tapcellar-backend/pkg/logger"
)

type stubInvoices struct {
	ingested *invoices.IngestInvoiceInput
	invoice  *invoices.InvoiceDTO
}

func (s *stubInvoices) Ingest(ctx context.Context, input invoices.IngestInvoiceInput) (*invoices.InvoiceDTO, error) {
	s.ingested = &input
	return &invoices.InvoiceDTO{ID: uuid.New(), PayableTo: input.PayableTo}, nil
}

func (s *stubInvoices) Get(ctx context.Context, id uuid.UUID) (*invoices.InvoiceDTO, error) {
	if s.invoice == nil || s.invoice.ID != id {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
	}
	return s.invoice, nil
}

func (s *stubInvoices) List(ctx context.Context) ([]invoices.InvoiceSummaryDTO, error) {
	return []invoices.InvoiceSummaryDTO{}, nil
}

func (s *stubInvoices) PatchLine(ctx context.Context, invoiceID, lineID uuid.UUID, input invoices.PatchLineInput) (*invoices.LineItemDTO, error) {
	return &invoices.LineItemDTO{ID: lineID}, nil
}

func (s *stubInvoices) ExportCSV(ctx context.Context, id uuid.UUID) ([]byte, error) {
	return []byte("Supplier,Collaborator\n"), nil
}

type stubReconcile struct {
	lastInput reconcile.RunInput
}

func (s *stubReconcile) Run(ctx context.Context, invoiceID uuid.UUID, input reconcile.RunInput) (*reconcile.RunSummaryDTO, error) {
	s.lastInput = input
	return &reconcile.RunSummaryDTO{InvoiceID: invoiceID, StatusCounts: map[string]int{}}, nil
}

type stubWorklist struct{}

func (s *stubWorklist) Build(ctx context.Context, invoiceID uuid.UUID) (*worklist.WorklistDTO, error) {
	return &worklist.WorklistDTO{InvoiceID: invoiceID, Rows: []worklist.WorklistRowDTO{}}, nil
}

func (s *stubWorklist) BuildCSV(ctx context.Context, invoiceID uuid.UUID) ([]byte, error) {
	return []byte("Supplier,Collaborator\n"), nil
}

type stubPurchaseOrders struct{}

func (s *stubPurchaseOrders) Create(ctx context.Context, invoiceID uuid.UUID, input purchaseorders.CreateOrderInput) (*purchaseorders.PurchaseOrderDTO, error) {
	return &purchaseorders.PurchaseOrderDTO{InvoiceID: invoiceID, Location: input.Location}, nil
}

func (s *stubPurchaseOrders) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]purchaseorders.PurchaseOrderDTO, error) {
	return []purchaseorders.PurchaseOrderDTO{}, nil
}

type stubSuppliers struct{}

func (s *stubSuppliers) ResolveSupplier(ctx context.Context, name string) (*dear.Supplier, error) {
	return nil, nil
}

func (s *stubSuppliers) ResolveProductID(ctx context.Context, sku string) (string, error) {
	return "", nil
}

func (s *stubSuppliers) Directory(ctx context.Context) ([]dear.Supplier, error) {
	return []dear.Supplier{{ID: "s1", Name: "Verdant"}}, nil
}

func (s *stubSuppliers) InvalidateDirectory(ctx context.Context) error {
	return nil
}

func testRouter(inv invoices.Service, rec reconcile.Service) http.Handler {
	cfg := &config.Config{App: config.AppConfig{Env: "dev", Port: "8080"}}
	logg := logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
	return NewRouter(cfg, logg, nil, nil, nil, inv, rec, &stubWorklist{}, &stubPurchaseOrders{}, &stubSuppliers{})
}

func TestHealthLive(t *testing.T) {
	router := testRouter(&stubInvoices{}, &stubReconcile{})

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "dev", res.Header().Get("X-TapCellar-Env"))
	assert.NotEmpty(t, res.Header().Get("X-Request-Id"))
}

func TestIngestInvoiceValidatesBody(t *testing.T) {
	router := testRouter(&stubInvoices{}, &stubReconcile{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices", strings.NewReader(`{"lines":[]}`))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusBadRequest, res.Code)
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
}

func TestIngestInvoiceCreated(t *testing.T) {
	inv := &stubInvoices{}
	router := testRouter(inv, &stubReconcile{})

	payload := `{"payable_to":"Verdant","lines":[{"supplier_name":"Verdant","product_name":"Headband"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices", strings.NewReader(payload))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusCreated, res.Code)
	require.NotNil(t, inv.ingested)
	assert.Equal(t, "Verdant", inv.ingested.PayableTo)
}

func TestGetInvoiceNotFound(t *testing.T) {
	router := testRouter(&stubInvoices{}, &stubReconcile{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices/"+uuid.NewString(), nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestGetInvoiceBadID(t *testing.T) {
	router := testRouter(&stubInvoices{}, &stubReconcile{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices/not-a-uuid", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestReconcileAcceptsEmptyBody(t *testing.T) {
	rec := &stubReconcile{}
	router := testRouter(&stubInvoices{}, rec)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/"+uuid.NewString()+"/reconcile", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusOK, res.Code)
	assert.False(t, rec.lastInput.SkipMatched)
}

func TestReconcilePassesSkipMatched(t *testing.T) {
	rec := &stubReconcile{}
	router := testRouter(&stubInvoices{}, rec)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/"+uuid.NewString()+"/reconcile", strings.NewReader(`{"skip_matched":true}`))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusOK, res.Code)
	assert.True(t, rec.lastInput.SkipMatched)
}

func TestWorklistCSVContentType(t *testing.T) {
	router := testRouter(&stubInvoices{}, &stubReconcile{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices/"+uuid.NewString()+"/worklist.csv", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "text/csv", res.Header().Get("Content-Type"))
	assert.Contains(t, res.Header().Get("Content-Disposition"), "attachment")
}

func TestInvoiceLinesCSVContentType(t *testing.T) {
	router := testRouter(&stubInvoices{}, &stubReconcile{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices/"+uuid.NewString()+"/lines.csv", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "text/csv", res.Header().Get("Content-Type"))
	assert.Contains(t, res.Header().Get("Content-Disposition"), "invoice-lines-")
}

func TestCreatePurchaseOrder(t *testing.T) {
	router := testRouter(&stubInvoices{}, &stubReconcile{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/"+uuid.NewString()+"/purchase-orders", strings.NewReader(`{"location":"London"}`))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusCreated, res.Code)
}

func TestListSuppliers(t *testing.T) {
	router := testRouter(&stubInvoices{}, &stubReconcile{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/suppliers", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "Verdant")
}

func TestNilServiceAnswersInternalError(t *testing.T) {
	router := testRouter(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusInternalServerError, res.Code)
}
