package dear

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tapcellar/tapcellar-backend/pkg/config"
	pkgerrors "github.com/tapcellar/tapcellar-backend/pkg/errors"
	"github.com/tapcellar/tapcellar-backend/pkg/logger"
)

var (
	errLoggerRequired      = errors.New("dear logger is required")
	errCredentialsRequired = errors.New("dear account id and application key are required")
)

// Client wraps the DEAR (Cin7 Core) external API v2 with centralized auth,
// logging, and error mapping.
type Client struct {
	httpClient *http.Client
	baseURL    string
	accountID  string
	appKey     string
	pageSize   int
	logger     *logger.Logger
}

// NewClient initializes the DEAR wrapper and validates credentials.
func NewClient(ctx context.Context, cfg config.DearConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	if !cfg.Enabled() {
		return nil, errCredentialsRequired
	}

	pageSize := cfg.SupplierPageSize
	if pageSize <= 0 {
		pageSize = 100
	}

	c := &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		accountID:  strings.TrimSpace(cfg.AccountID),
		appKey:     strings.TrimSpace(cfg.ApplicationKey),
		pageSize:   pageSize,
		logger:     logg,
	}

	logg.Info(ctx, "dear client initialized")
	return c, nil
}

// SupplierPageSize returns the fixed page size used for directory listing.
func (c *Client) SupplierPageSize() int {
	return c.pageSize
}

// FindProductBySKU looks up a product by its exact stock code. A missing
// product is a nil result, not an error.
func (c *Client) FindProductBySKU(ctx context.Context, sku string) (*Product, error) {
	query := url.Values{}
	query.Set("Sku", sku)

	var parsed productListResponse
	if err := c.get(ctx, "find_product_by_sku", "/product", query, &parsed); err != nil {
		return nil, err
	}

	for i := range parsed.Products {
		if strings.EqualFold(parsed.Products[i].SKU, sku) {
			return &parsed.Products[i], nil
		}
	}
	return nil, nil
}

// FindSupplierByName looks up a supplier by exact name. A missing supplier is
// a nil result, not an error.
func (c *Client) FindSupplierByName(ctx context.Context, name string) (*Supplier, error) {
	query := url.Values{}
	query.Set("Name", name)

	var parsed supplierListResponse
	if err := c.get(ctx, "find_supplier_by_name", "/supplier", query, &parsed); err != nil {
		return nil, err
	}

	for i := range parsed.Suppliers {
		if strings.EqualFold(parsed.Suppliers[i].Name, name) {
			return &parsed.Suppliers[i], nil
		}
	}
	return nil, nil
}

// ListSuppliers returns one page of the supplier directory.
func (c *Client) ListSuppliers(ctx context.Context, page, limit int) ([]Supplier, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = c.pageSize
	}

	query := url.Values{}
	query.Set("Page", strconv.Itoa(page))
	query.Set("Limit", strconv.Itoa(limit))

	var parsed supplierListResponse
	if err := c.get(ctx, "list_suppliers", "/supplier", query, &parsed); err != nil {
		return nil, err
	}
	return parsed.Suppliers, nil
}

// CreateOrderHeader performs step one of the two-step order protocol and
// returns the upstream task identifier the lines must be attached to.
func (c *Client) CreateOrderHeader(ctx context.Context, params OrderHeaderParams) (string, error) {
	var parsed createHeaderResponse
	if err := c.post(ctx, "create_order_header", "/purchase", params, &parsed); err != nil {
		return "", err
	}
	if strings.TrimSpace(parsed.ID) == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "dear: create order returned no task id")
	}
	return parsed.ID, nil
}

// AttachOrderLines performs step two: attaching the line array to an existing
// order header. Failure here leaves the header in place upstream.
func (c *Client) AttachOrderLines(ctx context.Context, taskID, status string, lines []OrderLine) error {
	payload := attachLinesRequest{TaskID: taskID, Status: status, Lines: lines}
	return c.post(ctx, "attach_order_lines", "/purchase/order", payload, nil)
}

func (c *Client) get(ctx context.Context, op, path string, query url.Values, dest any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("dear: build %s request", op))
	}
	return c.do(ctx, op, req, dest)
}

func (c *Client) post(ctx context.Context, op, path string, body, dest any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("dear: encode %s payload", op))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("dear: build %s request", op))
	}
	return c.do(ctx, op, req, dest)
}

func (c *Client) do(ctx context.Context, op string, req *http.Request, dest any) error {
	req.Header.Set("api-auth-accountid", c.accountID)
	req.Header.Set("api-auth-applicationkey", c.appKey)
	req.Header.Set("Content-Type", "application/json")

	c.log(ctx, "request", op, nil)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log(ctx, "error", op, map[string]any{"error": err.Error()})
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("dear: %s", op))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("dear: read %s response", op))
	}

	if resp.StatusCode != http.StatusOK {
		c.log(ctx, "error", op, map[string]any{"status": resp.StatusCode})
		// The upstream error body is reported verbatim so the operator sees
		// exactly what the inventory system rejected.
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("dear: %s returned status %d", op, resp.StatusCode)).
			WithDetails(map[string]any{"body": string(raw)})
	}

	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("dear: decode %s response", op))
	}

	c.log(ctx, "response", op, nil)
	return nil
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{"operation": op, "phase": phase}
	for k, v := range fields {
		logFields[k] = v
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Warn(ctx, fmt.Sprintf("dear %s", op))
	default:
		c.logger.Info(ctx, fmt.Sprintf("dear %s", phase))
	}
}
