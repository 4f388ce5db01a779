package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tapcellar/tapcellar-backend/pkg/config"
	pkgerrors "github.com/tapcellar/tapcellar-backend/pkg/errors"
	"github.com/tapcellar/tapcellar-backend/pkg/logger"
)

var errLoggerRequired = errors.New("shopify logger is required")

// productsQuery fetches every product for a vendor regardless of status
// (active, draft, archived) together with the format metafields the matcher
// needs for the family-compatibility guard.
const productsQuery = `
query ($query: String!, $first: Int!) {
  products(first: $first, query: $query) {
    edges {
      node {
        id
        title
        status
        format_meta: metafield(namespace: "custom", key: "Format") { value }
        keg_meta: metafield(namespace: "custom", key: "KegType") { value }
        featuredImage { url }
        variants(first: 20) {
          edges {
            node {
              id
              title
              sku
              inventoryQuantity
            }
          }
        }
      }
    }
  }
}
`

// Client wraps the Shopify Admin GraphQL API with centralized auth, logging,
// and error mapping.
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
	pageSize   int
	enabled    bool
	logger     *logger.Logger
}

// NewClient initializes the Shopify wrapper. Missing credentials do not fail
// construction: the client stays disabled and vendor queries return zero
// products, which the engine treats as "vendor not found".
func NewClient(ctx context.Context, cfg config.ShopifyConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}

	c := &Client{
		httpClient: &http.Client{},
		endpoint:   fmt.Sprintf("https://%s/admin/api/%s/graphql.json", strings.TrimSpace(cfg.ShopURL), cfg.APIVersion),
		token:      strings.TrimSpace(cfg.AccessToken),
		pageSize:   cfg.PageSize,
		enabled:    cfg.Enabled(),
		logger:     logg,
	}
	if c.pageSize <= 0 {
		c.pageSize = 50
	}

	if c.enabled {
		logg.Info(ctx, "shopify client initialized")
	} else {
		logg.Warn(ctx, "shopify credentials absent, catalog lookups disabled")
	}
	return c, nil
}

// Enabled reports whether catalog lookups will reach the network.
func (c *Client) Enabled() bool {
	return c != nil && c.enabled
}

// FetchProductsByVendor returns every catalog product attributed to the vendor.
// Unknown vendors and disabled credentials yield an empty slice, not an error.
func (c *Client) FetchProductsByVendor(ctx context.Context, vendor string) ([]Product, error) {
	if !c.Enabled() {
		return nil, nil
	}

	// Single quotes inside vendor names would terminate the query term.
	escaped := strings.ReplaceAll(vendor, "'", `\'`)
	body := graphqlRequest{
		Query: productsQuery,
		Variables: map[string]any{
			"query": fmt.Sprintf("vendor:'%s'", escaped),
			"first": c.pageSize,
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "shopify: encode query")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "shopify: build request")
	}
	req.Header.Set("X-Shopify-Access-Token", c.token)
	req.Header.Set("Content-Type", "application/json")

	c.log(ctx, "request", "fetch_products", map[string]any{"vendor": vendor})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log(ctx, "error", "fetch_products", map[string]any{"error": err.Error()})
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "shopify: fetch products")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "shopify: read response")
	}
	if resp.StatusCode != http.StatusOK {
		c.log(ctx, "error", "fetch_products", map[string]any{"status": resp.StatusCode})
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("shopify: status %d", resp.StatusCode)).
			WithDetails(map[string]any{"body": string(raw)})
	}

	var parsed graphqlResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "shopify: decode response")
	}
	if len(parsed.Errors) > 0 {
		c.log(ctx, "error", "fetch_products", map[string]any{"graphql_error": parsed.Errors[0].Message})
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "shopify: graphql error").
			WithDetails(map[string]any{"message": parsed.Errors[0].Message})
	}

	products := make([]Product, 0, len(parsed.Data.Products.Edges))
	for _, edge := range parsed.Data.Products.Edges {
		products = append(products, edge.Node.toProduct())
	}

	c.log(ctx, "response", "fetch_products", map[string]any{"vendor": vendor, "count": len(products)})
	return products, nil
}

func (n productNode) toProduct() Product {
	p := Product{
		ID:     n.ID,
		Title:  n.Title,
		Status: n.Status,
	}
	if n.FormatMeta != nil {
		p.Format = n.FormatMeta.Value
	}
	if n.KegMeta != nil {
		p.KegType = n.KegMeta.Value
	}
	if n.Image != nil {
		p.ImageURL = n.Image.URL
	}
	for _, v := range n.Variants.Edges {
		p.Variants = append(p.Variants, Variant{
			ID:                v.Node.ID,
			Title:             v.Node.Title,
			SKU:               v.Node.SKU,
			InventoryQuantity: v.Node.InventoryQuantity,
		})
	}
	return p
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
		c.logger.Warn(ctx, fmt.Sprintf("shopify %s", op))
	default:
		c.logger.Info(ctx, fmt.Sprintf("shopify %s", phase))
	}
}
