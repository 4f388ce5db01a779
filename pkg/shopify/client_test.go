package shopify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tapcellar/tapcellar-backend/pkg/config"
	"github.com/tapcellar/tapcellar-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test"})
}

func TestFetchProductsByVendorDisabledReturnsEmpty(t *testing.T) {
	client, err := NewClient(context.Background(), config.ShopifyConfig{}, testLogger())
	require.NoError(t, err)
	require.False(t, client.Enabled())

	products, err := client.FetchProductsByVendor(context.Background(), "Acme Brew")
	require.NoError(t, err)
	require.Empty(t, products)
}

func TestFetchProductsByVendorParsesResponse(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "token-123", r.Header.Get("X-Shopify-Access-Token"))

		var req graphqlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotQuery, _ = req.Variables["query"].(string)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": {"products": {"edges": [
				{"node": {
					"id": "gid://shopify/Product/1",
					"title": "L-Acme Brew / Pale Ale / 4.5% / Cans",
					"status": "ACTIVE",
					"format_meta": {"value": "Cans"},
					"featuredImage": {"url": "https://cdn.example/pale.png"},
					"variants": {"edges": [
						{"node": {"id": "gid://shopify/ProductVariant/11", "title": "24 x 33cl", "sku": "L-PA24", "inventoryQuantity": 6}}
					]}
				}}
			]}}
		}`))
	}))
	defer server.Close()

	client, err := NewClient(context.Background(), config.ShopifyConfig{
		ShopURL:     "example.myshopify.com",
		AccessToken: "token-123",
		APIVersion:  "2024-04",
	}, testLogger())
	require.NoError(t, err)
	client.endpoint = server.URL

	products, err := client.FetchProductsByVendor(context.Background(), "O'Brien & Sons")
	require.NoError(t, err)

	require.Equal(t, `vendor:'O\'Brien & Sons'`, gotQuery)
	require.Len(t, products, 1)
	require.Equal(t, "L-Acme Brew / Pale Ale / 4.5% / Cans", products[0].Title)
	require.Equal(t, "Cans", products[0].Format)
	require.Equal(t, "https://cdn.example/pale.png", products[0].ImageURL)
	require.Len(t, products[0].Variants, 1)
	require.Equal(t, "L-PA24", products[0].Variants[0].SKU)
}

func TestFetchProductsByVendorNon200IsDependencyError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":"throttled"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, err := NewClient(context.Background(), config.ShopifyConfig{
		ShopURL:     "example.myshopify.com",
		AccessToken: "token-123",
	}, testLogger())
	require.NoError(t, err)
	client.endpoint = server.URL

	_, err = client.FetchProductsByVendor(context.Background(), "Acme Brew")
	require.Error(t, err)
}
