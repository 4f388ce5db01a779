package dear

import "github.com/shopspring/decimal"

// Supplier is one inventory-system supplier record.
type Supplier struct {
	ID       string `json:"ID"`
	Name     string `json:"Name"`
	Currency string `json:"Currency"`
}

// Product is one inventory-system product record.
type Product struct {
	ID   string `json:"ID"`
	SKU  string `json:"SKU"`
	Name string `json:"Name"`
}

type supplierListResponse struct {
	Total     int        `json:"Total"`
	Page      int        `json:"Page"`
	Suppliers []Supplier `json:"SupplierList"`
}

type productListResponse struct {
	Total    int       `json:"Total"`
	Page     int       `json:"Page"`
	Products []Product `json:"Products"`
}

// OrderHeaderParams describes the purchase-order header created in step one of
// the two-step submission protocol.
type OrderHeaderParams struct {
	SupplierID string `json:"SupplierID"`
	Location   string `json:"Location"`
	OrderDate  string `json:"OrderDate"`
	TaxRule    string `json:"TaxRule"`
	Status     string `json:"Status"`
}

// OrderLine is one product line attached to a created order header.
type OrderLine struct {
	ProductID string          `json:"ProductID"`
	SKU       string          `json:"SKU"`
	Quantity  decimal.Decimal `json:"Quantity"`
	Price     decimal.Decimal `json:"Price"`
	Total     decimal.Decimal `json:"Total"`
	TaxRule   string          `json:"TaxRule"`
}

type createHeaderResponse struct {
	ID string `json:"ID"`
}

type attachLinesRequest struct {
	TaskID string      `json:"TaskID"`
	Status string      `json:"Status"`
	Lines  []OrderLine `json:"Lines"`
}
