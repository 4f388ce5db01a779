package invoices

import (
	"bytes"
	"encoding/csv"
	"sort"
	"strconv"
	"strings"
)

// renderLinesCSV writes the annotated line table in invoice order. Location
// stock codes collapse into one column so the sheet shape does not depend on
// how many locations are configured.
func renderLinesCSV(dto *InvoiceDTO) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"Supplier", "Collaborator", "Product Name", "ABV", "Format", "Pack",
		"Volume", "Quantity", "Unit Price", "Status", "Matched Product",
		"Matched Variant", "Stock Codes",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, line := range dto.Lines {
		pack := ""
		if line.PackSize != nil {
			pack = strconv.Itoa(*line.PackSize)
		}
		record := []string{
			line.SupplierName,
			orEmpty(line.Collaborator),
			line.ProductName,
			orEmpty(line.ABV),
			line.Format,
			pack,
			line.Volume,
			line.Quantity.String(),
			line.UnitPrice.String(),
			line.StatusLabel,
			orEmpty(line.MatchedProductName),
			orEmpty(line.MatchedVariantName),
			joinStockCodes(line.LocationStockCodes),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func joinStockCodes(codes map[string]string) string {
	if len(codes) == 0 {
		return ""
	}
	locations := make([]string, 0, len(codes))
	for location := range codes {
		locations = append(locations, location)
	}
	sort.Strings(locations)

	parts := make([]string, 0, len(locations))
	for _, location := range locations {
		parts = append(parts, location+"="+codes[location])
	}
	return strings.Join(parts, "; ")
}

func orEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
