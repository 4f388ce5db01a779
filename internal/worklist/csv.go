package worklist

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
)

// renderCSV writes the worklist in the fixed sheet layout: identity columns
// followed by three packaging slot column groups.
func renderCSV(dto *WorklistDTO) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"Supplier", "Collaborator", "Product Name", "ABV", "Status"}
	for slot := 1; slot <= MaxSlots; slot++ {
		header = append(header,
			fmt.Sprintf("Format %d", slot),
			fmt.Sprintf("Pack %d", slot),
			fmt.Sprintf("Volume %d", slot),
			fmt.Sprintf("Price %d", slot),
			fmt.Sprintf("Create %d", slot),
		)
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, row := range dto.Rows {
		record := []string{
			row.Supplier,
			derefOrEmpty(row.Collaborator),
			row.ProductName,
			derefOrEmpty(row.ABV),
			row.Status,
		}
		for slot := 0; slot < MaxSlots; slot++ {
			if slot < len(row.Slots) {
				s := row.Slots[slot]
				pack := ""
				if s.PackSize != nil {
					pack = strconv.Itoa(*s.PackSize)
				}
				record = append(record, s.Format, pack, s.Volume, s.Price.String(), strconv.FormatBool(s.Create))
			} else {
				record = append(record, "", "", "", "", "")
			}
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

func derefOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
