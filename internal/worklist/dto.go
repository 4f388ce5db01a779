package worklist

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WorklistDTO is the product-creation worklist for one invoice.
type WorklistDTO struct {
	InvoiceID uuid.UUID        `json:"invoice_id"`
	Rows      []WorklistRowDTO `json:"rows"`
}

// WorklistRowDTO is one product to create, with up to MaxSlots packagings.
// DroppedSlots counts distinct packagings beyond the slot limit.
type WorklistRowDTO struct {
	Supplier     string          `json:"supplier"`
	Collaborator *string         `json:"collaborator,omitempty"`
	ProductName  string          `json:"product_name"`
	ABV          *string         `json:"abv,omitempty"`
	Status       string          `json:"status"`
	Slots        []PackagingSlot `json:"slots"`
	DroppedSlots int             `json:"dropped_slots"`
}

// PackagingSlot is one format/pack/volume/price combination. Two lines
// differing only in price occupy separate slots of the same row. Create
// always starts false; the operator ticks it in the sheet before the
// creation run.
type PackagingSlot struct {
	Format   string          `json:"format"`
	PackSize *int            `json:"pack_size,omitempty"`
	Volume   string          `json:"volume"`
	Price    decimal.Decimal `json:"price"`
	Create   bool            `json:"create"`
}

func (p PackagingSlot) key() string {
	pack := ""
	if p.PackSize != nil {
		pack = fmt.Sprintf("%d", *p.PackSize)
	}
	return p.Format + "\x1f" + pack + "\x1f" + p.Volume + "\x1f" + p.Price.String()
}
