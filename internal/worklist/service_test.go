package worklist

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tapcellar/tapcellar-backend/pkg/db/models"
	"github.com/tapcellar/tapcellar-backend/pkg/enums"
	pkgerrors "github.com/tapcellar/tapcellar-backend/pkg/errors"
	"github.com/tapcellar/tapcellar-backend/pkg/logger"
)

type stubRepo struct {
	invoice *models.Invoice
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	if s.invoice == nil || s.invoice.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.invoice, nil
}

func newService(t *testing.T, repo *stubRepo) Service {
	t.Helper()
	svc, err := NewService(repo, logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}}))
	require.NoError(t, err)
	return svc
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func line(pos int, product, format string, pack *int, volume string, status enums.ReconciliationStatus) models.LineItem {
	return models.LineItem{
		ID:           uuid.New(),
		SupplierName: "Verdant Brewing Co",
		ProductName:  product,
		ABV:          strPtr("5.5%"),
		Format:       format,
		PackSize:     pack,
		Volume:       volume,
		Status:       status,
		Position:     pos,
	}
}

func TestBuildGroupsByProductIdentity(t *testing.T) {
	invoice := &models.Invoice{ID: uuid.New(), LineItems: []models.LineItem{
		line(0, "Headband", "Can", intPtr(24), "440ml", enums.ReconciliationNewProduct),
		line(1, "Headband", "Steel Keg", nil, "30 Litre", enums.ReconciliationSizeMissing),
		line(2, "Lightbulb", "Can", intPtr(12), "440ml", enums.ReconciliationNewProduct),
		line(3, "Already There", "Can", intPtr(24), "440ml", enums.ReconciliationMatched),
	}}
	svc := newService(t, &stubRepo{invoice: invoice})

	dto, err := svc.Build(context.Background(), invoice.ID)
	require.NoError(t, err)

	require.Len(t, dto.Rows, 2)
	headband := dto.Rows[0]
	assert.Equal(t, "Headband", headband.ProductName)
	require.Len(t, headband.Slots, 2)
	assert.Equal(t, "Can", headband.Slots[0].Format)
	assert.Equal(t, "Steel Keg", headband.Slots[1].Format)
	assert.False(t, headband.Slots[0].Create)
	assert.False(t, headband.Slots[1].Create)

	assert.Equal(t, "Lightbulb", dto.Rows[1].ProductName)
}

func TestBuildDropsSlotsBeyondLimit(t *testing.T) {
	invoice := &models.Invoice{ID: uuid.New(), LineItems: []models.LineItem{
		line(0, "Headband", "Can", intPtr(24), "440ml", enums.ReconciliationNewProduct),
		line(1, "Headband", "Can", intPtr(12), "440ml", enums.ReconciliationNewProduct),
		line(2, "Headband", "Steel Keg", nil, "30 Litre", enums.ReconciliationNewProduct),
		line(3, "Headband", "Cask", nil, "9 gal", enums.ReconciliationNewProduct),
	}}
	svc := newService(t, &stubRepo{invoice: invoice})

	dto, err := svc.Build(context.Background(), invoice.ID)
	require.NoError(t, err)

	require.Len(t, dto.Rows, 1)
	assert.Len(t, dto.Rows[0].Slots, MaxSlots)
	assert.Equal(t, 1, dto.Rows[0].DroppedSlots)
}

func TestBuildDeduplicatesIdenticalPackagings(t *testing.T) {
	invoice := &models.Invoice{ID: uuid.New(), LineItems: []models.LineItem{
		line(0, "Headband", "Can", intPtr(24), "440ml", enums.ReconciliationNewProduct),
		line(1, "Headband", "Can", intPtr(24), "440ml", enums.ReconciliationNewProduct),
	}}
	svc := newService(t, &stubRepo{invoice: invoice})

	dto, err := svc.Build(context.Background(), invoice.ID)
	require.NoError(t, err)
	require.Len(t, dto.Rows, 1)
	assert.Len(t, dto.Rows[0].Slots, 1)
	assert.Equal(t, 0, dto.Rows[0].DroppedSlots)
}

func TestBuildPriceDistinctPackagingsFillSlots(t *testing.T) {
	cheap := line(0, "Headband", "Can", intPtr(24), "440ml", enums.ReconciliationNewProduct)
	cheap.UnitPrice = decimal.NewFromFloat(21.50)
	pricier := line(1, "Headband", "Can", intPtr(24), "440ml", enums.ReconciliationNewProduct)
	pricier.UnitPrice = decimal.NewFromFloat(23.00)

	invoice := &models.Invoice{ID: uuid.New(), LineItems: []models.LineItem{cheap, pricier}}
	svc := newService(t, &stubRepo{invoice: invoice})

	dto, err := svc.Build(context.Background(), invoice.ID)
	require.NoError(t, err)

	require.Len(t, dto.Rows, 1)
	require.Len(t, dto.Rows[0].Slots, 2)
	assert.True(t, dto.Rows[0].Slots[0].Price.Equal(decimal.NewFromFloat(21.50)))
	assert.True(t, dto.Rows[0].Slots[1].Price.Equal(decimal.NewFromFloat(23.00)))
}

func TestBuildIncludesPendingLines(t *testing.T) {
	invoice := &models.Invoice{ID: uuid.New(), LineItems: []models.LineItem{
		line(0, "Headband", "Can", intPtr(24), "440ml", enums.ReconciliationPending),
		line(1, "Already There", "Can", intPtr(24), "440ml", enums.ReconciliationMatched),
	}}
	svc := newService(t, &stubRepo{invoice: invoice})

	dto, err := svc.Build(context.Background(), invoice.ID)
	require.NoError(t, err)
	require.Len(t, dto.Rows, 1)
	assert.Equal(t, "Headband", dto.Rows[0].ProductName)
	assert.Equal(t, "Pending", dto.Rows[0].Status)
}

func TestBuildSeparatesCollaborators(t *testing.T) {
	withCollab := line(0, "Joint Venture", "Can", intPtr(24), "440ml", enums.ReconciliationNewProduct)
	withCollab.Collaborator = strPtr("Deya")
	without := line(1, "Joint Venture", "Can", intPtr(24), "440ml", enums.ReconciliationNewProduct)

	invoice := &models.Invoice{ID: uuid.New(), LineItems: []models.LineItem{withCollab, without}}
	svc := newService(t, &stubRepo{invoice: invoice})

	dto, err := svc.Build(context.Background(), invoice.ID)
	require.NoError(t, err)
	assert.Len(t, dto.Rows, 2)
}

func TestBuildCSVLayout(t *testing.T) {
	priced := line(0, "Headband", "Can", intPtr(24), "440ml", enums.ReconciliationNewProduct)
	priced.UnitPrice = decimal.NewFromFloat(18.90)
	invoice := &models.Invoice{ID: uuid.New(), LineItems: []models.LineItem{priced}}
	svc := newService(t, &stubRepo{invoice: invoice})

	raw, err := svc.BuildCSV(context.Background(), invoice.ID)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(raw))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	header := records[0]
	assert.Equal(t, "Supplier", header[0])
	assert.Equal(t, "Price 1", header[8])
	assert.Equal(t, "Create 3", header[len(header)-1])
	assert.Len(t, header, 5+MaxSlots*5)

	row := records[1]
	assert.Equal(t, "Verdant Brewing Co", row[0])
	assert.Equal(t, "Headband", row[2])
	assert.Equal(t, "Can", row[5])
	assert.Equal(t, "24", row[6])
	assert.Equal(t, "440ml", row[7])
	assert.Equal(t, "18.9", row[8])
	assert.Equal(t, "false", row[9])
	assert.Equal(t, "", row[10])
}

func TestBuildUnknownInvoiceIsNotFound(t *testing.T) {
	svc := newService(t, &stubRepo{})
	_, err := svc.Build(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
