package purchaseorders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tapcellar/tapcellar-backend/pkg/db/models"
)

// Repository handles purchase-order persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to purchase-order operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new submission record.
func (r *Repository) Create(ctx context.Context, order *models.PurchaseOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// Update saves the submission record.
func (r *Repository) Update(ctx context.Context, order *models.PurchaseOrder) error {
	if order == nil {
		return gorm.ErrInvalidData
	}
	return r.db.WithContext(ctx).Save(order).Error
}

// ListByInvoice returns every submission attempt for one invoice, newest first.
func (r *Repository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]models.PurchaseOrder, error) {
	var rows []models.PurchaseOrder
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
