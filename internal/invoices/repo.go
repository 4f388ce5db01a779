package invoices

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tapcellar/tapcellar-backend/pkg/db/models"
)

// Repository handles invoice persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to invoice operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new invoice with its lines in one insert.
func (r *Repository) Create(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

// FindByID loads an invoice with its lines in position order.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// List returns invoice headers, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Invoice, error) {
	var rows []models.Invoice
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Update saves the invoice header, including its audit log.
func (r *Repository) Update(ctx context.Context, invoice *models.Invoice) error {
	if invoice == nil {
		return gorm.ErrInvalidData
	}
	return r.db.WithContext(ctx).Omit("LineItems").Save(invoice).Error
}

// FindLine loads one line, scoped to its invoice.
func (r *Repository) FindLine(ctx context.Context, invoiceID, lineID uuid.UUID) (*models.LineItem, error) {
	var line models.LineItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND invoice_id = ?", lineID, invoiceID).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// UpdateLine saves one line.
func (r *Repository) UpdateLine(ctx context.Context, line *models.LineItem) error {
	if line == nil {
		return gorm.ErrInvalidData
	}
	return r.db.WithContext(ctx).Save(line).Error
}

// UpdateLines saves a batch of lines.
func (r *Repository) UpdateLines(ctx context.Context, lines []models.LineItem) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Save(&lines).Error
}
