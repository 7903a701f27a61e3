package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/invoicedesk/backend/internal/domain/billing"
	"github.com/invoicedesk/backend/internal/domain/shared"
	"github.com/invoicedesk/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements billing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice by its ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := dbFromContext(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber finds an invoice by its composite number. When the period is
// set, the issue date must fall inside it.
func (r *GormInvoiceRepository) FindByNumber(ctx context.Context, number billing.InvoiceNumber, period shared.Period) (*billing.Invoice, error) {
	query := dbFromContext(ctx, r.db).
		Where("number_stamp = ? AND number_sequence = ?", number.Stamp, number.Sequence)
	if !period.IsZero() {
		query = query.Where("issue_date BETWEEN ? AND ?", period.Start, period.End)
	}

	var model models.InvoiceModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates an invoice
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	return dbFromContext(ctx, r.db).Save(model).Error
}

// SaveWithLock saves an invoice with optimistic locking (version check).
// Returns shared.ErrConcurrencyConflict if the stored version has moved on.
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, invoice *billing.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	result := dbFromContext(ctx, r.db).
		Model(model).
		Where("id = ? AND version = ?", invoice.ID, invoice.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// ListUncleared lists invoices not yet marked cleared, for reminder sweeps
func (r *GormInvoiceRepository) ListUncleared(ctx context.Context, filter shared.Filter) ([]*billing.Invoice, error) {
	query := dbFromContext(ctx, r.db).
		Model(&models.InvoiceModel{}).
		Where("mark_cleared = ?", false)

	if filter.SortBy != "" {
		if err := ValidateSortColumn(filter.SortBy); err != nil {
			return nil, err
		}
		dir := "ASC"
		if filter.SortDesc {
			dir = "DESC"
		}
		query = query.Order(strings.ToLower(filter.SortBy) + " " + dir)
	} else {
		query = query.Order("due_date ASC")
	}
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var invoiceModels []models.InvoiceModel
	if err := query.Find(&invoiceModels).Error; err != nil {
		return nil, err
	}

	invoices := make([]*billing.Invoice, len(invoiceModels))
	for i := range invoiceModels {
		invoices[i] = invoiceModels[i].ToDomain()
	}
	return invoices, nil
}

// sortableInvoiceColumns guards ORDER BY input from the API layer
var sortableInvoiceColumns = map[string]bool{
	"due_date":   true,
	"issue_date": true,
	"created_at": true,
}

// ValidateSortColumn rejects sort columns that are not whitelisted
func ValidateSortColumn(column string) error {
	if column == "" {
		return nil
	}
	if !sortableInvoiceColumns[strings.ToLower(column)] {
		return shared.NewDomainError("INVALID_SORT", "Cannot sort by column "+column)
	}
	return nil
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ billing.InvoiceRepository = (*GormInvoiceRepository)(nil)
