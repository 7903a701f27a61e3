package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/invoicedesk/backend/internal/domain/ledger"
	"github.com/invoicedesk/backend/internal/domain/shared"
	"github.com/invoicedesk/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormLedgerEntryRepository implements ledger.EntryRepository using GORM
type GormLedgerEntryRepository struct {
	db *gorm.DB
}

// NewGormLedgerEntryRepository creates a new GormLedgerEntryRepository
func NewGormLedgerEntryRepository(db *gorm.DB) *GormLedgerEntryRepository {
	return &GormLedgerEntryRepository{db: db}
}

// Append persists new ledger entries in order
func (r *GormLedgerEntryRepository) Append(ctx context.Context, entries ...*ledger.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	entryModels := make([]*models.LedgerEntryModel, len(entries))
	for i, e := range entries {
		entryModels[i] = models.LedgerEntryModelFromDomain(e)
	}
	return dbFromContext(ctx, r.db).Create(entryModels).Error
}

// ListByCustomer lists a customer's entries in replay order, created_at with
// id as the tie break. The period bounds created_at when set.
func (r *GormLedgerEntryRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID, period shared.Period) ([]*ledger.Entry, error) {
	query := dbFromContext(ctx, r.db).
		Where("customer_id = ?", customerID).
		Order("created_at ASC, id ASC")
	if !period.IsZero() {
		query = query.Where("created_at BETWEEN ? AND ?", period.Start, period.End)
	}

	var entryModels []models.LedgerEntryModel
	if err := query.Find(&entryModels).Error; err != nil {
		return nil, err
	}

	entries := make([]*ledger.Entry, len(entryModels))
	for i := range entryModels {
		entries[i] = entryModels[i].ToDomain()
	}
	return entries, nil
}

// LatestByCustomer returns the customer's most recent entry
func (r *GormLedgerEntryRepository) LatestByCustomer(ctx context.Context, customerID uuid.UUID) (*ledger.Entry, error) {
	var model models.LedgerEntryModel
	if err := dbFromContext(ctx, r.db).
		Where("customer_id = ?", customerID).
		Order("created_at DESC, id DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// RebuildRunningBalances replays the customer's full ledger in order and
// rewrites every stored running balance. Used after a backdated entry lands
// in the middle of the sequence.
func (r *GormLedgerEntryRepository) RebuildRunningBalances(ctx context.Context, customerID uuid.UUID) error {
	return dbFromContext(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var entryModels []models.LedgerEntryModel
		if err := tx.
			Where("customer_id = ?", customerID).
			Order("created_at ASC, id ASC").
			Find(&entryModels).Error; err != nil {
			return err
		}

		entries := make([]*ledger.Entry, len(entryModels))
		for i := range entryModels {
			entries[i] = entryModels[i].ToDomain()
		}
		ledger.ComputeRunningLedger(entries)

		for _, e := range entries {
			if err := tx.Model(&models.LedgerEntryModel{}).
				Where("id = ?", e.ID).
				Update("running_balance", e.RunningBalance).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Ensure GormLedgerEntryRepository implements EntryRepository
var _ ledger.EntryRepository = (*GormLedgerEntryRepository)(nil)
