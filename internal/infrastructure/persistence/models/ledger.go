package models

import (
	"github.com/google/uuid"
	"github.com/invoicedesk/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// LedgerEntryModel is the persistence model for ledger.Entry. Rows are
// append-only; there is no update path besides the running balance rebuild.
type LedgerEntryModel struct {
	BaseModel
	CustomerID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_customer_created,priority:1"`
	InvoiceID      *uuid.UUID      `gorm:"type:uuid;index"`
	Type           string          `gorm:"type:varchar(20);not null"`
	Amount         decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	RunningBalance decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Description    string          `gorm:"type:text"`
}

// TableName returns the table name for LedgerEntryModel
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// ToDomain converts LedgerEntryModel to a domain Entry
func (m *LedgerEntryModel) ToDomain() *ledger.Entry {
	return &ledger.Entry{
		BaseEntity:     m.BaseModel.ToDomain(),
		CustomerID:     m.CustomerID,
		InvoiceID:      m.InvoiceID,
		Type:           ledger.EntryType(m.Type),
		Amount:         m.Amount,
		RunningBalance: m.RunningBalance,
		Description:    m.Description,
	}
}

// LedgerEntryModelFromDomain converts a domain Entry to LedgerEntryModel
func LedgerEntryModelFromDomain(e *ledger.Entry) *LedgerEntryModel {
	model := &LedgerEntryModel{
		CustomerID:     e.CustomerID,
		InvoiceID:      e.InvoiceID,
		Type:           e.Type.String(),
		Amount:         e.Amount,
		RunningBalance: e.RunningBalance,
		Description:    e.Description,
	}
	model.FromDomainBaseEntity(e.BaseEntity)
	return model
}
