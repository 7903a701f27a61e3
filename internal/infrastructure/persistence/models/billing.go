package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/invoicedesk/backend/internal/domain/billing"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for billing.Invoice
type InvoiceModel struct {
	AggregateModel
	NumberStamp       int64            `gorm:"not null;uniqueIndex:idx_invoices_number,priority:1"`
	NumberSequence    int64            `gorm:"not null;uniqueIndex:idx_invoices_number,priority:2"`
	CustomerID        uuid.UUID        `gorm:"type:uuid;not null;index"`
	IssueDate         time.Time        `gorm:"not null;index"`
	DueDate           time.Time        `gorm:"not null;index"`
	Value             decimal.Decimal  `gorm:"type:decimal(15,2);not null"`
	Tax               decimal.Decimal  `gorm:"type:decimal(15,2);not null"`
	Additional        decimal.Decimal  `gorm:"type:decimal(15,2);not null"`
	Subtracted        decimal.Decimal  `gorm:"type:decimal(15,2);not null"`
	BalanceAmount     *decimal.Decimal `gorm:"type:decimal(15,2)"` // NULL for rows predating balance tracking
	PaymentDifference decimal.Decimal  `gorm:"type:decimal(15,2);not null;default:0"`
	PaymentStatus     string           `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Reminder1Sent     bool             `gorm:"not null;default:false"`
	Reminder2Sent     bool             `gorm:"not null;default:false"`
	Reminder3Sent     bool             `gorm:"not null;default:false"`
	Reminder1Message  string           `gorm:"type:text"`
	Reminder2Message  string           `gorm:"type:text"`
	Reminder3Message  string           `gorm:"type:text"`
	MarkCleared       bool             `gorm:"not null;default:false;index"`
}

// TableName returns the table name for InvoiceModel
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts InvoiceModel to a domain Invoice. A NULL balance falls
// back to the recomputed total so legacy rows behave like untouched invoices.
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	inv := &billing.Invoice{
		Number:            billing.InvoiceNumber{Stamp: m.NumberStamp, Sequence: m.NumberSequence},
		CustomerID:        m.CustomerID,
		IssueDate:         m.IssueDate,
		DueDate:           m.DueDate,
		Value:             m.Value,
		Tax:               m.Tax,
		Additional:        m.Additional,
		Subtracted:        m.Subtracted,
		PaymentDifference: m.PaymentDifference,
		PaymentStatus:     billing.PaymentStatus(m.PaymentStatus),
		ReminderFlags:     billing.ReminderFlags{m.Reminder1Sent, m.Reminder2Sent, m.Reminder3Sent},
		ReminderMessages:  billing.ReminderMessages{m.Reminder1Message, m.Reminder2Message, m.Reminder3Message},
		MarkCleared:       m.MarkCleared,
	}
	m.AggregateModel.PopulateAggregateRoot(&inv.BaseAggregateRoot)

	if m.BalanceAmount != nil {
		inv.BalanceAmount = *m.BalanceAmount
	} else {
		inv.BalanceAmount = inv.Total()
	}
	return inv
}

// InvoiceModelFromDomain converts a domain Invoice to InvoiceModel
func InvoiceModelFromDomain(inv *billing.Invoice) *InvoiceModel {
	balance := inv.BalanceAmount
	model := &InvoiceModel{
		NumberStamp:       inv.Number.Stamp,
		NumberSequence:    inv.Number.Sequence,
		CustomerID:        inv.CustomerID,
		IssueDate:         inv.IssueDate,
		DueDate:           inv.DueDate,
		Value:             inv.Value,
		Tax:               inv.Tax,
		Additional:        inv.Additional,
		Subtracted:        inv.Subtracted,
		BalanceAmount:     &balance,
		PaymentDifference: inv.PaymentDifference,
		PaymentStatus:     inv.PaymentStatus.String(),
		Reminder1Sent:     inv.ReminderFlags[0],
		Reminder2Sent:     inv.ReminderFlags[1],
		Reminder3Sent:     inv.ReminderFlags[2],
		Reminder1Message:  inv.ReminderMessages[0],
		Reminder2Message:  inv.ReminderMessages[1],
		Reminder3Message:  inv.ReminderMessages[2],
		MarkCleared:       inv.MarkCleared,
	}
	model.FromDomainAggregateRoot(inv.BaseAggregateRoot)
	return model
}

// PaymentModel is the persistence model for billing.Payment
type PaymentModel struct {
	BaseModel
	InvoiceID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	TransactionID string          `gorm:"type:varchar(128);not null;index"`
	Amount        decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	PaymentDate   time.Time       `gorm:"not null"`
	Mode          string          `gorm:"type:varchar(20);not null"`
	ChequeNumber  string          `gorm:"type:varchar(64)"`
	BankName      string          `gorm:"type:varchar(128)"`
	Remarks       string          `gorm:"type:text"`
}

// TableName returns the table name for PaymentModel
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts PaymentModel to a domain Payment
func (m *PaymentModel) ToDomain() *billing.Payment {
	return &billing.Payment{
		BaseEntity:    m.BaseModel.ToDomain(),
		InvoiceID:     m.InvoiceID,
		TransactionID: m.TransactionID,
		Amount:        m.Amount,
		PaymentDate:   m.PaymentDate,
		Mode:          billing.PaymentMode(m.Mode),
		ChequeNumber:  m.ChequeNumber,
		BankName:      m.BankName,
		Remarks:       m.Remarks,
	}
}

// PaymentModelFromDomain converts a domain Payment to PaymentModel
func PaymentModelFromDomain(p *billing.Payment) *PaymentModel {
	model := &PaymentModel{
		InvoiceID:     p.InvoiceID,
		TransactionID: p.TransactionID,
		Amount:        p.Amount,
		PaymentDate:   p.PaymentDate,
		Mode:          p.Mode.String(),
		ChequeNumber:  p.ChequeNumber,
		BankName:      p.BankName,
		Remarks:       p.Remarks,
	}
	model.FromDomainBaseEntity(p.BaseEntity)
	return model
}
