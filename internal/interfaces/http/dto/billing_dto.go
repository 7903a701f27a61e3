package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/invoicedesk/backend/internal/domain/billing"
	"github.com/invoicedesk/backend/internal/domain/ledger"
)

// InvoiceResponse is the API representation of an invoice
type InvoiceResponse struct {
	ID            uuid.UUID       `json:"id"`
	Number        string          `json:"number"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	IssueDate     time.Time       `json:"issue_date"`
	DueDate       time.Time       `json:"due_date"`
	Total         decimal.Decimal `json:"total"`
	Balance       decimal.Decimal `json:"balance"`
	PaymentStatus string          `json:"payment_status"`
	Reminders     [3]bool         `json:"reminders_sent"`
	MarkCleared   bool            `json:"mark_cleared"`
	Version       int             `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewInvoiceResponse maps an invoice aggregate to its API representation
func NewInvoiceResponse(inv *billing.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:            inv.ID,
		Number:        inv.Number.String(),
		CustomerID:    inv.CustomerID,
		IssueDate:     inv.IssueDate,
		DueDate:       inv.DueDate,
		Total:         inv.Total(),
		Balance:       inv.CurrentBalance(),
		PaymentStatus: inv.PaymentStatus.String(),
		Reminders:     inv.ReminderFlags,
		MarkCleared:   inv.MarkCleared,
		Version:       inv.Version,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
}

// NewInvoiceListResponse maps a list of invoices
func NewInvoiceListResponse(invoices []*billing.Invoice) []InvoiceResponse {
	result := make([]InvoiceResponse, len(invoices))
	for i, inv := range invoices {
		result[i] = NewInvoiceResponse(inv)
	}
	return result
}

// LedgerEntryResponse is the API representation of a ledger entry
type LedgerEntryResponse struct {
	ID             uuid.UUID       `json:"id"`
	CustomerID     uuid.UUID       `json:"customer_id"`
	InvoiceID      *uuid.UUID      `json:"invoice_id,omitempty"`
	Type           string          `json:"type"`
	Amount         decimal.Decimal `json:"amount"`
	RunningBalance decimal.Decimal `json:"running_balance"`
	Description    string          `json:"description"`
	CreatedAt      time.Time       `json:"created_at"`
}

// NewLedgerEntryResponse maps a ledger entry to its API representation
func NewLedgerEntryResponse(e *ledger.Entry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:             e.ID,
		CustomerID:     e.CustomerID,
		InvoiceID:      e.InvoiceID,
		Type:           string(e.Type),
		Amount:         e.Amount,
		RunningBalance: e.RunningBalance,
		Description:    e.Description,
		CreatedAt:      e.CreatedAt,
	}
}

// NewLedgerEntryListResponse maps a list of ledger entries
func NewLedgerEntryListResponse(entries []*ledger.Entry) []LedgerEntryResponse {
	result := make([]LedgerEntryResponse, len(entries))
	for i, e := range entries {
		result[i] = NewLedgerEntryResponse(e)
	}
	return result
}

// PeriodRequest carries an optional reporting period as query parameters.
// When absent, handlers fall back to the current financial year.
type PeriodRequest struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to" binding:"omitempty,datetime=2006-01-02"`
}
