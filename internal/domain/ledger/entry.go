package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/invoicedesk/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// EntryType classifies a ledger entry
type EntryType string

const (
	// EntryTypeInvoice debits the customer account with a new invoice total
	EntryTypeInvoice EntryType = "INVOICE"
	// EntryTypePayment credits the customer account with a received payment
	EntryTypePayment EntryType = "PAYMENT"
)

// IsValid checks if the entry type is valid
func (t EntryType) IsValid() bool {
	return t == EntryTypeInvoice || t == EntryTypePayment
}

// String returns the string representation
func (t EntryType) String() string {
	return string(t)
}

// Entry is a single immutable line in a customer's account ledger. Amount is
// always positive, the entry type carries the direction. RunningBalance is the
// customer's outstanding balance after this entry was applied and may be
// negative when the customer holds a credit.
type Entry struct {
	shared.BaseEntity
	CustomerID     uuid.UUID
	InvoiceID      *uuid.UUID
	Type           EntryType
	Amount         decimal.Decimal
	RunningBalance decimal.Decimal
	Description    string
}

// NewInvoiceEntry creates a ledger entry debiting the customer with the
// invoice total
func NewInvoiceEntry(customerID, invoiceID uuid.UUID, amount decimal.Decimal, description string) (*Entry, error) {
	return newEntry(customerID, &invoiceID, EntryTypeInvoice, amount, description)
}

// NewPaymentEntry creates a ledger entry crediting the customer with a
// received payment
func NewPaymentEntry(customerID, invoiceID uuid.UUID, amount decimal.Decimal, description string) (*Entry, error) {
	return newEntry(customerID, &invoiceID, EntryTypePayment, amount, description)
}

func newEntry(customerID uuid.UUID, invoiceID *uuid.UUID, entryType EntryType, amount decimal.Decimal, description string) (*Entry, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID is required")
	}
	if !entryType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ENTRY_TYPE", fmt.Sprintf("Invalid ledger entry type: %s", entryType))
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Ledger entry amount must be positive")
	}

	return &Entry{
		BaseEntity:  shared.NewBaseEntity(),
		CustomerID:  customerID,
		InvoiceID:   invoiceID,
		Type:        entryType,
		Amount:      amount,
		Description: description,
	}, nil
}

// SignedAmount returns the amount with its direction applied, positive for
// invoices and negative for payments
func (e *Entry) SignedAmount() decimal.Decimal {
	if e.Type == EntryTypePayment {
		return e.Amount.Neg()
	}
	return e.Amount
}

// WithRunningBalance returns a copy of the entry with the running balance set
func (e *Entry) WithRunningBalance(balance decimal.Decimal) *Entry {
	copied := *e
	copied.RunningBalance = balance
	return &copied
}

// OccurredBefore orders entries by creation time, breaking ties by ID so that
// a ledger sequence is deterministic
func (e *Entry) OccurredBefore(other *Entry) bool {
	if e.CreatedAt.Equal(other.CreatedAt) {
		return e.ID.String() < other.ID.String()
	}
	return e.CreatedAt.Before(other.CreatedAt)
}

// BackdatedRelativeTo reports whether the entry predates the given timestamp,
// which signals that running balances after it need a rebuild
func (e *Entry) BackdatedRelativeTo(latest time.Time) bool {
	return e.CreatedAt.Before(latest)
}
