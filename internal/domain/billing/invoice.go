package billing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/invoicedesk/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents the derived payment state of an invoice
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING" // Nothing applied, balance equals total
	PaymentStatusPartial PaymentStatus = "PARTIAL" // Partially paid, 0 < balance < total
	PaymentStatusPaid    PaymentStatus = "PAID"    // Fully paid or overpaid, balance <= 0
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPartial, PaymentStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// DerivePaymentStatus derives the payment status from balance and total.
// Paid when balance <= 0 (overpayment stays paid), partial when the balance
// sits strictly between zero and total, pending otherwise.
func DerivePaymentStatus(balance, total decimal.Decimal) PaymentStatus {
	switch {
	case balance.LessThanOrEqual(decimal.Zero):
		return PaymentStatusPaid
	case balance.LessThan(total):
		return PaymentStatusPartial
	default:
		return PaymentStatusPending
	}
}

// InvoiceNumberSeparator joins the two components of a composite invoice number
const InvoiceNumberSeparator = "/"

// InvoiceNumber is the composite invoice identifier: a timestamp component
// and a monthly sequence component.
type InvoiceNumber struct {
	Stamp    int64 `json:"stamp"`
	Sequence int64 `json:"sequence"`
}

// String returns the joined representation, e.g. "1755072000/42"
func (n InvoiceNumber) String() string {
	return fmt.Sprintf("%d%s%d", n.Stamp, InvoiceNumberSeparator, n.Sequence)
}

// IsZero reports whether the number is unset
func (n InvoiceNumber) IsZero() bool {
	return n.Stamp == 0 && n.Sequence == 0
}

// ParseInvoiceNumber parses a joined invoice number back into its components
func ParseInvoiceNumber(s string) (InvoiceNumber, error) {
	parts := strings.Split(strings.TrimSpace(s), InvoiceNumberSeparator)
	if len(parts) != 2 {
		return InvoiceNumber{}, shared.NewDomainError("INVALID_INVOICE_NUMBER", fmt.Sprintf("Invoice number %q must have two %q separated components", s, InvoiceNumberSeparator))
	}
	stamp, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return InvoiceNumber{}, shared.NewDomainError("INVALID_INVOICE_NUMBER", fmt.Sprintf("Invoice number stamp %q is not numeric", parts[0]))
	}
	seq, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return InvoiceNumber{}, shared.NewDomainError("INVALID_INVOICE_NUMBER", fmt.Sprintf("Invoice number sequence %q is not numeric", parts[1]))
	}
	if stamp <= 0 || seq <= 0 {
		return InvoiceNumber{}, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number components must be positive")
	}
	return InvoiceNumber{Stamp: stamp, Sequence: seq}, nil
}

// ReminderTierCount is the number of escalation tiers
const ReminderTierCount = 3

// ReminderFlags tracks which reminder tiers have been sent, indexed by tier.
// A single array keeps the three flags from drifting apart across call sites.
type ReminderFlags [ReminderTierCount]bool

// Sent reports whether the given tier (1-based) has been sent
func (f ReminderFlags) Sent(tier int) bool {
	if tier < 1 || tier > ReminderTierCount {
		return false
	}
	return f[tier-1]
}

// AllSent reports whether every tier has been sent
func (f ReminderFlags) AllSent() bool {
	return f[0] && f[1] && f[2]
}

// ReminderMessages stores the rendered message per tier for audit
type ReminderMessages [ReminderTierCount]string

// Invoice is the aggregate root for a customer invoice. Its balance and
// payment status are mutated only through ApplyPayment; reminder flags only
// through SetReminderSent.
type Invoice struct {
	shared.BaseAggregateRoot
	Number            InvoiceNumber
	CustomerID        uuid.UUID
	IssueDate         time.Time
	DueDate           time.Time
	Value             decimal.Decimal
	Tax               decimal.Decimal
	Additional        decimal.Decimal
	Subtracted        decimal.Decimal
	BalanceAmount     decimal.Decimal
	PaymentDifference decimal.Decimal
	PaymentStatus     PaymentStatus
	ReminderFlags     ReminderFlags
	ReminderMessages  ReminderMessages
	MarkCleared       bool
}

// NewInvoice creates a new invoice with balance initialized to its total.
// Due date may be before or after the issue date; ordering is not validated.
func NewInvoice(
	number InvoiceNumber,
	customerID uuid.UUID,
	issueDate time.Time,
	dueDate time.Time,
	value, tax, additional, subtracted decimal.Decimal,
) (*Invoice, error) {
	if number.Stamp <= 0 || number.Sequence <= 0 {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number components must be positive")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if issueDate.IsZero() || dueDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Issue date and due date are required")
	}
	if value.IsNegative() || tax.IsNegative() || additional.IsNegative() || subtracted.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Invoice amount components cannot be negative")
	}

	inv := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		CustomerID:        customerID,
		IssueDate:         issueDate,
		DueDate:           dueDate,
		Value:             value,
		Tax:               tax,
		Additional:        additional,
		Subtracted:        subtracted,
		PaymentStatus:     PaymentStatusPending,
	}
	inv.BalanceAmount = inv.Total()

	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))

	return inv, nil
}

// Total recomputes the invoice total from its components. The total is never
// stored independently of its inputs.
func (i *Invoice) Total() decimal.Decimal {
	return i.Value.Add(i.Tax).Add(i.Additional).Sub(i.Subtracted)
}

// CurrentBalance returns the outstanding balance, falling back to the total
// for rows persisted before balances were tracked.
func (i *Invoice) CurrentBalance() decimal.Decimal {
	if i.BalanceAmount.IsZero() && i.PaymentStatus == PaymentStatusPending {
		return i.Total()
	}
	return i.BalanceAmount
}

// ApplyPayment reduces the balance by amount and re-derives the payment
// status. Overpayment is applied, not rejected: a negative balance stays
// visible to operators and the status remains PAID.
func (i *Invoice) ApplyPayment(amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() || amount.IsZero() {
		return decimal.Zero, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}

	newBalance := i.CurrentBalance().Sub(amount)
	previousStatus := i.PaymentStatus

	i.BalanceAmount = newBalance
	i.PaymentDifference = newBalance
	i.PaymentStatus = DerivePaymentStatus(newBalance, i.Total())
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	i.AddDomainEvent(NewInvoicePaymentAppliedEvent(i, amount))
	if i.PaymentStatus == PaymentStatusPaid && previousStatus != PaymentStatusPaid {
		i.AddDomainEvent(NewInvoicePaidEvent(i))
	}

	return newBalance, nil
}

// SetReminderSent records a successful reminder send for the given tier
// (1-based) and stores the rendered message for audit. Tier N requires tier
// N-1 to have been sent already.
func (i *Invoice) SetReminderSent(tier int, message string) error {
	if tier < 1 || tier > ReminderTierCount {
		return shared.NewDomainError("INVALID_TIER", fmt.Sprintf("Reminder tier must be between 1 and %d", ReminderTierCount))
	}
	if tier > 1 && !i.ReminderFlags[tier-2] {
		return shared.ErrSequenceViolation
	}

	i.ReminderFlags[tier-1] = true
	i.ReminderMessages[tier-1] = message
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	i.AddDomainEvent(NewInvoiceReminderSentEvent(i, tier))

	return nil
}

// SetCleared marks the invoice as administratively cleared; cleared invoices
// are never due for reminders.
func (i *Invoice) SetCleared(cleared bool) {
	i.MarkCleared = cleared
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
}

// IsPaid returns true if the invoice is fully paid
func (i *Invoice) IsPaid() bool {
	return i.PaymentStatus == PaymentStatusPaid
}

// IsOverdue returns true if the invoice is past its due date and not paid
func (i *Invoice) IsOverdue(today time.Time) bool {
	if i.IsPaid() || i.MarkCleared {
		return false
	}
	return today.After(i.DueDate)
}
