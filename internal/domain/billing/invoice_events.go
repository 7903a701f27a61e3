package billing

import (
	"github.com/google/uuid"
	"github.com/invoicedesk/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event types for the billing domain
const (
	EventTypeInvoiceCreated        = "billing.invoice.created"
	EventTypeInvoicePaymentApplied = "billing.invoice.payment_applied"
	EventTypeInvoicePaid           = "billing.invoice.paid"
	EventTypeInvoiceReminderSent   = "billing.invoice.reminder_sent"
	EventTypeViewsInvalidation     = "billing.views.invalidate"
)

// AggregateTypeInvoice is the aggregate type for invoice events
const AggregateTypeInvoice = "Invoice"

// InvoiceCreatedEvent is raised when a new invoice is entered
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string          `json:"invoice_number"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	Total         decimal.Decimal `json:"total"`
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCreated, AggregateTypeInvoice, inv.ID),
		InvoiceNumber:   inv.Number.String(),
		CustomerID:      inv.CustomerID,
		Total:           inv.Total(),
	}
}

// InvoicePaymentAppliedEvent is raised when a payment is applied to an invoice
type InvoicePaymentAppliedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string          `json:"invoice_number"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Status        PaymentStatus   `json:"status"`
}

// NewInvoicePaymentAppliedEvent creates a new InvoicePaymentAppliedEvent
func NewInvoicePaymentAppliedEvent(inv *Invoice, amount decimal.Decimal) *InvoicePaymentAppliedEvent {
	return &InvoicePaymentAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePaymentApplied, AggregateTypeInvoice, inv.ID),
		InvoiceNumber:   inv.Number.String(),
		CustomerID:      inv.CustomerID,
		Amount:          amount,
		BalanceAfter:    inv.BalanceAmount,
		Status:          inv.PaymentStatus,
	}
}

// InvoicePaidEvent is raised when an invoice transitions to fully paid
type InvoicePaidEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string          `json:"invoice_number"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	FinalBalance  decimal.Decimal `json:"final_balance"`
}

// NewInvoicePaidEvent creates a new InvoicePaidEvent
func NewInvoicePaidEvent(inv *Invoice) *InvoicePaidEvent {
	return &InvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePaid, AggregateTypeInvoice, inv.ID),
		InvoiceNumber:   inv.Number.String(),
		CustomerID:      inv.CustomerID,
		FinalBalance:    inv.BalanceAmount,
	}
}

// InvoiceReminderSentEvent is raised after a reminder tier completes its sends
type InvoiceReminderSentEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string    `json:"invoice_number"`
	CustomerID    uuid.UUID `json:"customer_id"`
	Tier          int       `json:"tier"`
}

// NewInvoiceReminderSentEvent creates a new InvoiceReminderSentEvent
func NewInvoiceReminderSentEvent(inv *Invoice, tier int) *InvoiceReminderSentEvent {
	return &InvoiceReminderSentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceReminderSent, AggregateTypeInvoice, inv.ID),
		InvoiceNumber:   inv.Number.String(),
		CustomerID:      inv.CustomerID,
		Tier:            tier,
	}
}

// ViewsInvalidationEvent signals that cached invoice/dashboard views are
// stale after a batch mutation. Cache owners react; the engine itself never
// touches the cache.
type ViewsInvalidationEvent struct {
	shared.BaseDomainEvent
	Reason       string `json:"reason"`
	AffectedRows int    `json:"affected_rows"`
}

// NewViewsInvalidationEvent creates a new ViewsInvalidationEvent
func NewViewsInvalidationEvent(reason string, affectedRows int) *ViewsInvalidationEvent {
	return &ViewsInvalidationEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeViewsInvalidation, AggregateTypeInvoice, uuid.Nil),
		Reason:          reason,
		AffectedRows:    affectedRows,
	}
}
