package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/invoicedesk/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// InvoiceRepository persists invoice aggregates
type InvoiceRepository interface {
	// FindByID finds an invoice by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	// FindByNumber finds an invoice by its composite number, with the issue
	// date bounded to the given reporting period
	FindByNumber(ctx context.Context, number InvoiceNumber, period shared.Period) (*Invoice, error)
	// Save creates or updates an invoice
	Save(ctx context.Context, invoice *Invoice) error
	// SaveWithLock updates an invoice with an optimistic version check,
	// returning shared.ErrConcurrencyConflict on a stale version
	SaveWithLock(ctx context.Context, invoice *Invoice) error
	// ListUncleared lists invoices not yet marked cleared, for reminder sweeps
	ListUncleared(ctx context.Context, filter shared.Filter) ([]*Invoice, error)
}

// PaymentRepository persists immutable payment records
type PaymentRepository interface {
	// Create persists a new payment record
	Create(ctx context.Context, payment *Payment) error
	// FindByID finds a payment by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	// ListByInvoice lists all payments applied to an invoice
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*Payment, error)
	// ExistsDuplicate reports whether a payment with the same invoice,
	// external transaction id, date and amount has already been persisted
	ExistsDuplicate(ctx context.Context, invoiceID uuid.UUID, transactionID string, paymentDate time.Time, amount decimal.Decimal) (bool, error)
}
