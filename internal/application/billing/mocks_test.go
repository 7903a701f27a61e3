package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/invoicedesk/backend/internal/domain/billing"
	"github.com/invoicedesk/backend/internal/domain/ledger"
	"github.com/invoicedesk/backend/internal/domain/partner"
	"github.com/invoicedesk/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type mockInvoiceRepository struct {
	mock.Mock
}

func (m *mockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, id)
	if inv := args.Get(0); inv != nil {
		return inv.(*billing.Invoice), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockInvoiceRepository) FindByNumber(ctx context.Context, number billing.InvoiceNumber, period shared.Period) (*billing.Invoice, error) {
	args := m.Called(ctx, number, period)
	if inv := args.Get(0); inv != nil {
		return inv.(*billing.Invoice), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *mockInvoiceRepository) SaveWithLock(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *mockInvoiceRepository) ListUncleared(ctx context.Context, filter shared.Filter) ([]*billing.Invoice, error) {
	args := m.Called(ctx, filter)
	if list := args.Get(0); list != nil {
		return list.([]*billing.Invoice), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPaymentRepository struct {
	mock.Mock
}

func (m *mockPaymentRepository) Create(ctx context.Context, payment *billing.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *mockPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Payment, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*billing.Payment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPaymentRepository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*billing.Payment, error) {
	args := m.Called(ctx, invoiceID)
	if list := args.Get(0); list != nil {
		return list.([]*billing.Payment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPaymentRepository) ExistsDuplicate(ctx context.Context, invoiceID uuid.UUID, transactionID string, paymentDate time.Time, amount decimal.Decimal) (bool, error) {
	args := m.Called(ctx, invoiceID, transactionID, paymentDate, amount)
	return args.Bool(0), args.Error(1)
}

type mockLedgerRepository struct {
	mock.Mock
}

func (m *mockLedgerRepository) Append(ctx context.Context, entries ...*ledger.Entry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *mockLedgerRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID, period shared.Period) ([]*ledger.Entry, error) {
	args := m.Called(ctx, customerID, period)
	if list := args.Get(0); list != nil {
		return list.([]*ledger.Entry), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLedgerRepository) LatestByCustomer(ctx context.Context, customerID uuid.UUID) (*ledger.Entry, error) {
	args := m.Called(ctx, customerID)
	if e := args.Get(0); e != nil {
		return e.(*ledger.Entry), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLedgerRepository) RebuildRunningBalances(ctx context.Context, customerID uuid.UUID) error {
	args := m.Called(ctx, customerID)
	return args.Error(0)
}

type mockCustomerRepository struct {
	mock.Mock
}

func (m *mockCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	args := m.Called(ctx, id)
	if c := args.Get(0); c != nil {
		return c.(*partner.Customer), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCustomerRepository) FindByName(ctx context.Context, name string) (*partner.Customer, error) {
	args := m.Called(ctx, name)
	if c := args.Get(0); c != nil {
		return c.(*partner.Customer), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) Send(ctx context.Context, destination, body string, correlation DispatchCorrelation) error {
	args := m.Called(ctx, destination, body, correlation)
	return args.Error(0)
}

// passthroughTxManager runs the function directly so services under test see
// the same context inside and outside the transaction
type passthroughTxManager struct{}

func (passthroughTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// capturingEventBus records every published event
type capturingEventBus struct {
	events []shared.DomainEvent
}

func (b *capturingEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	b.events = append(b.events, events...)
	return nil
}

func (b *capturingEventBus) typesPublished() []string {
	types := make([]string, 0, len(b.events))
	for _, e := range b.events {
		types = append(types, e.EventType())
	}
	return types
}
