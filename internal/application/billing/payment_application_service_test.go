package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/invoicedesk/backend/internal/domain/billing"
	"github.com/invoicedesk/backend/internal/domain/ledger"
	"github.com/invoicedesk/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func fixtureInvoice(t *testing.T, total int64) *billing.Invoice {
	t.Helper()
	inv, err := billing.NewInvoice(
		billing.InvoiceNumber{Stamp: 1755072000, Sequence: 12},
		uuid.New(),
		time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC),
		decimal.NewFromInt(total), decimal.Zero, decimal.Zero, decimal.Zero,
	)
	require.NoError(t, err)
	inv.ClearDomainEvents()
	return inv
}

func ledgerEntryAt(t *testing.T, customerID uuid.UUID, balance int64) *ledger.Entry {
	t.Helper()
	e, err := ledger.NewInvoiceEntry(customerID, uuid.New(), decimal.NewFromInt(balance), "")
	require.NoError(t, err)
	e.RunningBalance = decimal.NewFromInt(balance)
	return e
}

func newPaymentServiceFixture() (*PaymentApplicationService, *mockInvoiceRepository, *mockPaymentRepository, *mockLedgerRepository, *capturingEventBus) {
	invoiceRepo := new(mockInvoiceRepository)
	paymentRepo := new(mockPaymentRepository)
	ledgerRepo := new(mockLedgerRepository)
	bus := &capturingEventBus{}
	svc := NewPaymentApplicationService(invoiceRepo, paymentRepo, ledgerRepo, passthroughTxManager{}, bus, zap.NewNop())
	return svc, invoiceRepo, paymentRepo, ledgerRepo, bus
}

func TestApplyPayment(t *testing.T) {
	ctx := context.Background()
	paymentDate := time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC)

	t.Run("applies partial payment and continues the ledger", func(t *testing.T) {
		svc, invoiceRepo, paymentRepo, ledgerRepo, bus := newPaymentServiceFixture()
		inv := fixtureInvoice(t, 1000)

		invoiceRepo.On("FindByID", ctx, inv.ID).Return(inv, nil)
		paymentRepo.On("ExistsDuplicate", ctx, inv.ID, "TXN-001", paymentDate, decimal.NewFromInt(400)).Return(false, nil)
		paymentRepo.On("Create", ctx, mock.AnythingOfType("*billing.Payment")).Return(nil)
		invoiceRepo.On("SaveWithLock", ctx, inv).Return(nil)
		ledgerRepo.On("LatestByCustomer", ctx, inv.CustomerID).Return(ledgerEntryAt(t, inv.CustomerID, 1000), nil)

		var appended []*ledger.Entry
		ledgerRepo.On("Append", ctx, mock.AnythingOfType("[]*ledger.Entry")).Run(func(args mock.Arguments) {
			appended = args.Get(1).([]*ledger.Entry)
		}).Return(nil)

		result, err := svc.ApplyPayment(ctx, ApplyPaymentRequest{
			InvoiceID:     inv.ID,
			TransactionID: "TXN-001",
			Amount:        decimal.NewFromInt(400),
			PaymentDate:   paymentDate,
			Mode:          billing.PaymentModeCash,
		})
		require.NoError(t, err)

		assert.True(t, result.NewBalance.Equal(decimal.NewFromInt(600)))
		assert.Equal(t, billing.PaymentStatusPartial, result.Status)
		require.Len(t, appended, 1)
		assert.Equal(t, ledger.EntryTypePayment, appended[0].Type)
		assert.True(t, appended[0].RunningBalance.Equal(decimal.NewFromInt(600)))
		assert.Contains(t, bus.typesPublished(), billing.EventTypeInvoicePaymentApplied)
	})

	t.Run("ledger starts from zero for a new customer", func(t *testing.T) {
		svc, invoiceRepo, paymentRepo, ledgerRepo, _ := newPaymentServiceFixture()
		inv := fixtureInvoice(t, 1000)

		invoiceRepo.On("FindByID", ctx, inv.ID).Return(inv, nil)
		paymentRepo.On("ExistsDuplicate", ctx, inv.ID, "TXN-002", paymentDate, decimal.NewFromInt(100)).Return(false, nil)
		paymentRepo.On("Create", ctx, mock.AnythingOfType("*billing.Payment")).Return(nil)
		invoiceRepo.On("SaveWithLock", ctx, inv).Return(nil)
		ledgerRepo.On("LatestByCustomer", ctx, inv.CustomerID).Return(nil, shared.ErrNotFound)

		var appended []*ledger.Entry
		ledgerRepo.On("Append", ctx, mock.AnythingOfType("[]*ledger.Entry")).Run(func(args mock.Arguments) {
			appended = args.Get(1).([]*ledger.Entry)
		}).Return(nil)

		_, err := svc.ApplyPayment(ctx, ApplyPaymentRequest{
			InvoiceID:     inv.ID,
			TransactionID: "TXN-002",
			Amount:        decimal.NewFromInt(100),
			PaymentDate:   paymentDate,
			Mode:          billing.PaymentModeCash,
		})
		require.NoError(t, err)

		require.Len(t, appended, 1)
		assert.True(t, appended[0].RunningBalance.Equal(decimal.NewFromInt(-100)))
	})

	t.Run("rejects duplicate payments before any write", func(t *testing.T) {
		svc, invoiceRepo, paymentRepo, _, _ := newPaymentServiceFixture()
		inv := fixtureInvoice(t, 1000)

		invoiceRepo.On("FindByID", ctx, inv.ID).Return(inv, nil)
		paymentRepo.On("ExistsDuplicate", ctx, inv.ID, "TXN-001", paymentDate, decimal.NewFromInt(400)).Return(true, nil)

		_, err := svc.ApplyPayment(ctx, ApplyPaymentRequest{
			InvoiceID:     inv.ID,
			TransactionID: "TXN-001",
			Amount:        decimal.NewFromInt(400),
			PaymentDate:   paymentDate,
			Mode:          billing.PaymentModeCash,
		})

		require.ErrorIs(t, err, shared.ErrDuplicatePayment)
		paymentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		assert.True(t, inv.BalanceAmount.Equal(decimal.NewFromInt(1000)), "invoice unchanged")
	})

	t.Run("rejects unknown invoice", func(t *testing.T) {
		svc, invoiceRepo, _, _, _ := newPaymentServiceFixture()
		id := uuid.New()

		invoiceRepo.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound)

		_, err := svc.ApplyPayment(ctx, ApplyPaymentRequest{
			InvoiceID:     id,
			TransactionID: "TXN-001",
			Amount:        decimal.NewFromInt(400),
			PaymentDate:   paymentDate,
			Mode:          billing.PaymentModeCash,
		})

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("rejects non-positive amount without loading the invoice", func(t *testing.T) {
		svc, invoiceRepo, _, _, _ := newPaymentServiceFixture()

		_, err := svc.ApplyPayment(ctx, ApplyPaymentRequest{
			InvoiceID:     uuid.New(),
			TransactionID: "TXN-001",
			Amount:        decimal.Zero,
			PaymentDate:   paymentDate,
			Mode:          billing.PaymentModeCash,
		})

		require.Error(t, err)
		invoiceRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("propagates optimistic lock conflicts and skips the ledger", func(t *testing.T) {
		svc, invoiceRepo, paymentRepo, ledgerRepo, _ := newPaymentServiceFixture()
		inv := fixtureInvoice(t, 1000)

		invoiceRepo.On("FindByID", ctx, inv.ID).Return(inv, nil)
		paymentRepo.On("ExistsDuplicate", ctx, inv.ID, "TXN-001", paymentDate, decimal.NewFromInt(400)).Return(false, nil)
		paymentRepo.On("Create", ctx, mock.AnythingOfType("*billing.Payment")).Return(nil)
		invoiceRepo.On("SaveWithLock", ctx, inv).Return(shared.ErrConcurrencyConflict)

		_, err := svc.ApplyPayment(ctx, ApplyPaymentRequest{
			InvoiceID:     inv.ID,
			TransactionID: "TXN-001",
			Amount:        decimal.NewFromInt(400),
			PaymentDate:   paymentDate,
			Mode:          billing.PaymentModeCash,
		})

		require.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		ledgerRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("wraps ledger read failures as persistence errors", func(t *testing.T) {
		svc, invoiceRepo, paymentRepo, ledgerRepo, _ := newPaymentServiceFixture()
		inv := fixtureInvoice(t, 1000)

		invoiceRepo.On("FindByID", ctx, inv.ID).Return(inv, nil)
		paymentRepo.On("ExistsDuplicate", ctx, inv.ID, "TXN-001", paymentDate, decimal.NewFromInt(400)).Return(false, nil)
		paymentRepo.On("Create", ctx, mock.AnythingOfType("*billing.Payment")).Return(nil)
		invoiceRepo.On("SaveWithLock", ctx, inv).Return(nil)
		ledgerRepo.On("LatestByCustomer", ctx, inv.CustomerID).Return(nil, errors.New("connection reset"))

		_, err := svc.ApplyPayment(ctx, ApplyPaymentRequest{
			InvoiceID:     inv.ID,
			TransactionID: "TXN-001",
			Amount:        decimal.NewFromInt(400),
			PaymentDate:   paymentDate,
			Mode:          billing.PaymentModeCash,
		})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "PERSISTENCE", domainErr.Code)
	})
}

func TestRecordInvoice(t *testing.T) {
	ctx := context.Background()

	t.Run("persists invoice and debits the ledger", func(t *testing.T) {
		svc, invoiceRepo, _, ledgerRepo, bus := newPaymentServiceFixture()
		inv := fixtureInvoice(t, 1000)

		invoiceRepo.On("Save", ctx, inv).Return(nil)
		ledgerRepo.On("LatestByCustomer", ctx, inv.CustomerID).Return(nil, shared.ErrNotFound)

		var appended []*ledger.Entry
		ledgerRepo.On("Append", ctx, mock.AnythingOfType("[]*ledger.Entry")).Run(func(args mock.Arguments) {
			appended = args.Get(1).([]*ledger.Entry)
		}).Return(nil)

		require.NoError(t, svc.RecordInvoice(ctx, inv))

		require.Len(t, appended, 1)
		assert.Equal(t, ledger.EntryTypeInvoice, appended[0].Type)
		assert.True(t, appended[0].RunningBalance.Equal(decimal.NewFromInt(1000)))
		assert.Empty(t, bus.events, "events were cleared in the fixture")
	})
}
