package billing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/invoicedesk/backend/internal/domain/billing"
	"github.com/invoicedesk/backend/internal/domain/ledger"
	"github.com/invoicedesk/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ApplyPaymentRequest carries one payment to apply to an invoice
type ApplyPaymentRequest struct {
	InvoiceID     uuid.UUID           `json:"invoice_id" binding:"required"`
	TransactionID string              `json:"transaction_id"`
	Amount        decimal.Decimal     `json:"amount" binding:"required"`
	PaymentDate   time.Time           `json:"payment_date" binding:"required"`
	Mode          billing.PaymentMode `json:"mode" binding:"required"`
	ChequeNumber  string              `json:"cheque_number"`
	BankName      string              `json:"bank_name"`
	Remarks       string              `json:"remarks"`
}

// ApplyPaymentResult reports the invoice state after the payment was applied
type ApplyPaymentResult struct {
	PaymentID     uuid.UUID             `json:"payment_id"`
	InvoiceID     uuid.UUID             `json:"invoice_id"`
	InvoiceNumber string                `json:"invoice_number"`
	NewBalance    decimal.Decimal       `json:"new_balance"`
	Status        billing.PaymentStatus `json:"status"`
	LedgerEntryID uuid.UUID             `json:"ledger_entry_id"`
}

// PaymentApplicationService applies payments to invoices. Each application
// persists the payment, updates the invoice balance and status, and appends a
// ledger entry, all inside one transaction.
type PaymentApplicationService struct {
	invoiceRepo billing.InvoiceRepository
	paymentRepo billing.PaymentRepository
	ledgerRepo  ledger.EntryRepository
	txManager   shared.TransactionManager
	eventBus    shared.EventPublisher
	logger      *zap.Logger
}

// NewPaymentApplicationService creates a new PaymentApplicationService
func NewPaymentApplicationService(
	invoiceRepo billing.InvoiceRepository,
	paymentRepo billing.PaymentRepository,
	ledgerRepo ledger.EntryRepository,
	txManager shared.TransactionManager,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *PaymentApplicationService {
	return &PaymentApplicationService{
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		ledgerRepo:  ledgerRepo,
		txManager:   txManager,
		eventBus:    eventBus,
		logger:      logger,
	}
}

// ApplyPayment validates the request, rejects duplicates, and applies the
// payment atomically. The ledger entry's running balance continues from the
// customer's latest entry.
func (s *PaymentApplicationService) ApplyPayment(ctx context.Context, req ApplyPaymentRequest) (*ApplyPaymentResult, error) {
	payment, err := billing.NewPayment(req.InvoiceID, req.TransactionID, req.Amount, req.PaymentDate, req.Mode)
	if err != nil {
		return nil, err
	}
	payment.WithChequeDetails(req.ChequeNumber, req.BankName).WithRemarks(req.Remarks)

	invoice, err := s.invoiceRepo.FindByID(ctx, req.InvoiceID)
	if err != nil {
		return nil, err
	}

	duplicate, err := s.paymentRepo.ExistsDuplicate(ctx, req.InvoiceID, req.TransactionID, req.PaymentDate, req.Amount)
	if err != nil {
		return nil, shared.NewDomainError("PERSISTENCE", "Failed to check for duplicate payment: "+err.Error())
	}
	if duplicate {
		return nil, shared.ErrDuplicatePayment
	}

	newBalance, err := invoice.ApplyPayment(req.Amount)
	if err != nil {
		return nil, err
	}

	entry, err := ledger.NewPaymentEntry(invoice.CustomerID, invoice.ID, req.Amount,
		"Payment "+req.TransactionID+" against invoice "+invoice.Number.String())
	if err != nil {
		return nil, err
	}

	err = s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.paymentRepo.Create(txCtx, payment); err != nil {
			return shared.NewDomainError("PERSISTENCE", "Failed to persist payment: "+err.Error())
		}
		if err := s.invoiceRepo.SaveWithLock(txCtx, invoice); err != nil {
			return err
		}

		prior, err := s.priorBalance(txCtx, invoice.CustomerID)
		if err != nil {
			return err
		}
		ledger.ContinueRunningLedger(prior, []*ledger.Entry{entry})

		if err := s.ledgerRepo.Append(txCtx, entry); err != nil {
			return shared.NewDomainError("PERSISTENCE", "Failed to append ledger entry: "+err.Error())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.eventBus.Publish(ctx, invoice.GetDomainEvents()...); err != nil {
		s.logger.Warn("failed to publish payment events",
			zap.String("invoice_number", invoice.Number.String()),
			zap.Error(err))
	}
	invoice.ClearDomainEvents()

	s.logger.Info("payment applied",
		zap.String("invoice_number", invoice.Number.String()),
		zap.String("transaction_id", req.TransactionID),
		zap.String("amount", req.Amount.String()),
		zap.String("new_balance", newBalance.String()),
		zap.String("status", invoice.PaymentStatus.String()))

	return &ApplyPaymentResult{
		PaymentID:     payment.ID,
		InvoiceID:     invoice.ID,
		InvoiceNumber: invoice.Number.String(),
		NewBalance:    newBalance,
		Status:        invoice.PaymentStatus,
		LedgerEntryID: entry.ID,
	}, nil
}

// RecordInvoice persists a new invoice and debits the customer's ledger with
// its total, atomically.
func (s *PaymentApplicationService) RecordInvoice(ctx context.Context, invoice *billing.Invoice) error {
	entry, err := ledger.NewInvoiceEntry(invoice.CustomerID, invoice.ID, invoice.Total(),
		"Invoice "+invoice.Number.String())
	if err != nil {
		return err
	}

	err = s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.invoiceRepo.Save(txCtx, invoice); err != nil {
			return err
		}

		prior, err := s.priorBalance(txCtx, invoice.CustomerID)
		if err != nil {
			return err
		}
		ledger.ContinueRunningLedger(prior, []*ledger.Entry{entry})

		if err := s.ledgerRepo.Append(txCtx, entry); err != nil {
			return shared.NewDomainError("PERSISTENCE", "Failed to append ledger entry: "+err.Error())
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.eventBus.Publish(ctx, invoice.GetDomainEvents()...); err != nil {
		s.logger.Warn("failed to publish invoice events",
			zap.String("invoice_number", invoice.Number.String()),
			zap.Error(err))
	}
	invoice.ClearDomainEvents()

	return nil
}

func (s *PaymentApplicationService) priorBalance(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error) {
	latest, err := s.ledgerRepo.LatestByCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, shared.NewDomainError("PERSISTENCE", "Failed to read latest ledger entry: "+err.Error())
	}
	return latest.RunningBalance, nil
}
