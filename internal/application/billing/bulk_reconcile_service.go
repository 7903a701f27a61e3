package billing

import (
	"context"
	"errors"
	"time"

	"github.com/invoicedesk/backend/internal/domain/billing"
	"github.com/invoicedesk/backend/internal/domain/shared"
	"github.com/invoicedesk/backend/internal/infrastructure/retry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentDateLayout is the date format expected in reconciliation sheets
const PaymentDateLayout = "2006-01-02"

// ReconciliationRow is one loose row from an uploaded payment sheet. All
// fields arrive as text; the reconciler owns parsing and validation.
type ReconciliationRow struct {
	LineNumber    int
	InvoiceNumber string
	TransactionID string
	Amount        string
	PaymentDate   string
	Mode          string
	ChequeNumber  string
	BankName      string
	Remarks       string
}

// RowOutcome records the terminal outcome of a single row
type RowOutcome struct {
	LineNumber    int    `json:"line_number"`
	InvoiceNumber string `json:"invoice_number"`
	Detail        string `json:"detail,omitempty"`
}

// ReconciliationReport summarizes a batch. Every input row lands in exactly
// one of the outcome lists.
type ReconciliationReport struct {
	TotalRows     int          `json:"total_rows"`
	Processed     []RowOutcome `json:"processed"`
	Errors        []RowOutcome `json:"errors"`
	NotFound      []RowOutcome `json:"not_found"`
	NetworkErrors []RowOutcome `json:"network_errors"`
	Duplicates    []RowOutcome `json:"duplicates"`
}

// OutcomeCount returns the number of rows assigned a terminal outcome
func (r *ReconciliationReport) OutcomeCount() int {
	return len(r.Processed) + len(r.Errors) + len(r.NotFound) + len(r.NetworkErrors) + len(r.Duplicates)
}

// BulkReconcileService applies a sheet of payment rows against invoices. The
// batch never aborts: each row gets exactly one terminal outcome and the
// report always covers the whole input.
type BulkReconcileService struct {
	invoiceRepo    billing.InvoiceRepository
	paymentService *PaymentApplicationService
	eventBus       shared.EventPublisher
	lookupRetry    retry.Policy
	logger         *zap.Logger
}

// NewBulkReconcileService creates a new BulkReconcileService with the default
// lookup retry policy
func NewBulkReconcileService(
	invoiceRepo billing.InvoiceRepository,
	paymentService *PaymentApplicationService,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *BulkReconcileService {
	policy := retry.Default()
	policy.Permanent = func(err error) bool {
		return errors.Is(err, shared.ErrNotFound)
	}
	return &BulkReconcileService{
		invoiceRepo:    invoiceRepo,
		paymentService: paymentService,
		eventBus:       eventBus,
		lookupRetry:    policy,
		logger:         logger,
	}
}

// Reconcile processes the rows in input order against invoices of the given
// reporting period. Rows are processed sequentially, so the second of two
// identical rows in one sheet sees the first as an already persisted
// duplicate.
func (s *BulkReconcileService) Reconcile(ctx context.Context, period shared.Period, rows []ReconciliationRow) *ReconciliationReport {
	report := &ReconciliationReport{TotalRows: len(rows)}

	for _, row := range rows {
		s.reconcileRow(ctx, period, row, report)
	}

	if err := s.eventBus.Publish(ctx, billing.NewViewsInvalidationEvent("bulk_reconciliation", len(report.Processed))); err != nil {
		s.logger.Warn("failed to publish views invalidation", zap.Error(err))
	}

	s.logger.Info("bulk reconciliation finished",
		zap.Int("total", report.TotalRows),
		zap.Int("processed", len(report.Processed)),
		zap.Int("errors", len(report.Errors)),
		zap.Int("not_found", len(report.NotFound)),
		zap.Int("network_errors", len(report.NetworkErrors)),
		zap.Int("duplicates", len(report.Duplicates)))

	return report
}

func (s *BulkReconcileService) reconcileRow(ctx context.Context, period shared.Period, row ReconciliationRow, report *ReconciliationReport) {
	outcome := RowOutcome{LineNumber: row.LineNumber, InvoiceNumber: row.InvoiceNumber}

	number, err := billing.ParseInvoiceNumber(row.InvoiceNumber)
	if err != nil {
		outcome.Detail = err.Error()
		report.Errors = append(report.Errors, outcome)
		return
	}

	// Resolution comes before field validation: a row that neither resolves
	// nor parses is reported unresolved, so operators chase the invoice first.
	invoice, err := s.lookupInvoice(ctx, number, period)
	if err != nil {
		outcome.Detail = err.Error()
		if errors.Is(err, shared.ErrNotFound) {
			report.NotFound = append(report.NotFound, outcome)
		} else {
			report.NetworkErrors = append(report.NetworkErrors, outcome)
		}
		return
	}

	amount, err := decimal.NewFromString(row.Amount)
	if err != nil || !amount.IsPositive() {
		outcome.Detail = "payment amount must be a positive number, got " + row.Amount
		report.Errors = append(report.Errors, outcome)
		return
	}

	paymentDate, err := time.Parse(PaymentDateLayout, row.PaymentDate)
	if err != nil {
		outcome.Detail = "payment date must be in " + PaymentDateLayout + " format, got " + row.PaymentDate
		report.Errors = append(report.Errors, outcome)
		return
	}

	mode := billing.PaymentMode(row.Mode)
	if row.Mode == "" {
		mode = billing.PaymentModeCash
	}
	if !mode.IsValid() {
		outcome.Detail = "unknown payment mode " + row.Mode
		report.Errors = append(report.Errors, outcome)
		return
	}

	_, err = s.paymentService.ApplyPayment(ctx, ApplyPaymentRequest{
		InvoiceID:     invoice.ID,
		TransactionID: row.TransactionID,
		Amount:        amount,
		PaymentDate:   paymentDate,
		Mode:          mode,
		ChequeNumber:  row.ChequeNumber,
		BankName:      row.BankName,
		Remarks:       row.Remarks,
	})
	if err != nil {
		outcome.Detail = err.Error()
		if errors.Is(err, shared.ErrDuplicatePayment) {
			report.Duplicates = append(report.Duplicates, outcome)
		} else {
			report.Errors = append(report.Errors, outcome)
		}
		return
	}

	report.Processed = append(report.Processed, outcome)
}

// lookupInvoice resolves an invoice by number, retrying transient lookup
// failures. NotFound is permanent and never retried.
func (s *BulkReconcileService) lookupInvoice(ctx context.Context, number billing.InvoiceNumber, period shared.Period) (*billing.Invoice, error) {
	var invoice *billing.Invoice
	err := s.lookupRetry.Do(ctx, func(ctx context.Context) error {
		found, err := s.invoiceRepo.FindByNumber(ctx, number, period)
		if err != nil {
			return err
		}
		invoice = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}
