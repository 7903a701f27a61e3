package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/invoicedesk/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentMode represents how a payment was made
type PaymentMode string

const (
	PaymentModeCash         PaymentMode = "CASH"
	PaymentModeCheque       PaymentMode = "CHEQUE"
	PaymentModeBankTransfer PaymentMode = "BANK_TRANSFER"
	PaymentModeOnline       PaymentMode = "ONLINE"
)

// IsValid checks if the payment mode is valid
func (m PaymentMode) IsValid() bool {
	switch m {
	case PaymentModeCash, PaymentModeCheque, PaymentModeBankTransfer, PaymentModeOnline:
		return true
	}
	return false
}

// String returns the string representation of PaymentMode
func (m PaymentMode) String() string {
	return string(m)
}

// Payment is an immutable record of a payment applied to an invoice.
// Once created it is never updated or deleted; corrections are made with new
// records.
type Payment struct {
	shared.BaseEntity
	InvoiceID     uuid.UUID
	TransactionID string // Externally supplied, used for duplicate detection
	Amount        decimal.Decimal
	PaymentDate   time.Time
	Mode          PaymentMode
	ChequeNumber  string
	BankName      string
	Remarks       string
}

// NewPayment creates a new payment record
func NewPayment(
	invoiceID uuid.UUID,
	transactionID string,
	amount decimal.Decimal,
	paymentDate time.Time,
	mode PaymentMode,
) (*Payment, error) {
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	if amount.IsNegative() || amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if paymentDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Payment date is required")
	}
	if !mode.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_MODE", "Payment mode is not valid")
	}

	return &Payment{
		BaseEntity:    shared.NewBaseEntity(),
		InvoiceID:     invoiceID,
		TransactionID: transactionID,
		Amount:        amount,
		PaymentDate:   paymentDate,
		Mode:          mode,
	}, nil
}

// WithChequeDetails sets the cheque number and bank name for cheque payments
func (p *Payment) WithChequeDetails(chequeNumber, bankName string) *Payment {
	p.ChequeNumber = chequeNumber
	p.BankName = bankName
	return p
}

// WithRemarks sets free-text remarks on the payment
func (p *Payment) WithRemarks(remarks string) *Payment {
	p.Remarks = remarks
	return p
}
