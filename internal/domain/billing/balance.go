package billing

import "github.com/shopspring/decimal"

// BalanceResult is the outcome of a balance computation
type BalanceResult struct {
	Balance decimal.Decimal `json:"balance"`
	Status  PaymentStatus   `json:"status"`
}

// ComputeInvoiceBalance computes the outstanding balance and payment status
// of an invoice from the complete set of its payments. It is a pure function
// so reconciliation audits can call it independently of stored state.
func ComputeInvoiceBalance(inv *Invoice, payments []*Payment) BalanceResult {
	total := inv.Total()

	applied := decimal.Zero
	for _, p := range payments {
		applied = applied.Add(p.Amount)
	}

	balance := total.Sub(applied)
	return BalanceResult{
		Balance: balance,
		Status:  DerivePaymentStatus(balance, total),
	}
}
