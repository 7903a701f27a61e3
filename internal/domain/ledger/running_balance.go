package ledger

import (
	"sort"

	"github.com/invoicedesk/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SortEntries orders entries chronologically with deterministic tie-breaking
func SortEntries(entries []*Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].OccurredBefore(entries[j])
	})
}

// ComputeRunningLedger sorts the entries chronologically and assigns each one
// its running balance starting from zero. The input slice is sorted in place
// and the entries are mutated.
func ComputeRunningLedger(entries []*Entry) []*Entry {
	return ContinueRunningLedger(decimal.Zero, entries)
}

// ContinueRunningLedger assigns running balances to the entries starting from
// a prior balance, for appending to an existing ledger without replaying it
func ContinueRunningLedger(prior decimal.Decimal, entries []*Entry) []*Entry {
	SortEntries(entries)

	balance := prior
	for _, e := range entries {
		balance = balance.Add(e.SignedAmount())
		e.RunningBalance = balance
	}
	return entries
}

// VerifyRunningBalances checks that every stored running balance matches the
// recurrence over the chronological sequence, returning the first entry that
// disagrees
func VerifyRunningBalances(entries []*Entry) error {
	sorted := make([]*Entry, len(entries))
	copy(sorted, entries)
	SortEntries(sorted)

	balance := decimal.Zero
	for _, e := range sorted {
		balance = balance.Add(e.SignedAmount())
		if !e.RunningBalance.Equal(balance) {
			return shared.NewDomainError("LEDGER_MISMATCH",
				"Ledger entry "+e.ID.String()+" carries running balance "+e.RunningBalance.String()+
					", recomputed "+balance.String())
		}
	}
	return nil
}
