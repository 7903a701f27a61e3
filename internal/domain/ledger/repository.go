package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/invoicedesk/backend/internal/domain/shared"
)

// EntryRepository persists append-only ledger entries
type EntryRepository interface {
	// Append persists new ledger entries in order
	Append(ctx context.Context, entries ...*Entry) error
	// ListByCustomer lists a customer's entries chronologically, with the
	// creation time bounded to the given reporting period when it is set
	ListByCustomer(ctx context.Context, customerID uuid.UUID, period shared.Period) ([]*Entry, error)
	// LatestByCustomer returns the customer's most recent entry, or
	// shared.ErrNotFound when the ledger is empty
	LatestByCustomer(ctx context.Context, customerID uuid.UUID) (*Entry, error)
	// RebuildRunningBalances replays the customer's full ledger and rewrites
	// every running balance, for recovery after backdated inserts
	RebuildRunningBalances(ctx context.Context, customerID uuid.UUID) error
}
