package shared

import "context"

// TransactionManager runs a function within a single storage transaction.
// Repositories participating in the transaction resolve it from the context.
type TransactionManager interface {
	// WithinTransaction executes fn atomically; any error rolls back all writes
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Filter holds common list filtering options
type Filter struct {
	Page     int
	PageSize int
	SortBy   string
	SortDesc bool
}

// Offset returns the row offset for the current page
func (f Filter) Offset() int {
	if f.Page <= 0 || f.PageSize <= 0 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}
