package partner

import (
	"context"

	"github.com/google/uuid"
)

// CustomerRepository reads customer master data
type CustomerRepository interface {
	// FindByID finds a customer by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	// FindByName finds a customer by exact name
	FindByName(ctx context.Context, name string) (*Customer, error)
}
